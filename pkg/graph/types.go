package graph

import (
	"github.com/mvoltz/tether/pkg/track"
)

// AssetKind distinguishes asset payload categories. The kind travels on
// the wire as its integer value; unknown kinds round-trip unchanged.
type AssetKind int32

const (
	// KindBlob is an opaque binary payload.
	KindBlob AssetKind = iota
	// KindText is UTF-8 text stored in the data bytes.
	KindText
	// KindImage is an encoded image payload.
	KindImage
)

var kindToString = map[AssetKind]string{
	KindBlob:  "blob",
	KindText:  "text",
	KindImage: "image",
}

var kindFromString = map[string]AssetKind{
	"blob":  KindBlob,
	"text":  KindText,
	"image": KindImage,
}

// String returns the JSON name of the kind, or "blob" for unknown kinds.
func (k AssetKind) String() string {
	if s, ok := kindToString[k]; ok {
		return s
	}
	return "blob"
}

// Asset is a shared payload that any number of nodes may alias.
// Assets are owned by the document through track.Shared boxes; nodes only
// ever hold non-owning pointers to them.
type Asset struct {
	Name string
	Kind AssetKind
	Data []byte
}

// Node is a labeled vertex in the document graph. Asset is a non-owning
// alias into one of the document's shared assets, or nil for a detached
// node.
type Node struct {
	Label string
	Asset *Asset
}

// Doc is a titled object graph: shared asset owners plus the nodes that
// alias them. The zero value is a valid empty document.
type Doc struct {
	Title  string
	Assets []*track.Shared[Asset]
	Nodes  []Node
}

// Stats summarizes a document's aliasing structure.
type Stats struct {
	Assets    int            // shared owners
	Nodes     int            // graph vertices
	Bound     int            // nodes aliasing an asset
	DataBytes int            // total asset payload size
	FanIn     map[string]int // asset name -> number of aliasing nodes
}

// Stats computes aliasing statistics for the document.
func (d *Doc) Stats() Stats {
	st := Stats{
		Assets: len(d.Assets),
		Nodes:  len(d.Nodes),
		FanIn:  make(map[string]int, len(d.Assets)),
	}
	for _, sh := range d.Assets {
		if sh == nil {
			continue
		}
		st.DataBytes += len(sh.Value.Data)
		st.FanIn[sh.Value.Name] = 0
	}
	for _, n := range d.Nodes {
		if n.Asset == nil {
			continue
		}
		st.Bound++
		st.FanIn[n.Asset.Name]++
	}
	return st
}

// AssetOf returns the shared owner box whose value n aliases, or nil for
// a detached node or an alias pointing outside the document.
func (d *Doc) AssetOf(n Node) *track.Shared[Asset] {
	if n.Asset == nil {
		return nil
	}
	for _, sh := range d.Assets {
		if sh != nil && n.Asset == &sh.Value {
			return sh
		}
	}
	return nil
}
