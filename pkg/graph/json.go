package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mvoltz/tether/pkg/errors"
	"github.com/mvoltz/tether/pkg/track"
)

// jsonDoc is the authoring format. Nodes reference assets by name; the
// importer rebinds them to pointers so sharing is explicit in memory.
type jsonDoc struct {
	Title  string      `json:"title,omitempty"`
	Assets []jsonAsset `json:"assets"`
	Nodes  []jsonNode  `json:"nodes"`
}

type jsonAsset struct {
	Name string `json:"name"`
	Kind string `json:"kind,omitempty"`
	Data []byte `json:"data,omitempty"` // base64 in JSON
}

type jsonNode struct {
	Label string `json:"label"`
	Asset string `json:"asset,omitempty"` // name of the aliased asset
}

// ReadJSON decodes an authored document from r into a Doc.
//
// The input must be a JSON object with "assets" and "nodes" arrays:
//
//	{
//	  "assets": [{"name": "tex", "kind": "blob", "data": "AAEC"}],
//	  "nodes":  [{"label": "a", "asset": "tex"}, {"label": "b", "asset": "tex"}]
//	}
//
// Asset names must be non-empty and unique; node asset references must
// name an existing asset. Violations fail with INVALID_DOCUMENT naming
// the offending asset or node. The returned Doc is independent of r.
func ReadJSON(r io.Reader) (*Doc, error) {
	var data jsonDoc
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode document")
	}

	doc := &Doc{Title: data.Title}
	byName := make(map[string]*track.Shared[Asset], len(data.Assets))

	for _, a := range data.Assets {
		if a.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidDocument, "asset with empty name")
		}
		if _, exists := byName[a.Name]; exists {
			return nil, errors.New(errors.ErrCodeInvalidDocument, "duplicate asset %q", a.Name)
		}
		kind := KindBlob
		if a.Kind != "" {
			k, ok := kindFromString[a.Kind]
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidDocument, "asset %q has unknown kind %q", a.Name, a.Kind)
			}
			kind = k
		}
		sh := track.NewShared(Asset{Name: a.Name, Kind: kind, Data: a.Data})
		byName[a.Name] = sh
		doc.Assets = append(doc.Assets, sh)
	}

	for _, n := range data.Nodes {
		node := Node{Label: n.Label}
		if n.Asset != "" {
			sh, ok := byName[n.Asset]
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidDocument, "node %q references unknown asset %q", n.Label, n.Asset)
			}
			node.Asset = &sh.Value
		}
		doc.Nodes = append(doc.Nodes, node)
	}

	return doc, nil
}

// WriteJSON encodes a Doc in the authoring format and writes it to w.
// Aliases are written as asset names; a node aliasing a value outside the
// document's owner set cannot be expressed and fails with
// INVALID_DOCUMENT. The output can be re-imported with [ReadJSON].
func WriteJSON(doc *Doc, w io.Writer) error {
	out := jsonDoc{
		Title:  doc.Title,
		Assets: make([]jsonAsset, 0, len(doc.Assets)),
		Nodes:  make([]jsonNode, 0, len(doc.Nodes)),
	}

	for _, sh := range doc.Assets {
		if sh == nil {
			continue
		}
		out.Assets = append(out.Assets, jsonAsset{
			Name: sh.Value.Name,
			Kind: sh.Value.Kind.String(),
			Data: sh.Value.Data,
		})
	}

	for _, n := range doc.Nodes {
		jn := jsonNode{Label: n.Label}
		if n.Asset != nil {
			owner := doc.AssetOf(n)
			if owner == nil {
				return errors.New(errors.ErrCodeInvalidDocument, "node %q aliases a value outside the document", n.Label)
			}
			jn.Asset = owner.Value.Name
		}
		out.Nodes = append(out.Nodes, jn)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ImportJSON reads an authored document file at path.
func ImportJSON(path string) (*Doc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ExportJSON writes doc to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(doc *Doc, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(doc, f)
}
