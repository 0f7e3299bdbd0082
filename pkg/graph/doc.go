// Package graph defines the document model the tether toolkit operates on:
// an object graph of shared assets and the nodes that alias them.
//
// A document owns its assets exactly once, through [track.Shared] boxes;
// nodes hold non-owning pointers into those assets. The package provides
// the graph traversal that drives the identity-preserving codec - owners
// are always written before the aliases that reference them - plus a
// human-editable JSON authoring format for the CLI and API.
//
// # Core Types
//
//   - [Doc]: a titled object graph of assets and nodes
//   - [Asset]: a shared payload (name, kind, data)
//   - [Node]: a labeled graph vertex aliasing at most one asset
//
// # Formats
//
//   - [FormatBinary], [FormatText]: archive snapshot encodings
//   - [ReadJSON]/[WriteJSON]: authoring format with by-name asset references
//
// Common operations:
//
//	doc, _ := graph.ImportJSON("scene.json")     // File → Doc
//	data, _ := graph.Marshal(doc, graph.FormatBinary)
//	back, _ := graph.Unmarshal(data, graph.FormatBinary)
//	report, _ := graph.Verify(doc, graph.FormatBinary)
package graph
