// Package pkg provides the core libraries of the tether toolkit.
//
// # Overview
//
// Tether serializes object graphs whose parts alias each other, writing
// every shared value exactly once and reconstructing the aliasing
// structure on load. The pkg directory is organized by concern:
//
//   - [track] - identity sessions, shared owners, alias pointers
//   - [seq] - generic sequence save/load over archives
//   - [archive] - binary and text archive encodings
//   - [graph] - the document model and snapshot codec
//   - [snapstore] - pluggable snapshot persistence backends
//   - [render] - node-link diagrams of aliasing structure
//   - [errors] - structured error codes shared across layers
//   - [observability] - optional instrumentation hooks
//
// # Architecture
//
// The typical data flow through tether:
//
//	Authored JSON document
//	         ↓
//	    [graph] package (document model + codec)
//	         ↓
//	    [track] + [seq] packages (identity-preserving encoding)
//	         ↓
//	    [archive] package (binary or text snapshot bytes)
//	         ↓
//	    [snapstore] package (memory, file, sqlite, redis, mongo)
//
// # Quick Start
//
//	doc, err := graph.ImportJSON("scene.json")
//	if err != nil {
//	    return err
//	}
//	data, err := graph.Marshal(doc, graph.FormatBinary)
//	if err != nil {
//	    return err
//	}
//	back, err := graph.Unmarshal(data, graph.FormatBinary)
//
// [track]: github.com/mvoltz/tether/pkg/track
// [seq]: github.com/mvoltz/tether/pkg/seq
// [archive]: github.com/mvoltz/tether/pkg/archive
// [graph]: github.com/mvoltz/tether/pkg/graph
// [snapstore]: github.com/mvoltz/tether/pkg/snapstore
// [render]: github.com/mvoltz/tether/pkg/render
// [errors]: github.com/mvoltz/tether/pkg/errors
// [observability]: github.com/mvoltz/tether/pkg/observability
package pkg
