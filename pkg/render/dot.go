// Package render visualizes a document's aliasing structure as a
// node-link diagram.
//
// Nodes appear as rounded boxes, shared assets as filled ellipses, and
// each alias as an arrow from the node to the asset it points to. The
// DOT source can be rendered to SVG in process via Graphviz.
//
//	dot := render.ToDOT(doc, render.Options{Detailed: true})
//	svg, err := render.SVG(dot)
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/mvoltz/tether/pkg/graph"
)

// Options configures diagram generation.
type Options struct {
	// Detailed includes asset kind and payload size in asset labels.
	// When false, only the asset name is shown.
	Detailed bool
}

// ToDOT converts a document to Graphviz DOT format. Assets that no node
// aliases still appear, so orphaned owners are visible in the diagram.
func ToDOT(doc *graph.Doc, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph doc {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	if doc.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", doc.Title)
	}
	buf.WriteString("\n")

	for i, sh := range doc.Assets {
		if sh == nil {
			continue
		}
		fmt.Fprintf(&buf, "  %q [label=%q, shape=ellipse, fillcolor=lightgrey];\n",
			assetID(i), assetLabel(&sh.Value, opts.Detailed))
	}

	buf.WriteString("\n")
	for i, n := range doc.Nodes {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", nodeID(i), n.Label)
	}

	buf.WriteString("\n")
	for i, n := range doc.Nodes {
		owner := doc.AssetOf(n)
		if owner == nil {
			continue
		}
		for j, sh := range doc.Assets {
			if sh == owner {
				fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", nodeID(i), assetID(j))
				break
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func assetID(i int) string { return fmt.Sprintf("asset%d", i) }
func nodeID(i int) string  { return fmt.Sprintf("node%d", i) }

func assetLabel(a *graph.Asset, detailed bool) string {
	if !detailed {
		return a.Name
	}
	parts := []string{
		fmt.Sprintf("kind: %s", a.Kind),
		fmt.Sprintf("bytes: %d", len(a.Data)),
	}
	return a.Name + "\n" + strings.Join(parts, "\n")
}

// SVG renders a DOT graph to SVG using Graphviz.
func SVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg tag to a zero-origin viewBox so
// the output embeds cleanly in web pages.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
