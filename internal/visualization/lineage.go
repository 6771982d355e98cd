// Package visualization renders the breeding lineage of a garden: plants and
// inventory seeds as nodes, parent links as edges.
package visualization

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nvandessel/verdant/internal/models"
)

// Format specifies the output format for lineage rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatDOT:
		return FormatDOT, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown format %q (want dot or json)", s)
}

// Node kinds.
const (
	KindPlant = "plant"
	KindSeed  = "seed"
	// KindAncestor is a parent that is no longer in the garden.
	KindAncestor = "ancestor"
)

// rarityColors maps rarity tiers to DOT fill colors.
var rarityColors = map[models.Rarity]string{
	models.RarityCommon:    "palegreen",
	models.RarityUncommon:  "steelblue",
	models.RarityRare:      "mediumpurple",
	models.RarityLegendary: "goldenrod",
}

// Node is one vertex of the lineage graph.
type Node struct {
	ID     string        `json:"id"`
	Kind   string        `json:"kind"`
	Label  string        `json:"label"`
	Rarity models.Rarity `json:"rarity,omitempty"`
	Stage  string        `json:"stage,omitempty"`
}

// Edge points from a parent to its offspring.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	// Selfed marks a harvest, where both parents are the same plant.
	Selfed bool `json:"selfed,omitempty"`
}

// Graph is the lineage of one garden.
type Graph struct {
	Garden    string `json:"garden"`
	Nodes     []Node `json:"nodes"`
	Edges     []Edge `json:"edges"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

// Build collects the lineage graph of g. Parents that have left the garden
// appear as ancestor nodes so every edge has both endpoints.
func Build(g *models.GardenState) *Graph {
	graph := &Graph{Garden: g.ID, Nodes: []Node{}, Edges: []Edge{}}
	known := make(map[string]bool)

	for _, p := range g.Plants {
		known[p.ID] = true
		graph.Nodes = append(graph.Nodes, Node{
			ID:     p.ID,
			Kind:   KindPlant,
			Label:  fmt.Sprintf("%s %s\n%s", shortID(p.ID), p.Genetics.Color.Expressed, p.Stage),
			Rarity: p.Rarity,
			Stage:  p.Stage.String(),
		})
	}
	for _, s := range g.Resources.Seeds {
		known[s.ID] = true
		graph.Nodes = append(graph.Nodes, Node{
			ID:     s.ID,
			Kind:   KindSeed,
			Label:  fmt.Sprintf("%s %s", shortID(s.ID), s.Genetics.Color.Expressed),
			Rarity: s.Rarity,
		})
	}

	seen := make(map[string]bool) // dedup "src|tgt"
	ancestors := make(map[string]bool)
	link := func(child string, parents *[2]string) {
		if parents == nil {
			return
		}
		selfed := parents[0] == parents[1]
		for _, parent := range parents {
			if parent == "" {
				continue
			}
			key := parent + "|" + child
			if seen[key] {
				continue
			}
			seen[key] = true
			graph.Edges = append(graph.Edges, Edge{Source: parent, Target: child, Selfed: selfed})
			if !known[parent] {
				ancestors[parent] = true
			}
		}
	}
	for _, p := range g.Plants {
		link(p.ID, p.ParentIDs)
	}
	for _, s := range g.Resources.Seeds {
		link(s.ID, s.ParentIDs)
	}

	missing := make([]string, 0, len(ancestors))
	for id := range ancestors {
		missing = append(missing, id)
	}
	sort.Strings(missing)
	for _, id := range missing {
		graph.Nodes = append(graph.Nodes, Node{ID: id, Kind: KindAncestor, Label: shortID(id)})
	}

	graph.NodeCount = len(graph.Nodes)
	graph.EdgeCount = len(graph.Edges)
	return graph
}

// RenderDOT produces a Graphviz DOT representation of the lineage graph.
func RenderDOT(graph *Graph) string {
	var b strings.Builder
	b.WriteString("digraph verdant {\n")
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  node [style=filled, fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n\n")

	for _, n := range graph.Nodes {
		switch n.Kind {
		case KindAncestor:
			fmt.Fprintf(&b, "  %q [label=%q, shape=box, style=dashed, color=gray];\n", n.ID, n.Label)
		default:
			color := rarityColors[n.Rarity]
			if color == "" {
				color = "lightgray"
			}
			shape := "box"
			if n.Kind == KindSeed {
				shape = "ellipse"
			}
			fmt.Fprintf(&b, "  %q [label=%q, shape=%s, fillcolor=%q, tooltip=%q];\n",
				n.ID, n.Label, shape, color, string(n.Rarity))
		}
	}
	b.WriteString("\n")

	for _, e := range graph.Edges {
		style := "solid"
		if e.Selfed {
			style = "dotted"
		}
		fmt.Fprintf(&b, "  %q -> %q [style=%s];\n", e.Source, e.Target, style)
	}

	b.WriteString("}\n")
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
