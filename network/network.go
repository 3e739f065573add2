// Package network projects a family graph into the node and edge view model
// consumed by the interactive network widget.
package network

import (
	"fmt"
	"strconv"
	"strings"

	"famgraph"
)

// Data is the document sent to the widget.
type Data struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one person as the widget draws it.
type Node struct {
	ID         string          `json:"id"`
	Label      string          `json:"label"`
	Title      string          `json:"title"`
	Level      int             `json:"level"`
	Color      NodeColor       `json:"color"`
	Font       FontStyle       `json:"font"`
	PersonData famgraph.Person `json:"person_data"`
}

type NodeColor struct {
	Background string `json:"background"`
	Border     string `json:"border"`
}

type FontStyle struct {
	Size  int    `json:"size"`
	Color string `json:"color"`
}

// Edge is one relationship as the widget draws it.
type Edge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Label  string `json:"label"`
	Color  string `json:"color"`
	Dashes bool   `json:"dashes"`
	Width  int    `json:"width"`
	Arrows string `json:"arrows"`
}

// EdgeStyle is the presentation of one relationship.
type EdgeStyle struct {
	Label  string
	Color  string
	Dashes bool
	Width  int
}

// Style holds the presentation policy. Generations and relationships without
// an entry use the fallbacks.
type Style struct {
	GenerationColors map[int]string
	FallbackColor    string
	Border           string
	Font             FontStyle
	Relationships    map[famgraph.Relationship]EdgeStyle
	FallbackEdge     EdgeStyle
	Arrows           string
	TitleFormat      string
}

// DefaultStyle returns the palette and Danish labels of the family site.
func DefaultStyle() Style {
	return Style{
		GenerationColors: map[int]string{
			-1: "#fffccb",
			0:  "#ffcccb", // light red for the eldest
			1:  "#add8e6", // light blue
			2:  "#90ee90", // light green
			3:  "#ffb6c1", // light pink
		},
		FallbackColor: "#f0f0f0",
		Border:        "#2B7CE9",
		Font:          FontStyle{Size: 16, Color: "#343434"},
		Relationships: map[famgraph.Relationship]EdgeStyle{
			famgraph.Child:            {Label: "Barn", Color: "#000000", Width: 1},
			famgraph.Married:          {Label: "Gift", Color: "#ff0000", Width: 2},
			famgraph.Divorced:         {Label: "Skilt", Color: "#800080", Dashes: true, Width: 1},
			famgraph.Dating:           {Label: "Kærester", Color: "#000000", Dashes: true, Width: 1},
			famgraph.Relative:         {Label: "Relateret", Color: "#808080", Width: 1},
			famgraph.ChildFromPartner: {Label: "Bonusbarn", Color: "#000000", Width: 1},
		},
		FallbackEdge: EdgeStyle{Label: "Ukendt", Color: "#000000", Width: 1},
		Arrows:       "to",
		TitleFormat:  "Click for details about %s",
	}
}

// GenerationColor returns the node background for a generation.
func (s Style) GenerationColor(generation int) string {
	if c, ok := s.GenerationColors[generation]; ok {
		return c
	}
	return s.FallbackColor
}

// Edge returns the presentation of a relationship.
func (s Style) Edge(rel famgraph.Relationship) EdgeStyle {
	if e, ok := s.Relationships[rel]; ok {
		return e
	}
	return s.FallbackEdge
}

// Project converts g into widget data.
func Project(g *famgraph.FamilyGraph, style Style) Data {
	nodes := g.Nodes()
	edges := g.Edges()
	data := Data{
		Nodes: make([]Node, 0, len(nodes)),
		Edges: make([]Edge, 0, len(edges)),
	}

	for _, n := range nodes {
		p := n.Person
		data.Nodes = append(data.Nodes, Node{
			ID:         NodeID(n.ID),
			Label:      p.Name,
			Title:      fmt.Sprintf(style.TitleFormat, p.Name),
			Level:      p.Generation,
			Color:      NodeColor{Background: style.GenerationColor(p.Generation), Border: style.Border},
			Font:       style.Font,
			PersonData: p,
		})
	}

	for _, e := range edges {
		es := style.Edge(e.Relationship)
		data.Edges = append(data.Edges, Edge{
			From:   NodeID(e.From),
			To:     NodeID(e.To),
			Label:  es.Label,
			Color:  es.Color,
			Dashes: es.Dashes,
			Width:  es.Width,
			Arrows: style.Arrows,
		})
	}
	return data
}

const idPrefix = "node_"

// NodeID returns the widget id of a node.
func NodeID(id famgraph.NodeID) string {
	return idPrefix + strconv.Itoa(int(id))
}

// ParseNodeID accepts "node_<n>" or a bare "<n>".
func ParseNodeID(s string) (famgraph.NodeID, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(s, idPrefix))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid node id %q", s)
	}
	return famgraph.NodeID(n), nil
}
