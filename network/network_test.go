package network

import (
	"encoding/json"
	"testing"

	"famgraph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraph(t *testing.T) *famgraph.FamilyGraph {
	t.Helper()
	cells := func(name string) famgraph.Row {
		return famgraph.Row{name, "1950", "Hansen", "Vej 1", "Aarhus", "", "", ""}
	}
	g, err := famgraph.Build(
		famgraph.RootAncestor("Hans", "1901-1980", "Hansen"),
		famgraph.RootAncestor("Karen", "1905-1990", "Hansen"),
		[]famgraph.Group{{
			{Line: 3, Cells: cells("Jens")},
			{Line: 4, Cells: cells("-/-Lone")},
			{Line: 5, Cells: cells("*Peter")},
			{Line: 6, Cells: cells("**Lars")},
			{Line: 7, Cells: cells("***Ida")},
			{Line: 8, Cells: cells("****Bo")},
		}},
	)
	require.NoError(t, err)
	return g
}

func TestProject(t *testing.T) {
	g := buildGraph(t)
	data := Project(g, DefaultStyle())

	require.Len(t, data.Nodes, g.Len())
	require.Len(t, data.Edges, len(g.Edges()))

	root := data.Nodes[0]
	assert.Equal(t, "node_0", root.ID)
	assert.Equal(t, "Hans", root.Label)
	assert.Equal(t, "Click for details about Hans", root.Title)
	assert.Equal(t, -1, root.Level)
	assert.Equal(t, NodeColor{Background: "#fffccb", Border: "#2B7CE9"}, root.Color)
	assert.Equal(t, FontStyle{Size: 16, Color: "#343434"}, root.Font)

	// Generation 4 has no entry in the palette.
	last := data.Nodes[len(data.Nodes)-1]
	assert.Equal(t, 4, last.Level)
	assert.Equal(t, "#f0f0f0", last.Color.Background)

	married := data.Edges[0]
	assert.Equal(t, Edge{From: "node_0", To: "node_1", Label: "Gift", Color: "#ff0000", Width: 2, Arrows: "to"}, married)

	divorced := data.Edges[2]
	assert.Equal(t, "Skilt", divorced.Label)
	assert.True(t, divorced.Dashes)
}

func TestStyleCoversEveryRelationship(t *testing.T) {
	style := DefaultStyle()
	for _, rel := range famgraph.Relationships() {
		es := style.Edge(rel)
		assert.NotEmpty(t, es.Label, rel.String())
		assert.NotEmpty(t, es.Color, rel.String())
		assert.Positive(t, es.Width, rel.String())
	}
	assert.Equal(t, "Ukendt", style.Edge(famgraph.NotFound).Label)

	for gen := -1; gen < 10; gen++ {
		assert.NotEmpty(t, style.GenerationColor(gen))
	}
}

func TestProjectJSON(t *testing.T) {
	data := Project(buildGraph(t), DefaultStyle())
	raw, err := json.Marshal(data)
	require.NoError(t, err)

	var decoded map[string][]map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	node := decoded["nodes"][2]
	assert.Equal(t, "node_2", node["id"])
	person := node["person_data"].(map[string]any)
	assert.Equal(t, "Jens", person["name"])
	assert.Equal(t, "Hansen", person["last_name"])
}

func TestParseNodeID(t *testing.T) {
	id, err := ParseNodeID("node_12")
	require.NoError(t, err)
	assert.Equal(t, famgraph.NodeID(12), id)

	id, err = ParseNodeID("3")
	require.NoError(t, err)
	assert.Equal(t, famgraph.NodeID(3), id)

	for _, bad := range []string{"", "node_", "node_x", "-1"} {
		_, err := ParseNodeID(bad)
		assert.Error(t, err, bad)
	}
}
