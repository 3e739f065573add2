package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"famgraph"
	"famgraph/network"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cells := func(name string) famgraph.Row {
		return famgraph.Row{name, "1950", "Hansen", "Vej 1", "Aarhus", "", "", ""}
	}
	g, err := famgraph.Build(
		famgraph.RootAncestor("Hans", "1901-1980", "Hansen"),
		famgraph.RootAncestor("Karen", "1905-1990", "Hansen"),
		[]famgraph.Group{{
			{Line: 3, Cells: cells("Jens")},
			{Line: 4, Cells: cells("~Maria")},
			{Line: 5, Cells: cells("*Peter")},
			{Line: 6, Cells: cells("*Anna")},
		}},
	)
	require.NoError(t, err)

	srv := httptest.NewServer(New(g, network.DefaultStyle(), []string{"*"}, zap.NewNop()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, srv *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	var body map[string]any
	assert.Equal(t, http.StatusOK, getJSON(t, srv, "/health", &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(6), body["people"])
}

func TestNetwork(t *testing.T) {
	srv := newTestServer(t)
	var data network.Data
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/api/network", &data))
	assert.Len(t, data.Nodes, 6)
	assert.Len(t, data.Edges, 5)
	assert.Equal(t, "Gift", data.Edges[0].Label)
}

func TestPersonDetails(t *testing.T) {
	srv := newTestServer(t)
	var details PersonDetails
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/api/people/node_2", &details))

	assert.Equal(t, "node_2", details.ID)
	assert.Equal(t, "Jens", details.Person.Name)
	assert.Equal(t, "node_0", details.Parent)
	assert.Equal(t, []string{"node_4", "node_5"}, details.Children)
	require.Len(t, details.Partners, 1)
	assert.Equal(t, Partner{ID: "node_3", Name: "~Maria", Relationship: famgraph.Married}, details.Partners[0])
}

func TestLineageEndpoints(t *testing.T) {
	srv := newTestServer(t)

	var up Lineage
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/api/people/5/ancestors", &up))
	require.Len(t, up.People, 2)
	assert.Equal(t, "Jens", up.People[0].Label)
	assert.Equal(t, "Hans", up.People[1].Label)

	var down Lineage
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/api/people/node_0/descendants", &down))
	assert.Len(t, down.People, 3)
}

func TestPersonErrors(t *testing.T) {
	srv := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv, "/api/people/abc", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv, "/api/people/node_99", nil))
}
