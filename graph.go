package famgraph

import "fmt"

// NodeID is the position of a node in insertion order.
type NodeID int

// Node is a person placed in the graph.
type Node struct {
	ID     NodeID
	Person Person
}

// Edge is a directed, tagged arc between two nodes.
type Edge struct {
	From         NodeID
	To           NodeID
	Relationship Relationship
}

// FamilyGraph is the reconstructed family. Only the Builder and FromRecords
// populate it; once returned it is read-only and safe for concurrent readers.
type FamilyGraph struct {
	nodes    []Node
	edges    []Edge
	outgoing [][]int
	incoming [][]int
}

func newFamilyGraph() *FamilyGraph {
	return &FamilyGraph{}
}

func (g *FamilyGraph) addNode(p Person) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{ID: id, Person: p})
	g.outgoing = append(g.outgoing, nil)
	g.incoming = append(g.incoming, nil)
	return id
}

func (g *FamilyGraph) addEdge(from, to NodeID, rel Relationship) Edge {
	e := Edge{From: from, To: to, Relationship: rel}
	g.edges = append(g.edges, e)
	g.outgoing[from] = append(g.outgoing[from], len(g.edges)-1)
	g.incoming[to] = append(g.incoming[to], len(g.edges)-1)
	return e
}

func (g *FamilyGraph) has(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// Len returns the number of nodes.
func (g *FamilyGraph) Len() int {
	return len(g.nodes)
}

// Node returns the node with the given id.
func (g *FamilyGraph) Node(id NodeID) (Node, bool) {
	if !g.has(id) {
		return Node{}, false
	}
	return g.nodes[id], true
}

// Nodes returns a copy of all nodes in insertion order.
func (g *FamilyGraph) Nodes() []Node {
	return append([]Node(nil), g.nodes...)
}

// Edges returns a copy of all edges in insertion order.
func (g *FamilyGraph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// Roots returns the two root ancestors.
func (g *FamilyGraph) Roots() (NodeID, NodeID) {
	return 0, 1
}

// Outgoing returns the edges leaving id.
func (g *FamilyGraph) Outgoing(id NodeID) []Edge {
	if !g.has(id) {
		return nil
	}
	return g.collect(g.outgoing[id])
}

// Incoming returns the edges arriving at id.
func (g *FamilyGraph) Incoming(id NodeID) []Edge {
	if !g.has(id) {
		return nil
	}
	return g.collect(g.incoming[id])
}

func (g *FamilyGraph) collect(idx []int) []Edge {
	edges := make([]Edge, 0, len(idx))
	for _, i := range idx {
		edges = append(edges, g.edges[i])
	}
	return edges
}

// Parent returns the node id descends from. Roots, partners and people
// attached by a non-descent edge have no parent.
func (g *FamilyGraph) Parent(id NodeID) (NodeID, bool) {
	for _, e := range g.Incoming(id) {
		if e.Relationship.IsDescent() {
			return e.From, true
		}
	}
	return 0, false
}

// Children returns the immediate descendants of id in insertion order.
func (g *FamilyGraph) Children(id NodeID) []NodeID {
	var children []NodeID
	for _, e := range g.Outgoing(id) {
		if e.Relationship.IsDescent() {
			children = append(children, e.To)
		}
	}
	return children
}

// Ancestors returns the parent chain of id, nearest first.
func (g *FamilyGraph) Ancestors(id NodeID) []NodeID {
	var ancestors []NodeID
	for {
		parent, ok := g.Parent(id)
		if !ok {
			return ancestors
		}
		ancestors = append(ancestors, parent)
		id = parent
	}
}

// Descendants returns every node below id, breadth first.
func (g *FamilyGraph) Descendants(id NodeID) []NodeID {
	var descendants []NodeID
	queue := g.Children(id)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		descendants = append(descendants, next)
		queue = append(queue, g.Children(next)...)
	}
	return descendants
}

// Validate checks the structural invariants: two generation -1 roots joined by
// exactly one Married edge, and every other node reachable from a root.
func (g *FamilyGraph) Validate() error {
	if len(g.nodes) < 2 {
		return topologyError(0, "graph has %d nodes, want at least the two roots", len(g.nodes))
	}
	a, b := g.Roots()
	for _, root := range []NodeID{a, b} {
		if gen := g.nodes[root].Person.Generation; gen != -1 {
			return topologyError(0, "root node %d has generation %d, want -1", root, gen)
		}
	}

	var between, married int
	for _, e := range g.edges {
		if (e.From == a && e.To == b) || (e.From == b && e.To == a) {
			between++
			if e.Relationship == Married {
				married++
			}
		}
	}
	if between != 1 || married != 1 {
		return topologyError(0, "roots must be joined by exactly one married edge, found %d edges (%d married)", between, married)
	}

	seen := make([]bool, len(g.nodes))
	seen[a], seen[b] = true, true
	queue := []NodeID{a, b}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, i := range g.outgoing[next] {
			to := g.edges[i].To
			if !seen[to] {
				seen[to] = true
				queue = append(queue, to)
			}
		}
	}
	for id, ok := range seen {
		if !ok {
			return topologyError(0, "node %d (%s) is not reachable from the roots", id, g.nodes[id].Person.Name)
		}
	}
	return nil
}

// FromRecords rebuilds a graph from stored nodes and edges. Node ids must be
// dense and in order, and every edge must reference known nodes.
func FromRecords(nodes []Node, edges []Edge) (*FamilyGraph, error) {
	g := newFamilyGraph()
	for i, n := range nodes {
		if int(n.ID) != i {
			return nil, fmt.Errorf("node at position %d has id %d", i, n.ID)
		}
		g.addNode(n.Person)
	}
	for _, e := range edges {
		if !g.has(e.From) || !g.has(e.To) {
			// Edge endpoint not found
			return nil, fmt.Errorf("edge %d -> %d references an unknown node", e.From, e.To)
		}
		g.addEdge(e.From, e.To, e.Relationship)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
