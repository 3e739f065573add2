package famgraph

import (
	"go.uber.org/zap"
)

// Cursor is the transient state of a build.
type Cursor struct {
	Current NodeID // last hierarchical node
	Parent  NodeID // node new descendants attach under
	Level   int    // generation of Current
}

// Delta is what one row added to the graph.
type Delta struct {
	Node NodeID
	Edge Edge
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger logs every row transition at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// Builder reconstructs a FamilyGraph row by row.
//
// lineage[g] holds the most recent hierarchical node at generation g-1, so
// lineage[0] is the first root and the last entry is the current node. The
// structural parent is the entry below it.
type Builder struct {
	graph   *FamilyGraph
	lineage []NodeID
	err     error
	logger  *zap.Logger
}

// NewBuilder seeds a graph with the two root ancestors joined by marriage.
func NewBuilder(rootA, rootB Person, opts ...Option) *Builder {
	b := &Builder{graph: newFamilyGraph(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}

	rootA.Generation, rootB.Generation = -1, -1
	a := b.graph.addNode(rootA)
	partner := b.graph.addNode(rootB)
	b.graph.addEdge(a, partner, Married)
	b.lineage = []NodeID{a}
	return b
}

// Cursor returns the current cursor state.
func (b *Builder) Cursor() Cursor {
	current := b.lineage[len(b.lineage)-1]
	parent := current
	if len(b.lineage) > 1 {
		parent = b.lineage[len(b.lineage)-2]
	}
	return Cursor{Current: current, Parent: parent, Level: len(b.lineage) - 2}
}

// Step processes one data row. Nothing is added to the graph when it fails,
// and after a failure every further Step returns the same error.
func (b *Builder) Step(rec Record) (Delta, error) {
	if b.err != nil {
		return Delta{}, b.err
	}
	delta, err := b.step(rec)
	if err != nil {
		b.err = err
		return Delta{}, err
	}
	return delta, nil
}

func (b *Builder) step(rec Record) (Delta, error) {
	generation, rel := rowRelationship(rec.Name())
	person, err := NewPerson(rec.Cells, generation)
	if err != nil {
		return Delta{}, malformedRow(rec.Line, err)
	}

	cursor := b.Cursor()
	if rel != Relative {
		// Partners and partner descendants hang off the current node and
		// leave the cursor where it is.
		id := b.graph.addNode(person)
		edge := b.graph.addEdge(cursor.Current, id, rel)
		b.logger.Debug("attached non-hierarchical row",
			zap.Int("line", rec.Line),
			zap.String("name", person.Name),
			zap.Stringer("relationship", rel),
			zap.Int("from", int(cursor.Current)),
		)
		return Delta{Node: id, Edge: edge}, nil
	}

	parent, err := b.resolveParent(rec.Line, cursor.Level, generation)
	if err != nil {
		return Delta{}, err
	}
	id := b.graph.addNode(person)
	edge := b.graph.addEdge(parent, id, Child)
	b.lineage = append(b.lineage[:generation+1], id)
	b.logger.Debug("attached hierarchical row",
		zap.Int("line", rec.Line),
		zap.String("name", person.Name),
		zap.Int("generation", generation),
		zap.Int("delta", cursor.Level-generation),
		zap.Int("parent", int(parent)),
	)
	return Delta{Node: id, Edge: edge}, nil
}

// resolveParent finds the node a row at the given generation attaches under.
// delta -1 descends below the current node, 0 is a sibling, and a positive
// delta rewinds that many generations above the structural parent.
func (b *Builder) resolveParent(line, level, generation int) (NodeID, error) {
	delta := level - generation
	if delta < -1 {
		return 0, topologyError(line, "generation %d follows generation %d, skipping %d generations", generation, level, -delta-1)
	}
	if generation < 0 || generation >= len(b.lineage) {
		return 0, topologyError(line, "no ancestor %d generations above generation %d", delta, level)
	}
	return b.lineage[generation], nil
}

// Graph returns the graph built so far, or the error that stopped the build.
func (b *Builder) Graph() (*FamilyGraph, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.graph, nil
}

// Build runs every row of every group through a Builder and returns the
// finished graph. No graph is returned on failure.
func Build(rootA, rootB Person, groups []Group, opts ...Option) (*FamilyGraph, error) {
	b := NewBuilder(rootA, rootB, opts...)
	for _, group := range groups {
		for _, rec := range group {
			if _, err := b.Step(rec); err != nil {
				return nil, err
			}
		}
	}
	g, err := b.Graph()
	if err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
