package famgraph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Schema creates the snapshot tables. Snapshots are written once and never
// updated.
const Schema = `
CREATE TABLE IF NOT EXISTS family_build (
	id         UUID PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	node_count INTEGER NOT NULL,
	edge_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS person (
	build_id      UUID NOT NULL REFERENCES family_build (id) ON DELETE CASCADE,
	id            INTEGER NOT NULL,
	generation    INTEGER NOT NULL,
	name          TEXT NOT NULL,
	birthdate     TEXT NOT NULL,
	last_name     TEXT NOT NULL,
	address       TEXT NOT NULL,
	city          TEXT NOT NULL,
	landline      TEXT NOT NULL,
	mobile_number TEXT NOT NULL,
	email         TEXT NOT NULL,
	PRIMARY KEY (build_id, id)
);

CREATE TABLE IF NOT EXISTS relationship (
	build_id  UUID NOT NULL REFERENCES family_build (id) ON DELETE CASCADE,
	position  INTEGER NOT NULL,
	source_id INTEGER NOT NULL,
	target_id INTEGER NOT NULL,
	kind      TEXT NOT NULL,
	PRIMARY KEY (build_id, position),
	FOREIGN KEY (build_id, source_id) REFERENCES person (build_id, id),
	FOREIGN KEY (build_id, target_id) REFERENCES person (build_id, id)
);

CREATE INDEX IF NOT EXISTS relationship_target_idx ON relationship (build_id, target_id);
`

// Store persists built graphs in Postgres.
type Store struct {
	db *sqlx.DB
}

// BuildInfo describes one stored snapshot.
type BuildInfo struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	NodeCount int       `db:"node_count"`
	EdgeCount int       `db:"edge_count"`
}

type personRow struct {
	BuildID      uuid.UUID `db:"build_id"`
	ID           int       `db:"id"`
	Generation   int       `db:"generation"`
	Name         string    `db:"name"`
	Birthdate    string    `db:"birthdate"`
	LastName     string    `db:"last_name"`
	Address      string    `db:"address"`
	City         string    `db:"city"`
	Landline     string    `db:"landline"`
	MobileNumber string    `db:"mobile_number"`
	Email        string    `db:"email"`
}

func newPersonRow(build uuid.UUID, n Node) personRow {
	p := n.Person
	return personRow{
		BuildID:      build,
		ID:           int(n.ID),
		Generation:   p.Generation,
		Name:         p.Name,
		Birthdate:    p.Birthdate,
		LastName:     p.LastName,
		Address:      p.Address,
		City:         p.City,
		Landline:     p.Landline,
		MobileNumber: p.MobileNumber,
		Email:        p.Email,
	}
}

func (r personRow) node() Node {
	return Node{
		ID: NodeID(r.ID),
		Person: Person{
			Generation:   r.Generation,
			Name:         r.Name,
			Birthdate:    r.Birthdate,
			LastName:     r.LastName,
			Address:      r.Address,
			City:         r.City,
			Landline:     r.Landline,
			MobileNumber: r.MobileNumber,
			Email:        r.Email,
		},
	}
}

type relationshipRow struct {
	BuildID  uuid.UUID `db:"build_id"`
	Position int       `db:"position"`
	SourceID int       `db:"source_id"`
	TargetID int       `db:"target_id"`
	Kind     string    `db:"kind"`
}

// NewStore connects to Postgres with the given DSN.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("DSN cannot be empty")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStoreFromDB wraps an existing connection.
func NewStoreFromDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the snapshot tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const (
	insertBuild = `INSERT INTO family_build (id, node_count, edge_count) VALUES ($1, $2, $3)`

	insertPerson = `INSERT INTO person
		(build_id, id, generation, name, birthdate, last_name, address, city, landline, mobile_number, email)
		VALUES (:build_id, :id, :generation, :name, :birthdate, :last_name, :address, :city, :landline, :mobile_number, :email)`

	insertRelationship = `INSERT INTO relationship (build_id, position, source_id, target_id, kind)
		VALUES (:build_id, :position, :source_id, :target_id, :kind)`
)

// Save writes g as a new snapshot and returns its id.
func (s *Store) Save(ctx context.Context, g *FamilyGraph) (id uuid.UUID, err error) {
	id = uuid.New()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback the transaction if it failed to commit
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, insertBuild, id, g.Len(), len(g.edges)); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert build: %w", err)
	}
	for _, n := range g.nodes {
		if _, err = tx.NamedExecContext(ctx, insertPerson, newPersonRow(id, n)); err != nil {
			return uuid.Nil, fmt.Errorf("failed to insert person %d: %w", n.ID, err)
		}
	}
	for i, e := range g.edges {
		row := relationshipRow{
			BuildID:  id,
			Position: i,
			SourceID: int(e.From),
			TargetID: int(e.To),
			Kind:     e.Relationship.String(),
		}
		if _, err = tx.NamedExecContext(ctx, insertRelationship, row); err != nil {
			return uuid.Nil, fmt.Errorf("failed to insert relationship %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return id, nil
}

// Load reads a snapshot back into a validated graph.
func (s *Store) Load(ctx context.Context, build uuid.UUID) (*FamilyGraph, error) {
	var people []personRow
	query := "SELECT * FROM person WHERE build_id = $1 ORDER BY id ASC"
	if err := s.db.SelectContext(ctx, &people, query, build); err != nil {
		return nil, fmt.Errorf("failed to load people: %w", err)
	}
	if len(people) == 0 {
		return nil, fmt.Errorf("no build %s found", build)
	}

	var rels []relationshipRow
	query = "SELECT * FROM relationship WHERE build_id = $1 ORDER BY position ASC"
	if err := s.db.SelectContext(ctx, &rels, query, build); err != nil {
		return nil, fmt.Errorf("failed to load relationships: %w", err)
	}

	nodes := make([]Node, 0, len(people))
	for _, p := range people {
		nodes = append(nodes, p.node())
	}
	edges := make([]Edge, 0, len(rels))
	for _, r := range rels {
		rel, err := ParseRelationship(r.Kind)
		if err != nil {
			return nil, fmt.Errorf("relationship %d: %w", r.Position, err)
		}
		edges = append(edges, Edge{From: NodeID(r.SourceID), To: NodeID(r.TargetID), Relationship: rel})
	}
	return FromRecords(nodes, edges)
}

// Builds lists stored snapshots, newest first.
func (s *Store) Builds(ctx context.Context) ([]BuildInfo, error) {
	builds := make([]BuildInfo, 0)
	query := "SELECT id, created_at, node_count, edge_count FROM family_build ORDER BY created_at DESC"
	if err := s.db.SelectContext(ctx, &builds, query); err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	return builds, nil
}
