package famgraph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// descentKinds restricts lineage queries to Child and ChildFromPartner edges.
const descentKinds = "('child', 'child_from_partner')"

// Person returns a stored person, or nil if the build has no such node.
func (s *Store) Person(ctx context.Context, build uuid.UUID, id NodeID) (*Node, error) {
	var row personRow

	query := "SELECT * FROM person WHERE build_id = $1 AND id = $2"
	err := s.db.GetContext(ctx, &row, query, build, int(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}

	n := row.node()
	return &n, nil
}

// Parent returns the person id descends from, or nil for roots and partners.
func (s *Store) Parent(ctx context.Context, build uuid.UUID, id NodeID) (*Node, error) {
	var row personRow

	query := `
		SELECT p.*
		FROM relationship r
		JOIN person p ON p.build_id = r.build_id AND p.id = r.source_id
		WHERE r.build_id = $1 AND r.target_id = $2 AND r.kind IN ` + descentKinds + `
		ORDER BY r.position ASC
		LIMIT 1`
	err := s.db.GetContext(ctx, &row, query, build, int(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}

	n := row.node()
	return &n, nil
}

// Children returns the immediate descendants of id (one level down).
func (s *Store) Children(ctx context.Context, build uuid.UUID, id NodeID) ([]Node, error) {
	var rows []personRow

	query := `
		SELECT p.*
		FROM relationship r
		JOIN person p ON p.build_id = r.build_id AND p.id = r.target_id
		WHERE r.build_id = $1 AND r.source_id = $2 AND r.kind IN ` + descentKinds + `
		ORDER BY r.position ASC`
	if err := s.db.SelectContext(ctx, &rows, query, build, int(id)); err != nil {
		return nil, fmt.Errorf("failed to get children: %w", err)
	}
	return toNodes(rows), nil
}

// Ancestors returns the parent chain of id, nearest first.
func (s *Store) Ancestors(ctx context.Context, build uuid.UUID, id NodeID) ([]Node, error) {
	var rows []personRow

	query := `
		WITH RECURSIVE lineage AS (
			SELECT r.source_id AS id, 1 AS depth
			FROM relationship r
			WHERE r.build_id = $1 AND r.target_id = $2 AND r.kind IN ` + descentKinds + `
			UNION ALL
			SELECT r.source_id, lineage.depth + 1
			FROM relationship r
			JOIN lineage ON r.target_id = lineage.id
			WHERE r.build_id = $1 AND r.kind IN ` + descentKinds + `
		)
		SELECT p.*
		FROM lineage
		JOIN person p ON p.build_id = $1 AND p.id = lineage.id
		ORDER BY lineage.depth ASC`
	if err := s.db.SelectContext(ctx, &rows, query, build, int(id)); err != nil {
		return nil, fmt.Errorf("failed to get ancestors: %w", err)
	}
	return toNodes(rows), nil
}

// Descendants returns every person below id, generation by generation.
func (s *Store) Descendants(ctx context.Context, build uuid.UUID, id NodeID) ([]Node, error) {
	var rows []personRow

	query := `
		WITH RECURSIVE lineage AS (
			SELECT r.target_id AS id, 1 AS depth
			FROM relationship r
			WHERE r.build_id = $1 AND r.source_id = $2 AND r.kind IN ` + descentKinds + `
			UNION ALL
			SELECT r.target_id, lineage.depth + 1
			FROM relationship r
			JOIN lineage ON r.source_id = lineage.id
			WHERE r.build_id = $1 AND r.kind IN ` + descentKinds + `
		)
		SELECT p.*
		FROM lineage
		JOIN person p ON p.build_id = $1 AND p.id = lineage.id
		ORDER BY lineage.depth ASC, p.id ASC`
	if err := s.db.SelectContext(ctx, &rows, query, build, int(id)); err != nil {
		return nil, fmt.Errorf("failed to get descendants: %w", err)
	}
	return toNodes(rows), nil
}

func toNodes(rows []personRow) []Node {
	nodes := make([]Node, 0, len(rows))
	for _, r := range rows {
		nodes = append(nodes, r.node())
	}
	return nodes
}
