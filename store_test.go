package famgraph

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var personColumns = []string{
	"build_id", "id", "generation", "name", "birthdate", "last_name",
	"address", "city", "landline", "mobile_number", "email",
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStoreFromDB(sqlx.NewDb(db, "postgres")), mock
}

func personRows(build uuid.UUID, nodes ...Node) *sqlmock.Rows {
	rows := sqlmock.NewRows(personColumns)
	for _, n := range nodes {
		p := n.Person
		rows.AddRow(build.String(), int(n.ID), p.Generation, p.Name, p.Birthdate, p.LastName,
			p.Address, p.City, p.Landline, p.MobileNumber, p.Email)
	}
	return rows
}

func TestNewStoreRequiresDSN(t *testing.T) {
	_, err := NewStore("")
	assert.Error(t, err)
}

func TestStoreSave(t *testing.T) {
	store, mock := newMockStore(t)
	g := buildFamily(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO family_build")).
		WithArgs(sqlmock.AnyArg(), g.Len(), len(g.Edges())).
		WillReturnResult(sqlmock.NewResult(0, 1))
	for range g.Nodes() {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO person")).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	for range g.Edges() {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO relationship")).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	id, err := store.Save(context.Background(), g)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreSaveRollsBack(t *testing.T) {
	store, mock := newMockStore(t)
	g := buildFamily(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO family_build")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO person")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	id, err := store.Save(context.Background(), g)
	require.Error(t, err)
	assert.Equal(t, uuid.Nil, id)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreLoad(t *testing.T) {
	store, mock := newMockStore(t)
	g := buildFamily(t)
	build := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM person WHERE build_id = $1")).
		WithArgs(build).
		WillReturnRows(personRows(build, g.Nodes()...))

	rels := sqlmock.NewRows([]string{"build_id", "position", "source_id", "target_id", "kind"})
	for i, e := range g.Edges() {
		rels.AddRow(build.String(), i, int(e.From), int(e.To), e.Relationship.String())
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM relationship WHERE build_id = $1")).
		WithArgs(build).
		WillReturnRows(rels)

	loaded, err := store.Load(context.Background(), build)
	require.NoError(t, err)
	assert.Equal(t, g.Nodes(), loaded.Nodes())
	assert.Equal(t, g.Edges(), loaded.Edges())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreLoadUnknownBuild(t *testing.T) {
	store, mock := newMockStore(t)
	build := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM person")).
		WillReturnRows(sqlmock.NewRows(personColumns))

	_, err := store.Load(context.Background(), build)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorePersonNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	build := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM person WHERE build_id = $1 AND id = $2")).
		WithArgs(build, 7).
		WillReturnRows(sqlmock.NewRows(personColumns))

	n, err := store.Person(context.Background(), build, 7)
	assert.NoError(t, err)
	assert.Nil(t, n)
}

func TestStoreAncestors(t *testing.T) {
	store, mock := newMockStore(t)
	g := buildFamily(t)
	build := uuid.New()
	lars := nodeByName(t, g, "**Lars")

	var chain []Node
	for _, id := range g.Ancestors(lars) {
		n, _ := g.Node(id)
		chain = append(chain, n)
	}

	mock.ExpectQuery("WITH RECURSIVE lineage").
		WithArgs(build, int(lars)).
		WillReturnRows(personRows(build, chain...))

	got, err := store.Ancestors(context.Background(), build, lars)
	require.NoError(t, err)
	assert.Equal(t, chain, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreChildrenError(t *testing.T) {
	store, mock := newMockStore(t)
	build := uuid.New()

	mock.ExpectQuery("FROM relationship r").
		WillReturnError(errors.New("connection reset"))

	_, err := store.Children(context.Background(), build, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get children")
}

func TestStoreMigrate(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS family_build")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreBuilds(t *testing.T) {
	store, mock := newMockStore(t)
	first, second := uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM family_build ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "node_count", "edge_count"}).
			AddRow(second.String(), now, 6, 5).
			AddRow(first.String(), now.Add(-time.Hour), 2, 1))

	builds, err := store.Builds(context.Background())
	require.NoError(t, err)
	require.Len(t, builds, 2)
	assert.Equal(t, BuildInfo{ID: second, CreatedAt: now, NodeCount: 6, EdgeCount: 5}, builds[0])
	assert.Equal(t, first, builds[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreParent(t *testing.T) {
	store, mock := newMockStore(t)
	g := buildFamily(t)
	build := uuid.New()
	peter := nodeByName(t, g, "*Peter")
	jens, _ := g.Node(nodeByName(t, g, "Jens"))

	mock.ExpectQuery("FROM relationship r").
		WithArgs(build, int(peter)).
		WillReturnRows(personRows(build, jens))
	mock.ExpectQuery("FROM relationship r").
		WithArgs(build, 0).
		WillReturnRows(personRows(build))

	got, err := store.Parent(context.Background(), build, peter)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, jens, *got)

	root, err := store.Parent(context.Background(), build, 0)
	require.NoError(t, err)
	assert.Nil(t, root)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreDescendants(t *testing.T) {
	store, mock := newMockStore(t)
	g := buildFamily(t)
	build := uuid.New()
	jens := nodeByName(t, g, "Jens")

	var below []Node
	for _, id := range g.Descendants(jens) {
		n, _ := g.Node(id)
		below = append(below, n)
	}

	mock.ExpectQuery("WITH RECURSIVE lineage").
		WithArgs(build, int(jens)).
		WillReturnRows(personRows(build, below...))

	got, err := store.Descendants(context.Background(), build, jens)
	require.NoError(t, err)
	assert.Equal(t, below, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
