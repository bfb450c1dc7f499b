package database_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/nonagon/internal/database"
	"github.com/forgo/nonagon/internal/testing/helpers"
)

// ============================================================================
// Result Unwrapping Tests
// ============================================================================

func TestFirstRecord(t *testing.T) {
	t.Parallel()

	rec := map[string]interface{}{"name": "a"}

	got, err := database.FirstRecord(helpers.Results(helpers.OK(rec)))
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	_, err = database.FirstRecord(helpers.Results(helpers.OK()))
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = database.FirstRecord(nil)
	assert.ErrorIs(t, err, database.ErrNotFound)

	got, err = database.FirstRecord([]interface{}{map[string]interface{}{"status": "OK", "result": 3}})
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestRecords(t *testing.T) {
	t.Parallel()

	results := helpers.Results(helpers.OK(), helpers.OK("a", "b"))

	assert.Empty(t, database.Records(results, 0))
	assert.Equal(t, []interface{}{"a", "b"}, database.Records(results, 1))
	assert.Nil(t, database.Records(results, 2))
	assert.Nil(t, database.Records(results, -1))

	single := []interface{}{map[string]interface{}{"status": "OK", "result": map[string]interface{}{"count": 1}}}
	assert.Len(t, database.Records(single, 0), 1)
}

func TestIsDuplicate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{database.ErrDuplicate, true},
		{fmt.Errorf("insert: %w", database.ErrDuplicate), true},
		{errors.New("Database record `quest:42_QUESA1B2C3` already exists"), true},
		{errors.New("Database index `quest_id` already contains 'QUESA1B2C3'"), true},
		{database.ErrQuery, false},
		{errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, database.IsDuplicate(tt.err), "%v", tt.err)
	}
}

// ============================================================================
// Schema Tests
// ============================================================================

func TestIndex_Statement(t *testing.T) {
	t.Parallel()

	idx := database.Index{Table: "quest", Name: "quest_guild_id", Fields: []string{"guild_id", "quest_id.value"}, Unique: true}
	assert.Equal(t,
		"DEFINE INDEX IF NOT EXISTS quest_guild_id ON TABLE quest FIELDS guild_id, quest_id.value UNIQUE",
		idx.Statement())

	idx.Unique = false
	assert.False(t, strings.HasSuffix(idx.Statement(), "UNIQUE"))
}

func TestSchema_EnsureOnce(t *testing.T) {
	t.Parallel()

	db := &helpers.MockDB{}
	schema := database.NewSchema(db,
		database.Index{Table: "quest", Name: "a", Fields: []string{"x"}},
		database.Index{Table: "user", Name: "b", Fields: []string{"y"}},
	)

	require.NoError(t, schema.Ensure(context.Background()))
	require.NoError(t, schema.Ensure(context.Background()))

	assert.Len(t, db.CallsMatching("DEFINE INDEX"), 2)
}

func TestSchema_EnsureRetriesAfterFailure(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	fail.Store(true)
	db := &helpers.MockDB{
		ExecuteFunc: func(ctx context.Context, query string, vars map[string]interface{}) error {
			if fail.Load() {
				return database.ErrConnection
			}
			return nil
		},
	}
	schema := database.NewSchema(db, database.Index{Table: "quest", Name: "a", Fields: []string{"x"}})

	err := schema.Ensure(context.Background())
	assert.ErrorIs(t, err, database.ErrConnection)

	fail.Store(false)
	require.NoError(t, schema.Ensure(context.Background()))
	require.NoError(t, schema.Ensure(context.Background()))
	assert.Len(t, db.Calls(), 2)
}

func TestSchema_RegisterDeduplicatesAndReapplies(t *testing.T) {
	t.Parallel()

	db := &helpers.MockDB{}
	idx := database.Index{Table: "quest", Name: "a", Fields: []string{"x"}}
	schema := database.NewSchema(db, idx)
	schema.Register(idx)
	assert.Len(t, schema.Indexes(), 1)

	require.NoError(t, schema.Ensure(context.Background()))
	schema.Register(database.Index{Table: "lookup", Name: "b", Fields: []string{"y"}})
	require.NoError(t, schema.Ensure(context.Background()))

	assert.Len(t, schema.Indexes(), 2)
	assert.Len(t, db.Calls(), 3)
}

// ============================================================================
// Transaction Tests
// ============================================================================

func TestTxBuilder_NamespacesVariables(t *testing.T) {
	t.Parallel()

	tb := database.NewTxBuilder()
	m1 := tb.Add("UPSERT type::thing($table, $key) CONTENT $doc", map[string]interface{}{
		"table": "quest", "key": "1_QUESA1B2C3", "doc": map[string]interface{}{"a": 1},
	})
	m2 := tb.Add("UPSERT type::thing($table, $key) CONTENT $doc", map[string]interface{}{
		"table": "user", "key": "1_USERA1B2C3", "doc": map[string]interface{}{"b": 2},
	})

	query, vars := tb.Build()
	assert.True(t, strings.HasPrefix(query, "BEGIN TRANSACTION;\n"))
	assert.True(t, strings.HasSuffix(query, "COMMIT TRANSACTION;"))
	assert.Equal(t, 2, tb.Len())
	assert.Len(t, vars, 6)
	assert.NotEqual(t, m1["doc"], m2["doc"])
	assert.Equal(t, "quest", vars[m1["table"]])
	assert.Equal(t, "user", vars[m2["table"]])
	assert.Contains(t, query, "$"+m1["key"])
	assert.NotContains(t, query, "$doc ")
}

func TestTxBuilder_PrefixVariableNames(t *testing.T) {
	t.Parallel()

	tb := database.NewTxBuilder()
	m := tb.Add("SELECT * FROM quest WHERE guild_id = $guild_id AND x = $guild", map[string]interface{}{
		"guild": 1, "guild_id": 2,
	})

	query, vars := tb.Build()
	assert.Contains(t, query, "guild_id = $"+m["guild_id"])
	assert.Contains(t, query, "x = $"+m["guild"])
	assert.Equal(t, 2, vars[m["guild_id"]])
	assert.Equal(t, 1, vars[m["guild"]])
}

func TestAtomicBatch_Execute(t *testing.T) {
	t.Parallel()

	db := &helpers.MockDB{}
	require.NoError(t, database.NewAtomicBatch().Execute(context.Background(), db))
	assert.Empty(t, db.Calls())

	batch := database.NewAtomicBatch().
		Add("UPDATE a SET x = $x", map[string]interface{}{"x": 1}).
		Add("UPDATE b SET x = $x", map[string]interface{}{"x": 2})
	require.NoError(t, batch.Execute(context.Background(), db))

	calls := db.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Query, "BEGIN TRANSACTION")
	assert.Len(t, calls[0].Vars, 2)
	assert.Equal(t, 2, batch.Len())
}

func TestSurrealDB_NotConnected(t *testing.T) {
	t.Parallel()

	db := database.NewSurrealDB(database.Config{})
	ctx := context.Background()

	_, err := db.Query(ctx, "INFO FOR DB", nil)
	assert.ErrorIs(t, err, database.ErrConnection)
	assert.ErrorIs(t, db.Ping(ctx), database.ErrConnection)
	assert.NoError(t, db.Close())
}
