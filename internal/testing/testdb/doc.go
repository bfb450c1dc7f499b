// Package testdb provides SurrealDB-backed test databases.
//
// Tests using New are skipped unless TEST_DB_HOST is set. TEST_DB_PORT,
// TEST_DB_USER and TEST_DB_PASSWORD default to 8000, root and root.
//
//	func TestQuestRepository_Live(t *testing.T) {
//	    tdb := testdb.New(t)
//	    quests := repository.NewQuestRepository(tdb.DB, tdb.Schema, codec.New())
//	    require.NoError(t, tdb.Schema.Ensure(tdb.Ctx()))
//	    ...
//	}
//
// # Isolation
//
// Each TestDB gets its own namespace, removed when the test finishes.
// Reset clears rows but keeps index definitions.
package testdb
