// Package database provides the SurrealDB storage layer for Nonagon.
//
// The Database interface abstracts SurrealDB so repositories can be tested
// against a mock:
//
//	type Database interface {
//	    Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)
//	    QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)
//	    Execute(ctx context.Context, query string, vars map[string]interface{}) error
//	    ...
//	}
//
// Query returns one {status, result} entry per statement; use Records and
// FirstRecord to unwrap them.
//
// # Schema
//
// Index definitions live on an explicit *Schema handed to repository
// constructors. Ensure applies them once per Schema value:
//
//	schema := database.NewSchema(db)
//	quests := repository.NewQuestRepository(db, schema, c)
//	_ = schema.Ensure(ctx)
//
// # Error Types
//
//   - ErrNotFound: Record does not exist
//   - ErrDuplicate: Record id or unique index already taken
//   - ErrConnection: Database connection failed
//   - ErrQuery: Query execution failed
package database
