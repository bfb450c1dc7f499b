// Package helpers provides common test utilities.
//
// This package includes a function-field mock of database.Database, builders
// for SurrealDB-shaped query results and small pointer helpers.
package helpers

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/forgo/nonagon/internal/database"
)

// ============================================================================
// Database Mock
// ============================================================================

// Call records one statement sent to a MockDB.
type Call struct {
	Query string
	Vars  map[string]interface{}
}

// MockDB implements database.Database with overridable functions. Unset
// functions succeed with empty results. Every call is recorded.
type MockDB struct {
	QueryFunc    func(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)
	QueryOneFunc func(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)
	ExecuteFunc  func(ctx context.Context, query string, vars map[string]interface{}) error

	mu    sync.Mutex
	calls []Call
}

var _ database.Database = (*MockDB)(nil)

func (m *MockDB) Connect(ctx context.Context) error { return nil }
func (m *MockDB) Close() error                      { return nil }
func (m *MockDB) Ping(ctx context.Context) error    { return nil }

func (m *MockDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	m.record(query, vars)
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, query, vars)
	}
	return nil, nil
}

func (m *MockDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	if m.QueryOneFunc != nil {
		m.record(query, vars)
		return m.QueryOneFunc(ctx, query, vars)
	}
	results, err := m.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return database.FirstRecord(results)
}

func (m *MockDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	if m.ExecuteFunc != nil {
		m.record(query, vars)
		return m.ExecuteFunc(ctx, query, vars)
	}
	_, err := m.Query(ctx, query, vars)
	return err
}

func (m *MockDB) record(query string, vars map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Query: query, Vars: vars})
}

// Calls returns the recorded calls in order.
func (m *MockDB) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsMatching returns the recorded calls whose query contains substr.
func (m *MockDB) CallsMatching(substr string) []Call {
	var out []Call
	for _, c := range m.Calls() {
		if strings.Contains(c.Query, substr) {
			out = append(out, c)
		}
	}
	return out
}

// ============================================================================
// Result Builders
// ============================================================================

// OK wraps records the way SurrealDB reports one successful statement.
func OK(records ...interface{}) map[string]interface{} {
	result := make([]interface{}, 0, len(records))
	result = append(result, records...)
	return map[string]interface{}{"status": "OK", "result": result}
}

// Results builds a Query return value from per-statement results.
func Results(statements ...map[string]interface{}) []interface{} {
	out := make([]interface{}, 0, len(statements))
	for _, s := range statements {
		out = append(out, s)
	}
	return out
}

// ============================================================================
// Pointer Helpers
// ============================================================================

func StringPtr(s string) *string {
	return &s
}

func Int64Ptr(i int64) *int64 {
	return &i
}

func TimePtr(t time.Time) *time.Time {
	return &t
}

func DurationPtr(d time.Duration) *time.Duration {
	return &d
}

// MustParseTime parses value with layout, failing the test on error.
func MustParseTime(t *testing.T, layout, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(layout, value)
	if err != nil {
		t.Fatalf("helpers: failed to parse time %q: %v", value, err)
	}
	return parsed
}
