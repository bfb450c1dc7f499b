package database

// Atomic writes
//
// AtomicBatch groups statements that must succeed together, e.g. a quest
// signup that rewrites the quest and the player's profile:
//
//	batch := NewAtomicBatch()
//	batch.Add(upsertQuest, questVars)
//	batch.Add(upsertUser, userVars)
//	batch.Execute(ctx, db) // all or nothing
//
// Statements are sent as one BEGIN/COMMIT TRANSACTION block. Variables are
// namespaced per statement ($doc -> $v1_doc) so statements may reuse names.

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
)

// Statement is one query and its variables.
type Statement struct {
	Query string
	Vars  map[string]interface{}
}

// TxBuilder builds atomic transaction queries with automatic variable namespacing.
type TxBuilder struct {
	statements []string
	vars       map[string]interface{}
	varCounter int
}

// NewTxBuilder creates a new transaction builder
func NewTxBuilder() *TxBuilder {
	return &TxBuilder{
		vars: make(map[string]interface{}),
	}
}

// Add adds a statement to the transaction, namespacing its variables.
// It returns the original-to-namespaced variable names.
func (tb *TxBuilder) Add(query string, vars map[string]interface{}) map[string]string {
	// Longest names first so $guild_id is rewritten before $guild.
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		return cmp.Or(cmp.Compare(len(b), len(a)), strings.Compare(a, b))
	})

	varMapping := make(map[string]string, len(vars))
	for _, name := range names {
		tb.varCounter++
		varMapping[name] = fmt.Sprintf("v%d_%s", tb.varCounter, name)
	}

	newQuery := query
	for _, name := range names {
		newQuery = strings.ReplaceAll(newQuery, "$"+name, "${"+name+"}")
	}
	for _, name := range names {
		newQuery = strings.ReplaceAll(newQuery, "${"+name+"}", "$"+varMapping[name])
		tb.vars[varMapping[name]] = vars[name]
	}

	tb.statements = append(tb.statements, newQuery)
	return varMapping
}

// Len returns the number of statements added so far.
func (tb *TxBuilder) Len() int {
	return len(tb.statements)
}

// Build returns the complete transaction query and merged variables
func (tb *TxBuilder) Build() (string, map[string]interface{}) {
	if len(tb.statements) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range tb.statements {
		sb.WriteString(stmt)
		if !strings.HasSuffix(strings.TrimSpace(stmt), ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	return sb.String(), tb.vars
}

// ExecuteTransaction executes a transaction built with TxBuilder
func ExecuteTransaction(ctx context.Context, db Database, tb *TxBuilder) ([]interface{}, error) {
	query, vars := tb.Build()
	if query == "" {
		return nil, nil
	}

	return db.Query(ctx, query, vars)
}

// AtomicBatch provides a simpler API for batch operations that should be atomic
type AtomicBatch struct {
	queries []batchQuery
}

type batchQuery struct {
	query string
	vars  map[string]interface{}
}

// NewAtomicBatch creates a new atomic batch
func NewAtomicBatch() *AtomicBatch {
	return &AtomicBatch{}
}

// Add adds a query to the batch
func (ab *AtomicBatch) Add(query string, vars map[string]interface{}) *AtomicBatch {
	ab.queries = append(ab.queries, batchQuery{query: query, vars: vars})
	return ab
}

// AddStatements adds prepared statements to the batch
func (ab *AtomicBatch) AddStatements(stmts ...Statement) *AtomicBatch {
	for _, s := range stmts {
		ab.Add(s.Query, s.Vars)
	}
	return ab
}

// Execute runs all queries as a single transaction
func (ab *AtomicBatch) Execute(ctx context.Context, db Database) error {
	if len(ab.queries) == 0 {
		return nil
	}

	tb := NewTxBuilder()
	for _, q := range ab.queries {
		tb.Add(q.query, q.vars)
	}

	_, err := ExecuteTransaction(ctx, db, tb)
	return err
}

// Len returns the number of queries in the batch
func (ab *AtomicBatch) Len() int {
	return len(ab.queries)
}
