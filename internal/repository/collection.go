package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgo/nonagon/internal/codec"
	"github.com/forgo/nonagon/internal/database"
)

const (
	queryCreate = `CREATE type::thing($table, $key) CONTENT $doc`
	queryUpsert = `UPSERT type::thing($table, $key) CONTENT $doc`
	querySelect = `SELECT * FROM type::thing($table, $key)`
	queryDelete = `DELETE type::thing($table, $key) RETURN BEFORE`
)

// collection stores one record type as codec documents in a SurrealDB table.
// Records are addressed by guild and a per-guild key.
type collection[T any] struct {
	db      database.Database
	codec   *codec.Codec
	table   string
	idField string

	// key returns the guild and the per-guild key of a record.
	key func(*T) (int64, string)
	// extra adds derived fields to the stored document.
	extra func(*T, codec.Document)
}

func (c *collection[T]) encode(rec *T) (map[string]interface{}, error) {
	guildID, key := c.key(rec)
	doc, err := c.codec.Encode(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.table, err)
	}
	if c.extra != nil {
		c.extra(rec, doc)
	}
	return map[string]interface{}{
		"table": c.table,
		"key":   recordKey(guildID, key),
		"doc":   doc,
	}, nil
}

func (c *collection[T]) keyVars(guildID int64, key string) map[string]interface{} {
	return map[string]interface{}{
		"table": c.table,
		"key":   recordKey(guildID, key),
	}
}

// insert creates the record and fails with database.ErrDuplicate if its key
// or a unique index is already taken.
func (c *collection[T]) insert(ctx context.Context, rec *T) error {
	stmt, err := c.insertStatement(rec)
	if err != nil {
		return err
	}
	if err := c.db.Execute(ctx, stmt.Query, stmt.Vars); err != nil {
		return wrapWrite("insert", c.table, err)
	}
	return nil
}

// insertStatement renders the create of rec without running it.
func (c *collection[T]) insertStatement(rec *T) (database.Statement, error) {
	vars, err := c.encode(rec)
	if err != nil {
		return database.Statement{}, err
	}
	return database.Statement{Query: queryCreate, Vars: vars}, nil
}

// upsertStatement renders the write of rec without running it.
func (c *collection[T]) upsertStatement(rec *T) (database.Statement, error) {
	vars, err := c.encode(rec)
	if err != nil {
		return database.Statement{}, err
	}
	return database.Statement{Query: queryUpsert, Vars: vars}, nil
}

// upsert replaces the stored document with rec.
func (c *collection[T]) upsert(ctx context.Context, rec *T) error {
	stmt, err := c.upsertStatement(rec)
	if err != nil {
		return err
	}
	if err := c.db.Execute(ctx, stmt.Query, stmt.Vars); err != nil {
		return wrapWrite("upsert", c.table, err)
	}
	return nil
}

// get returns nil, nil when the record does not exist.
func (c *collection[T]) get(ctx context.Context, guildID int64, key string) (*T, error) {
	result, err := c.db.QueryOne(ctx, querySelect, c.keyVars(guildID, key))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", c.table, err)
	}
	return c.decode(result)
}

// delete reports whether a record was removed.
func (c *collection[T]) delete(ctx context.Context, guildID int64, key string) (bool, error) {
	results, err := c.db.Query(ctx, queryDelete, c.keyVars(guildID, key))
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", c.table, err)
	}
	return len(database.Records(results, 0)) > 0, nil
}

// list returns a guild's records matching the optional filter, a SurrealQL
// condition over vars.
func (c *collection[T]) list(ctx context.Context, guildID int64, filter string, vars map[string]interface{}, orderBy string, opts ListOptions) ([]*T, error) {
	query := `SELECT * FROM type::table($table) WHERE guild_id = $guild_id`
	if filter != "" {
		query += ` AND (` + filter + `)`
	}
	if orderBy != "" {
		query += ` ORDER BY ` + orderBy
	}
	query += ` LIMIT $limit START $offset`

	all := map[string]interface{}{
		"table":    c.table,
		"guild_id": guildID,
		"limit":    opts.limit(),
		"offset":   opts.offset(),
	}
	for k, v := range vars {
		all[k] = v
	}

	results, err := c.db.Query(ctx, query, all)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.table, err)
	}
	return c.decodeAll(database.Records(results, 0))
}

// listAll pages through every record matching filter.
func (c *collection[T]) listAll(ctx context.Context, guildID int64, filter string, vars map[string]interface{}, orderBy string) ([]*T, error) {
	var out []*T
	for offset := 0; ; offset += DefaultListLimit {
		page, err := c.list(ctx, guildID, filter, vars, orderBy, ListOptions{Limit: DefaultListLimit, Offset: offset})
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < DefaultListLimit {
			return out, nil
		}
	}
}

// exists checks the identifier field, which carries the unique index.
func (c *collection[T]) exists(ctx context.Context, guildID int64, canonical string) (bool, error) {
	query := fmt.Sprintf(
		`SELECT count() AS count FROM type::table($table) WHERE guild_id = $guild_id AND %s.value = $value GROUP ALL`,
		c.idField)
	results, err := c.db.Query(ctx, query, map[string]interface{}{
		"table":    c.table,
		"guild_id": guildID,
		"value":    canonical,
	})
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", c.table, err)
	}
	return extractCount(results) > 0, nil
}

// guilds returns the distinct guild ids present in the table.
func (c *collection[T]) guilds(ctx context.Context) ([]int64, error) {
	results, err := c.db.Query(ctx,
		`SELECT guild_id FROM type::table($table) GROUP BY guild_id`,
		map[string]interface{}{"table": c.table})
	if err != nil {
		return nil, fmt.Errorf("list %s guilds: %w", c.table, err)
	}

	var ids []int64
	for _, r := range database.Records(results, 0) {
		var row struct {
			GuildID int64 `doc:"guild_id"`
		}
		doc, err := toDocument(r)
		if err != nil {
			return nil, err
		}
		if err := c.codec.Decode(doc, &row); err != nil {
			return nil, err
		}
		ids = append(ids, row.GuildID)
	}
	return ids, nil
}

func (c *collection[T]) decode(v interface{}) (*T, error) {
	doc, err := toDocument(v)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.table, err)
	}
	rec := new(T)
	if err := c.codec.Decode(doc, rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.table, err)
	}
	return rec, nil
}

func (c *collection[T]) decodeAll(records []interface{}) ([]*T, error) {
	out := make([]*T, 0, len(records))
	for _, r := range records {
		rec, err := c.decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
