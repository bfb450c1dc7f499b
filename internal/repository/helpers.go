package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/forgo/nonagon/internal/codec"
	"github.com/forgo/nonagon/internal/database"
)

// DefaultListLimit caps List queries that do not set a limit.
const DefaultListLimit = 500

// ListOptions pages a List query.
type ListOptions struct {
	Limit  int
	Offset int
}

func (o ListOptions) limit() int {
	if o.Limit <= 0 {
		return DefaultListLimit
	}
	return o.Limit
}

func (o ListOptions) offset() int {
	if o.Offset < 0 {
		return 0
	}
	return o.Offset
}

// recordKey is the record id within a table: the guild and the canonical
// identifier, so the same identifier may exist in two guilds.
func recordKey(guildID int64, id string) string {
	return fmt.Sprintf("%d_%s", guildID, id)
}

// wrapWrite keeps duplicate errors matchable with errors.Is.
func wrapWrite(op, table string, err error) error {
	if database.IsDuplicate(err) && !errors.Is(err, database.ErrDuplicate) {
		return fmt.Errorf("%s %s: %w: %v", op, table, database.ErrDuplicate, err)
	}
	return fmt.Errorf("%s %s: %w", op, table, err)
}

// toDocument converts one SurrealDB record to a codec document.
func toDocument(v interface{}) (codec.Document, error) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, nil
	case map[interface{}]interface{}:
		out := make(codec.Document, len(m))
		for k, val := range m {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("record key %v is %T, want string", k, k)
			}
			out[key] = val
		}
		return out, nil
	}
	return nil, fmt.Errorf("record is %T, want map", v)
}

// extractCount extracts count from SurrealDB count query result
func extractCount(results []interface{}) int {
	records := database.Records(results, 0)
	if len(records) == 0 {
		return 0
	}
	if data, ok := records[0].(map[string]interface{}); ok {
		return extractCountValue(data["count"])
	}
	return 0
}

// extractCountValue converts various numeric types to int
func extractCountValue(v interface{}) int {
	switch c := v.(type) {
	case float64:
		return int(c)
	case float32:
		return int(c)
	case int:
		return c
	case int64:
		return int(c)
	case uint64:
		return int(c)
	}
	return 0
}

// idIndex is the unique per-guild index on an identifier field.
func idIndex(table, idField string) database.Index {
	return database.Index{
		Table:  table,
		Name:   table + "_" + idField,
		Fields: []string{"guild_id", idField + ".value"},
		Unique: true,
	}
}

// fieldIndex is a non-unique per-guild index on extra fields.
func fieldIndex(table string, fields ...string) database.Index {
	return database.Index{
		Table:  table,
		Name:   table + "_" + strings.ReplaceAll(strings.Join(fields, "_"), ".", "_"),
		Fields: append([]string{"guild_id"}, fields...),
	}
}
