package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/forgo/nonagon/internal/codec"
	"github.com/forgo/nonagon/internal/database"
	"github.com/forgo/nonagon/internal/model"
)

const lookupTable = "lookup"

// lookupNamespace seeds the name-based UUIDs used as lookup record keys.
var lookupNamespace = uuid.MustParse("4f1c2b7e-8d0a-5c3e-9b61-2a7d4e90c5f3")

// LookupKey returns the stable record key for name within a guild. Names that
// normalize to the same text share a key.
func LookupKey(guildID int64, name string) string {
	seed := strconv.FormatInt(guildID, 10) + "|" + model.NormalizeLookupName(name)
	return uuid.NewSHA1(lookupNamespace, []byte(seed)).String()
}

// LookupRepository handles lookup entry data access
type LookupRepository struct {
	c collection[model.LookupEntry]
}

// NewLookupRepository creates a lookup repository and registers its indexes
// on schema.
func NewLookupRepository(db database.Database, schema *database.Schema, cdc *codec.Codec) *LookupRepository {
	schema.Register(database.Index{
		Table:  lookupTable,
		Name:   "lookup_guild_name_key",
		Fields: []string{"guild_id", "name_key"},
		Unique: true,
	})
	return &LookupRepository{c: collection[model.LookupEntry]{
		db:    db,
		codec: cdc,
		table: lookupTable,
		key: func(e *model.LookupEntry) (int64, string) {
			return e.GuildID, LookupKey(e.GuildID, e.Name)
		},
		extra: func(e *model.LookupEntry, doc codec.Document) {
			doc["name_key"] = e.Key()
		},
	}}
}

// Upsert validates and stores e under its normalized name.
func (r *LookupRepository) Upsert(ctx context.Context, e *model.LookupEntry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("upsert lookup: %w", err)
	}
	return r.c.upsert(ctx, e)
}

// Get returns nil, nil when no entry has the normalized name.
func (r *LookupRepository) Get(ctx context.Context, guildID int64, name string) (*model.LookupEntry, error) {
	return r.c.get(ctx, guildID, LookupKey(guildID, name))
}

// Delete reports whether an entry with the normalized name existed.
func (r *LookupRepository) Delete(ctx context.Context, guildID int64, name string) (bool, error) {
	return r.c.delete(ctx, guildID, LookupKey(guildID, name))
}

// List returns every entry of the guild ordered by normalized name, reading
// DefaultListLimit entries per query.
func (r *LookupRepository) List(ctx context.Context, guildID int64) ([]*model.LookupEntry, error) {
	return r.c.listAll(ctx, guildID, "", nil, "name_key ASC")
}

// FindBestMatch scores all of the guild's entries against query. It returns nil, nil
// when nothing matches.
func (r *LookupRepository) FindBestMatch(ctx context.Context, guildID int64, query string) (*model.LookupEntry, error) {
	entries, err := r.List(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return model.BestLookupMatch(entries, query), nil
}
