package repository

import (
	"context"

	"github.com/forgo/nonagon/internal/codec"
	"github.com/forgo/nonagon/internal/database"
	"github.com/forgo/nonagon/internal/model"
)

const characterTable = "character"

// CharacterRepository handles character data access
type CharacterRepository struct {
	c collection[model.Character]
}

// NewCharacterRepository creates a character repository and registers its
// indexes on schema.
func NewCharacterRepository(db database.Database, schema *database.Schema, cdc *codec.Codec) *CharacterRepository {
	schema.Register(
		idIndex(characterTable, "character_id"),
		fieldIndex(characterTable, "owner_id.value"),
	)
	return &CharacterRepository{c: collection[model.Character]{
		db:      db,
		codec:   cdc,
		table:   characterTable,
		idField: "character_id",
		key: func(ch *model.Character) (int64, string) {
			return ch.GuildID, ch.CharacterID.String()
		},
	}}
}

// Insert stores a new character, failing with database.ErrDuplicate on a
// taken id.
func (r *CharacterRepository) Insert(ctx context.Context, ch *model.Character) error {
	return r.c.insert(ctx, ch)
}

func (r *CharacterRepository) Upsert(ctx context.Context, ch *model.Character) error {
	return r.c.upsert(ctx, ch)
}

// Get returns nil, nil when the character does not exist.
func (r *CharacterRepository) Get(ctx context.Context, guildID int64, id model.CharacterID) (*model.Character, error) {
	return r.c.get(ctx, guildID, id.String())
}

func (r *CharacterRepository) Delete(ctx context.Context, guildID int64, id model.CharacterID) (bool, error) {
	return r.c.delete(ctx, guildID, id.String())
}

func (r *CharacterRepository) Exists(ctx context.Context, guildID int64, candidate string) (bool, error) {
	return r.c.exists(ctx, guildID, candidate)
}

// List returns the guild's characters by name.
func (r *CharacterRepository) List(ctx context.Context, guildID int64, opts ListOptions) ([]*model.Character, error) {
	return r.c.list(ctx, guildID, "", nil, "name ASC", opts)
}

// ListByOwner returns the characters owned by owner.
func (r *CharacterRepository) ListByOwner(ctx context.Context, guildID int64, owner model.UserID) ([]*model.Character, error) {
	return r.c.list(ctx, guildID, "owner_id.value = $owner",
		map[string]interface{}{"owner": owner.String()}, "name ASC", ListOptions{})
}
