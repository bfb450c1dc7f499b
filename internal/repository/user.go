package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgo/nonagon/internal/codec"
	"github.com/forgo/nonagon/internal/database"
	"github.com/forgo/nonagon/internal/model"
)

const userTable = "user"

// UserRepository handles guild member data access
type UserRepository struct {
	c collection[model.User]
}

// NewUserRepository creates a user repository and registers its indexes on
// schema.
func NewUserRepository(db database.Database, schema *database.Schema, cdc *codec.Codec) *UserRepository {
	schema.Register(
		idIndex(userTable, "user_id"),
		fieldIndex(userTable, "discord_id"),
	)
	return &UserRepository{c: collection[model.User]{
		db:      db,
		codec:   cdc,
		table:   userTable,
		idField: "user_id",
		key: func(u *model.User) (int64, string) {
			return u.GuildID, u.UserID.String()
		},
	}}
}

// Insert stores a new user, failing with database.ErrDuplicate on a taken id.
func (r *UserRepository) Insert(ctx context.Context, u *model.User) error {
	return r.c.insert(ctx, u)
}

func (r *UserRepository) Upsert(ctx context.Context, u *model.User) error {
	return r.c.upsert(ctx, u)
}

// UpsertStatement renders the upsert of u for an atomic batch.
func (r *UserRepository) UpsertStatement(u *model.User) (database.Statement, error) {
	return r.c.upsertStatement(u)
}

// Get returns nil, nil when the user does not exist.
func (r *UserRepository) Get(ctx context.Context, guildID int64, id model.UserID) (*model.User, error) {
	return r.c.get(ctx, guildID, id.String())
}

func (r *UserRepository) Delete(ctx context.Context, guildID int64, id model.UserID) (bool, error) {
	return r.c.delete(ctx, guildID, id.String())
}

func (r *UserRepository) Exists(ctx context.Context, guildID int64, candidate string) (bool, error) {
	return r.c.exists(ctx, guildID, candidate)
}

func (r *UserRepository) List(ctx context.Context, guildID int64, opts ListOptions) ([]*model.User, error) {
	return r.c.list(ctx, guildID, "", nil, "joined_at ASC", opts)
}

// GetByDiscordID returns nil, nil when no member has discordID.
func (r *UserRepository) GetByDiscordID(ctx context.Context, guildID int64, discordID string) (*model.User, error) {
	query := `SELECT * FROM type::table($table) WHERE guild_id = $guild_id AND discord_id = $discord_id LIMIT 1`
	result, err := r.c.db.QueryOne(ctx, query, map[string]interface{}{
		"table":      userTable,
		"guild_id":   guildID,
		"discord_id": discordID,
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by discord id: %w", err)
	}
	return r.c.decode(result)
}
