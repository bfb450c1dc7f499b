package repository

import (
	"context"
	"time"

	"github.com/forgo/nonagon/internal/codec"
	"github.com/forgo/nonagon/internal/database"
	"github.com/forgo/nonagon/internal/model"
)

const questTable = "quest"

// QuestRepository handles quest data access
type QuestRepository struct {
	c collection[model.Quest]
}

// NewQuestRepository creates a quest repository and registers its indexes
// on schema.
func NewQuestRepository(db database.Database, schema *database.Schema, cdc *codec.Codec) *QuestRepository {
	schema.Register(
		idIndex(questTable, "quest_id"),
		fieldIndex(questTable, "status"),
		fieldIndex(questTable, "referee_id.value"),
	)
	return &QuestRepository{c: collection[model.Quest]{
		db:      db,
		codec:   cdc,
		table:   questTable,
		idField: "quest_id",
		key: func(q *model.Quest) (int64, string) {
			return q.GuildID, q.QuestID.String()
		},
	}}
}

// Insert stores a new quest. It returns database.ErrDuplicate when the id is
// already taken in the guild.
func (r *QuestRepository) Insert(ctx context.Context, q *model.Quest) error {
	return r.c.insert(ctx, q)
}

// Upsert stores q, replacing any previous version.
func (r *QuestRepository) Upsert(ctx context.Context, q *model.Quest) error {
	return r.c.upsert(ctx, q)
}

// InsertStatement renders the insert of q for an atomic batch.
func (r *QuestRepository) InsertStatement(q *model.Quest) (database.Statement, error) {
	return r.c.insertStatement(q)
}

// UpsertStatement renders the upsert of q for an atomic batch.
func (r *QuestRepository) UpsertStatement(q *model.Quest) (database.Statement, error) {
	return r.c.upsertStatement(q)
}

// Get returns nil, nil when the quest does not exist.
func (r *QuestRepository) Get(ctx context.Context, guildID int64, id model.QuestID) (*model.Quest, error) {
	return r.c.get(ctx, guildID, id.String())
}

// Delete reports whether the quest existed.
func (r *QuestRepository) Delete(ctx context.Context, guildID int64, id model.QuestID) (bool, error) {
	return r.c.delete(ctx, guildID, id.String())
}

// Exists reports whether candidate is used by a quest in the guild.
func (r *QuestRepository) Exists(ctx context.Context, guildID int64, candidate string) (bool, error) {
	return r.c.exists(ctx, guildID, candidate)
}

// List returns the guild's quests, most recently scheduled first.
func (r *QuestRepository) List(ctx context.Context, guildID int64, opts ListOptions) ([]*model.Quest, error) {
	return r.c.list(ctx, guildID, "", nil, "starting_at DESC", opts)
}

// ListByStatus returns the guild's quests in status.
func (r *QuestRepository) ListByStatus(ctx context.Context, guildID int64, status model.QuestStatus, opts ListOptions) ([]*model.Quest, error) {
	return r.c.list(ctx, guildID, "status = $status",
		map[string]interface{}{"status": string(status)}, "starting_at ASC", opts)
}

// ListByReferee returns the quests hosted by referee.
func (r *QuestRepository) ListByReferee(ctx context.Context, guildID int64, referee model.UserID, opts ListOptions) ([]*model.Quest, error) {
	return r.c.list(ctx, guildID, "referee_id.value = $referee",
		map[string]interface{}{"referee": referee.String()}, "starting_at DESC", opts)
}

// ListStartedAnnounced returns announced quests whose start time is at or
// before now.
func (r *QuestRepository) ListStartedAnnounced(ctx context.Context, guildID int64, now time.Time) ([]*model.Quest, error) {
	return r.c.list(ctx, guildID, "status = $status AND starting_at != NONE AND starting_at <= $now",
		map[string]interface{}{
			"status": string(model.QuestStatusAnnounced),
			"now":    now.UTC(),
		}, "starting_at ASC", ListOptions{})
}

// Guilds returns the ids of guilds that have quests.
func (r *QuestRepository) Guilds(ctx context.Context) ([]int64, error) {
	return r.c.guilds(ctx)
}
