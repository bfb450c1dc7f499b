package repository

import (
	"context"

	"github.com/forgo/nonagon/internal/codec"
	"github.com/forgo/nonagon/internal/database"
	"github.com/forgo/nonagon/internal/model"
)

const summaryTable = "summary"

// SummaryRepository handles session summary data access
type SummaryRepository struct {
	c collection[model.Summary]
}

// NewSummaryRepository creates a summary repository and registers its
// indexes on schema.
func NewSummaryRepository(db database.Database, schema *database.Schema, cdc *codec.Codec) *SummaryRepository {
	schema.Register(
		idIndex(summaryTable, "summary_id"),
		fieldIndex(summaryTable, "quest_id.value"),
	)
	return &SummaryRepository{c: collection[model.Summary]{
		db:      db,
		codec:   cdc,
		table:   summaryTable,
		idField: "summary_id",
		key: func(s *model.Summary) (int64, string) {
			return s.GuildID, s.SummaryID.String()
		},
	}}
}

func (r *SummaryRepository) Insert(ctx context.Context, s *model.Summary) error {
	return r.c.insert(ctx, s)
}

func (r *SummaryRepository) Upsert(ctx context.Context, s *model.Summary) error {
	return r.c.upsert(ctx, s)
}

// Get returns nil, nil when the summary does not exist.
func (r *SummaryRepository) Get(ctx context.Context, guildID int64, id model.SummaryID) (*model.Summary, error) {
	return r.c.get(ctx, guildID, id.String())
}

func (r *SummaryRepository) Delete(ctx context.Context, guildID int64, id model.SummaryID) (bool, error) {
	return r.c.delete(ctx, guildID, id.String())
}

func (r *SummaryRepository) Exists(ctx context.Context, guildID int64, candidate string) (bool, error) {
	return r.c.exists(ctx, guildID, candidate)
}

// List returns the guild's summaries, newest first.
func (r *SummaryRepository) List(ctx context.Context, guildID int64, opts ListOptions) ([]*model.Summary, error) {
	return r.c.list(ctx, guildID, "", nil, "created_on DESC", opts)
}

// ListByQuest returns the summaries written for quest.
func (r *SummaryRepository) ListByQuest(ctx context.Context, guildID int64, quest model.QuestID) ([]*model.Summary, error) {
	return r.c.list(ctx, guildID, "quest_id.value = $quest",
		map[string]interface{}{"quest": quest.String()}, "created_on ASC", ListOptions{})
}
