package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/forgo/nonagon/internal/database"
	"github.com/forgo/nonagon/internal/model"
)

// QuestStore defines the interface for quest storage
type QuestStore interface {
	Upsert(ctx context.Context, q *model.Quest) error
	InsertStatement(q *model.Quest) (database.Statement, error)
	UpsertStatement(q *model.Quest) (database.Statement, error)
	Get(ctx context.Context, guildID int64, id model.QuestID) (*model.Quest, error)
	Delete(ctx context.Context, guildID int64, id model.QuestID) (bool, error)
	ListStartedAnnounced(ctx context.Context, guildID int64, now time.Time) ([]*model.Quest, error)
}

// UserStore defines the user lookups and writes quest operations need
type UserStore interface {
	Get(ctx context.Context, guildID int64, id model.UserID) (*model.User, error)
	UpsertStatement(u *model.User) (database.Statement, error)
}

// CharacterStore defines the character lookups quest operations need
type CharacterStore interface {
	Get(ctx context.Context, guildID int64, id model.CharacterID) (*model.Character, error)
}

// QuestService handles quest business logic
type QuestService struct {
	db         database.Database
	quests     QuestStore
	users      UserStore
	characters CharacterStore
	allocator  *Allocator
	now        func() time.Time
	logger     *slog.Logger
}

// QuestServiceConfig holds configuration for the quest service
type QuestServiceConfig struct {
	DB         database.Database
	Quests     QuestStore
	Users      UserStore
	Characters CharacterStore
	Allocator  *Allocator
	Now        func() time.Time
	Logger     *slog.Logger
}

// NewQuestService creates a new quest service
func NewQuestService(cfg QuestServiceConfig) *QuestService {
	s := &QuestService{
		db:         cfg.DB,
		quests:     cfg.Quests,
		users:      cfg.Users,
		characters: cfg.Characters,
		allocator:  cfg.Allocator,
		now:        cfg.Now,
		logger:     cfg.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// CreateQuestInput holds the fields of a new quest.
type CreateQuestInput struct {
	RefereeID   model.UserID
	Raw         string
	Title       string
	Description string
	ChannelID   *string
	MessageID   *string
	StartingAt  *time.Time
	Duration    *time.Duration
	ImageURL    *string
}

// UpdateQuestInput holds replacement fields. Nil fields are left untouched.
type UpdateQuestInput struct {
	Title       *string
	Description *string
	StartingAt  *time.Time
	Duration    *time.Duration
	ImageURL    *string
}

// ============================================================================
// CRUD
// ============================================================================

// Create allocates an identifier and stores a draft quest. The referee must
// be a known member; a referee profile, when present, records the quest.
func (s *QuestService) Create(ctx context.Context, guildID int64, in CreateQuestInput) (*model.Quest, error) {
	referee, err := s.requireUser(ctx, guildID, in.RefereeID)
	if err != nil {
		return nil, err
	}
	hostsQuests := referee.Referee != nil
	now := s.now()

	var quest *model.Quest
	_, err = AllocateAndInsert(ctx, s.allocator, guildID, func(ctx context.Context, id model.QuestID) error {
		q := model.NewQuest(id, guildID, in.RefereeID, in.Raw)
		q.Title = in.Title
		q.Description = in.Description
		q.ChannelID = in.ChannelID
		q.MessageID = in.MessageID
		q.ImageURL = in.ImageURL
		if in.StartingAt != nil {
			t := in.StartingAt.UTC()
			q.StartingAt = &t
		}
		q.Duration = in.Duration
		if err := q.Validate(now); err != nil {
			return err
		}

		batch := database.NewAtomicBatch()
		stmt, err := s.quests.InsertStatement(q)
		if err != nil {
			return err
		}
		batch.AddStatements(stmt)

		if hostsQuests {
			// Fresh copy per attempt so a retried id is not recorded.
			u, err := s.requireUser(ctx, guildID, in.RefereeID)
			if err != nil {
				return err
			}
			ref, err := u.GetReferee()
			if err != nil {
				return err
			}
			ref.AddQuestHosted(id)
			stmt, err := s.users.UpsertStatement(u)
			if err != nil {
				return err
			}
			batch.AddStatements(stmt)
		}

		if err := batch.Execute(ctx, s.db); err != nil {
			return err
		}
		quest = q
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quest created",
		slog.Int64("guild_id", guildID),
		slog.String("quest_id", quest.QuestID.String()),
		slog.String("referee_id", quest.RefereeID.String()),
	)
	return quest, nil
}

// Get returns the quest or ErrQuestNotFound.
func (s *QuestService) Get(ctx context.Context, guildID int64, id model.QuestID) (*model.Quest, error) {
	q, err := s.quests.Get(ctx, guildID, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, ErrQuestNotFound
	}
	return q, nil
}

// Update replaces the given fields and revalidates the quest.
func (s *QuestService) Update(ctx context.Context, guildID int64, id model.QuestID, in UpdateQuestInput) (*model.Quest, error) {
	q, err := s.Get(ctx, guildID, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		q.Title = *in.Title
	}
	if in.Description != nil {
		q.Description = *in.Description
	}
	if in.StartingAt != nil || in.Duration != nil {
		start, duration := q.StartingAt, q.Duration
		if in.StartingAt != nil {
			start = in.StartingAt
		}
		if in.Duration != nil {
			duration = in.Duration
		}
		q.StartingAt, q.Duration = nil, duration
		if start != nil {
			t := start.UTC()
			q.StartingAt = &t
		}
	}
	if in.ImageURL != nil {
		q.ImageURL = in.ImageURL
	}

	if err := q.Validate(s.now()); err != nil {
		return nil, err
	}
	if err := s.quests.Upsert(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Delete removes the quest.
func (s *QuestService) Delete(ctx context.Context, guildID int64, id model.QuestID) error {
	removed, err := s.quests.Delete(ctx, guildID, id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrQuestNotFound
	}
	return nil
}

// ============================================================================
// Lifecycle
// ============================================================================

// Announce opens signups. The quest is revalidated, so a start time in the
// past blocks the announcement.
func (s *QuestService) Announce(ctx context.Context, guildID int64, id model.QuestID) (*model.Quest, error) {
	return s.mutate(ctx, guildID, id, func(q *model.Quest) error {
		now := s.now().UTC()
		if err := q.Validate(now); err != nil {
			return err
		}
		if err := q.Announce(); err != nil {
			return err
		}
		q.AnnounceAt = &now
		return nil
	})
}

// CloseSignups stops accepting signups.
func (s *QuestService) CloseSignups(ctx context.Context, guildID int64, id model.QuestID) (*model.Quest, error) {
	return s.mutate(ctx, guildID, id, (*model.Quest).CloseSignups)
}

// Cancel cancels a quest that has not ended.
func (s *QuestService) Cancel(ctx context.Context, guildID int64, id model.QuestID) (*model.Quest, error) {
	return s.mutate(ctx, guildID, id, (*model.Quest).Cancel)
}

// Complete marks the quest played. Selected players and the referee get the
// quest on their profiles in the same transaction.
func (s *QuestService) Complete(ctx context.Context, guildID int64, id model.QuestID) (*model.Quest, error) {
	q, err := s.Get(ctx, guildID, id)
	if err != nil {
		return nil, err
	}
	if err := q.Complete(); err != nil {
		return nil, err
	}
	now := s.now()
	q.MarkEnded(now)

	batch := database.NewAtomicBatch()
	stmt, err := s.quests.UpsertStatement(q)
	if err != nil {
		return nil, err
	}
	batch.AddStatements(stmt)

	for _, signup := range q.SelectedSignups() {
		u, err := s.users.Get(ctx, guildID, signup.UserID)
		if err != nil {
			return nil, err
		}
		if u == nil {
			s.logger.Warn("selected player missing on completion",
				slog.String("quest_id", q.QuestID.String()),
				slog.String("user_id", signup.UserID.String()),
			)
			continue
		}
		player, err := u.GetPlayer()
		if err != nil {
			continue
		}
		player.AddQuestPlayed(q.QuestID)
		player.UpdateLastPlayedOn(now)
		if stmt, err = s.users.UpsertStatement(u); err != nil {
			return nil, err
		}
		batch.AddStatements(stmt)
	}

	referee, err := s.users.Get(ctx, guildID, q.RefereeID)
	if err != nil {
		return nil, err
	}
	if referee != nil {
		if ref, err := referee.GetReferee(); err == nil {
			ref.AddQuestHosted(q.QuestID)
			ref.UpdateLastDMedOn(now)
			if stmt, err = s.users.UpsertStatement(referee); err != nil {
				return nil, err
			}
			batch.AddStatements(stmt)
		}
	}

	if err := batch.Execute(ctx, s.db); err != nil {
		return nil, fmt.Errorf("complete quest %s: %w", q.QuestID, err)
	}
	return q, nil
}

// CloseStartedQuests closes signups on every announced quest of the guild
// whose start time is at or before now. It returns the number closed.
func (s *QuestService) CloseStartedQuests(ctx context.Context, guildID int64) (int, error) {
	now := s.now()
	quests, err := s.quests.ListStartedAnnounced(ctx, guildID, now)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, q := range quests {
		if !q.HasStarted(now) {
			continue
		}
		if err := q.CloseSignups(); err != nil {
			return closed, err
		}
		q.MarkStarted(*q.StartingAt)
		if err := s.quests.Upsert(ctx, q); err != nil {
			return closed, err
		}
		closed++
	}
	return closed, nil
}

// ============================================================================
// Signups
// ============================================================================

// SignUp applies userID to the quest with one of their characters. The
// player's profile records the application in the same transaction.
func (s *QuestService) SignUp(ctx context.Context, guildID int64, questID model.QuestID, userID model.UserID, characterID model.CharacterID) (*model.Quest, error) {
	q, err := s.Get(ctx, guildID, questID)
	if err != nil {
		return nil, err
	}
	u, err := s.requireUser(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if s.characters != nil {
		ch, err := s.characters.Get(ctx, guildID, characterID)
		if err != nil {
			return nil, err
		}
		if ch == nil {
			return nil, ErrCharacterNotFound
		}
	}

	player, err := u.GetPlayer()
	if err != nil {
		return nil, err
	}
	if !u.IsCharacterOwner(characterID) {
		return nil, fmt.Errorf("%w: %s", ErrCharacterNotOwned, characterID)
	}
	if err := q.AddSignup(userID, characterID); err != nil {
		return nil, err
	}
	player.AddQuestApplied(questID)

	if err := s.saveQuestAndUser(ctx, q, u); err != nil {
		return nil, err
	}
	return q, nil
}

// SelectSignup moves userID's application to SELECTED.
func (s *QuestService) SelectSignup(ctx context.Context, guildID int64, questID model.QuestID, userID model.UserID) (*model.Quest, error) {
	u, err := s.requireUser(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsPlayer() {
		return nil, model.ErrNotPlayer
	}
	return s.mutate(ctx, guildID, questID, func(q *model.Quest) error {
		return q.SelectSignup(userID)
	})
}

// RemoveSignup withdraws userID's application.
func (s *QuestService) RemoveSignup(ctx context.Context, guildID int64, questID model.QuestID, userID model.UserID) (*model.Quest, error) {
	q, err := s.Get(ctx, guildID, questID)
	if err != nil {
		return nil, err
	}
	u, err := s.requireUser(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	player, err := u.GetPlayer()
	if err != nil {
		return nil, err
	}
	if err := q.RemoveSignup(userID); err != nil {
		return nil, err
	}
	player.RemoveQuestApplied(questID)

	if err := s.saveQuestAndUser(ctx, q, u); err != nil {
		return nil, err
	}
	return q, nil
}

// ============================================================================
// Helpers
// ============================================================================

func (s *QuestService) mutate(ctx context.Context, guildID int64, id model.QuestID, fn func(*model.Quest) error) (*model.Quest, error) {
	q, err := s.Get(ctx, guildID, id)
	if err != nil {
		return nil, err
	}
	from := q.Status
	if err := fn(q); err != nil {
		return nil, err
	}
	if err := s.quests.Upsert(ctx, q); err != nil {
		return nil, err
	}
	if from != q.Status {
		s.logger.Info("quest status changed",
			slog.Int64("guild_id", guildID),
			slog.String("quest_id", id.String()),
			slog.String("from", string(from)),
			slog.String("to", string(q.Status)),
		)
	}
	return q, nil
}

func (s *QuestService) requireUser(ctx context.Context, guildID int64, id model.UserID) (*model.User, error) {
	u, err := s.users.Get(ctx, guildID, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return u, nil
}

func (s *QuestService) saveQuestAndUser(ctx context.Context, q *model.Quest, u *model.User) error {
	questStmt, err := s.quests.UpsertStatement(q)
	if err != nil {
		return err
	}
	userStmt, err := s.users.UpsertStatement(u)
	if err != nil {
		return err
	}
	return database.NewAtomicBatch().AddStatements(questStmt, userStmt).Execute(ctx, s.db)
}
