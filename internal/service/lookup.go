package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/forgo/nonagon/internal/model"
)

// LookupStore defines the interface for lookup entry storage
type LookupStore interface {
	Upsert(ctx context.Context, e *model.LookupEntry) error
	Get(ctx context.Context, guildID int64, name string) (*model.LookupEntry, error)
	Delete(ctx context.Context, guildID int64, name string) (bool, error)
	List(ctx context.Context, guildID int64) ([]*model.LookupEntry, error)
}

// LookupService manages a guild's named links.
type LookupService struct {
	store  LookupStore
	now    func() time.Time
	logger *slog.Logger
}

// LookupServiceConfig holds configuration for the lookup service
type LookupServiceConfig struct {
	Store  LookupStore
	Now    func() time.Time
	Logger *slog.Logger
}

// NewLookupService creates a new lookup service
func NewLookupService(cfg LookupServiceConfig) *LookupService {
	s := &LookupService{store: cfg.Store, now: cfg.Now, logger: cfg.Logger}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// LookupInput is the user-supplied part of an entry.
type LookupInput struct {
	Name        string
	URL         string
	Description *string
}

// Set creates the entry for in.Name or updates the one whose normalized name
// matches. Updates keep the original creator and record userID as editor.
func (s *LookupService) Set(ctx context.Context, guildID int64, userID int64, in LookupInput) (*model.LookupEntry, error) {
	now := s.now()

	entry, err := s.store.Get(ctx, guildID, in.Name)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		entry = model.NewLookupEntry(guildID, in.Name, in.URL, userID, now)
		entry.Description = in.Description
	} else {
		entry.Name = in.Name
		entry.URL = in.URL
		entry.Description = in.Description
		entry.TouchUpdated(userID, now)
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Upsert(ctx, entry); err != nil {
		return nil, fmt.Errorf("save lookup %q: %w", entry.Key(), err)
	}

	s.logger.Info("lookup saved",
		slog.Int64("guild_id", guildID),
		slog.String("name", entry.Key()),
	)
	return entry, nil
}

// Get returns the entry with the normalized name.
func (s *LookupService) Get(ctx context.Context, guildID int64, name string) (*model.LookupEntry, error) {
	entry, err := s.store.Get(ctx, guildID, name)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrLookupNotFound
	}
	return entry, nil
}

// Delete removes the entry with the normalized name.
func (s *LookupService) Delete(ctx context.Context, guildID int64, name string) error {
	removed, err := s.store.Delete(ctx, guildID, name)
	if err != nil {
		return err
	}
	if !removed {
		return ErrLookupNotFound
	}
	return nil
}

// List returns the guild's entries ordered by normalized name.
func (s *LookupService) List(ctx context.Context, guildID int64) ([]*model.LookupEntry, error) {
	return s.store.List(ctx, guildID)
}

// FindBestMatch returns the best entry for a free-text query: exact name,
// then prefix, then substring.
func (s *LookupService) FindBestMatch(ctx context.Context, guildID int64, query string) (*model.LookupEntry, error) {
	entries, err := s.store.List(ctx, guildID)
	if err != nil {
		return nil, err
	}
	best := model.BestLookupMatch(entries, query)
	if best == nil {
		return nil, ErrLookupNotFound
	}
	return best, nil
}
