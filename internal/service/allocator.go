package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/forgo/nonagon/internal/database"
	"github.com/forgo/nonagon/internal/model"
)

// ExistenceChecker reports whether a canonical identifier is already used by
// a record of kind in a guild.
type ExistenceChecker interface {
	Exists(ctx context.Context, guildID int64, kind model.Kind, candidate string) (bool, error)
}

// Claimer reserves a candidate for a short time so allocators in other
// processes skip it. Claim returns false when someone else holds it.
type Claimer interface {
	Claim(ctx context.Context, guildID int64, kind model.Kind, candidate string) (bool, error)
}

// AllocatorConfig holds the allocator collaborators.
type AllocatorConfig struct {
	Existence ExistenceChecker
	Claimer   Claimer // optional

	// MaxAttempts bounds candidates per allocation. Zero means no bound;
	// the caller's context still ends the loop.
	MaxAttempts int

	Random  io.Reader // defaults to crypto/rand
	Metrics *AllocatorMetrics
	Logger  *slog.Logger
}

// Allocator hands out identifiers not yet used within a guild. The storage
// unique index stays authoritative: a candidate can pass the existence check
// and still collide on insert, which AllocateAndInsert retries.
type Allocator struct {
	existence   ExistenceChecker
	claimer     Claimer
	maxAttempts int
	random      io.Reader
	metrics     *AllocatorMetrics
	logger      *slog.Logger
}

// NewAllocator creates an allocator
func NewAllocator(cfg AllocatorConfig) *Allocator {
	a := &Allocator{
		existence:   cfg.Existence,
		claimer:     cfg.Claimer,
		maxAttempts: cfg.MaxAttempts,
		random:      cfg.Random,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}
	if a.random == nil {
		a.random = rand.Reader
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Next returns an unused canonical identifier of kind for the guild.
// Existence-check failures are returned as-is and never retried.
func (a *Allocator) Next(ctx context.Context, guildID int64, kind model.Kind) (string, error) {
	if kind.Prefix() == "" {
		return "", ErrUnsupportedKind
	}

	for attempt := 1; a.maxAttempts <= 0 || attempt <= a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		body, err := model.GeneratePostalBody(a.random)
		if err != nil {
			return "", err
		}
		candidate := kind.Prefix() + body
		a.metrics.attempt(kind.Name())

		taken, err := a.existence.Exists(ctx, guildID, kind, candidate)
		if err != nil {
			return "", fmt.Errorf("check %s: %w", candidate, err)
		}
		if taken {
			a.metrics.collision(kind.Name(), CollisionExists)
			a.logger.Debug("identifier collision",
				slog.String("kind", kind.Name()),
				slog.String("candidate", candidate),
				slog.Int64("guild_id", guildID),
				slog.Int("attempt", attempt),
			)
			continue
		}

		if a.claimer != nil {
			claimed, err := a.claimer.Claim(ctx, guildID, kind, candidate)
			if err != nil {
				return "", fmt.Errorf("claim %s: %w", candidate, err)
			}
			if !claimed {
				a.metrics.collision(kind.Name(), CollisionClaim)
				continue
			}
		}

		return candidate, nil
	}

	a.metrics.exhausted(kind.Name())
	return "", fmt.Errorf("%w: %s after %d attempts", ErrAllocationExhausted, kind, a.maxAttempts)
}

// Allocate returns an unused typed identifier for the guild.
func Allocate[E model.Entity](ctx context.Context, a *Allocator, guildID int64) (model.ID[E], error) {
	var e E
	canonical, err := a.Next(ctx, guildID, e.Kind())
	if err != nil {
		return model.ID[E]{}, err
	}
	return model.ParseID[E](canonical)
}

// AllocateAndInsert allocates an identifier and passes it to insert. When
// insert fails with database.ErrDuplicate the identifier was taken after the
// check; a new one is allocated and insert is called again. Any other insert
// error is returned.
func AllocateAndInsert[E model.Entity](ctx context.Context, a *Allocator, guildID int64, insert func(context.Context, model.ID[E]) error) (model.ID[E], error) {
	var e E
	kind := e.Kind()

	for attempt := 1; a.maxAttempts <= 0 || attempt <= a.maxAttempts; attempt++ {
		id, err := Allocate[E](ctx, a, guildID)
		if err != nil {
			return model.ID[E]{}, err
		}

		err = insert(ctx, id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, database.ErrDuplicate) {
			return model.ID[E]{}, err
		}

		a.metrics.collision(kind.Name(), CollisionInsert)
		a.logger.Warn("identifier taken on insert, retrying",
			slog.String("kind", kind.Name()),
			slog.String("id", id.String()),
			slog.Int64("guild_id", guildID),
			slog.Int("attempt", attempt),
		)
	}

	a.metrics.exhausted(kind.Name())
	return model.ID[E]{}, fmt.Errorf("%w: %s insert after %d attempts", ErrAllocationExhausted, kind, a.maxAttempts)
}
