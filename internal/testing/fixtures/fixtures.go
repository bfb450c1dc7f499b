// Package fixtures provides test data factories for integration testing.
//
// Each factory method creates a record with sensible defaults while allowing
// customization via option functions. Records are validated, stored through
// the repositories and returned as stored.
//
// Usage:
//
//	tdb := testdb.New(t)
//	f := fixtures.New(t, tdb)
//	referee := f.CreateReferee(t)
//	quest := f.CreateQuest(t, referee)
package fixtures

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/forgo/nonagon/internal/codec"
	"github.com/forgo/nonagon/internal/model"
	"github.com/forgo/nonagon/internal/repository"
	"github.com/forgo/nonagon/internal/testing/testdb"
)

// DefaultGuildID is the guild records are created in unless overridden.
const DefaultGuildID int64 = 1001

// Factory creates test records in the database
type Factory struct {
	Quests     *repository.QuestRepository
	Users      *repository.UserRepository
	Characters *repository.CharacterRepository
	Summaries  *repository.SummaryRepository
	Lookups    *repository.LookupRepository
	Codec      *codec.Codec

	GuildID int64
	Now     time.Time
}

var seq atomic.Int64

// New builds the repositories on tdb and defines their indexes.
func New(t *testing.T, tdb *testdb.TestDB) *Factory {
	t.Helper()

	cdc := codec.New()
	f := &Factory{
		Quests:     repository.NewQuestRepository(tdb.DB, tdb.Schema, cdc),
		Users:      repository.NewUserRepository(tdb.DB, tdb.Schema, cdc),
		Characters: repository.NewCharacterRepository(tdb.DB, tdb.Schema, cdc),
		Summaries:  repository.NewSummaryRepository(tdb.DB, tdb.Schema, cdc),
		Lookups:    repository.NewLookupRepository(tdb.DB, tdb.Schema, cdc),
		Codec:      cdc,
		GuildID:    DefaultGuildID,
		Now:        time.Now().UTC().Truncate(time.Second),
	}
	if err := tdb.Schema.Ensure(ctx(t)); err != nil {
		t.Fatalf("fixtures: failed to define indexes: %v", err)
	}
	return f
}

// ctx returns a context canceled when the test ends
func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

func newID[E model.Entity](t *testing.T) model.ID[E] {
	t.Helper()
	id, err := model.NewID[E]()
	if err != nil {
		t.Fatalf("fixtures: failed to generate id: %v", err)
	}
	return id
}

// ============================================================================
// User Fixtures
// ============================================================================

// CreateUser creates a member with optional customizations
func (f *Factory) CreateUser(t *testing.T, opts ...func(*model.User)) *model.User {
	t.Helper()

	u := model.NewUser(newID[model.UserEntity](t), f.GuildID)
	discordID := fmt.Sprintf("%d", 900000+seq.Add(1))
	u.DiscordID = &discordID
	joined := f.Now
	u.JoinedAt = &joined
	for _, fn := range opts {
		fn(u)
	}

	if err := u.Validate(); err != nil {
		t.Fatalf("fixtures: invalid user: %v", err)
	}
	if err := f.Users.Upsert(ctx(t), u); err != nil {
		t.Fatalf("fixtures: failed to create user: %v", err)
	}
	return u
}

// CreatePlayer creates a user holding the PLAYER role
func (f *Factory) CreatePlayer(t *testing.T, opts ...func(*model.User)) *model.User {
	return f.CreateUser(t, append([]func(*model.User){(*model.User).EnablePlayer}, opts...)...)
}

// CreateReferee creates a user holding the REFEREE role
func (f *Factory) CreateReferee(t *testing.T, opts ...func(*model.User)) *model.User {
	return f.CreateUser(t, append([]func(*model.User){(*model.User).EnableReferee}, opts...)...)
}

// ============================================================================
// Character Fixtures
// ============================================================================

// CreateCharacter creates an active character and records it on the owner's
// player profile.
func (f *Factory) CreateCharacter(t *testing.T, owner *model.User, opts ...func(*model.Character)) *model.Character {
	t.Helper()

	n := seq.Add(1)
	created := f.Now
	c := &model.Character{
		CharacterID:         newID[model.CharacterEntity](t),
		OwnerID:             owner.UserID,
		Name:                fmt.Sprintf("Character %d", n),
		DDBLink:             fmt.Sprintf("https://dndbeyond.com/characters/%d", n),
		CharacterThreadLink: fmt.Sprintf("https://discord.com/channels/%d/%d", f.GuildID, n),
		TokenLink:           fmt.Sprintf("https://example.com/tokens/%d.png", n),
		ArtLink:             fmt.Sprintf("https://example.com/art/%d.png", n),
		GuildID:             f.GuildID,
		Status:              model.CharacterStatusActive,
		CreatedAt:           &created,
	}
	for _, fn := range opts {
		fn(c)
	}

	if err := c.Validate(); err != nil {
		t.Fatalf("fixtures: invalid character: %v", err)
	}
	if err := f.Characters.Upsert(ctx(t), c); err != nil {
		t.Fatalf("fixtures: failed to create character: %v", err)
	}

	if player, err := owner.GetPlayer(); err == nil {
		player.AddCharacter(c.CharacterID)
		if err := f.Users.Upsert(ctx(t), owner); err != nil {
			t.Fatalf("fixtures: failed to update owner: %v", err)
		}
	}
	return c
}

// ============================================================================
// Quest Fixtures
// ============================================================================

// CreateQuest creates a draft quest scheduled a day from Now
func (f *Factory) CreateQuest(t *testing.T, referee *model.User, opts ...func(*model.Quest)) *model.Quest {
	t.Helper()

	q := model.NewQuest(newID[model.QuestEntity](t), f.GuildID, referee.UserID, "# Test Quest")
	q.Title = fmt.Sprintf("Quest %d", seq.Add(1))
	q.Schedule(f.Now.Add(24*time.Hour), 3*time.Hour)
	for _, fn := range opts {
		fn(q)
	}

	if err := q.Validate(f.Now); err != nil {
		t.Fatalf("fixtures: invalid quest: %v", err)
	}
	if err := f.Quests.Upsert(ctx(t), q); err != nil {
		t.Fatalf("fixtures: failed to create quest: %v", err)
	}
	return q
}

// Announced opens the quest for signups
func Announced(q *model.Quest) {
	_ = q.Announce()
}

// ============================================================================
// Summary Fixtures
// ============================================================================

// CreateSummary creates a player summary mentioning character. quest may be nil.
func (f *Factory) CreateSummary(t *testing.T, author *model.User, character *model.Character, quest *model.Quest, opts ...func(*model.Summary)) *model.Summary {
	t.Helper()

	s := model.NewSummary(newID[model.SummaryEntity](t), model.SummaryKindPlayer, author.UserID, f.GuildID, f.Now)
	s.Title = fmt.Sprintf("Summary %d", seq.Add(1))
	s.Description = "A short recap."
	s.Raw = "It went well."
	s.AddCharacter(character.CharacterID)
	if quest != nil {
		s.QuestID = &quest.QuestID
	}
	for _, fn := range opts {
		fn(s)
	}

	if err := s.Validate(); err != nil {
		t.Fatalf("fixtures: invalid summary: %v", err)
	}
	if err := f.Summaries.Upsert(ctx(t), s); err != nil {
		t.Fatalf("fixtures: failed to create summary: %v", err)
	}
	return s
}

// ============================================================================
// Lookup Fixtures
// ============================================================================

// CreateLookup creates a lookup entry pointing at an example URL
func (f *Factory) CreateLookup(t *testing.T, name string, opts ...func(*model.LookupEntry)) *model.LookupEntry {
	t.Helper()

	e := model.NewLookupEntry(f.GuildID, name, "https://example.com/"+fmt.Sprint(seq.Add(1)), 1, f.Now)
	for _, fn := range opts {
		fn(e)
	}
	if err := f.Lookups.Upsert(ctx(t), e); err != nil {
		t.Fatalf("fixtures: failed to create lookup: %v", err)
	}
	return e
}
