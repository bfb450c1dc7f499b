package repository

import (
	"context"
	"fmt"

	"github.com/forgo/nonagon/internal/model"
)

type existsFunc func(ctx context.Context, guildID int64, candidate string) (bool, error)

// Existence answers whether an identifier is already used by any record of
// its kind in a guild.
type Existence struct {
	byKind map[model.Kind]existsFunc
}

// NewExistence routes each kind to its repository. Nil repositories leave
// their kind unsupported.
func NewExistence(quests *QuestRepository, characters *CharacterRepository, users *UserRepository, summaries *SummaryRepository) *Existence {
	e := &Existence{byKind: make(map[model.Kind]existsFunc)}
	if quests != nil {
		e.byKind[model.KindQuest] = quests.Exists
	}
	if characters != nil {
		e.byKind[model.KindCharacter] = characters.Exists
	}
	if users != nil {
		e.byKind[model.KindUser] = users.Exists
	}
	if summaries != nil {
		e.byKind[model.KindSummary] = summaries.Exists
	}
	return e
}

// Exists reports whether candidate, a canonical identifier, is taken.
func (e *Existence) Exists(ctx context.Context, guildID int64, kind model.Kind, candidate string) (bool, error) {
	fn, ok := e.byKind[kind]
	if !ok {
		return false, fmt.Errorf("no repository for kind %s", kind)
	}
	return fn(ctx, guildID, candidate)
}
