package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/forgo/nonagon/internal/codec"
	"github.com/forgo/nonagon/internal/database"
	"github.com/forgo/nonagon/internal/model"
	"github.com/forgo/nonagon/internal/testing/helpers"
)

// ============================================================================
// In-memory stores
// ============================================================================

// Stores keep codec round-tripped copies so callers never share pointers
// with the stored state.
var testCodec = codec.New()

func clone[T any](v *T) *T {
	doc, err := testCodec.Encode(v)
	if err != nil {
		panic(fmt.Sprintf("encode %T: %v", v, err))
	}
	out := new(T)
	if err := testCodec.Decode(doc, out); err != nil {
		panic(fmt.Sprintf("decode %T: %v", v, err))
	}
	return out
}

// applyVar is the variable name carrying a deferred write. txDB runs every
// deferred write it finds in a committed transaction.
const applyVar = "apply"

type memQuests struct {
	mu     sync.Mutex
	quests map[model.QuestID]*model.Quest
}

func newMemQuests() *memQuests {
	return &memQuests{quests: make(map[model.QuestID]*model.Quest)}
}

func (m *memQuests) put(q *model.Quest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quests[q.QuestID] = clone(q)
}

func (m *memQuests) Upsert(ctx context.Context, q *model.Quest) error {
	m.put(q)
	return nil
}

func (m *memQuests) InsertStatement(q *model.Quest) (database.Statement, error) {
	snapshot := clone(q)
	return database.Statement{
		Query: "CREATE quest CONTENT $doc",
		Vars:  map[string]interface{}{"doc": q.QuestID.String(), applyVar: func() { m.put(snapshot) }},
	}, nil
}

func (m *memQuests) UpsertStatement(q *model.Quest) (database.Statement, error) {
	snapshot := clone(q)
	return database.Statement{
		Query: "UPSERT quest CONTENT $doc",
		Vars:  map[string]interface{}{"doc": q.QuestID.String(), applyVar: func() { m.put(snapshot) }},
	}, nil
}

func (m *memQuests) Get(ctx context.Context, guildID int64, id model.QuestID) (*model.Quest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quests[id]
	if !ok || q.GuildID != guildID {
		return nil, nil
	}
	return clone(q), nil
}

func (m *memQuests) Delete(ctx context.Context, guildID int64, id model.QuestID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quests[id]
	if !ok || q.GuildID != guildID {
		return false, nil
	}
	delete(m.quests, id)
	return true, nil
}

func (m *memQuests) ListStartedAnnounced(ctx context.Context, guildID int64, now time.Time) ([]*model.Quest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Quest
	for _, q := range m.quests {
		if q.GuildID == guildID && q.Status == model.QuestStatusAnnounced && q.HasStarted(now) {
			out = append(out, clone(q))
		}
	}
	return out, nil
}

func (m *memQuests) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.quests)
}

type memUsers struct {
	mu    sync.Mutex
	users map[model.UserID]*model.User
}

func newMemUsers(users ...*model.User) *memUsers {
	m := &memUsers{users: make(map[model.UserID]*model.User)}
	for _, u := range users {
		m.put(u)
	}
	return m
}

func (m *memUsers) put(u *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.UserID] = clone(u)
}

func (m *memUsers) Get(ctx context.Context, guildID int64, id model.UserID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.GuildID != guildID {
		return nil, nil
	}
	return clone(u), nil
}

func (m *memUsers) UpsertStatement(u *model.User) (database.Statement, error) {
	snapshot := clone(u)
	return database.Statement{
		Query: "UPSERT user CONTENT $doc",
		Vars:  map[string]interface{}{"doc": u.UserID.String(), applyVar: func() { m.put(snapshot) }},
	}, nil
}

type memCharacters struct {
	characters map[model.CharacterID]*model.Character
}

func newMemCharacters(chars ...*model.Character) *memCharacters {
	m := &memCharacters{characters: make(map[model.CharacterID]*model.Character)}
	for _, c := range chars {
		m.characters[c.CharacterID] = clone(c)
	}
	return m
}

func (m *memCharacters) Get(ctx context.Context, guildID int64, id model.CharacterID) (*model.Character, error) {
	c, ok := m.characters[id]
	if !ok || c.GuildID != guildID {
		return nil, nil
	}
	return clone(c), nil
}

// ============================================================================
// Transactions
// ============================================================================

// txDB returns a MockDB that commits transactions by running their deferred
// writes. failures transactions fail with err before any write runs.
func txDB(failures int, err error) *helpers.MockDB {
	var mu sync.Mutex
	return &helpers.MockDB{
		QueryFunc: func(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
			mu.Lock()
			defer mu.Unlock()
			if failures > 0 {
				failures--
				return nil, err
			}
			for _, v := range vars {
				if apply, ok := v.(func()); ok {
					apply()
				}
			}
			return nil, nil
		},
	}
}

// ============================================================================
// Existence
// ============================================================================

type mockExistence struct {
	mu         sync.Mutex
	calls      []string
	existsFunc func(call int, candidate string) (bool, error)
}

func (m *mockExistence) Exists(ctx context.Context, guildID int64, kind model.Kind, candidate string) (bool, error) {
	m.mu.Lock()
	m.calls = append(m.calls, candidate)
	call := len(m.calls)
	m.mu.Unlock()
	if m.existsFunc != nil {
		return m.existsFunc(call, candidate)
	}
	return false, nil
}

func (m *mockExistence) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type mockClaimer struct {
	claimFunc func(candidate string) (bool, error)
}

func (m *mockClaimer) Claim(ctx context.Context, guildID int64, kind model.Kind, candidate string) (bool, error) {
	return m.claimFunc(candidate)
}
