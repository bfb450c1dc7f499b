package model

import (
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxLookupNameLength bounds lookup entry names.
const MaxLookupNameLength = 80

// LookupEntry is a named link a guild exposes through the lookup command.
type LookupEntry struct {
	GuildID     int64      `doc:"guild_id"`
	Name        string     `doc:"name"`
	URL         string     `doc:"url"`
	CreatedBy   int64      `doc:"created_by"`
	CreatedAt   time.Time  `doc:"created_at"`
	UpdatedBy   *int64     `doc:"updated_by"`
	UpdatedAt   *time.Time `doc:"updated_at"`
	Description *string    `doc:"description"`
}

// NewLookupEntry returns an entry created by createdBy at createdAt.
func NewLookupEntry(guildID int64, name, rawURL string, createdBy int64, createdAt time.Time) *LookupEntry {
	return &LookupEntry{
		GuildID:   guildID,
		Name:      name,
		URL:       rawURL,
		CreatedBy: createdBy,
		CreatedAt: createdAt.UTC(),
	}
}

// NormalizeLookupName collapses whitespace runs to one space and lower-cases.
func NormalizeLookupName(name string) string {
	return cases.Lower(language.Und).String(strings.Join(strings.Fields(name), " "))
}

// Key returns the normalized name used to address the entry.
func (e *LookupEntry) Key() string {
	return NormalizeLookupName(e.Name)
}

// TouchUpdated records who last changed the entry and when.
func (e *LookupEntry) TouchUpdated(userID int64, at time.Time) {
	at = at.UTC()
	e.UpdatedBy = &userID
	e.UpdatedAt = &at
}

// Validate checks the entry invariants.
func (e *LookupEntry) Validate() error {
	var errs []FieldError

	if e.GuildID <= 0 {
		errs = append(errs, FieldError{Field: "guild_id", Message: "guild_id must be a positive integer"})
	}

	trimmed := strings.TrimSpace(e.Name)
	switch {
	case trimmed == "":
		errs = append(errs, FieldError{Field: "name", Message: "name cannot be empty"})
	case utf8.RuneCountInString(trimmed) > MaxLookupNameLength:
		errs = append(errs, FieldError{Field: "name", Message: "name must be 80 characters or fewer"})
	}
	if strings.IndexFunc(e.Name, unicode.IsControl) >= 0 {
		errs = append(errs, FieldError{Field: "name", Message: "name cannot contain control characters"})
	}

	parsed, err := url.Parse(strings.TrimSpace(e.URL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		errs = append(errs, FieldError{Field: "url", Message: "url must start with http:// or https:// and include a host"})
	}

	if e.CreatedAt.IsZero() {
		errs = append(errs, FieldError{Field: "created_at", Message: "created_at must be set"})
	}
	if e.UpdatedAt != nil && e.UpdatedAt.Before(e.CreatedAt) {
		errs = append(errs, FieldError{Field: "updated_at", Message: "updated_at cannot be before created_at"})
	}

	return validationResult(errs)
}

// Lookup match scores
const (
	LookupNoMatch   = -1
	LookupSubstring = 1
	LookupPrefix    = 2
	LookupExact     = 3
)

// ScoreLookup scores name against query after normalizing both. An empty
// query matches nothing.
func ScoreLookup(name, query string) int {
	return scoreNormalized(NormalizeLookupName(name), NormalizeLookupName(query))
}

func scoreNormalized(name, query string) int {
	switch {
	case query == "":
		return LookupNoMatch
	case name == query:
		return LookupExact
	case strings.HasPrefix(name, query):
		return LookupPrefix
	case strings.Contains(name, query):
		return LookupSubstring
	}
	return LookupNoMatch
}

// BestLookupMatch returns the highest-scoring entry for query, or nil when
// nothing matches. Ties go to the lexicographically smallest normalized name,
// so the result does not depend on the order of entries.
func BestLookupMatch(entries []*LookupEntry, query string) *LookupEntry {
	q := NormalizeLookupName(query)

	var best *LookupEntry
	bestScore, bestKey := LookupNoMatch, ""
	for _, e := range entries {
		if e == nil {
			continue
		}
		key := e.Key()
		score := scoreNormalized(key, q)
		if score == LookupNoMatch {
			continue
		}
		if score > bestScore || (score == bestScore && key < bestKey) {
			best, bestScore, bestKey = e, score, key
		}
	}
	return best
}
