package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// CharacterStatus marks whether a character is in play
type CharacterStatus string

const (
	CharacterStatusActive   CharacterStatus = "ACTIVE"
	CharacterStatusInactive CharacterStatus = "INACTIVE"
)

func (s CharacterStatus) Valid() bool {
	return s == CharacterStatusActive || s == CharacterStatusInactive
}

// Character is a player-owned character sheet registered in a guild.
type Character struct {
	CharacterID         CharacterID     `doc:"character_id"`
	OwnerID             UserID          `doc:"owner_id"`
	Name                string          `doc:"name"`
	DDBLink             string          `doc:"ddb_link"`
	CharacterThreadLink string          `doc:"character_thread_link"`
	TokenLink           string          `doc:"token_link"`
	ArtLink             string          `doc:"art_link"`
	GuildID             int64           `doc:"guild_id"`
	Status              CharacterStatus `doc:"status"`

	// Discord message references
	AnnouncementChannelID *int64 `doc:"announcement_channel_id"`
	AnnouncementMessageID *int64 `doc:"announcement_message_id"`
	OnboardingThreadID    *int64 `doc:"onboarding_thread_id"`

	// Telemetry
	CreatedAt        *time.Time `doc:"created_at"`
	LastPlayedAt     *time.Time `doc:"last_played_at"`
	QuestsPlayed     int        `doc:"quests_played"`
	SummariesWritten int        `doc:"summaries_written"`

	Description *string  `doc:"description"`
	Notes       *string  `doc:"notes"`
	Tags        []string `doc:"tags,set"`

	// Links
	PlayedWith  []CharacterID `doc:"played_with"`
	PlayedIn    []QuestID     `doc:"played_in"`
	MentionedIn []SummaryID   `doc:"mentioned_in"`
}

// CharacterAttributes holds optional replacements for ChangeAttributes.
// Nil fields are left untouched.
type CharacterAttributes struct {
	Name                *string
	DDBLink             *string
	CharacterThreadLink *string
	TokenLink           *string
	ArtLink             *string
	Description         *string
	Notes               *string
}

// IsActive reports whether the character is in play.
func (c *Character) IsActive() bool { return c.Status == CharacterStatusActive }

func (c *Character) Activate()   { c.Status = CharacterStatusActive }
func (c *Character) Deactivate() { c.Status = CharacterStatusInactive }

// ChangeAttributes applies the non-nil attributes.
func (c *Character) ChangeAttributes(attrs CharacterAttributes) {
	if attrs.Name != nil {
		c.Name = *attrs.Name
	}
	if attrs.DDBLink != nil {
		c.DDBLink = *attrs.DDBLink
	}
	if attrs.CharacterThreadLink != nil {
		c.CharacterThreadLink = *attrs.CharacterThreadLink
	}
	if attrs.TokenLink != nil {
		c.TokenLink = *attrs.TokenLink
	}
	if attrs.ArtLink != nil {
		c.ArtLink = *attrs.ArtLink
	}
	if attrs.Description != nil {
		c.Description = attrs.Description
	}
	if attrs.Notes != nil {
		c.Notes = attrs.Notes
	}
}

// AddTag adds tag once.
func (c *Character) AddTag(tag string) {
	if !slices.Contains(c.Tags, tag) {
		c.Tags = append(c.Tags, tag)
	}
}

// RemoveTag removes tag if present.
func (c *Character) RemoveTag(tag string) {
	c.Tags = slices.DeleteFunc(c.Tags, func(t string) bool { return t == tag })
}

// SetCreatedAt records the creation time. It fails when already set unless override is true.
func (c *Character) SetCreatedAt(at time.Time, override bool) error {
	if c.CreatedAt != nil && !override {
		return fmt.Errorf("%w: created_at", ErrAlreadySet)
	}
	at = at.UTC()
	c.CreatedAt = &at
	return nil
}

// UpdateLastPlayed records a play time, which may not precede creation.
func (c *Character) UpdateLastPlayed(at time.Time) error {
	if c.CreatedAt == nil {
		return fieldError("last_played_at", "created_at must be set before last_played_at")
	}
	if at.Before(*c.CreatedAt) {
		return fieldError("last_played_at", "last_played_at cannot be before created_at")
	}
	at = at.UTC()
	c.LastPlayedAt = &at
	return nil
}

func (c *Character) SetQuestsPlayed(count int) error {
	if count < 0 {
		return fieldError("quests_played", "quests_played cannot be negative")
	}
	c.QuestsPlayed = count
	return nil
}

func (c *Character) SetSummariesWritten(count int) error {
	if count < 0 {
		return fieldError("summaries_written", "summaries_written cannot be negative")
	}
	c.SummariesWritten = count
	return nil
}

func (c *Character) IncrementQuestsPlayed()     { c.QuestsPlayed++ }
func (c *Character) IncrementSummariesWritten() { c.SummariesWritten++ }

func (c *Character) AddPlayedWith(id CharacterID)    { c.PlayedWith = appendUnique(c.PlayedWith, id) }
func (c *Character) AddPlayedIn(id QuestID)          { c.PlayedIn = appendUnique(c.PlayedIn, id) }
func (c *Character) AddMentionedIn(id SummaryID)     { c.MentionedIn = appendUnique(c.MentionedIn, id) }
func (c *Character) RemovePlayedWith(id CharacterID) { c.PlayedWith = removeValue(c.PlayedWith, id) }
func (c *Character) RemovePlayedIn(id QuestID)       { c.PlayedIn = removeValue(c.PlayedIn, id) }
func (c *Character) RemoveMentionedIn(id SummaryID)  { c.MentionedIn = removeValue(c.MentionedIn, id) }

// Validate checks the character invariants.
func (c *Character) Validate() error {
	var errs []FieldError

	required := []struct {
		field string
		value string
	}{
		{"name", c.Name},
		{"ddb_link", c.DDBLink},
		{"character_thread_link", c.CharacterThreadLink},
		{"token_link", c.TokenLink},
		{"art_link", c.ArtLink},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, FieldError{Field: r.field, Message: r.field + " cannot be empty"})
		}
	}

	if c.CharacterID.IsZero() {
		errs = append(errs, FieldError{Field: "character_id", Message: "character_id is required"})
	}
	if c.OwnerID.IsZero() {
		errs = append(errs, FieldError{Field: "owner_id", Message: "owner_id is required"})
	}
	if !c.Status.Valid() {
		errs = append(errs, FieldError{Field: "status", Message: fmt.Sprintf("invalid character status %q", c.Status)})
	}
	if c.CreatedAt == nil {
		errs = append(errs, FieldError{Field: "created_at", Message: "created_at must be set"})
	} else if c.LastPlayedAt != nil && c.LastPlayedAt.Before(*c.CreatedAt) {
		errs = append(errs, FieldError{Field: "last_played_at", Message: "last_played_at cannot be before created_at"})
	}
	if c.LastPlayedAt != nil && c.CreatedAt == nil {
		errs = append(errs, FieldError{Field: "last_played_at", Message: "created_at must be set before last_played_at"})
	}
	if c.QuestsPlayed < 0 {
		errs = append(errs, FieldError{Field: "quests_played", Message: "quests_played cannot be negative"})
	}
	if c.SummariesWritten < 0 {
		errs = append(errs, FieldError{Field: "summaries_written", Message: "summaries_written cannot be negative"})
	}

	return validationResult(errs)
}

func appendUnique[T comparable](list []T, v T) []T {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}

func removeValue[T comparable](list []T, v T) []T {
	return slices.DeleteFunc(list, func(x T) bool { return x == v })
}
