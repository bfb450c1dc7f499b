package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// SummaryKind identifies who wrote a summary
type SummaryKind string

const (
	SummaryKindPlayer  SummaryKind = "PLAYER"
	SummaryKindReferee SummaryKind = "REFEREE"
)

func (k SummaryKind) Valid() bool {
	return k == SummaryKindPlayer || k == SummaryKindReferee
}

// SummaryStatus tracks whether a summary is visible
type SummaryStatus string

const (
	SummaryStatusPosted    SummaryStatus = "POSTED"
	SummaryStatusCancelled SummaryStatus = "CANCELLED"
)

func (s SummaryStatus) Valid() bool {
	return s == SummaryStatusPosted || s == SummaryStatusCancelled
}

// Summary is a write-up of a played quest.
type Summary struct {
	SummaryID   SummaryID    `doc:"summary_id"`
	Kind        SummaryKind  `doc:"kind"`
	AuthorID    *UserID      `doc:"author_id"`
	CharacterID *CharacterID `doc:"character_id"`
	QuestID     *QuestID     `doc:"quest_id"`
	GuildID     int64        `doc:"guild_id"`

	// Content
	Raw         string    `doc:"raw"`
	Title       string    `doc:"title"`
	Description string    `doc:"description"`
	CreatedOn   time.Time `doc:"created_on"`

	LastEditedAt *time.Time    `doc:"last_edited_at"`
	Players      []UserID      `doc:"players,set"`
	Characters   []CharacterID `doc:"characters,set"`

	// Links
	LinkedQuests    []QuestID   `doc:"linked_quests"`
	LinkedSummaries []SummaryID `doc:"linked_summaries"`

	// Announcement metadata
	ChannelID *string       `doc:"channel_id"`
	MessageID *string       `doc:"message_id"`
	ThreadID  *string       `doc:"thread_id"`
	Status    SummaryStatus `doc:"status"`
}

// NewSummary returns a posted summary created at createdOn.
func NewSummary(id SummaryID, kind SummaryKind, author UserID, guildID int64, createdOn time.Time) *Summary {
	return &Summary{
		SummaryID: id,
		Kind:      kind,
		AuthorID:  &author,
		GuildID:   guildID,
		CreatedOn: createdOn.UTC(),
		Players:   []UserID{author},
		Status:    SummaryStatusPosted,
	}
}

// AddPlayer adds a participant once.
func (s *Summary) AddPlayer(id UserID) { s.Players = appendUnique(s.Players, id) }

// AddCharacter associates a character once.
func (s *Summary) AddCharacter(id CharacterID) { s.Characters = appendUnique(s.Characters, id) }

// Edit replaces the content and stamps the edit time.
func (s *Summary) Edit(title, description, raw string, at time.Time) error {
	at = at.UTC()
	if at.Before(s.CreatedOn) {
		return fieldError("last_edited_at", "last_edited_at cannot be before created_on")
	}
	s.Title = title
	s.Description = description
	s.Raw = raw
	s.LastEditedAt = &at
	return nil
}

// Cancel hides the summary.
func (s *Summary) Cancel() { s.Status = SummaryStatusCancelled }

// Validate checks the summary invariants. The author is added to Players
// when missing, so a valid summary always lists its author.
func (s *Summary) Validate() error {
	var errs []FieldError

	if s.SummaryID.IsZero() {
		errs = append(errs, FieldError{Field: "summary_id", Message: "summary_id is required"})
	}
	if !s.Kind.Valid() {
		errs = append(errs, FieldError{Field: "kind", Message: fmt.Sprintf("invalid summary kind %q", s.Kind)})
	}
	if strings.TrimSpace(s.Title) == "" {
		errs = append(errs, FieldError{Field: "title", Message: "summary title cannot be empty"})
	}
	if strings.TrimSpace(s.Description) == "" {
		errs = append(errs, FieldError{Field: "description", Message: "summary description cannot be empty"})
	}
	if s.CreatedOn.IsZero() {
		errs = append(errs, FieldError{Field: "created_on", Message: "created_on must be set"})
	}
	if s.AuthorID == nil || s.AuthorID.IsZero() {
		errs = append(errs, FieldError{Field: "author_id", Message: "author_id must be set"})
	}
	if len(s.Characters) == 0 {
		errs = append(errs, FieldError{Field: "characters", Message: "at least one character must be associated with the summary"})
	}
	if s.LastEditedAt != nil && s.LastEditedAt.Before(s.CreatedOn) {
		errs = append(errs, FieldError{Field: "last_edited_at", Message: "last_edited_at cannot be before created_on"})
	}
	if !s.Status.Valid() {
		errs = append(errs, FieldError{Field: "status", Message: fmt.Sprintf("invalid summary status %q", s.Status)})
	}

	if s.AuthorID != nil && !s.AuthorID.IsZero() && !slices.Contains(s.Players, *s.AuthorID) {
		s.Players = append(s.Players, *s.AuthorID)
	}

	return validationResult(errs)
}
