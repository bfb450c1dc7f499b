package model

import (
	"fmt"
	"strings"
	"time"
)

// QuestStatus is the quest lifecycle state
type QuestStatus string

const (
	QuestStatusDraft        QuestStatus = "DRAFT"
	QuestStatusAnnounced    QuestStatus = "ANNOUNCED"
	QuestStatusSignupClosed QuestStatus = "SIGNUP_CLOSED"
	QuestStatusCompleted    QuestStatus = "COMPLETED"
	QuestStatusCancelled    QuestStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s QuestStatus) Valid() bool {
	switch s {
	case QuestStatusDraft, QuestStatusAnnounced, QuestStatusSignupClosed,
		QuestStatusCompleted, QuestStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s QuestStatus) IsTerminal() bool {
	return s == QuestStatusCompleted || s == QuestStatusCancelled
}

// SignupStatus is the state of a player's application to a quest
type SignupStatus string

const (
	SignupStatusApplied  SignupStatus = "APPLIED"
	SignupStatusSelected SignupStatus = "SELECTED"
)

func (s SignupStatus) Valid() bool {
	return s == SignupStatusApplied || s == SignupStatusSelected
}

// Quest constraints
const (
	MinQuestDuration          = 15 * time.Minute
	MinScheduledQuestDuration = 60 * time.Minute
)

// questTransitions lists the allowed moves out of each non-terminal state.
// CANCELLED is reachable from every non-terminal state and handled separately.
var questTransitions = map[QuestStatus][]QuestStatus{
	QuestStatusDraft:        {QuestStatusAnnounced},
	QuestStatusAnnounced:    {QuestStatusSignupClosed, QuestStatusDraft},
	QuestStatusSignupClosed: {QuestStatusCompleted, QuestStatusAnnounced},
}

// Quest is a scheduled session run by a referee within a guild.
type Quest struct {
	QuestID   QuestID `doc:"quest_id"`
	GuildID   int64   `doc:"guild_id"`
	RefereeID UserID  `doc:"referee_id"`
	Raw       string  `doc:"raw"` // raw markdown input
	ChannelID *string `doc:"channel_id"`
	MessageID *string `doc:"message_id"`

	// Metadata
	Title       string         `doc:"title"`
	Description string         `doc:"description"`
	StartingAt  *time.Time     `doc:"starting_at"`
	Duration    *time.Duration `doc:"duration"`
	ImageURL    *string        `doc:"image_url"`

	// Links
	LinkedQuests    []QuestID   `doc:"linked_quests"`
	LinkedSummaries []SummaryID `doc:"linked_summaries"`

	// Lifecycle
	Status       QuestStatus `doc:"status"`
	AnnounceAt   *time.Time  `doc:"announce_at"`
	StartedAt    *time.Time  `doc:"started_at"`
	EndedAt      *time.Time  `doc:"ended_at"`
	Signups      []Signup    `doc:"signups"`
	LastNudgedAt *time.Time  `doc:"last_nudged_at"`
}

// Signup is one player's application with a character.
type Signup struct {
	UserID      UserID       `doc:"user_id"`
	CharacterID CharacterID  `doc:"character_id"`
	Status      SignupStatus `doc:"status"`
}

// NewQuest returns a draft quest.
func NewQuest(id QuestID, guildID int64, referee UserID, raw string) *Quest {
	return &Quest{
		QuestID:   id,
		GuildID:   guildID,
		RefereeID: referee,
		Raw:       raw,
		Status:    QuestStatusDraft,
	}
}

func (q *Quest) transition(to QuestStatus) error {
	from := q.Status
	if from.IsTerminal() {
		return fmt.Errorf("%w: quest is %s", ErrInvalidTransition, from)
	}
	if to == QuestStatusCancelled {
		q.Status = to
		return nil
	}
	for _, allowed := range questTransitions[from] {
		if allowed == to {
			q.Status = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Announce opens the quest for signups.
func (q *Quest) Announce() error { return q.transition(QuestStatusAnnounced) }

// Unannounce returns an announced quest to draft.
func (q *Quest) Unannounce() error { return q.transition(QuestStatusDraft) }

// CloseSignups stops accepting applications.
func (q *Quest) CloseSignups() error { return q.transition(QuestStatusSignupClosed) }

// ReopenSignups moves a closed quest back to announced.
func (q *Quest) ReopenSignups() error {
	if q.Status != QuestStatusSignupClosed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, q.Status, QuestStatusAnnounced)
	}
	return q.transition(QuestStatusAnnounced)
}

// Complete marks a quest whose signups are closed as played.
func (q *Quest) Complete() error { return q.transition(QuestStatusCompleted) }

// Cancel ends the quest from any non-terminal state.
func (q *Quest) Cancel() error { return q.transition(QuestStatusCancelled) }

// IsSignupOpen reports whether new signups are accepted.
func (q *Quest) IsSignupOpen() bool { return q.Status == QuestStatusAnnounced }

// IsSummaryNeeded reports whether a completed quest still lacks a summary.
func (q *Quest) IsSummaryNeeded() bool {
	return q.Status == QuestStatusCompleted && len(q.LinkedSummaries) == 0
}

// AddSignup appends an application. A user may hold at most one signup.
func (q *Quest) AddSignup(userID UserID, characterID CharacterID) error {
	if !q.IsSignupOpen() {
		return fmt.Errorf("%w: quest is %s", ErrSignupsClosed, q.Status)
	}
	if q.signupIndex(userID) >= 0 {
		return fmt.Errorf("%w: %s", ErrAlreadySignedUp, userID)
	}
	q.Signups = append(q.Signups, Signup{
		UserID:      userID,
		CharacterID: characterID,
		Status:      SignupStatusApplied,
	})
	return nil
}

// RemoveSignup drops the user's application.
func (q *Quest) RemoveSignup(userID UserID) error {
	i := q.signupIndex(userID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotSignedUp, userID)
	}
	q.Signups = append(q.Signups[:i], q.Signups[i+1:]...)
	return nil
}

// SelectSignup moves the user's application from APPLIED to SELECTED.
func (q *Quest) SelectSignup(userID UserID) error {
	i := q.signupIndex(userID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotSignedUp, userID)
	}
	if q.Signups[i].Status == SignupStatusSelected {
		return fmt.Errorf("%w: %s", ErrAlreadySelected, userID)
	}
	q.Signups[i].Status = SignupStatusSelected
	return nil
}

// SelectedSignups returns copies of the selected applications in order.
func (q *Quest) SelectedSignups() []Signup {
	var out []Signup
	for _, s := range q.Signups {
		if s.Status == SignupStatusSelected {
			out = append(out, s)
		}
	}
	return out
}

func (q *Quest) signupIndex(userID UserID) int {
	for i, s := range q.Signups {
		if s.UserID == userID {
			return i
		}
	}
	return -1
}

// LinkSummary records a summary written for this quest.
func (q *Quest) LinkSummary(id SummaryID) {
	for _, existing := range q.LinkedSummaries {
		if existing == id {
			return
		}
	}
	q.LinkedSummaries = append(q.LinkedSummaries, id)
}

// Schedule sets the start time and duration.
func (q *Quest) Schedule(start time.Time, duration time.Duration) {
	start = start.UTC()
	q.StartingAt = &start
	q.Duration = &duration
}

// MarkStarted records the actual start time.
func (q *Quest) MarkStarted(at time.Time) {
	at = at.UTC()
	q.StartedAt = &at
}

// MarkEnded records the actual end time.
func (q *Quest) MarkEnded(at time.Time) {
	at = at.UTC()
	q.EndedAt = &at
}

// MarkNudged records the last reminder time.
func (q *Quest) MarkNudged(at time.Time) {
	at = at.UTC()
	q.LastNudgedAt = &at
}

// HasStarted reports whether the scheduled start is at or before now.
func (q *Quest) HasStarted(now time.Time) bool {
	return q.StartingAt != nil && !q.StartingAt.After(now)
}

// Validate normalizes timestamps to UTC and checks the quest invariants
// against the given current time.
func (q *Quest) Validate(now time.Time) error {
	var errs []FieldError

	if q.StartingAt != nil {
		t := q.StartingAt.UTC()
		q.StartingAt = &t
	}
	if q.AnnounceAt != nil {
		t := q.AnnounceAt.UTC()
		q.AnnounceAt = &t
	}

	if q.QuestID.IsZero() {
		errs = append(errs, FieldError{Field: "quest_id", Message: "quest_id is required"})
	}
	if q.GuildID <= 0 {
		errs = append(errs, FieldError{Field: "guild_id", Message: "guild_id must be positive"})
	}
	if q.RefereeID.IsZero() {
		errs = append(errs, FieldError{Field: "referee_id", Message: "referee_id is required"})
	}
	if !q.Status.Valid() {
		errs = append(errs, FieldError{Field: "status", Message: fmt.Sprintf("invalid status %q", q.Status)})
	}

	if q.Duration != nil {
		if q.StartingAt != nil && *q.Duration < MinScheduledQuestDuration {
			errs = append(errs, FieldError{Field: "duration", Message: "duration must be at least 60 minutes"})
		} else if *q.Duration < MinQuestDuration {
			errs = append(errs, FieldError{Field: "duration", Message: "duration must be at least 15 minutes"})
		}
	}
	if q.StartingAt != nil && q.StartingAt.Before(now) {
		errs = append(errs, FieldError{Field: "starting_at", Message: "starting time must be in the future"})
	}
	if q.ImageURL != nil && *q.ImageURL != "" &&
		!strings.HasPrefix(*q.ImageURL, "http://") && !strings.HasPrefix(*q.ImageURL, "https://") {
		errs = append(errs, FieldError{Field: "image_url", Message: "image URL must start with http:// or https://"})
	}

	seen := make(map[UserID]struct{}, len(q.Signups))
	for _, s := range q.Signups {
		if _, dup := seen[s.UserID]; dup {
			errs = append(errs, FieldError{Field: "signups", Message: fmt.Sprintf("duplicate signup for %s", s.UserID)})
		}
		seen[s.UserID] = struct{}{}
		if !s.Status.Valid() {
			errs = append(errs, FieldError{Field: "signups", Message: fmt.Sprintf("invalid signup status %q", s.Status)})
		}
	}

	return validationResult(errs)
}
