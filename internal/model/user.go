package model

import (
	"fmt"
	"slices"
	"time"
)

// Role is a guild-level capability held by a user
type Role string

const (
	RoleMember  Role = "MEMBER"
	RolePlayer  Role = "PLAYER"
	RoleReferee Role = "REFEREE"
)

func (r Role) Valid() bool {
	return r == RoleMember || r == RolePlayer || r == RoleReferee
}

// PlayStats counts shared sessions and the hours spent in them.
type PlayStats struct {
	Count int     `doc:"count"`
	Hours float64 `doc:"hours"`
}

func (p PlayStats) add(seconds int) PlayStats {
	return PlayStats{Count: p.Count + 1, Hours: p.Hours + float64(seconds)/3600}
}

// User is a guild member as tracked by the bot.
type User struct {
	UserID      UserID  `doc:"user_id"`
	GuildID     int64   `doc:"guild_id"`
	DiscordID   *string `doc:"discord_id"`
	DMChannelID *string `doc:"dm_channel_id"`

	Roles        []Role `doc:"roles,set"`
	HasServerTag bool   `doc:"has_server_tag"`
	DMOptIn      bool   `doc:"dm_opt_in"`

	JoinedAt     *time.Time `doc:"joined_at"`
	LastActiveAt *time.Time `doc:"last_active_at"`

	// Engagement telemetry
	MessagesCountTotal  int     `doc:"messages_count_total"`
	ReactionsGiven      int     `doc:"reactions_given"`
	ReactionsReceived   int     `doc:"reactions_received"`
	VoiceTotalTimeSpent float64 `doc:"voice_total_time_spent"` // hours

	Player  *Player  `doc:"player"`
	Referee *Referee `doc:"referee"`
}

// Player is the profile attached to users holding the PLAYER role.
type Player struct {
	Characters              []CharacterID             `doc:"characters"`
	JoinedOn                *time.Time                `doc:"joined_on"`
	CreatedFirstCharacterOn *time.Time                `doc:"created_first_character_on"`
	LastPlayedOn            *time.Time                `doc:"last_played_on"`
	QuestsApplied           []QuestID                 `doc:"quests_applied"`
	QuestsPlayed            []QuestID                 `doc:"quests_played"`
	SummariesWritten        []SummaryID               `doc:"summaries_written"`
	PlayedWithCharacter     map[CharacterID]PlayStats `doc:"played_with_character"`
}

// Referee is the profile attached to users holding the REFEREE role.
type Referee struct {
	QuestsHosted     []QuestID            `doc:"quests_hosted"`
	SummariesWritten []SummaryID          `doc:"summaries_written"`
	FirstDMedOn      *time.Time           `doc:"first_dmed_on"`
	LastDMedOn       *time.Time           `doc:"last_dmed_on"`
	CollabedWith     map[UserID]PlayStats `doc:"collabed_with"`
	HostedFor        map[UserID]int       `doc:"hosted_for"`
}

// NewUser returns a member with DMs enabled.
func NewUser(id UserID, guildID int64) *User {
	return &User{
		UserID:  id,
		GuildID: guildID,
		Roles:   []Role{RoleMember},
		DMOptIn: true,
	}
}

func (u *User) HasRole(r Role) bool { return slices.Contains(u.Roles, r) }
func (u *User) IsMember() bool      { return u.HasRole(RoleMember) }
func (u *User) IsPlayer() bool      { return u.HasRole(RolePlayer) }
func (u *User) IsReferee() bool     { return u.HasRole(RoleReferee) }

// AddRole grants r once.
func (u *User) AddRole(r Role) { u.Roles = appendUnique(u.Roles, r) }

// EnablePlayer grants PLAYER and creates an empty player profile.
func (u *User) EnablePlayer() {
	u.AddRole(RolePlayer)
	if u.Player == nil {
		u.Player = &Player{}
	}
}

// DisablePlayer revokes PLAYER. Referees must give up REFEREE first.
func (u *User) DisablePlayer() error {
	if u.IsReferee() {
		return ErrRefereeActive
	}
	u.Roles = removeValue(u.Roles, RolePlayer)
	u.Player = nil
	return nil
}

// EnableReferee grants REFEREE, enabling PLAYER first when needed.
func (u *User) EnableReferee() {
	if !u.IsPlayer() {
		u.EnablePlayer()
	}
	u.AddRole(RoleReferee)
	if u.Referee == nil {
		u.Referee = &Referee{}
	}
}

// DisableReferee revokes REFEREE and drops the referee profile.
func (u *User) DisableReferee() {
	u.Roles = removeValue(u.Roles, RoleReferee)
	u.Referee = nil
}

// GetPlayer returns the player profile.
func (u *User) GetPlayer() (*Player, error) {
	if !u.IsPlayer() || u.Player == nil {
		return nil, ErrNotPlayer
	}
	return u.Player, nil
}

// GetReferee returns the referee profile.
func (u *User) GetReferee() (*Referee, error) {
	if !u.IsReferee() || u.Referee == nil {
		return nil, ErrNotReferee
	}
	return u.Referee, nil
}

// IsCharacterOwner reports whether the player profile lists id.
func (u *User) IsCharacterOwner(id CharacterID) bool {
	return u.Player != nil && slices.Contains(u.Player.Characters, id)
}

func (u *User) UpdateDMChannel(channelID string) { u.DMChannelID = &channelID }

// UpdateJoinedAt records the join time. It fails when already set unless override is true.
func (u *User) UpdateJoinedAt(at time.Time, override bool) error {
	if u.JoinedAt != nil && !override {
		return fmt.Errorf("%w: joined_at", ErrAlreadySet)
	}
	at = at.UTC()
	u.JoinedAt = &at
	return nil
}

func (u *User) UpdateLastActive(at time.Time) {
	at = at.UTC()
	u.LastActiveAt = &at
}

func (u *User) IncrementMessages(count int) error {
	if count < 0 {
		return fieldError("messages_count_total", "count must be non-negative")
	}
	u.MessagesCountTotal += count
	return nil
}

func (u *User) IncrementReactionsGiven(count int) error {
	if count < 0 {
		return fieldError("reactions_given", "count must be non-negative")
	}
	u.ReactionsGiven += count
	return nil
}

func (u *User) IncrementReactionsReceived(count int) error {
	if count < 0 {
		return fieldError("reactions_received", "count must be non-negative")
	}
	u.ReactionsReceived += count
	return nil
}

// AddVoiceTime accumulates seconds of voice activity, stored in hours.
func (u *User) AddVoiceTime(seconds int) error {
	if seconds < 0 {
		return fieldError("voice_total_time_spent", "seconds must be non-negative")
	}
	u.VoiceTotalTimeSpent += float64(seconds) / 3600
	return nil
}

// Validate checks the user invariants including attached profiles.
func (u *User) Validate() error {
	var errs []FieldError

	if u.UserID.IsZero() {
		errs = append(errs, FieldError{Field: "user_id", Message: "user_id is required"})
	}
	for _, r := range u.Roles {
		if !r.Valid() {
			errs = append(errs, FieldError{Field: "roles", Message: fmt.Sprintf("invalid role %q", r)})
		}
	}
	if u.MessagesCountTotal < 0 {
		errs = append(errs, FieldError{Field: "messages_count_total", Message: "must be non-negative"})
	}
	if u.ReactionsGiven < 0 {
		errs = append(errs, FieldError{Field: "reactions_given", Message: "must be non-negative"})
	}
	if u.ReactionsReceived < 0 {
		errs = append(errs, FieldError{Field: "reactions_received", Message: "must be non-negative"})
	}
	if u.VoiceTotalTimeSpent < 0 {
		errs = append(errs, FieldError{Field: "voice_total_time_spent", Message: "must be non-negative"})
	}
	if u.IsPlayer() && u.Player == nil {
		errs = append(errs, FieldError{Field: "player", Message: "player profile must be set if user has PLAYER role"})
	}
	if u.IsReferee() && u.Referee == nil {
		errs = append(errs, FieldError{Field: "referee", Message: "referee profile must be set if user has REFEREE role"})
	}
	if u.Referee != nil {
		for id, n := range u.Referee.HostedFor {
			if n < 0 {
				errs = append(errs, FieldError{Field: "referee.hosted_for", Message: fmt.Sprintf("negative count for %s", id)})
			}
		}
	}

	return validationResult(errs)
}

// Player updaters

func (p *Player) AddCharacter(id CharacterID)    { p.Characters = appendUnique(p.Characters, id) }
func (p *Player) RemoveCharacter(id CharacterID) { p.Characters = removeValue(p.Characters, id) }
func (p *Player) AddQuestApplied(id QuestID)     { p.QuestsApplied = appendUnique(p.QuestsApplied, id) }
func (p *Player) AddQuestPlayed(id QuestID)      { p.QuestsPlayed = appendUnique(p.QuestsPlayed, id) }
func (p *Player) RemoveQuestApplied(id QuestID)  { p.QuestsApplied = removeValue(p.QuestsApplied, id) }
func (p *Player) AddSummaryWritten(id SummaryID) { p.SummariesWritten = appendUnique(p.SummariesWritten, id) }

func (p *Player) UpdateJoinedOn(at time.Time, override bool) error {
	if p.JoinedOn != nil && !override {
		return fmt.Errorf("%w: joined_on", ErrAlreadySet)
	}
	at = at.UTC()
	p.JoinedOn = &at
	return nil
}

func (p *Player) UpdateCreatedFirstCharacterOn(at time.Time, override bool) error {
	if p.CreatedFirstCharacterOn != nil && !override {
		return fmt.Errorf("%w: created_first_character_on", ErrAlreadySet)
	}
	at = at.UTC()
	p.CreatedFirstCharacterOn = &at
	return nil
}

func (p *Player) UpdateLastPlayedOn(at time.Time) {
	at = at.UTC()
	p.LastPlayedOn = &at
}

// AddPlayedWithCharacter counts one more session with id lasting seconds.
func (p *Player) AddPlayedWithCharacter(id CharacterID, seconds int) {
	if p.PlayedWithCharacter == nil {
		p.PlayedWithCharacter = make(map[CharacterID]PlayStats)
	}
	p.PlayedWithCharacter[id] = p.PlayedWithCharacter[id].add(seconds)
}

func (p *Player) RemovePlayedWithCharacter(id CharacterID) {
	delete(p.PlayedWithCharacter, id)
}

// Referee updaters

func (r *Referee) AddQuestHosted(id QuestID)      { r.QuestsHosted = appendUnique(r.QuestsHosted, id) }
func (r *Referee) AddSummaryWritten(id SummaryID) { r.SummariesWritten = appendUnique(r.SummariesWritten, id) }

func (r *Referee) UpdateFirstDMedOn(at time.Time, override bool) error {
	if r.FirstDMedOn != nil && !override {
		return fmt.Errorf("%w: first_dmed_on", ErrAlreadySet)
	}
	at = at.UTC()
	r.FirstDMedOn = &at
	return nil
}

func (r *Referee) UpdateLastDMedOn(at time.Time) {
	at = at.UTC()
	r.LastDMedOn = &at
}

// AddCollabedWith counts one more co-hosted session with id lasting seconds.
func (r *Referee) AddCollabedWith(id UserID, seconds int) {
	if r.CollabedWith == nil {
		r.CollabedWith = make(map[UserID]PlayStats)
	}
	r.CollabedWith[id] = r.CollabedWith[id].add(seconds)
}

func (r *Referee) RemoveCollabedWith(id UserID) { delete(r.CollabedWith, id) }

// AddHostedFor counts one more session hosted for id.
func (r *Referee) AddHostedFor(id UserID) {
	if r.HostedFor == nil {
		r.HostedFor = make(map[UserID]int)
	}
	r.HostedFor[id]++
}

func (r *Referee) RemoveHostedFor(id UserID) { delete(r.HostedFor, id) }
