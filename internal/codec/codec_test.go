package codec_test

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/forgo/nonagon/internal/codec"
	"github.com/forgo/nonagon/internal/model"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

var recordOpts = cmp.Options{
	cmp.Comparer(func(a, b model.UserID) bool { return a == b }),
	cmp.Comparer(func(a, b model.QuestID) bool { return a == b }),
	cmp.Comparer(func(a, b model.CharacterID) bool { return a == b }),
	cmp.Comparer(func(a, b model.SummaryID) bool { return a == b }),
	cmpopts.EquateEmpty(),
}

func questID(s string) model.QuestID         { return model.MustParseID[model.QuestEntity](s) }
func userID(s string) model.UserID           { return model.MustParseID[model.UserEntity](s) }
func characterID(s string) model.CharacterID { return model.MustParseID[model.CharacterEntity](s) }

func announcedQuest(t *testing.T) *model.Quest {
	t.Helper()
	q := model.NewQuest(questID("QUESA1B2C3"), 42, userID("USERR1R1R1"), "# Mines")
	q.Title = "Into the Mines"
	q.Schedule(now.Add(24*time.Hour), 3*time.Hour)
	require.NoError(t, q.Announce())
	require.NoError(t, q.AddSignup(userID("USERA1A1A1"), characterID("CHARA1A1A1")))
	require.NoError(t, q.AddSignup(userID("USERB2B2B2"), characterID("CHARB2B2B2")))
	require.NoError(t, q.SelectSignup(userID("USERB2B2B2")))
	return q
}

// ============================================================================
// Round Trip Tests
// ============================================================================

func TestCodec_QuestRoundTrip(t *testing.T) {
	t.Parallel()

	c := codec.New()
	q := announcedQuest(t)

	doc, err := c.Encode(q)
	require.NoError(t, err)

	got, err := codec.DecodeAs[model.Quest](c, doc)
	require.NoError(t, err)

	if diff := cmp.Diff(*q, got, recordOpts); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, got.Signups, 2)
	assert.Equal(t, userID("USERA1A1A1"), got.Signups[0].UserID)
	assert.Equal(t, model.SignupStatusApplied, got.Signups[0].Status)
	assert.Equal(t, model.SignupStatusSelected, got.Signups[1].Status)
}

func TestCodec_QuestDocumentShape(t *testing.T) {
	t.Parallel()

	c := codec.New()
	doc, err := c.Encode(announcedQuest(t))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"value": "QUESA1B2C3", "prefix": "QUES"}, doc["quest_id"])
	assert.Equal(t, "ANNOUNCED", doc["status"])
	assert.Equal(t, int64(42), doc["guild_id"])
	assert.Equal(t, 10800.0, doc["duration"])
	assert.Equal(t, now.Add(24*time.Hour), doc["starting_at"])
	assert.Nil(t, doc["channel_id"])
	assert.Contains(t, doc, "channel_id")

	signups, ok := doc["signups"].([]any)
	require.True(t, ok)
	require.Len(t, signups, 2)
	assert.Equal(t, "SELECTED", signups[1].(codec.Document)["status"])
}

func TestCodec_UserWithProfilesRoundTrip(t *testing.T) {
	t.Parallel()

	c := codec.New()
	u := model.NewUser(userID("USERA1B2C3"), 42)
	u.EnableReferee()
	require.NoError(t, u.UpdateJoinedAt(now, false))
	u.Player.AddCharacter(characterID("CHARA1A1A1"))
	u.Player.AddPlayedWithCharacter(characterID("CHARB1B1B1"), 5400)
	u.Referee.AddHostedFor(userID("USERC3C3C3"))
	u.Referee.AddCollabedWith(userID("USERD4D4D4"), 3600)

	doc, err := c.Encode(u)
	require.NoError(t, err)

	player := doc["player"].(codec.Document)
	played := player["played_with_character"].(map[string]any)
	assert.Equal(t, codec.Document{"count": int64(1), "hours": 1.5}, played["CHARB1B1B1"])

	got, err := codec.DecodeAs[model.User](c, doc)
	require.NoError(t, err)
	if diff := cmp.Diff(*u, got, recordOpts); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCodec_SummaryAndLookupRoundTrip(t *testing.T) {
	t.Parallel()

	c := codec.New()

	s := model.NewSummary(model.MustParseID[model.SummaryEntity]("SUMMA1B2C3"), model.SummaryKindReferee, userID("USERA1B2C3"), 42, now)
	s.Title = "Report"
	s.Description = "Done"
	s.AddCharacter(characterID("CHARA1A1A1"))
	qid := questID("QUES7")
	s.QuestID = &qid

	doc, err := c.Encode(s)
	require.NoError(t, err)
	gotSummary, err := codec.DecodeAs[model.Summary](c, doc)
	require.NoError(t, err)
	if diff := cmp.Diff(*s, gotSummary, recordOpts); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	e := model.NewLookupEntry(42, "House Rules", "https://example.com/rules", 7, now)
	e.TouchUpdated(8, now.Add(time.Hour))

	doc, err = c.Encode(e)
	require.NoError(t, err)
	gotEntry, err := codec.DecodeAs[model.LookupEntry](c, doc)
	require.NoError(t, err)
	if diff := cmp.Diff(*e, gotEntry); diff != "" {
		t.Errorf("lookup mismatch (-want +got):\n%s", diff)
	}
}

func TestCodec_ZoneAwareInstantBecomesUTC(t *testing.T) {
	t.Parallel()

	c := codec.New()
	loc := time.FixedZone("PDT", -7*3600)
	local := now.In(loc)
	q := model.NewQuest(questID("QUESA1B2C3"), 1, userID("USERA1B2C3"), "")
	q.StartingAt = &local

	doc, err := c.Encode(q)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, doc["starting_at"].(time.Time).Location())

	got, err := codec.DecodeAs[model.Quest](c, doc)
	require.NoError(t, err)
	assert.True(t, got.StartingAt.Equal(local))
	assert.Equal(t, time.UTC, got.StartingAt.Location())
}

// ============================================================================
// Absence Tests
// ============================================================================

func TestCodec_AbsentFieldsDecodeToZero(t *testing.T) {
	t.Parallel()

	c := codec.New()
	doc := codec.Document{
		"quest_id":  map[string]any{"value": "QUESA1B2C3", "prefix": "QUES"},
		"status":    "DRAFT",
		"image_url": nil,
		"_id":       "ignored",
	}

	got, err := codec.DecodeAs[model.Quest](c, doc)
	require.NoError(t, err)

	assert.Equal(t, questID("QUESA1B2C3"), got.QuestID)
	assert.Nil(t, got.StartingAt)
	assert.Nil(t, got.Duration)
	assert.Nil(t, got.ImageURL)
	assert.Nil(t, got.Signups)
	assert.True(t, got.RefereeID.IsZero())
}

func TestCodec_ZeroIdentifierEncodesAsNull(t *testing.T) {
	t.Parallel()

	c := codec.New()
	doc, err := c.Encode(&model.Quest{Status: model.QuestStatusDraft})
	require.NoError(t, err)
	assert.Nil(t, doc["quest_id"])
	assert.Nil(t, doc["referee_id"])

	got, err := codec.DecodeAs[model.Quest](c, doc)
	require.NoError(t, err)
	assert.True(t, got.QuestID.IsZero())
}

func TestCodec_EncodeValueAndDecodeValue(t *testing.T) {
	t.Parallel()

	c := codec.New()
	v, err := c.EncodeValue(questID("QUESA1B2C3"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"value": "QUESA1B2C3", "prefix": "QUES"}, v)

	signups := []model.Signup{{
		UserID:      userID("USERA1A1A1"),
		CharacterID: characterID("CHARA1A1A1"),
		Status:      model.SignupStatusApplied,
	}}
	v, err = c.EncodeValue(signups)
	require.NoError(t, err)

	var got []model.Signup
	require.NoError(t, c.DecodeValue(v, &got))
	if diff := cmp.Diff(signups, got, recordOpts); diff != "" {
		t.Errorf("signups mismatch (-want +got):\n%s", diff)
	}

	nothing, err := c.EncodeValue(nil)
	require.NoError(t, err)
	assert.Nil(t, nothing)

	assert.Error(t, c.DecodeValue(v, got))
}

// ============================================================================
// Collection Tests
// ============================================================================

func TestCodec_SetsDeduplicate(t *testing.T) {
	t.Parallel()

	c := codec.New()
	ch := &model.Character{Tags: []string{"wizard", "elf", "wizard"}}

	doc, err := c.Encode(ch)
	require.NoError(t, err)
	assert.Equal(t, []any{"wizard", "elf"}, doc["tags"])

	got, err := codec.DecodeAs[model.Character](c, codec.Document{
		"tags":        []any{"a", "b", "a"},
		"played_with": []any{"CHARA1A1A1", "CHARA1A1A1"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
	// played_with is a sequence: duplicates are kept in order
	assert.Len(t, got.PlayedWith, 2)
}

// ============================================================================
// Identifier Shape Tests
// ============================================================================

func TestCodec_IdentifierShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  any
		want string
	}{
		{"canonical map", map[string]any{"value": "QUESA1B2C3", "prefix": "QUES"}, "QUESA1B2C3"},
		{"value without prefix field", map[string]any{"value": "QUESA1B2C3"}, "QUESA1B2C3"},
		{"bare body value", map[string]any{"value": "A1B2C3", "prefix": "QUES"}, "QUESA1B2C3"},
		{"legacy number", map[string]any{"number": int64(42), "prefix": "QUES"}, "QUES42"},
		{"legacy float number", map[string]any{"number": 42.0, "prefix": "QUES"}, "QUES42"},
		{"plain string", "QUESA1B2C3", "QUESA1B2C3"},
		{"plain legacy string", "7", "QUES7"},
	}

	c := codec.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := codec.DecodeAs[model.Quest](c, codec.Document{"quest_id": tt.src})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.QuestID.String())
		})
	}
}

func TestCodec_IdentifierShapeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  any
	}{
		{"wrong prefix", map[string]any{"value": "CHARA1B2C3", "prefix": "CHAR"}},
		{"bad body", map[string]any{"value": "QUESa1b2c3", "prefix": "QUES"}},
		{"number not integral", map[string]any{"number": 4.5, "prefix": "QUES"}},
		{"missing value", map[string]any{"prefix": "QUES"}},
		{"wrong type", 42},
	}

	c := codec.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := codec.DecodeAs[model.Quest](c, codec.Document{"quest_id": tt.src})
			var de *codec.DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, "quest_id", de.Path)
		})
	}
}

// ============================================================================
// Instant and Duration Tests
// ============================================================================

func TestCodec_InstantInputs(t *testing.T) {
	t.Parallel()

	want := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		src  any
	}{
		{"time", want},
		{"time with zone", want.In(time.FixedZone("X", 3600))},
		{"surreal datetime", models.CustomDateTime{Time: want}},
		{"surreal datetime pointer", &models.CustomDateTime{Time: want}},
		{"rfc3339", "2025-06-01T14:30:00+02:00"},
		{"zoneless", "2025-06-01T12:30:00"},
		{"zoneless space", "2025-06-01 12:30:00.000"},
		{"epoch int", want.Unix()},
		{"epoch float", float64(want.Unix())},
	}

	c := codec.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := codec.DecodeAs[model.LookupEntry](c, codec.Document{"created_at": tt.src})
			require.NoError(t, err)
			assert.True(t, got.CreatedAt.Equal(want), "got %v", got.CreatedAt)
			assert.Equal(t, time.UTC, got.CreatedAt.Location())
		})
	}
}

func TestCodec_DurationSeconds(t *testing.T) {
	t.Parallel()

	c := codec.New()
	got, err := codec.DecodeAs[model.Quest](c, codec.Document{"duration": 5400})
	require.NoError(t, err)
	require.NotNil(t, got.Duration)
	assert.Equal(t, 90*time.Minute, *got.Duration)

	got, err = codec.DecodeAs[model.Quest](c, codec.Document{"duration": 0.5})
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, *got.Duration)

	_, err = codec.DecodeAs[model.Quest](c, codec.Document{"duration": "90m"})
	var de *codec.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "duration", de.Path)
}

// ============================================================================
// Decode Error Tests
// ============================================================================

func TestCodec_WrongShapeFails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  codec.Document
		path string
	}{
		{"string for int", codec.Document{"guild_id": "42"}, "guild_id"},
		{"fractional int", codec.Document{"guild_id": 4.2}, "guild_id"},
		{"number for string", codec.Document{"title": 7}, "title"},
		{"map for list", codec.Document{"signups": map[string]any{}}, "signups"},
		{"list for record", codec.Document{"signups": []any{[]any{}}}, "signups[0]"},
		{
			"nested enum type",
			codec.Document{"signups": []any{
				map[string]any{"status": "APPLIED"},
				map[string]any{"status": 1},
			}},
			"signups[1].status",
		},
		{"bad instant", codec.Document{"starting_at": "tomorrow"}, "starting_at"},
		{"huge duration", codec.Document{"duration": 1e300}, "duration"},
		{"negative huge duration", codec.Document{"duration": -1e19}, "duration"},
		{"NaN duration", codec.Document{"duration": math.NaN()}, "duration"},
		{"infinite duration", codec.Document{"duration": math.Inf(1)}, "duration"},
		{"huge instant", codec.Document{"starting_at": 1e300}, "starting_at"},
		{"NaN instant", codec.Document{"starting_at": math.NaN()}, "starting_at"},
	}

	c := codec.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := codec.DecodeAs[model.Quest](c, tt.doc)
			var de *codec.DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.path, de.Path)
			assert.NotEmpty(t, de.Want)
		})
	}
}

func TestCodec_IntegerOverflow(t *testing.T) {
	t.Parallel()

	type small struct {
		N int8 `doc:"n"`
	}
	c := codec.New()
	_, err := codec.DecodeAs[small](c, codec.Document{"n": 300})
	var de *codec.DecodeError
	require.ErrorAs(t, err, &de)
}

// ============================================================================
// Enum Policy Tests
// ============================================================================

func TestCodec_UnknownEnumRejectedByDefault(t *testing.T) {
	t.Parallel()

	c := codec.New()
	_, err := codec.DecodeAs[model.Quest](c, codec.Document{"status": "ARCHIVED"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, codec.ErrUnknownEnum))
}

func TestCodec_UnknownEnumKept(t *testing.T) {
	t.Parallel()

	c := codec.New(codec.WithUnknownEnums(codec.KeepUnknownEnums))
	got, err := codec.DecodeAs[model.Quest](c, codec.Document{"status": "ARCHIVED"})
	require.NoError(t, err)
	assert.Equal(t, model.QuestStatus("ARCHIVED"), got.Status)
	assert.ErrorIs(t, got.Validate(now), model.ErrValidation)
}

func TestCodec_UnknownEnumMapKeys(t *testing.T) {
	t.Parallel()

	type tally struct {
		ByStatus map[model.QuestStatus]int `doc:"by_status"`
	}
	doc := codec.Document{"by_status": map[string]any{"DRAFT": 1, "ARCHIVED": 2}}

	_, err := codec.DecodeAs[tally](codec.New(), doc)
	var de *codec.DecodeError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, codec.ErrUnknownEnum)
	assert.Equal(t, "by_status[ARCHIVED]", de.Path)

	got, err := codec.DecodeAs[tally](codec.New(codec.WithUnknownEnums(codec.KeepUnknownEnums)), doc)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ByStatus["ARCHIVED"])
	assert.Equal(t, 1, got.ByStatus[model.QuestStatusDraft])
}

// ============================================================================
// Present Zero Value Tests
// ============================================================================

func TestCodec_PresentZeroPointersStayPresent(t *testing.T) {
	t.Parallel()

	type optionals struct {
		At     *time.Time         `doc:"at"`
		Status *model.QuestStatus `doc:"status"`
		Quest  *model.QuestID     `doc:"quest"`
	}
	var zeroStatus model.QuestStatus
	in := optionals{At: &time.Time{}, Status: &zeroStatus, Quest: &model.QuestID{}}

	c := codec.New()
	doc, err := c.Encode(&in)
	require.NoError(t, err)
	assert.Equal(t, time.Time{}, doc["at"])
	assert.Equal(t, "", doc["status"])
	// zero identifiers have no canonical form and stay null
	assert.Nil(t, doc["quest"])

	got, err := codec.DecodeAs[optionals](c, doc)
	require.NoError(t, err)
	require.NotNil(t, got.At)
	assert.True(t, got.At.IsZero())
	require.NotNil(t, got.Status)
	assert.Equal(t, model.QuestStatus(""), *got.Status)
	assert.Nil(t, got.Quest)
}

func TestParseUnknownEnumPolicy(t *testing.T) {
	t.Parallel()

	p, err := codec.ParseUnknownEnumPolicy("KEEP")
	require.NoError(t, err)
	assert.Equal(t, codec.KeepUnknownEnums, p)

	p, err = codec.ParseUnknownEnumPolicy("")
	require.NoError(t, err)
	assert.Equal(t, codec.RejectUnknownEnums, p)

	_, err = codec.ParseUnknownEnumPolicy("ignore")
	assert.Error(t, err)
}

// ============================================================================
// Descriptor Tests
// ============================================================================

type node struct {
	Name  string   `doc:"name"`
	Next  *node    `doc:"next"`
	Skip  string   `doc:"-"`
	Plain int
	Kids  []node   `doc:"kids"`
	Set   []string `doc:"labels,set"`
}

func TestCodec_RecursiveType(t *testing.T) {
	t.Parallel()

	c := codec.New()
	in := node{Name: "a", Next: &node{Name: "b"}, Skip: "x", Plain: 3, Kids: []node{{Name: "c"}}}

	doc, err := c.Encode(in)
	require.NoError(t, err)
	assert.NotContains(t, doc, "Skip")
	assert.Equal(t, int64(3), doc["plain"])

	got, err := codec.DecodeAs[node](c, doc)
	require.NoError(t, err)
	in.Skip = ""
	if diff := cmp.Diff(in, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCodec_DescribeCachesPerType(t *testing.T) {
	t.Parallel()

	c := codec.New()
	d1, err := c.Describe(reflect.TypeOf(model.Quest{}))
	require.NoError(t, err)
	d2, err := c.Describe(reflect.TypeOf(model.Quest{}))
	require.NoError(t, err)
	assert.Same(t, d1, d2)

	f, ok := d1.Field("signups")
	require.True(t, ok)
	assert.Equal(t, codec.ShapeSequence, f.Desc.Shape)
	assert.Equal(t, codec.ShapeRecord, f.Desc.Elem.Shape)

	f, ok = d1.Field("quest_id")
	require.True(t, ok)
	assert.Equal(t, codec.ShapeIdentifier, f.Desc.Shape)

	f, ok = d1.Field("status")
	require.True(t, ok)
	assert.Equal(t, codec.ShapeEnum, f.Desc.Shape)

	f, ok = d1.Field("duration")
	require.True(t, ok)
	assert.Equal(t, codec.ShapeOptional, f.Desc.Shape)
	assert.Equal(t, codec.ShapeDuration, f.Desc.Elem.Shape)

	dUser, err := c.Describe(reflect.TypeOf(model.User{}))
	require.NoError(t, err)
	f, ok = dUser.Field("roles")
	require.True(t, ok)
	assert.Equal(t, codec.ShapeSet, f.Desc.Shape)
}

func TestCodec_UnsupportedTypes(t *testing.T) {
	t.Parallel()

	type withChan struct {
		C chan int `doc:"c"`
	}
	type badSet struct {
		S string `doc:"s,set"`
	}
	type badKey struct {
		M map[int]string `doc:"m"`
	}
	type dupName struct {
		A string `doc:"x"`
		B string `doc:"x"`
	}

	c := codec.New()
	for _, v := range []any{withChan{}, badSet{}, badKey{}, dupName{}} {
		_, err := c.Encode(v)
		var te *codec.TypeError
		assert.ErrorAs(t, err, &te, "%T", v)
	}
}

func TestCodec_DecodeDestinationMustBePointer(t *testing.T) {
	t.Parallel()

	c := codec.New()
	var q model.Quest
	assert.Error(t, c.Decode(codec.Document{}, q))
	assert.Error(t, c.Decode(codec.Document{}, (*model.Quest)(nil)))
}

func TestCodec_ConcurrentUse(t *testing.T) {
	t.Parallel()

	c := codec.New()
	q := announcedQuest(t)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			doc, err := c.Encode(q)
			if err == nil {
				_, err = codec.DecodeAs[model.Quest](c, doc)
			}
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}
