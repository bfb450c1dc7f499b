package model

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// Kind names an entity family and owns the prefix of its identifiers.
// Prefixes are declared once here; other code reads them through Kind.Prefix.
type Kind struct {
	name   string
	prefix string
}

// Registered entity kinds
var (
	KindUser      = Kind{name: "user", prefix: "USER"}
	KindQuest     = Kind{name: "quest", prefix: "QUES"}
	KindCharacter = Kind{name: "character", prefix: "CHAR"}
	KindSummary   = Kind{name: "summary", prefix: "SUMM"}
)

// Kinds returns every registered entity kind.
func Kinds() []Kind {
	return []Kind{KindUser, KindQuest, KindCharacter, KindSummary}
}

// KindByName resolves a kind from its lower-case name (user, quest, ...).
func KindByName(name string) (Kind, bool) {
	for _, k := range Kinds() {
		if k.name == strings.ToLower(strings.TrimSpace(name)) {
			return k, true
		}
	}
	return Kind{}, false
}

// Name returns the lower-case kind name.
func (k Kind) Name() string { return k.name }

// Prefix returns the fixed identifier prefix for the kind.
func (k Kind) Prefix() string { return k.prefix }

func (k Kind) String() string { return k.name }

// Entity is implemented by the marker types that bind an ID to its kind.
type Entity interface {
	Kind() Kind
}

// Entity markers
type (
	UserEntity      struct{}
	QuestEntity     struct{}
	CharacterEntity struct{}
	SummaryEntity   struct{}
)

func (UserEntity) Kind() Kind      { return KindUser }
func (QuestEntity) Kind() Kind     { return KindQuest }
func (CharacterEntity) Kind() Kind { return KindCharacter }
func (SummaryEntity) Kind() Kind   { return KindSummary }

// Typed identifiers
type (
	UserID      = ID[UserEntity]
	QuestID     = ID[QuestEntity]
	CharacterID = ID[CharacterEntity]
	SummaryID   = ID[SummaryEntity]
)

// PostalBodyLength is the number of characters in a generated body.
const PostalBodyLength = 6

const (
	postalLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	postalDigits  = "0123456789"
)

var (
	postalBodyPattern = regexp.MustCompile(`^[A-Z][0-9][A-Z][0-9][A-Z][0-9]$`)
	legacyBodyPattern = regexp.MustCompile(`^[0-9]+$`)
)

// FormatError reports text that does not match a kind's identifier grammar.
type FormatError struct {
	Kind   Kind
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s id %q: %s", e.Kind.name, e.Input, e.Reason)
}

// ID is an immutable entity identifier: the kind's prefix followed by either a
// postal body (A1B2C3) or a legacy numeric body. The zero value is the absent ID.
type ID[E Entity] struct {
	body string
}

// NewID generates a fresh postal identifier using crypto/rand.
func NewID[E Entity]() (ID[E], error) {
	return NewIDFrom[E](rand.Reader)
}

// NewIDFrom generates a postal identifier reading randomness from r.
func NewIDFrom[E Entity](r io.Reader) (ID[E], error) {
	body, err := GeneratePostalBody(r)
	if err != nil {
		return ID[E]{}, err
	}
	return ID[E]{body: body}, nil
}

// ParseID parses a canonical identifier (prefix + body). The prefix must equal
// the kind's prefix exactly and the body must be postal or legacy numeric.
func ParseID[E Entity](s string) (ID[E], error) {
	var e E
	body, err := parseBody(e.Kind(), s)
	if err != nil {
		return ID[E]{}, err
	}
	return ID[E]{body: body}, nil
}

// ParseIDLoose accepts user-typed input: surrounding whitespace is trimmed,
// letters are upper-cased and a bare body without prefix is accepted. The
// result must still satisfy the strict grammar.
func ParseIDLoose[E Entity](s string) (ID[E], error) {
	var e E
	kind := e.Kind()
	cleaned := strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(cleaned, kind.prefix) {
		cleaned = kind.prefix + cleaned
	}
	body, err := parseBody(kind, cleaned)
	if err != nil {
		return ID[E]{}, &FormatError{Kind: kind, Input: s, Reason: err.(*FormatError).Reason}
	}
	return ID[E]{body: body}, nil
}

// LegacyID wraps a plain numeric body issued before postal identifiers existed.
// The postal grammar is not applied.
func LegacyID[E Entity](numeric string) (ID[E], error) {
	var e E
	if !legacyBodyPattern.MatchString(numeric) {
		return ID[E]{}, &FormatError{Kind: e.Kind(), Input: numeric, Reason: "legacy body must be numeric"}
	}
	return ID[E]{body: numeric}, nil
}

// MustParseID is ParseID for literals known to be valid. It panics otherwise.
func MustParseID[E Entity](s string) ID[E] {
	id, err := ParseID[E](s)
	if err != nil {
		panic(err)
	}
	return id
}

func parseBody(kind Kind, s string) (string, error) {
	if s == "" {
		return "", &FormatError{Kind: kind, Input: s, Reason: "empty"}
	}
	if !strings.HasPrefix(s, kind.prefix) {
		return "", &FormatError{Kind: kind, Input: s, Reason: fmt.Sprintf("expected prefix %s", kind.prefix)}
	}
	body := s[len(kind.prefix):]
	if postalBodyPattern.MatchString(body) || legacyBodyPattern.MatchString(body) {
		return body, nil
	}
	return "", &FormatError{Kind: kind, Input: s, Reason: "body must be postal (e.g. H3X1T7) or numeric"}
}

// GeneratePostalBody returns six characters alternating an upper-case letter
// and a digit, drawn uniformly from r.
func GeneratePostalBody(r io.Reader) (string, error) {
	var sb strings.Builder
	sb.Grow(PostalBodyLength)
	for i := 0; i < PostalBodyLength; i++ {
		alphabet := postalLetters
		if i%2 == 1 {
			alphabet = postalDigits
		}
		n, err := rand.Int(r, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", fmt.Errorf("generate id body: %w", err)
		}
		sb.WriteByte(alphabet[n.Int64()])
	}
	return sb.String(), nil
}

// Kind returns the identifier's entity kind.
func (id ID[E]) Kind() Kind {
	var e E
	return e.Kind()
}

// Prefix returns the kind prefix.
func (id ID[E]) Prefix() string { return id.Kind().prefix }

// Body returns the part after the prefix.
func (id ID[E]) Body() string { return id.body }

// IsZero reports whether the ID is unset.
func (id ID[E]) IsZero() bool { return id.body == "" }

// IsPostal reports whether the body uses the postal grammar.
func (id ID[E]) IsPostal() bool { return postalBodyPattern.MatchString(id.body) }

// Number returns the numeric value of a legacy body.
func (id ID[E]) Number() (int64, bool) {
	if !legacyBodyPattern.MatchString(id.body) {
		return 0, false
	}
	n, err := strconv.ParseInt(id.body, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// String returns the canonical prefix+body form, or "" for the zero ID.
func (id ID[E]) String() string {
	if id.body == "" {
		return ""
	}
	return id.Kind().prefix + id.body
}

// Compare orders identifiers by canonical string.
func (id ID[E]) Compare(other ID[E]) int {
	return strings.Compare(id.String(), other.String())
}

// MarshalText implements encoding.TextMarshaler.
func (id ID[E]) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with strict parsing.
func (id *ID[E]) UnmarshalText(text []byte) error {
	parsed, err := ParseID[E](string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
