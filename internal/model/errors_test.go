package model

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// ============================================================================
// ValidationError Tests
// ============================================================================

func TestValidationError_Error_SingleField(t *testing.T) {
	t.Parallel()

	err := &ValidationError{Errors: []FieldError{{Field: "name", Message: "name cannot be empty"}}}

	if got := err.Error(); got != "name: name cannot be empty" {
		t.Errorf("Error() = %q", got)
	}
}

func TestValidationError_Error_CountsRemaining(t *testing.T) {
	t.Parallel()

	err := &ValidationError{Errors: []FieldError{
		{Field: "name", Message: "required"},
		{Field: "url", Message: "invalid"},
		{Field: "guild_id", Message: "invalid"},
	}}

	msg := err.Error()
	if !strings.HasPrefix(msg, "name: required") {
		t.Errorf("error message should start with first field, got: %s", msg)
	}
	if !strings.Contains(msg, "and 2 more errors") {
		t.Errorf("error message should count the rest, got: %s", msg)
	}
}

func TestValidationError_Error_Empty(t *testing.T) {
	t.Parallel()

	err := &ValidationError{}
	if err.Error() == "" {
		t.Error("empty ValidationError should still describe itself")
	}
}

func TestValidationError_IsErrValidation(t *testing.T) {
	t.Parallel()

	var err error = fmt.Errorf("save quest: %w", fieldError("title", "required"))
	if !errors.Is(err, ErrValidation) {
		t.Error("wrapped ValidationError should match ErrValidation")
	}

	var ve *ValidationError
	if !errors.As(err, &ve) || !ve.HasField("title") || ve.HasField("raw") {
		t.Errorf("unexpected fields: %v", ve)
	}
}

func TestValidationResult_NilWhenEmpty(t *testing.T) {
	t.Parallel()

	if err := validationResult(nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestFormatError_Message(t *testing.T) {
	t.Parallel()

	err := &FormatError{Kind: KindCharacter, Input: "CHARx", Reason: "bad body"}
	msg := err.Error()
	if !strings.Contains(msg, "character") || !strings.Contains(msg, `"CHARx"`) {
		t.Errorf("Error() = %q", msg)
	}
}
