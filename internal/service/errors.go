package service

import "errors"

// Centralized service layer errors.
// Domain rule violations come from the model package (model.ErrValidation,
// model.ErrInvalidTransition, ...) and are passed through unchanged.

// ===== Allocation Errors =====
var (
	ErrAllocationExhausted = errors.New("identifier allocation exhausted")
	ErrUnsupportedKind     = errors.New("unsupported entity kind")
)

// ===== Quest Errors =====
var (
	ErrQuestNotFound     = errors.New("quest not found")
	ErrNotQuestReferee   = errors.New("not the referee of this quest")
	ErrCharacterNotOwned = errors.New("character does not belong to user")
)

// ===== User Errors =====
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrCharacterNotFound = errors.New("character not found")
)

// ===== Lookup Errors =====
var (
	ErrLookupNotFound = errors.New("lookup entry not found")
)
