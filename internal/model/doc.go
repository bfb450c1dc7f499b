// Package model defines the guild-scoped records tracked by Nonagon and the
// typed identifiers that name them.
//
// # Identifiers
//
// Every record kind owns a fixed prefix declared once on its Kind:
//
//	USER  users
//	QUES  quests
//	CHAR  characters
//	SUMM  summaries
//
// An identifier is the prefix followed by a body. Fresh bodies use the postal
// grammar (letter, digit, letter, digit, letter, digit, e.g. H3X1T7); bodies
// issued before that grammar existed are plain digits and remain valid:
//
//	id, err := model.NewID[model.QuestEntity]()   // QUESH3X1T7
//	id, err := model.ParseID[model.QuestEntity]("QUES42")
//
// ID is generic over an entity marker so a QuestID can never be assigned to a
// CharacterID field.
//
// # Records
//
// User, Character, Quest, Summary and LookupEntry carry doc struct tags that
// name their document fields. Records are mutated only through their methods;
// Validate reports every violated invariant at once as a *ValidationError.
//
// # Quest lifecycle
//
//	DRAFT -> ANNOUNCED -> SIGNUP_CLOSED -> COMPLETED
//
// ANNOUNCED may return to DRAFT, SIGNUP_CLOSED may reopen to ANNOUNCED and any
// non-terminal state may be CANCELLED. Signups are accepted only while
// ANNOUNCED and move from APPLIED to SELECTED, never back.
package model
