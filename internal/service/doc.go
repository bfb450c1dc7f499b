// Package service implements the business logic layer for Nonagon.
//
// Services hold the quest workflow, lookup management and identifier
// allocation. Domain rules live on the model types; services load records,
// apply those rules and persist the results.
//
// # Service Pattern
//
// All services follow a consistent pattern:
//
//   - Constructor function (NewXxxService) accepts a config struct with store dependencies
//   - Stores are small interfaces defined here and satisfied by the repository package
//   - Model errors (model.ErrValidation, model.ErrInvalidTransition) pass through unchanged
//   - Writes touching more than one record run as one database.AtomicBatch
//
// # Identifier Allocation
//
// Allocator draws postal-style candidates and skips those already used in
// the guild:
//
//	alloc := service.NewAllocator(service.AllocatorConfig{
//	    Existence:   repository.NewExistence(quests, characters, users, summaries),
//	    Claimer:     service.NewRedisClaimer(rdb),
//	    MaxAttempts: 64,
//	})
//	id, err := service.Allocate[model.QuestEntity](ctx, alloc, guildID)
//
// AllocateAndInsert also retries when the insert itself reports
// database.ErrDuplicate.
package service
