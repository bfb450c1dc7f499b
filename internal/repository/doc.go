// Package repository stores Nonagon records in SurrealDB.
//
// Records are encoded with the codec and written as whole documents. Each
// record lives at type::thing(table, "<guild>_<id>"), so every read and
// write is scoped to one guild.
//
// # Repository Pattern
//
// All repositories follow a consistent pattern:
//
//   - NewXxxRepository(db, schema, codec) registers the table's indexes on
//     the shared *database.Schema; call schema.Ensure once after wiring
//   - Insert fails with database.ErrDuplicate when the id is taken
//   - Upsert replaces the stored document
//   - Get returns nil, nil for a missing record
//   - Delete reports whether a record was removed
//
// # Identifier Checks
//
// Existence adapts the per-kind Exists methods to the allocator's
// exists(guild, kind, candidate) contract:
//
//	existence := repository.NewExistence(quests, characters, users, summaries)
//	taken, err := existence.Exists(ctx, guildID, model.KindQuest, "QUESA1B2C3")
//
// # Lookups
//
// Lookup entries are keyed by a name-based UUID of the guild and the
// normalized name, so "Player  Guide" and "player guide" address the same
// entry.
package repository
