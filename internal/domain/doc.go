// Package domain contains the core entities and value objects for accountstore.
//
// This package is the innermost layer. It has no dependencies on storage,
// logging or the CLI and contains only the account rules themselves.
//
// # Entities
//
//   - [Status]: account lifecycle status (Unset, NewAccount, Confirmed, PendingDeletion)
//   - [StatusRecord]: a status together with the instant it was entered
//   - [Profile]: user profile fields with merge-with-previous updates
//   - [Settings]: preference settings with partial patches
//   - [AccountRecord]: the full persisted account document
//   - [Project], [Member]: entries of the collaborator containers reset on logout
//
// # Derived Queries
//
// [EligibleForCleanup], [InGracePeriod] and [ShouldShowCreateModal] are pure
// functions of a [StatusRecord] and an explicit instant, so callers re-derive
// them at read time instead of caching them.
package domain
