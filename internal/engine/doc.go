// Package engine orchestrates the dashboard's remote fetches: one supersedable
// collection fetch plus lazy, deduplicated per-key detail fetches backed by a
// client-side outcome cache.
//
// The moving parts are deliberately small and composable:
//
//   - Controller runs at most one collection fetch attempt at a time. A new
//     Fetch supersedes and cancels the previous attempt; superseded results
//     are discarded even when they resolve later, so observers only ever see
//     the most recently started attempt.
//   - DetailStore remembers the last known outcome per item key
//     (idle/loading/error/done) and guarantees a single in-flight fetch per
//     key. Done outcomes are never refetched; Error outcomes may be retried.
//   - ExpansionSet tracks which rows are open in the view, independent of the
//     cache: collapsing a row never discards its fetched detail.
//   - Session binds the three together with the fetch-on-expand policy and
//     exposes a read model plus a change-notification channel for the view.
//
// Concurrency discipline: outcome transitions are guarded per key, the key
// map by its own short-lived lock, and no lock is ever held across a remote
// call. Unrelated keys therefore never serialize behind each other.
package engine
