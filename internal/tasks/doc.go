// Package tasks runs resolution work in the background and keeps queued stream URLs playable.
//
// # Bulk resolution
//
// [Engine.BulkResolve] resolves a list of [ResolveRequest] values, each an id
// or a free-text query, on a bounded worker pool behind a token bucket
// limiter. Results keep request order; failures are recorded per item.
//
// # Stream URL lifecycle
//
// A [Tracker] holds one [Binding] per queue item: its position, its signed
// URL and that URL's expiry. A binding is fresh until the clock comes within
// the margin of expiry, then due. [Tracker.CheckAndRefresh] re-resolves a
// due binding at most once at a time per item and applies the result only if
// the queue still holds the item at the same index. Applied refreshes are
// published as [models.AssetRefreshed] on the events channel.
//
// [Tracker.OnQueuePositionChanged] checks the active item's neighbors in the
// background and [Tracker.ResolveBeforeOpen] blocks until the item is safe to
// hand to a player.
package tasks
