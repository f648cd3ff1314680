// Package services resolves catalog searches and items into playable assets.
//
// # Provider client
//
// [InnerTubeClient] speaks to the youtubei/v1 search and player endpoints using a fixed
// ANDROID_VR client identity. Its [Session] (api key and visitor token) is an immutable
// snapshot swapped atomically: [InnerTubeClient.FetchKeys] may replace both from the landing
// page, and every successful response may replace the visitor token. Transport failures and
// non-success statuses come back as [*ProviderError], which matches
// [shared.ErrProviderUnreachable] and [shared.ErrProviderRejected] under errors.Is.
//
// # Service
//
// [YouTubeService] implements [Service] by composing the client with the extract and matcher
// packages. An item without a playable stream is returned with an empty StreamURL rather
// than an error.
//
// [CachedService] decorates any Service with an [AssetStore] so stream URLs are reused until
// they come within the refresh margin of their expiry.
package services
