// Package models defines the value types shared by the resolver, the lifecycle tracker and the delivery surfaces.
//
// The package contains two categories of types:
//
// 1. Transfer objects produced from provider responses
//   - [SearchResult], [SearchResponse] : one page of search candidates and its continuation token
//   - [Format], [Selection] : raw stream formats and the chosen URL with its expiry
//   - [MediaAsset] : a resolved, possibly playable item
//   - [AssetRefreshed] : emitted when a queued item's stream URL is replaced
//
// 2. Persistent entities
//   - [CachedAsset] : an asset kept by an asset store between runs
//
// Persistent entities implement [Model]; [Repository] describes the store operations.
package models
