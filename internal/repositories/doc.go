// Package repositories persists resolved assets and remembered matches.
//
// Key Implementations:
//   - [AssetRepository] : SQLite asset cache, implements [services.AssetStore]
//   - [MatchRepository] : SQLite query to video id memory, implements [services.MatchStore]
//   - [RedisAssetStore] : Redis asset cache for shared deployments
//
// [NewAssetStore] picks the backend named in [shared.CacheConfig].
package repositories
