// Package server exposes the resolver and a playback session over HTTP and
// pushes stream URL refreshes to websocket clients.
//
// # Routes
//
//	GET    /health              liveness plus the tracked binding count
//	GET    /metrics             Prometheus exposition
//	GET    /ws                  websocket feed of assetRefreshed messages
//	GET    /api/search?q=&next= one page of search results
//	GET    /api/items/{id}      resolve a single item
//	GET    /api/match?title=&artist=
//	GET    /api/queue           session snapshot
//	POST   /api/queue           load {"ids":[...],"queries":[...],"active":n}
//	POST   /api/queue/position  {"index":n}, refreshes the neighborhood
//	POST   /api/queue/move      {"from":a,"to":b}
//	GET    /api/queue/open/{i}  stream URL for item i, refreshed if due
//	DELETE /api/queue/{i}
//
// Errors are written as {"error":"..."} with a status derived from the
// shared error sentinels.
//
// # Websocket
//
// The [Hub] owns all connections. A new client first receives a "welcome"
// message holding the queue snapshot, then one "assetRefreshed" message per
// applied refresh. Publishing never blocks the session: a full broadcast
// queue drops the message and a slow client is disconnected.
//
// Origins are accepted when the header is absent, when it matches the
// request host, or when it is listed in server.allowed_origins.
package server
