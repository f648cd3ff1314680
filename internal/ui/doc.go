// Package ui implements an interactive search browser using bubbletea's Elm architecture.
//
// The TUI moves through three views:
//  1. [SearchView] : type a query into a text input
//  2. [ResultsView] : browse results; n appends the next page through the continuation token
//  3. [DetailView] : the resolved asset with its stream URL and a live expiry countdown
//
// Provider calls run as [tea.Cmd]s and report back through the Msg union type, so the
// event loop never blocks on the network.
package ui
