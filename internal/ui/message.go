package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/ytstream/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSearchDone MsgKind = iota
	MsgAssetResolved
	MsgTick
)

type searchDone struct {
	query  string
	page   *models.SearchResponse
	append bool
	err    error
}

type assetResolved struct {
	asset *models.MediaAsset
	err   error
}

// searchDoneMsg is the constructor for [MsgSearchDone]. append marks a continuation page.
func searchDoneMsg(query string, page *models.SearchResponse, appendPage bool, err error) Msg {
	return Msg{kind: MsgSearchDone, data: searchDone{query, page, appendPage, err}}
}

// assetResolvedMsg is the constructor for [MsgAssetResolved]
func assetResolvedMsg(asset *models.MediaAsset, err error) Msg {
	return Msg{kind: MsgAssetResolved, data: assetResolved{asset, err}}
}

func tickMsg(t time.Time) Msg {
	return Msg{kind: MsgTick, data: t}
}
