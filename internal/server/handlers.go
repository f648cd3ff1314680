package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
	"github.com/desertthunder/ytstream/internal/tasks"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": s.svc.Name(),
		"tracked": s.session.Tracker().Len(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := s.svc.Search(r.Context(), q.Get("q"), q.Get("next"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	asset, err := s.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	q := models.Query{
		Primary:   r.URL.Query().Get("title"),
		Secondary: r.URL.Query().Get("artist"),
	}
	asset, err := s.svc.GetByQuery(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

type loadRequest struct {
	IDs     []string       `json:"ids"`
	Queries []models.Query `json:"queries"`
	Active  int            `json:"active"`
}

type loadResponse struct {
	Queue  any          `json:"queue"`
	Failed []loadFailed `json:"failed,omitempty"`
}

type loadFailed struct {
	Request string `json:"request"`
	Error   string `json:"error"`
}

func (s *Server) handleLoadQueue(w http.ResponseWriter, r *http.Request) {
	var body loadRequest
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	reqs := make([]tasks.ResolveRequest, 0, len(body.IDs)+len(body.Queries))
	for _, id := range body.IDs {
		reqs = append(reqs, tasks.ResolveRequest{ID: id})
	}
	for _, q := range body.Queries {
		reqs = append(reqs, tasks.ResolveRequest{Query: q})
	}
	if len(reqs) == 0 {
		s.fail(w, r, fmt.Errorf("%w: ids or queries required", shared.ErrMissingArgument))
		return
	}

	res, err := s.session.Load(r.Context(), reqs, body.Active, nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := loadResponse{Queue: s.session.Snapshot()}
	for _, it := range res.Items {
		if it.Error != nil {
			label := it.Request.ID
			if label == "" {
				label = it.Request.Query.Text()
			}
			resp.Failed = append(resp.Failed, loadFailed{Request: label, Error: it.Error.Error()})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Index int `json:"index"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.session.SetActive(r.Context(), body.Index); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"active": body.Index})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var body struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.session.Move(r.Context(), body.From, body.To); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.session.Remove(r.Context(), index); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	url, err := s.session.Open(r.Context(), index)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func indexParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: index %q", shared.ErrInvalidArgument, raw)
	}
	return i, nil
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{CheckOrigin: s.checkOrigin}
}

// checkOrigin accepts requests without an Origin header, same-host origins
// and the configured allow list.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || s.origins[origin] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(Message{Type: "welcome", Data: s.session.Snapshot()}); err != nil {
		conn.Close()
		return
	}
	s.hub.attach(conn)
}
