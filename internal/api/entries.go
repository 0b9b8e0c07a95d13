package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/farwmarth/liveedit/internal/httputil"
	"github.com/farwmarth/liveedit/internal/journal"
	"github.com/farwmarth/liveedit/internal/linestore"
)

// position accepts both 3 and "3" so older clients that sent string ids
// keep working.
type position int

var errPositionNotNumber = errors.New("position must be a number")

func (p *position) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*p = position(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errPositionNotNumber
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errPositionNotNumber
	}
	*p = position(n)
	return nil
}

type addRequest struct {
	Target string `json:"target"`
	Note   string `json:"note"`
}

type toggleRequest struct {
	Position  *position `json:"position"`
	Commented *bool     `json:"commented"`
}

type toggleTargetRequest struct {
	Target    string `json:"target"`
	Commented *bool  `json:"commented"`
}

type deleteRequest struct {
	Position *position `json:"position"`
}

type modifyRequest struct {
	Position *position `json:"position"`
	Target   string    `json:"target"`
	Note     string    `json:"note"`
}

// handleList serves GET /api/entries?search=.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entries := linestore.Filter(s.store.List(), r.URL.Query().Get("search"))
	httputil.JSON(w, http.StatusOK, entries)
}

// handleStats serves GET /api/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, s.store.Stats())
}

// handleAdd serves POST /api/entries.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Target) == "" {
		httputil.Error(w, r, s.logger, http.StatusBadRequest, "target is required",
			"WHY: add request had an empty target field")
		return
	}

	entry, err := s.store.Add(req.Target, req.Note)
	if !s.storeErr(w, r, err) {
		return
	}
	s.logger.Info("entry added", "position", entry.Position, "target", entry.Target)
	s.record(r, journal.OpAdd, entry)
	httputil.JSON(w, http.StatusOK, entry)
}

// handleToggle serves POST /api/entries/toggle.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Position == nil || req.Commented == nil {
		httputil.Error(w, r, s.logger, http.StatusBadRequest, "invalid input",
			"WHY: toggle requires position and a boolean commented field")
		return
	}

	entry, err := s.store.Toggle(int(*req.Position), *req.Commented)
	if !s.storeErr(w, r, err) {
		return
	}
	s.logger.Info("entry toggled", "position", entry.Position, "commented", entry.Commented)
	s.record(r, journal.OpToggle, entry)
	httputil.JSON(w, http.StatusOK, entry)
}

// handleToggleTarget serves POST /api/entries/toggle-target.
func (s *Server) handleToggleTarget(w http.ResponseWriter, r *http.Request) {
	var req toggleTargetRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Target) == "" || req.Commented == nil {
		httputil.Error(w, r, s.logger, http.StatusBadRequest, "invalid input",
			"WHY: toggle-target requires target and a boolean commented field")
		return
	}

	entry, err := s.store.ToggleTarget(req.Target, *req.Commented)
	if !s.storeErr(w, r, err) {
		return
	}
	s.logger.Info("entry toggled", "position", entry.Position, "target", entry.Target, "commented", entry.Commented)
	s.record(r, journal.OpToggle, entry)
	httputil.JSON(w, http.StatusOK, entry)
}

// handleDelete serves POST /api/entries/delete.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Position == nil {
		httputil.Error(w, r, s.logger, http.StatusBadRequest, "invalid input",
			"WHY: delete requires a position")
		return
	}

	removed, err := s.store.RemoveEntry(int(*req.Position))
	if !s.storeErr(w, r, err) {
		return
	}
	s.logger.Info("entry removed", "position", removed.Position, "target", removed.Target)
	s.record(r, journal.OpRemove, removed)
	httputil.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleModify serves POST /api/entries/modify.
func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	var req modifyRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Position == nil || strings.TrimSpace(req.Target) == "" {
		httputil.Error(w, r, s.logger, http.StatusBadRequest, "invalid input",
			"WHY: modify requires position and a non-empty target")
		return
	}

	entry, err := s.store.Modify(int(*req.Position), req.Target, req.Note)
	if !s.storeErr(w, r, err) {
		return
	}
	s.logger.Info("entry modified", "position", entry.Position, "target", entry.Target)
	s.record(r, journal.OpModify, entry)
	httputil.JSON(w, http.StatusOK, entry)
}

// decode reads a JSON body into v, answering 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httputil.Error(w, r, s.logger, http.StatusBadRequest, "invalid request body",
			"WHY: JSON decode failed: "+err.Error())
		return false
	}
	return true
}

// storeErr maps a Store error onto a response. It returns true when err is
// nil and the handler should continue.
func (s *Server) storeErr(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, linestore.ErrNotFound):
		httputil.Error(w, r, s.logger, http.StatusNotFound, "entry not found",
			"WHY: position or target does not address a line in the entries file")
	case errors.Is(err, linestore.ErrInvalidEntry):
		httputil.Error(w, r, s.logger, http.StatusBadRequest, err.Error(),
			"WHY: target or note contains a line break")
	default:
		httputil.ServerError(w, r, s.logger, "failed to update entries",
			"WHY: entries file could not be read or written", err)
	}
	return false
}

// record appends a change to the journal. Journal failures are logged and
// never fail the request.
func (s *Server) record(r *http.Request, op string, e linestore.Entry) {
	if !s.journal.Enabled() {
		return
	}
	err := s.journal.Record(context.WithoutCancel(r.Context()), journal.Change{
		Op:        op,
		Position:  e.Position,
		Target:    e.Target,
		Note:      e.Note,
		Commented: e.Commented,
		Remote:    r.RemoteAddr,
	})
	if err != nil {
		s.logger.Warn("journal write failed", "op", op, "error", err)
	}
}
