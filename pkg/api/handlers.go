package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rubiojr/regsearch/pkg/core"
	"github.com/rubiojr/regsearch/pkg/engine"
	"github.com/rubiojr/regsearch/pkg/search"
	"github.com/rubiojr/regsearch/pkg/version"
)

const maxRequestBytes = 1 << 20

func (s *Server) HandleState(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	s.writeState(w, sess)
}

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	dt, err := core.ParseDatabaseType(req.DatabaseType)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid database type", err.Error())
		return
	}

	sess := s.sessions.Get(w, r)
	err = sess.Engine.Submit(r.Context(), core.Query{
		Name:         req.Name,
		Location:     req.Location,
		Profession:   req.Profession,
		DatabaseType: dt,
	})
	s.respond(w, sess, err)
}

func (s *Server) HandleResultsPage(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess := s.sessions.Get(w, r)
	s.respond(w, sess, sess.Engine.SetResultsPage(r.Context(), req.Page))
}

func (s *Server) HandleCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess := s.sessions.Get(w, r)
	s.respond(w, sess, sess.Engine.SetActiveCategory(core.SourceType(req.Category)))
}

func (s *Server) HandleFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess := s.sessions.Get(w, r)
	s.respond(w, sess, sess.Engine.SetFilterText(req.Text))
}

func (s *Server) HandleSort(w http.ResponseWriter, r *http.Request) {
	var req SortRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess := s.sessions.Get(w, r)
	if req.Order == "" {
		s.respond(w, sess, sess.Engine.ToggleSort())
		return
	}
	order, err := search.ParseOrder(req.Order)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid sort order", err.Error())
		return
	}
	s.respond(w, sess, sess.Engine.SetSortOrder(order))
}

func (s *Server) HandlePage(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess := s.sessions.Get(w, r)
	s.respond(w, sess, sess.Engine.SetCategoryPage(req.Page))
}

func (s *Server) HandleSelectRecord(w http.ResponseWriter, r *http.Request) {
	ref, err := search.ParseRecordRef(r.PathValue("source_type") + "/" + r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid record", err.Error())
		return
	}
	sess := s.sessions.Get(w, r)
	s.respond(w, sess, sess.Engine.SelectRecord(r.Context(), ref.Category, ref.ID))
}

func (s *Server) HandleCloseDetail(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	sess.Engine.CloseDetail()
	s.writeState(w, sess)
}

func (s *Server) HandleReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess := s.sessions.Get(w, r)
	if err := sess.Engine.SetReportMessage(req.Message); err != nil {
		s.respond(w, sess, err)
		return
	}
	s.respond(w, sess, sess.Engine.SubmitReport(r.Context()))
}

func (s *Server) HandleBack(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	sess.Engine.Back()
	s.writeState(w, sess)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
		Sessions:  s.sessions.Len(),
		Listeners: s.hub.Size(),
	}

	s.writeJSON(w, http.StatusOK, health)
}

// decode reads an optional JSON body into v. An empty body leaves v zero.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	return true
}

func (s *Server) writeState(w http.ResponseWriter, sess *Session) {
	s.writeJSON(w, http.StatusOK, sess.Payload(sess.Engine.Snapshot()))
}

// respond writes the session state on success, or maps an engine error to
// a status code and error body.
func (s *Server) respond(w http.ResponseWriter, sess *Session, err error) {
	if err == nil {
		s.writeState(w, sess)
		return
	}

	var (
		verr *engine.ValidationError
		serr *engine.SearchFailure
		derr *engine.DetailFailure
		rerr *engine.ReportFailure
	)
	switch {
	case errors.As(err, &verr):
		s.writeError(w, http.StatusBadRequest, "Invalid request", verr.Message)
	case errors.As(err, &serr):
		s.writeError(w, http.StatusBadGateway, "Search failed", serr.Message)
	case errors.As(err, &derr):
		s.writeError(w, http.StatusBadGateway, "Detail failed", engine.DetailFailureMessage)
	case errors.As(err, &rerr):
		s.writeError(w, http.StatusBadGateway, "Report failed", engine.ReportFailureMessage)
	case errors.Is(err, engine.ErrPageOutOfRange):
		s.writeError(w, http.StatusBadRequest, "Invalid page", err.Error())
	case errors.Is(err, engine.ErrSuperseded),
		errors.Is(err, engine.ErrNoSelection),
		errors.Is(err, engine.ErrReportPending),
		errors.Is(err, engine.ErrNotLoaded):
		s.writeError(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, engine.ErrClosed):
		s.writeError(w, http.StatusGone, "Session closed", err.Error())
	default:
		logger.Errorf("unexpected engine error: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Internal error", fmt.Sprint(err))
	}
}
