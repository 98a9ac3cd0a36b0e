package api

import (
	"net/http"
)

// RegisterRoutes mounts the JSON endpoints. The WebSocket stream is
// registered separately by RegisterStream so callers can keep it out of
// response-compressing middleware.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/state", s.HandleState)
	mux.HandleFunc("POST /api/search", s.HandleSearch)
	mux.HandleFunc("POST /api/results-page", s.HandleResultsPage)
	mux.HandleFunc("POST /api/category", s.HandleCategory)
	mux.HandleFunc("POST /api/filter", s.HandleFilter)
	mux.HandleFunc("POST /api/sort", s.HandleSort)
	mux.HandleFunc("POST /api/page", s.HandlePage)
	mux.HandleFunc("POST /api/records/{source_type}/{id}", s.HandleSelectRecord)
	mux.HandleFunc("POST /api/detail/close", s.HandleCloseDetail)
	mux.HandleFunc("POST /api/detail/report", s.HandleReport)
	mux.HandleFunc("POST /api/back", s.HandleBack)
	mux.HandleFunc("GET /health", s.HandleHealth)
}

// RegisterStream mounts GET /api/ws.
func (s *Server) RegisterStream(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/ws", s.HandleStream)
}
