// Package server exposes a gridsheet Service and collaboration hub over HTTP.
package server

import (
	"net/http"

	"github.com/NYTimes/gziphandler"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/collab"
)

// Server routes JSON API calls to the service and websocket upgrades to the hub.
type Server struct {
	svc *gridsheet.Service
	hub *collab.Hub
}

// New returns a Server over svc and hub.
func New(svc *gridsheet.Service, hub *collab.Hub) *Server {
	return &Server{svc: svc, hub: hub}
}

// Handler builds the route table. API responses are gzip-compressed when the
// client accepts it; the websocket route is left unwrapped so the connection
// can be hijacked.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()

	api.HandleFunc("POST /api/sheets", s.handleNew)
	api.HandleFunc("GET /api/sheets", s.handleList)
	api.HandleFunc("POST /api/sheets/import", s.handleImport)
	api.HandleFunc("GET /api/sheets/{id}", s.handleLoad)
	api.HandleFunc("PUT /api/sheets/{id}", s.handleSave)
	api.HandleFunc("DELETE /api/sheets/{id}", s.handleDelete)
	api.HandleFunc("GET /api/sheets/{id}/export", s.handleExport)

	api.HandleFunc("POST /api/sheets/{id}/worksheets", s.handleAddWorksheet)
	api.HandleFunc("POST /api/sheets/{id}/worksheets/{index}/duplicate", s.handleDuplicateWorksheet)
	api.HandleFunc("PUT /api/sheets/{id}/worksheets/{index}", s.handleRenameWorksheet)
	api.HandleFunc("DELETE /api/sheets/{id}/worksheets/{index}", s.handleDeleteWorksheet)

	api.HandleFunc("POST /api/sheets/{id}/cells", s.handleSetCell)
	api.HandleFunc("GET /api/sheets/{id}/precedents", s.handlePrecedents)
	api.HandleFunc("POST /api/sheets/{id}/notes", s.handleNote)
	api.HandleFunc("POST /api/sheets/{id}/number-format", s.handleNumberFormat)
	api.HandleFunc("POST /api/sheets/{id}/column-width", s.handleColumnWidth)
	api.HandleFunc("POST /api/sheets/{id}/row-height", s.handleRowHeight)

	api.HandleFunc("POST /api/sheets/{id}/format", s.handleFormat)
	api.HandleFunc("POST /api/sheets/{id}/conditional-format", s.handleConditionalFormat)
	api.HandleFunc("POST /api/sheets/{id}/merge", s.handleMerge)
	api.HandleFunc("POST /api/sheets/{id}/unmerge", s.handleUnmerge)
	api.HandleFunc("POST /api/sheets/{id}/freeze", s.handleFreeze)

	api.HandleFunc("POST /api/sheets/{id}/sort", s.handleSort)
	api.HandleFunc("POST /api/sheets/{id}/filter", s.handleFilter)
	api.HandleFunc("POST /api/sheets/{id}/clear-filter", s.handleClearFilter)
	api.HandleFunc("POST /api/sheets/{id}/charts", s.handleCreateChart)
	api.HandleFunc("DELETE /api/sheets/{id}/charts/{chartID}", s.handleDeleteChart)

	api.HandleFunc("POST /api/sheets/{id}/validation", s.handleSetValidation)
	api.HandleFunc("POST /api/sheets/{id}/validate", s.handleValidate)

	api.HandleFunc("GET /api/sheets/{id}/comments", s.handleListComments)
	api.HandleFunc("POST /api/sheets/{id}/comments", s.handleAddComment)
	api.HandleFunc("DELETE /api/sheets/{id}/comments", s.handleDeleteComment)
	api.HandleFunc("POST /api/sheets/{id}/comments/{commentID}/replies", s.handleReplyComment)
	api.HandleFunc("POST /api/sheets/{id}/comments/{commentID}/resolve", s.handleResolveComment)

	api.HandleFunc("POST /api/sheets/{id}/protect", s.handleProtect)
	api.HandleFunc("POST /api/sheets/{id}/unprotect", s.handleUnprotect)
	api.HandleFunc("POST /api/sheets/{id}/lock", s.handleLock)

	api.HandleFunc("GET /api/sheets/{id}/named-ranges", s.handleListNamedRanges)
	api.HandleFunc("POST /api/sheets/{id}/named-ranges", s.handleCreateNamedRange)
	api.HandleFunc("PATCH /api/sheets/{id}/named-ranges/{rangeID}", s.handleUpdateNamedRange)
	api.HandleFunc("DELETE /api/sheets/{id}/named-ranges/{rangeID}", s.handleDeleteNamedRange)

	api.HandleFunc("POST /api/evaluate", s.handleEvaluate)
	api.HandleFunc("GET /api/sheets/{id}/presence", s.handlePresence)

	mux := http.NewServeMux()
	mux.Handle("/api/", gziphandler.GzipHandler(api))
	mux.HandleFunc("GET /ws/sheets/{id}", s.handleWS)
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.svc.Load(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.hub.ServeWS(w, r, id)
}

func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, s.hub.Presence(r.PathValue("id")))
}
