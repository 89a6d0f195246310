package server

import (
	"net/http"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet"
)

type commentRequest struct {
	cellRequest
	Author  string `json:"author"`
	Content string `json:"content"`
}

type resolveRequest struct {
	cellRequest
	Resolved bool `json:"resolved"`
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	index, err := queryInt(r, "worksheet", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.svc.ListComments(r.Context(), r.PathValue("id"), index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, list)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.svc.AddComment(r.Context(), r.PathValue("id"), req.WorksheetIndex, req.Row, req.Col, req.Author, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, c)
}

func (s *Server) handleReplyComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.ReplyComment(r.Context(), r.PathValue("id"), req.WorksheetIndex,
		req.Row, req.Col, r.PathValue("commentID"), req.Author, req.Content))
}

func (s *Server) handleResolveComment(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.ResolveComment(r.Context(), r.PathValue("id"), req.WorksheetIndex,
		req.Row, req.Col, r.PathValue("commentID"), req.Resolved))
}

// handleDeleteComment reads worksheet, row and col from the query string.
func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	index, err := queryInt(r, "worksheet", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	row, err := queryUint32(r, "row")
	if err != nil {
		writeError(w, r, err)
		return
	}
	col, err := queryUint32(r, "col")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.DeleteComment(r.Context(), r.PathValue("id"), index, row, col))
}

func (s *Server) handleProtect(w http.ResponseWriter, r *http.Request) {
	var req gridsheet.ProtectRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.ProtectWorksheet(r.Context(), r.PathValue("id"), req))
}

type unprotectRequest struct {
	WorksheetIndex int    `json:"worksheet_index"`
	Password       string `json:"password"`
}

func (s *Server) handleUnprotect(w http.ResponseWriter, r *http.Request) {
	var req unprotectRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.UnprotectWorksheet(r.Context(), r.PathValue("id"), req.WorksheetIndex, req.Password))
}

type lockRequest struct {
	rectRequest
	Locked bool `json:"locked"`
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	var req lockRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.LockCells(r.Context(), r.PathValue("id"), req.WorksheetIndex, req.Rect, req.Locked))
}

func (s *Server) handleListNamedRanges(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListNamedRanges(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, list)
}

func (s *Server) handleCreateNamedRange(w http.ResponseWriter, r *http.Request) {
	var req gridsheet.NamedRangeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	nr, err := s.svc.CreateNamedRange(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, nr)
}

func (s *Server) handleUpdateNamedRange(w http.ResponseWriter, r *http.Request) {
	var upd gridsheet.NamedRangeUpdate
	if err := decode(w, r, &upd); err != nil {
		writeError(w, r, err)
		return
	}
	nr, err := s.svc.UpdateNamedRange(r.Context(), r.PathValue("id"), r.PathValue("rangeID"), upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, nr)
}

func (s *Server) handleDeleteNamedRange(w http.ResponseWriter, r *http.Request) {
	s.respondSheet(w, r)(s.svc.DeleteNamedRange(r.Context(), r.PathValue("id"), r.PathValue("rangeID")))
}
