package server

import (
	"net/http"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

type formatRequest struct {
	rectRequest
	Style models.CellStyle `json:"style"`
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	var req formatRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.FormatCells(r.Context(), r.PathValue("id"), req.WorksheetIndex, req.Rect, req.Style))
}

func (s *Server) handleConditionalFormat(w http.ResponseWriter, r *http.Request) {
	var req gridsheet.ConditionalFormatRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rule, err := s.svc.ConditionalFormat(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, rule)
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req rectRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.Merge(r.Context(), r.PathValue("id"), req.WorksheetIndex, req.Rect))
}

func (s *Server) handleUnmerge(w http.ResponseWriter, r *http.Request) {
	var req rectRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.Unmerge(r.Context(), r.PathValue("id"), req.WorksheetIndex, req.Rect))
}

type freezeRequest struct {
	WorksheetIndex int    `json:"worksheet_index"`
	Rows           uint32 `json:"rows"`
	Cols           uint32 `json:"cols"`
}

func (s *Server) handleFreeze(w http.ResponseWriter, r *http.Request) {
	var req freezeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.Freeze(r.Context(), r.PathValue("id"), req.WorksheetIndex, req.Rows, req.Cols))
}

func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	var req gridsheet.SortRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.Sort(r.Context(), r.PathValue("id"), req))
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req gridsheet.FilterRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.Filter(r.Context(), r.PathValue("id"), req))
}

type clearFilterRequest struct {
	WorksheetIndex int `json:"worksheet_index"`
	// Col clears one column's filter; nil clears them all.
	Col *uint32 `json:"col,omitempty"`
}

func (s *Server) handleClearFilter(w http.ResponseWriter, r *http.Request) {
	var req clearFilterRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.ClearFilter(r.Context(), r.PathValue("id"), req.WorksheetIndex, req.Col))
}

func (s *Server) handleCreateChart(w http.ResponseWriter, r *http.Request) {
	var req gridsheet.ChartRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	chart, err := s.svc.CreateChart(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, chart)
}

func (s *Server) handleDeleteChart(w http.ResponseWriter, r *http.Request) {
	index, err := queryInt(r, "worksheet", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.DeleteChart(r.Context(), r.PathValue("id"), index, r.PathValue("chartID")))
}

func (s *Server) handleSetValidation(w http.ResponseWriter, r *http.Request) {
	var req gridsheet.ValidationRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.SetValidation(r.Context(), r.PathValue("id"), req))
}

type validateRequest struct {
	cellRequest
	Value string `json:"value"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.ValidateCell(r.Context(), r.PathValue("id"), req.WorksheetIndex, req.Row, req.Col, req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, res)
}
