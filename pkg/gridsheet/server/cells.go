package server

import (
	"net/http"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

// cellRequest addresses one cell of a worksheet.
type cellRequest struct {
	WorksheetIndex int    `json:"worksheet_index"`
	Row            uint32 `json:"row"`
	Col            uint32 `json:"col"`
}

// rectRequest addresses a rectangle of a worksheet.
type rectRequest struct {
	WorksheetIndex int `json:"worksheet_index"`
	models.Rect
}

func (s *Server) handleSetCell(w http.ResponseWriter, r *http.Request) {
	var req gridsheet.SetCellRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.SetCell(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, res)
}

type precedentsResponse struct {
	References []string `json:"references"`
}

// handlePrecedents reads worksheet, row and col from the query string.
func (s *Server) handlePrecedents(w http.ResponseWriter, r *http.Request) {
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
	refs, err := s.svc.Precedents(r.Context(), r.PathValue("id"), index, row, col)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, precedentsResponse{References: refs})
}

type noteRequest struct {
	cellRequest
	Note string `json:"note"`
}

func (s *Server) handleNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.AddNote(r.Context(), r.PathValue("id"), req.WorksheetIndex, req.Row, req.Col, req.Note))
}

type numberFormatRequest struct {
	rectRequest
	Format string `json:"format"`
}

func (s *Server) handleNumberFormat(w http.ResponseWriter, r *http.Request) {
	var req numberFormatRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.SetNumberFormat(r.Context(), r.PathValue("id"), req.WorksheetIndex, req.Rect, req.Format))
}

type dimensionRequest struct {
	WorksheetIndex int    `json:"worksheet_index"`
	Index          uint32 `json:"index"`
	Size           uint32 `json:"size"`
}

func (s *Server) handleColumnWidth(w http.ResponseWriter, r *http.Request) {
	var req dimensionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.SetColumnWidth(r.Context(), r.PathValue("id"), req.WorksheetIndex, req.Index, req.Size))
}

func (s *Server) handleRowHeight(w http.ResponseWriter, r *http.Request) {
	var req dimensionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.SetRowHeight(r.Context(), r.PathValue("id"), req.WorksheetIndex, req.Index, req.Size))
}

type evaluateRequest struct {
	SpreadsheetID  string `json:"spreadsheet_id"`
	WorksheetIndex int    `json:"worksheet_index"`
	Formula        string `json:"formula"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.EvaluateFormula(r.Context(), req.SpreadsheetID, req.WorksheetIndex, req.Formula)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, res)
}
