package server

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/codec"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

// maxUploadBytes caps imported files.
const maxUploadBytes = 32 << 20

type newRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	var req newRequest
	if r.ContentLength != 0 {
		if err := decode(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	sheet, err := s.svc.New(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, sheet)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, list)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	sheet, err := s.svc.Load(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, sheet)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var sheet models.Spreadsheet
	if err := decode(w, r, &sheet); err != nil {
		writeError(w, r, err)
		return
	}
	sheet.ID = r.PathValue("id")
	saved, err := s.svc.Save(r.Context(), &sheet)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, saved)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImport accepts a multipart upload in the "file" field. Optional form
// fields "password" and "sheet_name" feed the decoder.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: reading upload: %v", gridsheet.ErrUserInput, err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: reading upload: %v", gridsheet.ErrUserInput, err))
		return
	}
	opts := codec.ImportOptions{
		Password:  r.FormValue("password"),
		SheetName: r.FormValue("sheet_name"),
	}
	res, err := s.svc.ImportFile(r.Context(), data, header.Filename, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, res)
}

// handleExport streams the document as csv, tsv, xlsx or json. The
// "worksheet" query parameter picks the worksheet of a delimited export.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	format, err := codec.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	index, err := queryInt(r, "worksheet", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := s.svc.Export(r.Context(), id, format, index, &buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": id + "." + string(format),
	}))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

type worksheetRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddWorksheet(w http.ResponseWriter, r *http.Request) {
	var req worksheetRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.AddWorksheet(r.Context(), r.PathValue("id"), req.Name))
}

func (s *Server) handleDuplicateWorksheet(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.DuplicateWorksheet(r.Context(), r.PathValue("id"), index))
}

func (s *Server) handleRenameWorksheet(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req worksheetRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.RenameWorksheet(r.Context(), r.PathValue("id"), index, req.Name))
}

func (s *Server) handleDeleteWorksheet(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSheet(w, r)(s.svc.DeleteWorksheet(r.Context(), r.PathValue("id"), index))
}

// respondSheet writes the spreadsheet returned by a mutation, or its error.
func (s *Server) respondSheet(w http.ResponseWriter, r *http.Request) func(*models.Spreadsheet, error) {
	return func(sheet *models.Spreadsheet, err error) {
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, sheet)
	}
}
