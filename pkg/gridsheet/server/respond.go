package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.alis.build/alog"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/codec"
)

// maxBodyBytes caps JSON request bodies. Uploads have their own limit.
const maxBodyBytes = 8 << 20

type errorBody struct {
	Error string `json:"error"`
}

// statusOf maps the service error taxonomy onto HTTP status codes. The
// refinements of ErrUserInput that mean "not allowed" are checked first.
func statusOf(err error) int {
	var ufe *codec.UnsupportedFormatError
	switch {
	case errors.Is(err, gridsheet.ErrNotFound),
		errors.Is(err, gridsheet.ErrNamedRangeNotFound),
		errors.Is(err, gridsheet.ErrCommentNotFound):
		return http.StatusNotFound
	case errors.Is(err, gridsheet.ErrCellLocked),
		errors.Is(err, gridsheet.ErrProtected),
		errors.Is(err, gridsheet.ErrWrongPassword):
		return http.StatusForbidden
	case errors.Is(err, gridsheet.ErrUserInput),
		errors.Is(err, gridsheet.ErrInvalidWorksheetIndex),
		errors.As(err, &ufe):
		return http.StatusBadRequest
	case errors.Is(err, gridsheet.ErrStorage) && errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		alog.Warnf(ctx, "server: writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		alog.Errorf(r.Context(), "%s %s: %v", r.Method, r.URL.Path, err)
	} else {
		alog.Debugf(r.Context(), "%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(r.Context(), w, status, errorBody{Error: err.Error()})
}

// decode reads a JSON body into dst.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: decoding request body: %v", gridsheet.ErrUserInput, err)
	}
	return nil
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: query parameter %s=%q is not a non-negative integer", gridsheet.ErrUserInput, name, raw)
	}
	return n, nil
}

func queryUint32(r *http.Request, name string) (uint32, error) {
	raw := r.URL.Query().Get(name)
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: query parameter %s=%q is not a row or column index", gridsheet.ErrUserInput, name, raw)
	}
	return uint32(n), nil
}

func pathIndex(r *http.Request) (int, error) {
	raw := r.PathValue("index")
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: worksheet index %q", gridsheet.ErrInvalidWorksheetIndex, raw)
	}
	return n, nil
}
