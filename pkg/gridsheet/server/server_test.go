package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/collab"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := gridsheet.NewService(storage.NewMemoryStore())
	hub := collab.NewHub()
	svc.SetNotifier(hub)
	ts := httptest.NewServer(New(svc, hub).Handler())
	t.Cleanup(ts.Close)
	return ts
}

// call sends body as JSON and decodes a JSON reply into out when out is set.
func call(t *testing.T, ts *httptest.Server, method, path string, body, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createSheet(t *testing.T, ts *httptest.Server, name string) string {
	t.Helper()
	var sheet models.Spreadsheet
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/api/sheets", map[string]string{"name": name}, &sheet))
	require.NotEmpty(t, sheet.ID)
	return sheet.ID
}

func TestSheetLifecycle(t *testing.T) {
	ts := newTestServer(t)
	id := createSheet(t, ts, "Budget 2024")

	var loaded models.Spreadsheet
	assert.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/api/sheets/"+id, nil, &loaded))
	assert.Equal(t, "Budget 2024", loaded.Name)
	require.Len(t, loaded.Worksheets, 1)
	assert.Equal(t, "Sheet1", loaded.Worksheets[0].Name)

	var found []models.SpreadsheetMetadata
	assert.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/api/sheets?q=budget", nil, &found))
	require.Len(t, found, 1)
	assert.Equal(t, id, found[0].ID)
	assert.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/api/sheets?q=payroll", nil, &found))
	assert.Empty(t, found)

	loaded.Name = "Renamed"
	var saved models.Spreadsheet
	assert.Equal(t, http.StatusOK, call(t, ts, http.MethodPut, "/api/sheets/"+id, loaded, &saved))
	assert.Equal(t, "Renamed", saved.Name)
	assert.Equal(t, id, saved.ID)

	var withTwo models.Spreadsheet
	assert.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/api/sheets/"+id+"/worksheets", map[string]string{"name": "Q2"}, &withTwo))
	assert.Len(t, withTwo.Worksheets, 2)
	assert.Equal(t, http.StatusOK, call(t, ts, http.MethodDelete, "/api/sheets/"+id+"/worksheets/1", nil, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, ts, http.MethodDelete, "/api/sheets/"+id+"/worksheets/0", nil, nil))

	assert.Equal(t, http.StatusNoContent, call(t, ts, http.MethodDelete, "/api/sheets/"+id, nil, nil))
	var body errorBody
	assert.Equal(t, http.StatusNotFound, call(t, ts, http.MethodGet, "/api/sheets/"+id, nil, &body))
	assert.NotEmpty(t, body.Error)
}

func TestSetCellEvaluateAndPrecedents(t *testing.T) {
	ts := newTestServer(t)
	id := createSheet(t, ts, "Math")

	var res gridsheet.SetCellResult
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/api/sheets/"+id+"/cells",
		gridsheet.SetCellRequest{Row: 0, Col: 0, Value: "2"}, &res))
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/api/sheets/"+id+"/cells",
		gridsheet.SetCellRequest{Row: 0, Col: 1, Value: "=A1*3"}, &res))
	assert.Equal(t, "6", res.Cell.Value)
	assert.Equal(t, "=A1*3", res.Cell.Formula)

	var eval struct {
		Value string `json:"value"`
	}
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/api/evaluate",
		evaluateRequest{SpreadsheetID: id, Formula: "=SUM(A1:B1)"}, &eval))
	assert.Equal(t, "8", eval.Value)

	var prec precedentsResponse
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/api/sheets/"+id+"/precedents?row=0&col=1", nil, &prec))
	assert.Equal(t, []string{"A1"}, prec.References)
	assert.Equal(t, http.StatusBadRequest, call(t, ts, http.MethodGet, "/api/sheets/"+id+"/precedents?row=x&col=1", nil, nil))
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer(t)
	id := createSheet(t, ts, "Guarded")
	base := "/api/sheets/" + id

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown sheet", http.MethodGet, "/api/sheets/nope", nil, http.StatusNotFound},
		{"bad worksheet index", http.MethodPost, base + "/cells", gridsheet.SetCellRequest{WorksheetIndex: 5, Value: "x"}, http.StatusBadRequest},
		{"malformed body", http.MethodPost, base + "/cells", "not an object", http.StatusBadRequest},
		{"unknown export format", http.MethodGet, base + "/export?format=pdf", nil, http.StatusBadRequest},
		{"missing named range", http.MethodDelete, base + "/named-ranges/none", nil, http.StatusNotFound},
		{"protect", http.MethodPost, base + "/protect", gridsheet.ProtectRequest{Password: "secret", LockedCells: []string{"0,0"}}, http.StatusOK},
		{"locked cell", http.MethodPost, base + "/cells", gridsheet.SetCellRequest{Value: "x"}, http.StatusForbidden},
		{"unlocked cell", http.MethodPost, base + "/cells", gridsheet.SetCellRequest{Row: 1, Value: "x"}, http.StatusOK},
		{"sort disallowed", http.MethodPost, base + "/sort", gridsheet.SortRequest{Rect: models.Rect{EndRow: 1}}, http.StatusForbidden},
		{"wrong password", http.MethodPost, base + "/unprotect", unprotectRequest{Password: "guess"}, http.StatusForbidden},
		{"right password", http.MethodPost, base + "/unprotect", unprotectRequest{Password: "secret"}, http.StatusOK},
		{"unlocked again", http.MethodPost, base + "/cells", gridsheet.SetCellRequest{Value: "x"}, http.StatusOK},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, call(t, ts, tt.method, tt.path, tt.body, nil), tt.name)
	}
}

func TestImportAndExport(t *testing.T) {
	ts := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "stock.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("item,qty\npens,3\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := ts.Client().Post(ts.URL+"/api/sheets/import", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var imported gridsheet.ImportResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&imported))
	assert.Equal(t, "stock", imported.Spreadsheet.Name)

	exp, err := ts.Client().Get(ts.URL + "/api/sheets/" + imported.Spreadsheet.ID + "/export?format=csv")
	require.NoError(t, err)
	defer exp.Body.Close()
	require.Equal(t, http.StatusOK, exp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", exp.Header.Get("Content-Type"))
	assert.Contains(t, exp.Header.Get("Content-Disposition"), imported.Spreadsheet.ID+".csv")
	body, err := io.ReadAll(exp.Body)
	require.NoError(t, err)
	assert.Equal(t, "item,qty\npens,3\n", string(body))

	xlsx, err := ts.Client().Get(ts.URL + "/api/sheets/" + imported.Spreadsheet.ID + "/export?format=xlsx")
	require.NoError(t, err)
	defer xlsx.Body.Close()
	require.Equal(t, http.StatusOK, xlsx.StatusCode)
	data, err := io.ReadAll(xlsx.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))

	noFile, err := ts.Client().Post(ts.URL+"/api/sheets/import", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	noFile.Body.Close()
	assert.Equal(t, http.StatusBadRequest, noFile.StatusCode)
}

func TestCommentsAndNamedRanges(t *testing.T) {
	ts := newTestServer(t)
	id := createSheet(t, ts, "Review")
	base := "/api/sheets/" + id

	var c models.CellComment
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, base+"/comments",
		commentRequest{cellRequest: cellRequest{Row: 2, Col: 1}, Author: "Ann", Content: "check"}, &c))
	require.NotEmpty(t, c.ID)
	assert.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, base+"/comments/"+c.ID+"/replies",
		commentRequest{cellRequest: cellRequest{Row: 2, Col: 1}, Author: "Bob", Content: "done"}, nil))
	assert.Equal(t, http.StatusNotFound, call(t, ts, http.MethodPost, base+"/comments/other/resolve",
		resolveRequest{cellRequest: cellRequest{Row: 2, Col: 1}, Resolved: true}, nil))

	var list []gridsheet.CommentLocation
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, base+"/comments", nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, uint32(2), list[0].Row)
	assert.Len(t, list[0].Comment.Replies, 1)

	assert.Equal(t, http.StatusOK, call(t, ts, http.MethodDelete, base+"/comments?row=2&col=1", nil, nil))
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, base+"/comments", nil, &list))
	assert.Empty(t, list)

	var nr models.NamedRange
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, base+"/named-ranges",
		gridsheet.NamedRangeRequest{Name: "Totals", Rect: models.Rect{EndRow: 3}}, &nr))
	assert.Equal(t, http.StatusBadRequest, call(t, ts, http.MethodPost, base+"/named-ranges",
		gridsheet.NamedRangeRequest{Name: "totals"}, nil))
	renamed := "Sums"
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPatch, base+"/named-ranges/"+nr.ID,
		gridsheet.NamedRangeUpdate{Name: &renamed}, &nr))
	assert.Equal(t, "Sums", nr.Name)

	var ranges []models.NamedRange
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, base+"/named-ranges", nil, &ranges))
	require.Len(t, ranges, 1)
	assert.Equal(t, http.StatusOK, call(t, ts, http.MethodDelete, base+"/named-ranges/"+nr.ID, nil, nil))
}

func TestWebsocketReceivesHTTPEdits(t *testing.T) {
	ts := newTestServer(t)
	id := createSheet(t, ts, "Live")
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/sheets/"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"missing", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+id, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var welcome collab.Frame
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, collab.FrameConnected, welcome.Type)

	var presence []models.Collaborator
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/api/sheets/"+id+"/presence", nil, &presence))
	require.Len(t, presence, 1)
	assert.Equal(t, welcome.Identity, presence[0].Name)

	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/api/sheets/"+id+"/cells",
		gridsheet.SetCellRequest{Row: 4, Col: 2, Value: "=1+1", Identity: "api"}, nil))
	var change collab.Frame
	require.NoError(t, conn.ReadJSON(&change))
	assert.Equal(t, collab.FrameCellChange, change.Type)
	assert.Equal(t, "api", change.Identity)
	require.NotNil(t, change.Value)
	assert.Equal(t, "2", *change.Value)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{gridsheet.NewOperationError("s", "load", gridsheet.ErrNotFound), http.StatusNotFound},
		{gridsheet.ErrCellLocked, http.StatusForbidden},
		{gridsheet.ErrWrongPassword, http.StatusForbidden},
		{gridsheet.ErrLastWorksheet, http.StatusBadRequest},
		{fmt.Errorf("%w: 9", gridsheet.ErrInvalidWorksheetIndex), http.StatusBadRequest},
		{fmt.Errorf("%w: timed out: %w", gridsheet.ErrStorage, context.DeadlineExceeded), http.StatusGatewayTimeout},
		{gridsheet.ErrStorage, http.StatusInternalServerError},
		{gridsheet.ErrSerialization, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Errorf("statusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
