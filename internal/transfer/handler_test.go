package transfer

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*fixture, *httptest.Server) {
	t.Helper()
	f := newFixture()
	handler := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), f.svc)
	r := chi.NewRouter()
	handler.MountRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func TestCreateRequestEndpoint(t *testing.T) {
	_, srv := newTestServer(t)

	body := `{
		"origin_id": 1,
		"destination_id": 2,
		"items": [
			{"item_id": 100, "quantity": 10, "unit": "kg"},
			{"item_id": 200, "quantity": 4}
		]
	}`
	resp, err := http.Post(srv.URL+"/stock-requests", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created StockRequest
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.Equal(t, "SR-MESA-10001", created.RequestNumber)
	require.Equal(t, RequestStatusNew, created.Status)
	require.Len(t, created.Items, 2)
}

func TestCreateRequestEndpointRejectsMalformedBody(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/stock-requests", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateRequestEndpointRequiresItems(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/stock-requests", "application/json", strings.NewReader(`{"origin_id":1,"destination_id":2,"items":[]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetTransferEndpointNotFound(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/stock-transfers/999")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestApproveEndpointRejectsBadTransition(t *testing.T) {
	f, srv := newTestServer(t)
	req := f.createRequest(t)

	resp, err := http.Post(srv.URL+"/stock-requests/"+strconv.FormatInt(req.ID, 10)+"/approve", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var problem map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
	require.Equal(t, "Invalid Transition", problem["title"])
}

func TestRespondErrorMapsDuplicateNumber(t *testing.T) {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	rec := httptest.NewRecorder()
	h.respondError(rec, ErrDuplicateNumber)
	require.Equal(t, http.StatusConflict, rec.Code)

	var problem struct {
		Title string `json:"title"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
	require.Equal(t, "Duplicate Document Number", problem.Title)
}
