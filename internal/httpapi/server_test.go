package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-award-notifier/internal/award"
	"procurement-award-notifier/internal/notify"
	"procurement-award-notifier/internal/report"
	"procurement-award-notifier/internal/service"
	"procurement-award-notifier/internal/store"
	"procurement-award-notifier/internal/store/memory"
)

type stubPipeline struct {
	err error
}

func (p stubPipeline) Classify(_ context.Context, id string) (*award.Result, error) {
	if p.err != nil {
		return nil, p.err
	}
	lots := []report.Lot{{Numero: "1", Offers: []report.Offer{{Name: "Alpha", Rank: 1}, {Name: "Beta", Rank: 2}}}}
	return award.Run(lots, nil), nil
}

func (p stubPipeline) Notifications(ctx context.Context, id string) (notify.Batch, error) {
	result, err := p.Classify(ctx, id)
	if err != nil {
		return notify.Batch{}, err
	}
	return notify.BuildAll(notify.Procedure{Numero: id}, result), nil
}

func (p stubPipeline) StoredNotifications(_ context.Context, id string) ([]store.Notification, error) {
	if p.err != nil {
		return nil, p.err
	}
	return []store.Notification{{ProcedureID: id, Kind: notify.KindAttribution, Candidate: "Alpha", Payload: []byte(`{}`)}}, nil
}

func (p stubPipeline) Export(_ context.Context, id string, w io.Writer) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	_, err := io.WriteString(w, "PK")
	return 3, err
}

func do(t *testing.T, r http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	return send(t, r, http.MethodGet, path)
}

func send(t *testing.T, r http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewServer(stubPipeline{}, 60, 1, nil).Router()

	w := do(t, r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestClassification(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewServer(stubPipeline{}, 60, 1, nil).Router()

	w := do(t, r, "/procedures/p1/classification")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		ProcedureID string `json:"procedure_id"`
		Summary     struct {
			TotalLots int `json:"total_lots"`
		} `json:"summary"`
		Result struct {
			Winners []json.RawMessage `json:"winners"`
			Losers  []json.RawMessage `json:"losers"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "p1", body.ProcedureID)
	assert.Equal(t, 1, body.Summary.TotalLots)
	assert.Len(t, body.Result.Winners, 1)
	assert.Len(t, body.Result.Losers, 1)
}

func TestNotifications(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewServer(stubPipeline{}, 60, 1, nil).Router()

	w := send(t, r, http.MethodPost, "/procedures/p1/notifications")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(3), body["count"])

	w = do(t, r, "/procedures/p1/notifications")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["count"])
	assert.Len(t, body["notifications"], 1)
}

const reportJSON = `{
  "numero_procedure": "2024-AO-017",
  "lots": [
    {"numero": 1, "tableau": [
      {"raison_sociale": "Alpha", "rang": 1, "note_finale": 95},
      {"raison_sociale": "Beta", "rang": 2, "note_finale": 80}
    ]},
    {"numero": 2, "tableau": [
      {"raison_sociale": "Beta", "rang": 1, "note_finale": 90},
      {"raison_sociale": "Alpha", "rang": 2, "note_finale": 70}
    ]}
  ]
}`

func TestRepeatedGenerationKeepsOneRecordSet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mem := memory.NewStore()
	svc := service.New(service.Repositories{Procedures: mem, Reports: mem, Roster: mem, Notifications: mem}, service.Settings{}, nil)
	rep, err := report.Decode([]byte(reportJSON))
	require.NoError(t, err)
	require.NoError(t, svc.Import(context.Background(), &store.Procedure{ID: "p1"}, rep, nil))
	r := NewServer(svc, 60, 1, nil).Router()

	var body struct {
		Count         int                  `json:"count"`
		Notifications []store.Notification `json:"notifications"`
	}
	w := do(t, r, "/procedures/p1/notifications")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Zero(t, body.Count)

	for i := 0; i < 2; i++ {
		w = send(t, r, http.MethodPost, "/procedures/p1/notifications")
		require.Equal(t, http.StatusOK, w.Code)
	}
	for i := 0; i < 2; i++ {
		w = do(t, r, "/procedures/p1/notifications")
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 6, body.Count)
		assert.Len(t, body.Notifications, 6)
	}

	w = do(t, r, "/procedures/missing/notifications")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("failed to get procedure x: %w", store.ErrNotFound), http.StatusNotFound},
		{"other", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewServer(stubPipeline{err: tt.err}, 60, 1, nil).Router()
			routes := []struct{ method, path string }{
				{http.MethodGet, "/procedures/x/classification"},
				{http.MethodPost, "/procedures/x/notifications"},
				{http.MethodGet, "/procedures/x/notifications"},
				{http.MethodGet, "/procedures/x/export.zip"},
			}
			for _, route := range routes {
				w := send(t, r, route.method, route.path)
				assert.Equal(t, tt.status, w.Code, route.method+" "+route.path)

				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestExportIsRateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewServer(stubPipeline{}, 1, 1, nil).Router()

	first := do(t, r, "/procedures/p1/export.zip")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "application/zip", first.Header().Get("Content-Type"))
	assert.Equal(t, "3", first.Header().Get("X-Document-Count"))
	assert.Contains(t, first.Header().Get("Content-Disposition"), "notifications_p1.zip")

	second := do(t, r, "/procedures/p1/export.zip")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	other := do(t, r, "/procedures/p1/classification")
	assert.Equal(t, http.StatusOK, other.Code)
}
