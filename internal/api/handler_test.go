package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CityWatch/internal/classify"
	"CityWatch/internal/clustering"
	"CityWatch/internal/domain"
	"CityWatch/internal/geo"
	"CityWatch/internal/orgs"
	"CityWatch/internal/ratelimit"
	"CityWatch/internal/usecase"
)

type fakeRepo struct {
	saved  int
	active []domain.Complaint
}

func (r *fakeRepo) Save(context.Context, *domain.Complaint) error { r.saved++; return nil }

func (r *fakeRepo) RecentByCategory(context.Context, string, time.Time) ([]domain.Complaint, error) {
	return nil, nil
}

func (r *fakeRepo) Active(context.Context) ([]domain.Complaint, error) { return r.active, nil }

func (r *fakeRepo) AddSupporter(_ context.Context, id string) error {
	if id == "missing" {
		return errors.New("complaint missing not found")
	}
	return nil
}

type fakeGeocoder struct{}

func (fakeGeocoder) Geocode(context.Context, string) (domain.GeoPoint, bool, error) {
	return domain.GeoPoint{Lat: 60.93, Lon: 76.55}, true, nil
}

type okPinger struct{ err error }

func (p okPinger) Ping(context.Context) error { return p.err }

func newTestRouter(t *testing.T, repo *fakeRepo, submitLimit int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.Default()

	submitter := usecase.NewSubmitter(
		classify.New(nil, "", time.Hour, 100, logger),
		geo.New(fakeGeocoder{}, geo.DefaultLandmarks(), "Nizhnevartovsk", logger),
		orgs.NewRegistry(nil),
		repo,
		ratelimit.NewSet(time.Minute, submitLimit, 20, 30),
		logger,
	)
	clusters := clustering.NewService(repo, 300, 2, 2, time.Minute, logger)

	h := NewHandler(submitter, clusters, okPinger{}, okPinger{}, logger)
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitComplaintCreated(t *testing.T) {
	repo := &fakeRepo{}
	r := newTestRouter(t, repo, 3)

	w := postJSON(r, "/v1/complaints", gin.H{
		"user_id": "user-1",
		"text":    "Big pothole on Lenina street 15, cars are breaking wheels",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Data domain.Complaint `json:"data"`
		Meta struct {
			Category string `json:"category"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Roads", resp.Meta.Category)
	assert.NotEmpty(t, resp.Data.ID)
	assert.Equal(t, 1, repo.saved)
}

func TestSubmitComplaintValidation(t *testing.T) {
	r := newTestRouter(t, &fakeRepo{}, 3)

	w := postJSON(r, "/v1/complaints", gin.H{"text": "no user id here at all"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	lat := 60.9
	w = postJSON(r, "/v1/complaints", gin.H{"user_id": "u", "text": "pothole report text", "lat": lat})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitComplaintRateLimited(t *testing.T) {
	r := newTestRouter(t, &fakeRepo{}, 1)

	body := gin.H{"user_id": "user-1", "text": "Pothole on Lenina street 15, deep one"}
	require.Equal(t, http.StatusCreated, postJSON(r, "/v1/complaints", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, postJSON(r, "/v1/complaints", body).Code)
}

func TestSupportComplaint(t *testing.T) {
	r := newTestRouter(t, &fakeRepo{}, 3)

	req := httptest.NewRequest(http.MethodPost, "/v1/complaints/abc/support", nil)
	req.Header.Set("X-User-ID", "user-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/complaints/missing/support", nil)
	req.Header.Set("X-User-ID", "user-1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListClusters(t *testing.T) {
	lat1, lon1 := 60.9344, 76.5531
	lat2, lon2 := 60.9345, 76.5532
	repo := &fakeRepo{active: []domain.Complaint{
		{ID: "a", Lat: &lat1, Lon: &lon1},
		{ID: "b", Lat: &lat2, Lon: &lon2},
	}}
	r := newTestRouter(t, repo, 3)

	req := httptest.NewRequest(http.MethodGet, "/v1/clusters", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []domain.Cluster `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 2, resp.Data[0].Count)
}

func TestHealthDegraded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, nil, okPinger{err: errors.New("connection refused")}, okPinger{}, slog.Default())
	r := gin.New()
	r.GET("/healthz", h.health)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
