package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feature-voting-backend/internal/config"
	"feature-voting-backend/internal/infrastructure/database"
	"feature-voting-backend/internal/shared/identity"
	"feature-voting-backend/internal/testutil"
	"feature-voting-backend/pkg/container"
	jwtpkg "feature-voting-backend/pkg/jwt"
)

type healthFunc func(ctx context.Context) error

func (f healthFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
		Path    string            `json:"path"`
	} `json:"error"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *testutil.MemStore
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "Feature Voting API",
			Environment: "test",
			Version:     "test",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Database: &database.DBConfig{},
		Redis:    config.RedisConfig{FeatureTTL: 30 * time.Second},
		Auth:     config.AuthConfig{Mode: identity.ModeHeader, Header: identity.DefaultHeader},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, health container.HealthChecker) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := testutil.NewMemStore()
	c, err := container.New(cfg, container.Stores{
		Users:    store.Users(),
		Features: store.Features(),
		Votes:    store.Ledger(),
		Health:   health,
	}, nil)
	require.NoError(t, err)

	return &testServer{t: t, router: SetupRouter(c), store: store}
}

func healthy() container.HealthChecker {
	return healthFunc(func(context.Context) error { return nil })
}

func (s *testServer) do(method, path string, userID int64, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set(identity.DefaultHeader, strconv.FormatInt(userID, 10))
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (s *testServer) createUser(name string) int64 {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/api/v1/users", 0, map[string]string{"username": name, "email": name + "@example.com"})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	var u struct {
		ID int64 `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &u))
	return u.ID
}

func (s *testServer) createFeature(author int64, title string) int64 {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/api/v1/features", author, map[string]string{
		"title":       title,
		"description": "Lets users switch the UI to a dark palette",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	var f struct {
		ID int64 `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &f))
	return f.ID
}

type voteBody struct {
	Message   string `json:"message"`
	VoteCount int    `json:"vote_count"`
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

// =====================================================
// SCENARIOS
// =====================================================

func TestVotingScenario(t *testing.T) {
	s := newTestServer(t, testConfig(), healthy())

	alice := s.createUser("alice")
	bob := s.createUser("bob")
	darkMode := s.createFeature(alice, "Dark mode")
	votePath := fmt.Sprintf("/api/v1/features/%d/vote", darkMode)

	rec, env := s.do(http.MethodPost, votePath, bob, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode[voteBody](t, env)
	assert.Equal(t, "Vote added successfully", body.Message)
	assert.Equal(t, 1, body.VoteCount)

	rec, env = s.do(http.MethodPost, votePath, bob, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE_VOTE", env.Error.Code)
	assert.False(t, env.Success)

	rec, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/features/%d", darkMode), 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	feature := decode[struct {
		VoteCount int   `json:"vote_count"`
		AuthorID  int64 `json:"author_id"`
	}](t, env)
	assert.Equal(t, 1, feature.VoteCount)
	assert.Equal(t, alice, feature.AuthorID)

	rec, env = s.do(http.MethodDelete, votePath, bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[voteBody](t, env)
	assert.Equal(t, "Vote removed successfully", body.Message)
	assert.Equal(t, 0, body.VoteCount)

	rec, env = s.do(http.MethodDelete, votePath, bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "VOTE_NOT_FOUND", env.Error.Code)

	require.NoError(t, s.store.CheckInvariant())
}

func TestEmptyFeatureList(t *testing.T) {
	s := newTestServer(t, testConfig(), healthy())

	rec, env := s.do(http.MethodGet, "/api/v1/features", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	page := decode[struct {
		Items      []json.RawMessage `json:"items"`
		TotalCount int               `json:"total_count"`
		Page       int               `json:"page"`
		PageSize   int               `json:"page_size"`
		TotalPages int               `json:"total_pages"`
		HasNext    bool              `json:"has_next"`
	}](t, env)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.TotalCount)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasNext)
}

func TestFeaturePagination(t *testing.T) {
	s := newTestServer(t, testConfig(), healthy())
	alice := s.createUser("alice")
	for i := 0; i < 25; i++ {
		s.createFeature(alice, fmt.Sprintf("Feature %02d", i))
	}

	rec, env := s.do(http.MethodGet, "/api/v1/features?page=3&page_size=10", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[struct {
		Items       []json.RawMessage `json:"items"`
		TotalPages  int               `json:"total_pages"`
		HasPrevious bool              `json:"has_previous"`
	}](t, env)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasPrevious)

	rec, env = s.do(http.MethodGet, "/api/v1/features?page=abc&page_size=500", 0, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "must be a valid integer", env.Error.Details["page"])
	assert.Contains(t, env.Error.Details, "page_size")
}

func TestFeaturePagination_PageFarPastTheEnd(t *testing.T) {
	s := newTestServer(t, testConfig(), healthy())
	alice := s.createUser("alice")
	s.createFeature(alice, "Dark mode")

	rec, env := s.do(http.MethodGet, "/api/v1/features?page=9223372036854775807&page_size=100", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[struct {
		Items      []json.RawMessage `json:"items"`
		TotalCount int               `json:"total_count"`
		TotalPages int               `json:"total_pages"`
		HasNext    bool              `json:"has_next"`
	}](t, env)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasNext)
}

func TestConcurrentVotesOverHTTP(t *testing.T) {
	s := newTestServer(t, testConfig(), healthy())
	alice := s.createUser("alice")
	feature := s.createFeature(alice, "Dark mode")
	path := fmt.Sprintf("/api/v1/features/%d/vote", feature)

	const workers = 10
	codes := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, path, nil)
			req.Header.Set(identity.DefaultHeader, strconv.FormatInt(alice, 10))
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)
			codes <- rec.Code
		}()
	}
	wg.Wait()
	close(codes)

	counts := map[int]int{}
	for code := range codes {
		counts[code]++
	}
	assert.Equal(t, 1, counts[http.StatusCreated])
	assert.Equal(t, workers-1, counts[http.StatusConflict])
	require.NoError(t, s.store.CheckInvariant())
}

func TestDeleteUserCascades(t *testing.T) {
	s := newTestServer(t, testConfig(), healthy())
	alice := s.createUser("alice")
	bob := s.createUser("bob")
	bobFeature := s.createFeature(bob, "Export to CSV")

	rec, _ := s.do(http.MethodPost, fmt.Sprintf("/api/v1/features/%d/vote", bobFeature), alice, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := s.do(http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", alice), bob, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
	require.NoError(t, s.store.CheckInvariant())

	rec, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", alice), alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/features/%d", bobFeature), 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[struct {
		VoteCount int `json:"vote_count"`
	}](t, env).VoteCount)

	rec, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d", alice), 0, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", env.Error.Code)
}

func TestRecountAndVoteCollection(t *testing.T) {
	s := newTestServer(t, testConfig(), healthy())
	alice := s.createUser("alice")
	feature := s.createFeature(alice, "Dark mode")

	rec, _ := s.do(http.MethodPost, fmt.Sprintf("/api/v1/features/%d/vote", feature), alice, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	s.store.SetVoteCount(feature, 12)
	rec, env := s.do(http.MethodPost, fmt.Sprintf("/api/v1/features/%d/recount", feature), alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	recount := decode[struct {
		Previous  int `json:"previous"`
		VoteCount int `json:"vote_count"`
	}](t, env)
	assert.Equal(t, 12, recount.Previous)
	assert.Equal(t, 1, recount.VoteCount)

	rec, env = s.do(http.MethodGet, "/api/v1/votes?skip=0&limit=10", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	votes := decode[[]struct {
		ID        int64 `json:"id"`
		FeatureID int64 `json:"feature_id"`
	}](t, env)
	require.Len(t, votes, 1)
	assert.Equal(t, feature, votes[0].FeatureID)

	rec, env = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/votes/%d", votes[0].ID), alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[voteBody](t, env).VoteCount)

	rec, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/features/%d/votes", feature), 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", string(env.Data))
}

// =====================================================
// ERRORS
// =====================================================

func TestIdentityErrors(t *testing.T) {
	s := newTestServer(t, testConfig(), healthy())
	alice := s.createUser("alice")
	feature := s.createFeature(alice, "Dark mode")
	path := fmt.Sprintf("/api/v1/features/%d/vote", feature)

	rec, env := s.do(http.MethodPost, path, 0, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)

	rec, env = s.do(http.MethodPost, path, -3, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_IDENTITY", env.Error.Code)

	// Without verification an unregistered id reaches the ledger
	rec, env = s.do(http.MethodPost, path, 999, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", env.Error.Code)

	// Missing feature wins over missing user
	rec, env = s.do(http.MethodPost, "/api/v1/features/999/vote", 42, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "FEATURE_NOT_FOUND", env.Error.Code)
}

func TestIdentityVerification(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.VerifyUsers = true
	s := newTestServer(t, cfg, healthy())
	alice := s.createUser("alice")
	feature := s.createFeature(alice, "Dark mode")

	rec, env := s.do(http.MethodPost, fmt.Sprintf("/api/v1/features/%d/vote", feature), 999, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "UNKNOWN_USER", env.Error.Code)
}

func TestTokenIdentity(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Mode = identity.ModeJWT
	cfg.Auth.JWTSecret = "issuer-secret"
	s := newTestServer(t, cfg, healthy())
	alice := s.createUser("alice")

	token, err := jwtpkg.NewManager("issuer-secret", time.Hour).GenerateAccessToken(alice)
	require.NoError(t, err)

	body := strings.NewReader(`{"title":"Dark mode","description":"Lets users switch the UI to a dark palette"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/features", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// The trusted header is ignored in token mode
	rec, env := s.do(http.MethodPost, "/api/v1/features", alice, map[string]string{
		"title":       "Export to CSV",
		"description": "Download the feature list as a spreadsheet",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t, testConfig(), healthy())
	alice := s.createUser("alice")

	rec, env := s.do(http.MethodPost, "/api/v1/features", alice, map[string]string{"title": "ab", "description": "short"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "title")
	assert.Contains(t, env.Error.Details, "description")

	rec, env = s.do(http.MethodPost, "/api/v1/users", 0, map[string]string{"username": "alice", "email": "second@example.com"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Username already exists", env.Error.Details["username"])

	rec, env = s.do(http.MethodGet, "/api/v1/features/abc", 0, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Error.Details, "id")
}

func TestNoRoute(t *testing.T) {
	s := newTestServer(t, testConfig(), healthy())

	rec, env := s.do(http.MethodGet, "/api/v1/nope", 0, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ROUTE_NOT_FOUND", env.Error.Code)
	assert.Equal(t, "/api/v1/nope", env.Error.Path)
}

// =====================================================
// OPERATIONS
// =====================================================

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, testConfig(), healthy())

	rec, env := s.do(http.MethodGet, "/api/v1/health", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}](t, env)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ok", health.Services["database"])
	assert.Equal(t, "disabled", health.Services["redis"])
}

func TestHealthCheck_DatabaseDown(t *testing.T) {
	down := healthFunc(func(context.Context) error { return testutil.ErrInjected })
	s := newTestServer(t, testConfig(), down)

	rec, env := s.do(http.MethodGet, "/api/v1/health", 0, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	health := decode[struct {
		Status string `json:"status"`
	}](t, env)
	assert.Equal(t, "unhealthy", health.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig(), healthy())
	alice := s.createUser("alice")
	feature := s.createFeature(alice, "Dark mode")
	s.do(http.MethodPost, fmt.Sprintf("/api/v1/features/%d/vote", feature), alice, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vote_operations_total")
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
