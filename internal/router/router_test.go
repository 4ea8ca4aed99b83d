package router_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"apptracker/internal/auth"
	"apptracker/internal/config"
	"apptracker/internal/handler"
	"apptracker/internal/metrics"
	"apptracker/internal/model"
	"apptracker/internal/repository"
	"apptracker/internal/router"
	"apptracker/internal/service"
)

// memoryStore backs both repositories with maps.
type memoryStore struct {
	mu       sync.Mutex
	users    map[string]model.User
	apps     map[uint]model.Application
	nextUser uint
	nextApp  uint
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users: map[string]model.User{},
		apps:  map[uint]model.Application{},
	}
}

type memoryUsers struct{ s *memoryStore }

func (r memoryUsers) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.Email]; ok {
		return gorm.ErrDuplicatedKey
	}
	r.s.nextUser++
	user.ID = r.s.nextUser
	r.s.users[user.Email] = *user
	return nil
}

func (r memoryUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

type memoryApplications struct{ s *memoryStore }

func (r memoryApplications) Create(_ context.Context, app *model.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextApp++
	app.ID = r.s.nextApp
	r.s.apps[app.ID] = *app
	return nil
}

func (r memoryApplications) ListByOwner(_ context.Context, ownerID uint) ([]model.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	apps := []model.Application{}
	for _, a := range r.s.apps {
		if a.UserID == ownerID {
			apps = append(apps, a)
		}
	}
	sort.Slice(apps, func(i, j int) bool {
		if !apps[i].UpdatedAt.Equal(apps[j].UpdatedAt) {
			return apps[i].UpdatedAt.After(apps[j].UpdatedAt)
		}
		return apps[i].ID > apps[j].ID
	})
	return apps, nil
}

func (r memoryApplications) FindOwned(_ context.Context, ownerID, id uint) (*model.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.apps[id]
	if !ok || a.UserID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r memoryApplications) Update(_ context.Context, app *model.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a, ok := r.s.apps[app.ID]; ok && a.UserID == app.UserID {
		r.s.apps[app.ID] = *app
	}
	return nil
}

func (r memoryApplications) Delete(_ context.Context, ownerID, id uint) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.apps[id]
	if !ok || a.UserID != ownerID {
		return 0, nil
	}
	delete(r.s.apps, id)
	return 1, nil
}

func (r memoryApplications) CountByStatus(_ context.Context, ownerID uint) ([]repository.StatusCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := map[model.Status]int64{}
	for _, a := range r.s.apps {
		if a.UserID == ownerID {
			counts[a.Status]++
		}
	}
	rows := make([]repository.StatusCount, 0, len(counts))
	for st, n := range counts {
		rows = append(rows, repository.StatusCount{Status: st, Count: n})
	}
	return rows, nil
}

func (r memoryApplications) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.ApplicationRepository) error) error {
	return fn(ctx, r)
}

type testServer struct {
	e     *echo.Echo
	jwt   *auth.JWTService
	store *memoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := newMemoryStore()
	jwtService := auth.NewJWTService("test-secret")
	appRepo := memoryApplications{s: store}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	e := echo.New()
	router.Register(
		e,
		&config.Config{CORSOrigins: []string{"*"}},
		zerolog.Nop(),
		registry,
		m,
		jwtService,
		handler.NewAuthHandler(service.NewAuthService(memoryUsers{s: store}, jwtService, nil), m),
		handler.NewApplicationHandler(service.NewApplicationService(appRepo), m),
		handler.NewStatsHandler(service.NewStatsService(appRepo)),
	)
	return &testServer{e: e, jwt: jwtService, store: store}
}

func (s *testServer) request(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	rec := s.request(http.MethodPost, "/auth/register", "", fmt.Sprintf(`{"email":%q,"password":"password123"}`, email))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

type applicationJSON struct {
	ID        uint   `json:"id"`
	Company   string `json:"company"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	Location  string `json:"location"`
	Referral  bool   `json:"referral"`
	Source    string `json:"source"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorJSON struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func TestApplicationLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@test.com")

	rec := s.request(http.MethodGet, "/applications", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"applications":[]}`, rec.Body.String())

	rec = s.request(http.MethodPost, "/applications", token, `{"company":"Stripe","role":"SWE Intern"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct {
		Application applicationJSON `json:"application"`
	}](t, rec).Application
	assert.Equal(t, "applied", created.Status)
	assert.False(t, created.Referral)
	assert.Empty(t, created.Location)
	assert.Empty(t, created.Source)
	assert.Empty(t, created.Notes)

	rec = s.request(http.MethodGet, "/applications", token, "")
	list := decode[struct {
		Applications []applicationJSON `json:"applications"`
	}](t, rec).Applications
	require.Len(t, list, 1)
	assert.Equal(t, "Stripe", list[0].Company)

	time.Sleep(5 * time.Millisecond)
	path := fmt.Sprintf("/applications/%d", created.ID)
	rec = s.request(http.MethodPatch, path, token, `{"status":"interview"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decode[struct {
		Application applicationJSON `json:"application"`
	}](t, rec).Application
	assert.Equal(t, "interview", patched.Status)
	assert.Equal(t, "Stripe", patched.Company)
	assert.Equal(t, "SWE Intern", patched.Role)
	assert.Equal(t, created.CreatedAt, patched.CreatedAt)
	assert.NotEqual(t, created.UpdatedAt, patched.UpdatedAt)

	rec = s.request(http.MethodGet, "/stats", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"byStatus":{"applied":0,"oa":0,"interview":1,"offer":0,"rejected":0},"total":1}`, rec.Body.String())

	rec = s.request(http.MethodDelete, path, token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.request(http.MethodDelete, path, token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.request(http.MethodGet, "/applications", token, "")
	assert.JSONEq(t, `{"applications":[]}`, rec.Body.String())
}

func TestListOrderedByMostRecentlyUpdated(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@test.com")

	for _, company := range []string{"Stripe", "Ramp", "Figma"} {
		rec := s.request(http.MethodPost, "/applications", token, fmt.Sprintf(`{"company":%q,"role":"SWE Intern"}`, company))
		require.Equal(t, http.StatusCreated, rec.Code)
		time.Sleep(5 * time.Millisecond)
	}
	rec := s.request(http.MethodPatch, "/applications/1", token, `{"notes":"follow up"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.request(http.MethodGet, "/applications", token, "")
	list := decode[struct {
		Applications []applicationJSON `json:"applications"`
	}](t, rec).Applications
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Stripe", "Figma", "Ramp"}, []string{list[0].Company, list[1].Company, list[2].Company})
}

func TestApplicationsAreOwnerScoped(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice@test.com")
	bob := s.register(t, "bob@test.com")

	rec := s.request(http.MethodPost, "/applications", alice, `{"company":"Stripe","role":"SWE Intern"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	for _, tc := range []struct{ method, body string }{
		{http.MethodGet, ""},
		{http.MethodPatch, `{"status":"offer"}`},
		{http.MethodDelete, ""},
	} {
		rec := s.request(tc.method, "/applications/1", bob, tc.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.method)
		assert.Equal(t, "application not found", decode[errorJSON](t, rec).Error)
	}

	rec = s.request(http.MethodGet, "/applications", bob, "")
	assert.JSONEq(t, `{"applications":[]}`, rec.Body.String())

	rec = s.request(http.MethodGet, "/applications/1", alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[struct {
		Application applicationJSON `json:"application"`
	}](t, rec).Application
	assert.Equal(t, "applied", got.Status)
}

func TestPatchValidationLeavesRecordUntouched(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@test.com")

	rec := s.request(http.MethodPost, "/applications", token, `{"company":"Stripe","role":"SWE Intern","status":"oa"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.request(http.MethodPatch, "/applications/1", token, `{"company":"","status":"offer"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "company is required", decode[errorJSON](t, rec).Error)

	rec = s.request(http.MethodPatch, "/applications/1", token, `{"status":"hired"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	stored := s.store.apps[1]
	assert.Equal(t, "Stripe", stored.Company)
	assert.Equal(t, model.StatusOA, stored.Status)
}

func TestRegistrationNormalizesEmail(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a@test.com")

	rec := s.request(http.MethodPost, "/auth/register", "", `{"email":"  A@Test.COM ","password":"password123"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode[errorJSON](t, rec)
	assert.Equal(t, "email already exists", body.Error)
	assert.Equal(t, "EMAIL_EXISTS", body.Code)

	rec = s.request(http.MethodPost, "/auth/login", "", `{"email":"A@TEST.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[struct {
		Token string `json:"token"`
	}](t, rec).Token
	claims, err := s.jwt.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), claims.UserID)

	rec = s.request(http.MethodPost, "/auth/login", "", `{"email":"a@test.com","password":"password124"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodGet, "/applications", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, errorJSON{Error: "missing token", Code: "UNAUTHORIZED"}, decode[errorJSON](t, rec))

	rec = s.request(http.MethodGet, "/stats", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid token", decode[errorJSON](t, rec).Error)

	other := auth.NewJWTService("other-secret")
	forged, err := other.Issue(1)
	require.NoError(t, err)
	rec = s.request(http.MethodPost, "/applications", forged, `{"company":"Stripe","role":"SWE Intern"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid token", decode[errorJSON](t, rec).Error)

	req := httptest.NewRequest(http.MethodGet, "/applications", nil)
	req.Header.Set(echo.HeaderAuthorization, "Basic dXNlcjpwYXNz")
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing token", decode[errorJSON](t, rec).Error)
}

func TestPublicEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = s.request(http.MethodGet, "/does-not-exist", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode[errorJSON](t, rec).Code)

	s.register(t, "a@test.com")
	rec = s.request(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `apptracker_registrations_total{result="created"} 1`)
	assert.Contains(t, rec.Body.String(), "apptracker_http_requests_total")
}
