package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/internal/store"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	srv *Server
	mem *store.MemoryStore
}

func newTestEnv(t *testing.T, narrator contract.Narrator) *testEnv {
	t.Helper()
	mem := store.NewMemoryStore()
	srv := NewServer(Options{
		Config:   &contract.Config{SessionTTL: contract.DefaultSessionTTL},
		Store:    mem,
		Narrator: narrator,
	})
	return &testEnv{srv: srv, mem: mem}
}

func (e *testEnv) addUser(t *testing.T, username, password string, admin bool) schema.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user, err := e.mem.CreateUser(t.Context(), username, string(hash), admin)
	require.NoError(t, err)
	return user
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login", loginRequest{Username: username, Password: password}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

// asAdmin creates an admin account and returns its session cookie.
func (e *testEnv) asAdmin(t *testing.T) *http.Cookie {
	t.Helper()
	e.addUser(t, "admin", "admin-pw", true)
	return e.login(t, "admin", "admin-pw")
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorBody](t, rec).Error
}

// metricValue sums the counter samples of name whose labels include want.
func metricValue(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	samples:
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue samples
				}
			}
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

// TestHealthAndMetrics tests the unauthenticated endpoints and route-labelled request counts.
func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/scores/department", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "survey_http_requests_total")

	assert.Equal(t, 1.0, metricValue(t, env.srv.registry, "survey_http_requests_total",
		map[string]string{"route": "/healthz", "method": "GET", "status": "200"}))
	assert.Equal(t, 1.0, metricValue(t, env.srv.registry, "survey_http_requests_total",
		map[string]string{"route": "/api/scores/department", "status": "401"}))
}

// TestNotFoundRoute tests the JSON body of unknown paths.
func TestNotFoundRoute(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", errorMessage(t, rec))
}

// TestLogin tests credential checks and the session cookie attributes.
func TestLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.addUser(t, "계통운영부_직원1", "pw-1234", false)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"malformed body", "{", http.StatusBadRequest},
		{"missing password", loginRequest{Username: "계통운영부_직원1"}, http.StatusBadRequest},
		{"unknown user", loginRequest{Username: "nobody", Password: "pw"}, http.StatusUnauthorized},
		{"wrong password", loginRequest{Username: "계통운영부_직원1", Password: "nope"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/auth/login", tt.body, nil)
			assert.Equal(t, tt.want, rec.Code)
			assert.Empty(t, rec.Result().Cookies())
			if tt.want == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"아이디 또는 비밀번호가 올바르지 않습니다."}`, rec.Body.String())
			}
		})
	}

	t.Run("success", func(t *testing.T) {
		fixed := time.Now().Add(time.Hour).Truncate(time.Second)
		env.srv.now = func() time.Time { return fixed }
		defer func() { env.srv.now = time.Now }()

		rec := env.do(t, http.MethodPost, "/api/auth/login", loginRequest{Username: "계통운영부_직원1", Password: "pw-1234"}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[loginResponse](t, rec)
		assert.True(t, resp.Success)
		assert.Equal(t, user.ID, resp.User.ID)
		assert.NotContains(t, rec.Body.String(), "pw-1234")

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		assert.Equal(t, SessionCookie, c.Name)
		assert.True(t, c.HttpOnly)
		assert.False(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.Equal(t, 7*24*60*60, c.MaxAge)

		session, err := env.mem.GetSession(t.Context(), c.Value)
		require.NoError(t, err)
		assert.Equal(t, user.ID, session.UserID)
		assert.False(t, session.IsAdmin)
		assert.Equal(t, fixed.Add(contract.DefaultSessionTTL), session.ExpiresAt)
	})
}

// TestLoginSecureCookie tests the cookie-secure setting.
func TestLoginSecureCookie(t *testing.T) {
	mem := store.NewMemoryStore()
	env := &testEnv{mem: mem, srv: NewServer(Options{Config: &contract.Config{CookieSecure: true}, Store: mem})}
	env.addUser(t, "admin", "pw", true)

	cookie := env.login(t, "admin", "pw")
	assert.True(t, cookie.Secure)
}

// TestLogout tests that the session is deleted and the cookie cleared.
func TestLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addUser(t, "동해전력_직원1", "pw", false)
	cookie := env.login(t, "동해전력_직원1", "pw")

	rec := env.do(t, http.MethodPost, "/api/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Less(t, cleared[0].MaxAge, 0)

	rec = env.do(t, http.MethodGet, "/api/survey/questions?type=own-dept", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/logout", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "logout without a session still succeeds")
}

// TestAccessControl tests the session and admin guards.
func TestAccessControl(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addUser(t, "원주전력_직원1", "pw", false)
	userCookie := env.login(t, "원주전력_직원1", "pw")

	expired := schema.Session{Token: "expired", UserID: "x", IsAdmin: true, ExpiresAt: time.Now().Add(-time.Minute)}
	require.NoError(t, env.mem.CreateSession(t.Context(), expired))

	tests := []struct {
		name   string
		method string
		path   string
		cookie *http.Cookie
		want   int
	}{
		{"survey without cookie", http.MethodGet, "/api/survey/questions?type=own-dept", nil, http.StatusUnauthorized},
		{"survey with unknown token", http.MethodGet, "/api/survey/questions?type=own-dept", &http.Cookie{Name: SessionCookie, Value: "forged"}, http.StatusUnauthorized},
		{"survey with expired session", http.MethodGet, "/api/survey/questions?type=own-dept", &http.Cookie{Name: SessionCookie, Value: "expired"}, http.StatusUnauthorized},
		{"survey as user", http.MethodGet, "/api/survey/questions?type=own-dept", userCookie, http.StatusOK},
		{"scores as user", http.MethodGet, "/api/scores/department", userCookie, http.StatusForbidden},
		{"organization as user", http.MethodGet, "/api/scores/organization", userCookie, http.StatusForbidden},
		{"stats as user", http.MethodGet, "/api/admin/stats", userCookie, http.StatusForbidden},
		{"report as user", http.MethodPost, "/api/admin/ai-analysis/organization", userCookie, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, nil, tt.cookie)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			switch tt.want {
			case http.StatusUnauthorized:
				assert.JSONEq(t, `{"error":"로그인이 필요합니다."}`, rec.Body.String())
			case http.StatusForbidden:
				assert.JSONEq(t, `{"error":"관리자 권한이 필요합니다."}`, rec.Body.String())
			}
		})
	}
}
