package admin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/ashureev/folio/internal/backend"
	"github.com/ashureev/folio/internal/domain"
	"github.com/ashureev/folio/internal/identity"
	"github.com/ashureev/folio/internal/session"
	"github.com/ashureev/folio/internal/store"
	"github.com/ashureev/folio/web"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reply struct {
	status int
	body   string
}

// fakeBackend answers "METHOD /path" with canned replies. Unknown GETs get
// an empty list, anything else an empty record.
type fakeBackend struct {
	mu      sync.Mutex
	replies map[string]reply
	bodies  map[string]string
	auth    map[string]string
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + r.URL.Path
	f.mu.Lock()
	f.bodies[key] = string(body)
	f.auth[key] = r.Header.Get("Authorization")
	rep, ok := f.replies[key]
	f.mu.Unlock()
	if !ok {
		rep = reply{http.StatusOK, `{"success":true,"data":{}}`}
		if r.Method == http.MethodGet {
			rep.body = `{"success":true,"data":[]}`
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rep.status)
	_, _ = io.WriteString(w, rep.body)
}

func (f *fakeBackend) body(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

type fixture struct {
	router  http.Handler
	backend *fakeBackend
	session *session.Session
}

func newFixture(t *testing.T, replies map[string]reply) *fixture {
	t.Helper()
	return newFixtureAt(t, "/admin/login", replies)
}

func newFixtureAt(t *testing.T, loginPath string, replies map[string]reply) *fixture {
	t.Helper()
	fb := &fakeBackend{replies: replies, bodies: map[string]string{}, auth: map[string]string{}}
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)

	pages, err := web.NewRenderer("admin")
	require.NoError(t, err)

	mem := store.NewMemory()
	h := NewHandler(backend.NewFactory(srv.URL, loginPath, mem, srv.Client(), nil), pages, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(identity.WithVisitorID(req.Context(), "visitor")))
		})
	})
	h.Routes(r)
	return &fixture{router: r, backend: fb, session: session.New(store.Scoped(mem, "visitor"))}
}

func (f *fixture) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, f.session.Save(context.Background(), "tok", domain.User{Name: "Ada", Email: "ada@example.com", Role: domain.RoleAdmin}))
}

func (f *fixture) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRequireAdminRedirectsToLogin(t *testing.T) {
	f := newFixture(t, nil)

	for _, target := range []string{"/admin", "/admin/blogs", "/admin/password"} {
		w := f.do(http.MethodGet, target, nil)
		assert.Equal(t, http.StatusSeeOther, w.Code, target)
		assert.Equal(t, "/admin/login", w.Header().Get("Location"), target)
	}
}

func TestLoginServedAtConfiguredPath(t *testing.T) {
	f := newFixtureAt(t, "/signin", map[string]reply{
		"POST /auth/login": {200, `{"success":true,"data":{"token":"tok-1","user":{"_id":"u1","name":"Ada","email":"ada@example.com","role":"admin"}}}`},
	})

	w := f.do(http.MethodGet, "/admin/blogs", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/signin", w.Header().Get("Location"))

	w = f.do(http.MethodGet, "/signin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/signin"`)

	w = f.do(http.MethodPost, "/signin", url.Values{"email": {"ada@example.com"}, "password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin", w.Header().Get("Location"))
	assert.Equal(t, "tok-1", f.session.Token(context.Background()))

	w = f.do(http.MethodPost, "/admin/logout", nil)
	assert.Equal(t, "/signin?notice=signedout", w.Header().Get("Location"))
}

func TestLoginStoresAdminSession(t *testing.T) {
	f := newFixture(t, map[string]reply{
		"POST /auth/login": {200, `{"success":true,"data":{"token":"tok-1","user":{"_id":"u1","name":"Ada","email":"ada@example.com","role":"admin"}}}`},
	})

	w := f.do(http.MethodPost, "/admin/login", url.Values{"email": {"ada@example.com"}, "password": {"secret"}})

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin", w.Header().Get("Location"))
	ctx := context.Background()
	assert.Equal(t, "tok-1", f.session.Token(ctx))
	assert.True(t, f.session.IsAdmin(ctx))
	assert.JSONEq(t, `{"email":"ada@example.com","password":"secret"}`, f.backend.body("POST /auth/login"))
}

func TestLoginRejectsNonAdmin(t *testing.T) {
	f := newFixture(t, map[string]reply{
		"POST /auth/login": {200, `{"success":true,"data":{"token":"tok-1","user":{"name":"Bob","role":"user"}}}`},
	})

	w := f.do(http.MethodPost, "/admin/login", url.Values{"email": {"bob@example.com"}, "password": {"secret"}})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "does not have access")
	assert.False(t, f.session.Authenticated(context.Background()))
}

func TestLoginShowsBackendMessage(t *testing.T) {
	f := newFixture(t, map[string]reply{
		"POST /auth/login": {401, `{"success":false,"message":"Invalid credentials"}`},
	})

	w := f.do(http.MethodPost, "/admin/login", url.Values{"email": {"ada@example.com"}, "password": {"nope"}})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
	body := w.Body.String()
	assert.Contains(t, body, "Invalid credentials")
	assert.Contains(t, body, `value="ada@example.com"`)
}

func TestLoginRequiresFields(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(http.MethodPost, "/admin/login", url.Values{"email": {"ada@example.com"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Please fill in: Password")
}

func TestLogoutClearsSession(t *testing.T) {
	f := newFixture(t, map[string]reply{
		"POST /auth/logout": {500, `{"message":"down"}`},
	})
	f.signIn(t)

	w := f.do(http.MethodPost, "/admin/logout", url.Values{})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/login?notice=signedout", w.Header().Get("Location"))
	assert.False(t, f.session.Authenticated(context.Background()))
}

func TestDashboardCountsEveryResource(t *testing.T) {
	f := newFixture(t, map[string]reply{
		"GET /blogs":  {200, `{"success":true,"data":[{"_id":"b1"},{"_id":"b2"},{"_id":"b3"}]}`},
		"GET /skills": {500, `{"success":false,"message":"Skills are down"}`},
	})
	f.signIn(t)

	w := f.do(http.MethodGet, "/admin", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<span class="tile-count">3</span>`)
	assert.Contains(t, body, "Skills are down")
	assert.Contains(t, body, "Ada")
	f.backend.mu.Lock()
	assert.Equal(t, "Bearer tok", f.backend.auth["GET /users"])
	f.backend.mu.Unlock()
}

func TestListRendersRows(t *testing.T) {
	f := newFixture(t, map[string]reply{
		"GET /testimonials": {200, `{"success":true,"data":[{"_id":"t1","name":"Ann","approved":false}]}`},
	})
	f.signIn(t)

	w := f.do(http.MethodGet, "/admin/testimonials?notice=deleted", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Ann")
	assert.Contains(t, body, `action="/admin/testimonials/t1/approve"`)
	assert.Contains(t, body, "Deleted.")
}

func TestCreateBlogSendsDerivedFields(t *testing.T) {
	f := newFixture(t, nil)
	f.signIn(t)

	w := f.do(http.MethodPost, "/admin/blogs", url.Values{
		"title":   {"Hello, World! 2024"},
		"content": {"<p>Short post</p>"},
	})

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/blogs?notice=created", w.Header().Get("Location"))

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(f.backend.body("POST /blogs")), &sent))
	assert.Equal(t, "hello-world-2024", sent["slug"])
	assert.Equal(t, "1 min read", sent["readTime"])
	assert.NotContains(t, sent, "_id")
}

func TestCreateValidationKeepsValues(t *testing.T) {
	f := newFixture(t, nil)
	f.signIn(t)

	w := f.do(http.MethodPost, "/admin/blogs", url.Values{"title": {"Draft title"}})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Please fill in: Content")
	assert.Contains(t, body, `value="Draft title"`)
	assert.Empty(t, f.backend.body("POST /blogs"))
}

func TestCreateShowsBackendError(t *testing.T) {
	f := newFixture(t, map[string]reply{
		"POST /projects": {400, `{"success":false,"message":"Title already taken"}`},
	})
	f.signIn(t)

	w := f.do(http.MethodPost, "/admin/projects", url.Values{"title": {"Rocket"}, "description": {"A shop"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Title already taken")
	assert.Contains(t, body, `value="Rocket"`)
}

func TestUnauthorizedBackendRedirectsToLogin(t *testing.T) {
	f := newFixture(t, map[string]reply{
		"GET /blogs": {401, `{"success":false,"message":"Token expired"}`},
	})
	f.signIn(t)

	w := f.do(http.MethodGet, "/admin/blogs", nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/login", w.Header().Get("Location"))
	assert.False(t, f.session.Authenticated(context.Background()))
}

func TestEditAndUpdateUser(t *testing.T) {
	f := newFixture(t, map[string]reply{
		"GET /users/u1": {200, `{"success":true,"data":{"_id":"u1","name":"Bob","email":"bob@example.com","role":"user"}}`},
	})
	f.signIn(t)

	w := f.do(http.MethodGet, "/admin/users/u1/edit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="bob@example.com"`)
	assert.Contains(t, w.Body.String(), `action="/admin/users/u1"`)

	w = f.do(http.MethodPost, "/admin/users/u1", url.Values{"name": {"Bob"}, "email": {"bob@example.com"}, "role": {"admin"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/users?notice=updated", w.Header().Get("Location"))
	assert.JSONEq(t, `{"name":"Bob","email":"bob@example.com","role":"admin"}`, f.backend.body("PATCH /users/u1"))
}

func TestEditMissingRecord(t *testing.T) {
	f := newFixture(t, map[string]reply{
		"GET /skills/nope": {404, `{"success":false,"message":"Skill not found"}`},
	})
	f.signIn(t)

	w := f.do(http.MethodGet, "/admin/skills/nope/edit", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Skill not found")
}

func TestDeleteRecord(t *testing.T) {
	f := newFixture(t, map[string]reply{
		"DELETE /services/s2": {500, `{"success":false,"message":"Cannot delete"}`},
	})
	f.signIn(t)

	w := f.do(http.MethodPost, "/admin/services/s1/delete", url.Values{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/services?notice=deleted", w.Header().Get("Location"))

	w = f.do(http.MethodPost, "/admin/services/s2/delete", url.Values{})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Cannot delete")
}

func TestApproveTestimonial(t *testing.T) {
	f := newFixture(t, nil)
	f.signIn(t)

	w := f.do(http.MethodPost, "/admin/testimonials/t1/approve", url.Values{"approved": {"true"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/testimonials?notice=approved", w.Header().Get("Location"))
	assert.JSONEq(t, `{"approved":true}`, f.backend.body("PATCH /testimonials/t1/approve"))

	w = f.do(http.MethodPost, "/admin/blogs/b1/approve", url.Values{"approved": {"true"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownResource(t *testing.T) {
	f := newFixture(t, nil)
	f.signIn(t)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/admin/widgets", nil).Code)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t, nil)
	f.signIn(t)

	w := f.do(http.MethodPost, "/admin/password", url.Values{
		"currentPassword": {"old"}, "newPassword": {"new"}, "confirmPassword": {"other"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "do not match")

	w = f.do(http.MethodPost, "/admin/password", url.Values{
		"currentPassword": {"old"}, "newPassword": {"new"}, "confirmPassword": {"new"},
	})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.JSONEq(t, `{"currentPassword":"old","newPassword":"new"}`, f.backend.body("PUT /auth/password"))
}
