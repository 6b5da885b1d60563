package resource

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/ashureev/folio/internal/apiclient"
	"github.com/ashureev/folio/internal/domain"
	"github.com/ashureev/folio/internal/session"
	"github.com/ashureev/folio/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	Method string
	Path   string
	Query  string
	Body   string
}

type recorder struct {
	mu       sync.Mutex
	calls    []call
	response string
	status   int
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.calls = append(r.calls, call{req.Method, req.URL.EscapedPath(), req.URL.RawQuery, string(body)})
	resp, status := r.response, r.status
	r.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, resp)
}

func (r *recorder) last() call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func setup(t *testing.T, response string) (*API, *recorder, *session.Session) {
	t.Helper()
	rec := &recorder{response: response}
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	sess := session.New(store.Scoped(store.NewMemory(), "v"))
	return New(apiclient.New(srv.URL, sess), sess), rec, sess
}

func TestAccessorRoutes(t *testing.T) {
	ctx := context.Background()
	api, rec, _ := setup(t, `{"success":true,"data":{}}`)

	tests := []struct {
		name   string
		call   func() error
		method string
		path   string
	}{
		{"users list", func() error { _, err := api.Users.List(ctx); return err }, http.MethodGet, "/users"},
		{"users update", func() error { _, err := api.Users.Update(ctx, "u1", map[string]string{}); return err }, http.MethodPatch, "/users/u1"},
		{"blogs get", func() error { _, err := api.Blogs.Get(ctx, "b1"); return err }, http.MethodGet, "/blogs/b1"},
		{"blogs by slug", func() error { _, err := api.Blogs.BySlug(ctx, "hello world"); return err }, http.MethodGet, "/blogs/slug/hello%20world"},
		{"blogs update", func() error { _, err := api.Blogs.Update(ctx, "b1", nil); return err }, http.MethodPut, "/blogs/b1"},
		{"projects create", func() error { _, err := api.Projects.Create(ctx, domain.Project{Title: "x"}); return err }, http.MethodPost, "/projects"},
		{"projects featured", func() error { _, err := api.Projects.Featured(ctx); return err }, http.MethodGet, "/projects/featured"},
		{"services delete", func() error { return api.Services.Delete(ctx, "s1") }, http.MethodDelete, "/services/s1"},
		{"testimonial approve", func() error { _, err := api.Testimonials.SetApproved(ctx, "t1", true); return err }, http.MethodPatch, "/testimonials/t1/approve"},
		{"pricing list", func() error { _, err := api.Pricing.List(ctx); return err }, http.MethodGet, "/pricing"},
		{"skills get", func() error { _, err := api.Skills.Get(ctx, "k1"); return err }, http.MethodGet, "/skills/k1"},
		{"categories create", func() error { _, err := api.Categories.Create(ctx, domain.Category{Name: "Go"}); return err }, http.MethodPost, "/categories"},
		{"contact send", func() error { return api.Contact.Send(ctx, domain.ContactMessage{Name: "n"}) }, http.MethodPost, "/contact"},
		{"auth me", func() error { _, err := api.Auth.Me(ctx); return err }, http.MethodGet, "/auth/me"},
		{"auth password", func() error { return api.Auth.ChangePassword(ctx, domain.PasswordChange{}) }, http.MethodPut, "/auth/password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.call())
			got := rec.last()
			assert.Equal(t, tt.method, got.Method)
			assert.Equal(t, tt.path, got.Path)
		})
	}
}

func TestListNormalizesRecords(t *testing.T) {
	api, _, _ := setup(t, `{"success":true,"data":[{"_id":"1"},{"_id":"2","title":"Go","tags":["x"]}]}`)

	blogs, err := api.Blogs.List(context.Background())
	require.NoError(t, err)
	require.Len(t, blogs, 2)
	assert.Equal(t, "Untitled post", blogs[0].Title)
	assert.Equal(t, []string{}, blogs[0].Tags)
	assert.Equal(t, "Go", blogs[1].Title)
}

func TestListNullDataIsEmpty(t *testing.T) {
	api, _, _ := setup(t, `{"success":true,"data":null}`)

	skills, err := api.Skills.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, skills)
	assert.Empty(t, skills)
}

func TestFilterEncodesQuery(t *testing.T) {
	api, rec, _ := setup(t, `{"success":true,"data":[]}`)

	_, err := api.Blogs.Filter(context.Background(), url.Values{"category": {"go lang"}})
	require.NoError(t, err)
	assert.Equal(t, "category=go+lang", rec.last().Query)
}

func TestLoginSavesSession(t *testing.T) {
	ctx := context.Background()
	api, rec, sess := setup(t, `{"success":true,"data":{"token":"jwt","user":{"_id":"u1","email":"me@x.io","role":"admin"}}}`)

	res, err := api.Auth.Login(ctx, domain.Credentials{Email: "me@x.io", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.Token)
	assert.Equal(t, "jwt", sess.Token(ctx))
	assert.True(t, sess.IsAdmin(ctx))

	var sent domain.Credentials
	require.NoError(t, json.Unmarshal([]byte(rec.last().Body), &sent))
	assert.Equal(t, "pw", sent.Password)
}

func TestLoginWithoutTokenFails(t *testing.T) {
	ctx := context.Background()
	api, _, sess := setup(t, `{"success":true,"data":{}}`)

	_, err := api.Auth.Login(ctx, domain.Credentials{})
	require.Error(t, err)
	assert.False(t, sess.Authenticated(ctx))
}

func TestLogoutClearsSessionOnFailure(t *testing.T) {
	ctx := context.Background()
	api, rec, sess := setup(t, `{"message":"boom"}`)
	require.NoError(t, sess.Save(ctx, "jwt", domain.User{}))
	rec.status = http.StatusInternalServerError

	err := api.Auth.Logout(ctx)
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
	assert.False(t, sess.Authenticated(ctx))
}
