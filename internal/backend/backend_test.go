package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ashureev/folio/internal/domain"
	"github.com/ashureev/folio/internal/identity"
	"github.com/ashureev/folio/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestFor(path, visitor string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	return r.WithContext(identity.WithVisitorID(r.Context(), visitor))
}

func TestConnRedirectsOnceOn401(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Token expired"}`))
	}))
	defer srv.Close()

	mem := store.NewMemory()
	f := NewFactory(srv.URL, "/admin/login", mem, srv.Client(), nil)

	conn := f.For(requestFor("/admin/blogs", "v1"))
	require.NoError(t, conn.Session.Save(context.Background(), "tok", domain.User{ID: "1", Role: domain.RoleAdmin}))

	_, err := conn.API.Blogs.List(context.Background())
	require.Error(t, err)
	_, err = conn.API.Projects.List(context.Background())
	require.Error(t, err)

	path, ok := conn.Redirect()
	assert.True(t, ok)
	assert.Equal(t, "/admin/login", path)
	assert.Empty(t, conn.Session.Token(context.Background()), "401 must clear the session")

	w := httptest.NewRecorder()
	assert.True(t, conn.FollowRedirect(w, requestFor("/admin/blogs", "v1")))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/login", w.Header().Get("Location"))
	assert.Equal(t, int32(2), hits.Load())
}

func TestConnNoRedirectOnLoginPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	f := NewFactory(srv.URL, "/admin/login", store.NewMemory(), srv.Client(), nil)
	conn := f.For(requestFor("/admin/login", "v1"))

	_, err := conn.API.Auth.Me(context.Background())
	require.Error(t, err)

	_, ok := conn.Redirect()
	assert.False(t, ok)
}

func TestConnsAreScopedPerVisitor(t *testing.T) {
	f := NewFactory("http://backend.invalid", "", store.NewMemory(), nil, nil)
	ctx := context.Background()

	a := f.For(requestFor("/", "a"))
	require.NoError(t, a.Session.Save(ctx, "token-a", domain.User{ID: "1"}))

	b := f.For(requestFor("/", "b"))
	assert.Empty(t, b.Session.Token(ctx))
	assert.Equal(t, "token-a", f.For(requestFor("/", "a")).Session.Token(ctx))
	assert.Equal(t, "/admin/login", f.LoginPath())
}

func TestDefaultClientDefersToCallerDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	defer close(release)

	f := NewFactory(srv.URL, "", store.NewMemory(), nil, nil)
	assert.Zero(t, f.httpClient.Timeout)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := f.For(requestFor("/", "v1")).API.Blogs.List(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}
