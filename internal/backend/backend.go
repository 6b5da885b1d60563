// Package backend gives each HTTP request its own view of the REST backend,
// bound to the requesting visitor's session.
package backend

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/ashureev/folio/internal/apiclient"
	"github.com/ashureev/folio/internal/identity"
	"github.com/ashureev/folio/internal/resource"
	"github.com/ashureev/folio/internal/session"
	"github.com/ashureev/folio/internal/store"
)

// Factory builds per-request connections.
type Factory struct {
	baseURL    string
	loginPath  string
	storage    store.Storage
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFactory creates a factory. A nil httpClient uses a client without a
// timeout of its own; requests end when the caller's context does.
func NewFactory(baseURL, loginPath string, storage store.Storage, httpClient *http.Client, logger *slog.Logger) *Factory {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if loginPath == "" {
		loginPath = apiclient.DefaultLoginPath
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		baseURL:    baseURL,
		loginPath:  loginPath,
		storage:    storage,
		httpClient: httpClient,
		logger:     logger,
	}
}

// LoginPath returns the route 401 responses redirect to.
func (f *Factory) LoginPath() string { return f.loginPath }

// Conn is the backend access of one request.
type Conn struct {
	API     *resource.API
	Session *session.Session

	mu       sync.Mutex
	redirect string
}

// For returns a connection acting for the visitor of r.
func (f *Factory) For(r *http.Request) *Conn {
	visitorID := identity.VisitorIDFromContext(r.Context())
	sess := session.New(store.Scoped(f.storage, visitorID))
	conn := &Conn{Session: sess}

	client := apiclient.New(f.baseURL, sess,
		apiclient.WithHTTPClient(f.httpClient),
		apiclient.WithLoginPath(f.loginPath),
		apiclient.WithCurrentPath(func() string { return r.URL.Path }),
		apiclient.WithUnauthorized(conn.redirectTo),
		apiclient.WithLogger(f.logger.With("visitor_id", visitorID)),
	)
	conn.API = resource.New(client, sess)
	return conn
}

func (c *Conn) redirectTo(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.redirect == "" {
		c.redirect = path
	}
}

// Redirect returns the pending login redirect, if any backend call was rejected with 401.
func (c *Conn) Redirect() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redirect, c.redirect != ""
}

// FollowRedirect sends the pending login redirect and reports whether it did.
func (c *Conn) FollowRedirect(w http.ResponseWriter, r *http.Request) bool {
	path, ok := c.Redirect()
	if !ok {
		return false
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
	return true
}
