package resource

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/ashureev/folio/internal/apiclient"
	"github.com/ashureev/folio/internal/domain"
)

// SessionStore persists the result of a login.
type SessionStore interface {
	Save(ctx context.Context, token string, user domain.User) error
	Clear(ctx context.Context) error
}

// API groups the accessors of every backend resource.
type API struct {
	Auth         *Auth
	Users        Collection[domain.User, *domain.User]
	Blogs        Blogs
	Projects     Projects
	Services     Collection[domain.Service, *domain.Service]
	Testimonials Testimonials
	Pricing      Collection[domain.PricingPlan, *domain.PricingPlan]
	Skills       Collection[domain.Skill, *domain.Skill]
	Categories   Collection[domain.Category, *domain.Category]
	Contact      Contact
}

// New builds the accessors on top of c. sess receives login results and may
// be nil when the caller never logs in.
func New(c *apiclient.Client, sess SessionStore) *API {
	return &API{
		Auth:         &Auth{client: c, session: sess},
		Users:        newCollection[domain.User](c, "/users", http.MethodPatch),
		Blogs:        Blogs{newCollection[domain.Blog](c, "/blogs", http.MethodPut)},
		Projects:     Projects{newCollection[domain.Project](c, "/projects", http.MethodPut)},
		Services:     newCollection[domain.Service](c, "/services", http.MethodPut),
		Testimonials: Testimonials{newCollection[domain.Testimonial](c, "/testimonials", http.MethodPut)},
		Pricing:      newCollection[domain.PricingPlan](c, "/pricing", http.MethodPut),
		Skills:       newCollection[domain.Skill](c, "/skills", http.MethodPut),
		Categories:   newCollection[domain.Category](c, "/categories", http.MethodPut),
		Contact:      Contact{client: c},
	}
}

// Blogs adds slug lookup to the blog collection.
type Blogs struct {
	Collection[domain.Blog, *domain.Blog]
}

// BySlug fetches a post: GET /blogs/slug/{slug}.
func (b Blogs) BySlug(ctx context.Context, slug string) (domain.Blog, error) {
	return getOne[domain.Blog](ctx, b.client, b.path+"/slug/"+url.PathEscape(slug))
}

// Projects adds the featured listing to the project collection.
type Projects struct {
	Collection[domain.Project, *domain.Project]
}

// Featured fetches featured projects: GET /projects/featured.
func (p Projects) Featured(ctx context.Context) ([]domain.Project, error) {
	return getList[domain.Project](ctx, p.client, p.path+"/featured")
}

// Testimonials adds moderation to the testimonial collection.
type Testimonials struct {
	Collection[domain.Testimonial, *domain.Testimonial]
}

// SetApproved toggles visibility: PATCH /testimonials/{id}/approve.
func (t Testimonials) SetApproved(ctx context.Context, id string, approved bool) (domain.Testimonial, error) {
	var env domain.Envelope[domain.Testimonial]
	body := map[string]bool{"approved": approved}
	if err := t.client.Patch(ctx, t.item(id)+"/approve", body, &env); err != nil {
		return domain.Testimonial{}, err
	}
	env.Data.Normalize()
	return env.Data, nil
}

// Contact sends contact form messages.
type Contact struct {
	client *apiclient.Client
}

// Send posts a message: POST /contact.
func (c Contact) Send(ctx context.Context, msg domain.ContactMessage) error {
	msg.Normalize()
	return c.client.Post(ctx, "/contact", msg, nil)
}

// Auth wraps the authentication endpoints.
type Auth struct {
	client  *apiclient.Client
	session SessionStore
}

// Login authenticates: POST /auth/login. The token and profile are saved to
// the session on success.
func (a *Auth) Login(ctx context.Context, creds domain.Credentials) (domain.LoginResult, error) {
	var env domain.Envelope[domain.LoginResult]
	if err := a.client.Post(ctx, "/auth/login", creds, &env); err != nil {
		return domain.LoginResult{}, err
	}
	env.Data.Normalize()
	if env.Data.Token == "" {
		return domain.LoginResult{}, &apiclient.Error{Status: http.StatusBadGateway, Message: "Login response did not include a token"}
	}
	if a.session != nil {
		if err := a.session.Save(ctx, env.Data.Token, env.Data.User); err != nil {
			return domain.LoginResult{}, fmt.Errorf("save session: %w", err)
		}
	}
	return env.Data, nil
}

// Logout ends the session: POST /auth/logout. The local session is cleared
// even when the backend call fails.
func (a *Auth) Logout(ctx context.Context) error {
	err := a.client.Post(ctx, "/auth/logout", nil, nil)
	if a.session != nil {
		if clearErr := a.session.Clear(ctx); clearErr != nil {
			slog.Warn("Failed to clear session on logout", "error", clearErr)
		}
	}
	return err
}

// Me fetches the session user: GET /auth/me.
func (a *Auth) Me(ctx context.Context) (domain.User, error) {
	return getOne[domain.User](ctx, a.client, "/auth/me")
}

// ChangePassword updates the session user's password: PUT /auth/password.
func (a *Auth) ChangePassword(ctx context.Context, change domain.PasswordChange) error {
	return a.client.Put(ctx, "/auth/password", change, nil)
}
