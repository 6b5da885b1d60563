// Package site serves the public portfolio pages.
package site

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/ashureev/folio/internal/apiclient"
	"github.com/ashureev/folio/internal/backend"
	"github.com/ashureev/folio/internal/content"
	"github.com/ashureev/folio/internal/domain"
	"github.com/ashureev/folio/internal/query"
	"github.com/ashureev/folio/web"
	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
)

// Handler renders the public pages.
type Handler struct {
	backend  *backend.Factory
	pages    *web.Renderer
	defaults *Defaults
	policy   *bluemonday.Policy
}

// NewHandler creates a site handler.
func NewHandler(factory *backend.Factory, pages *web.Renderer, defaults *Defaults) *Handler {
	return &Handler{
		backend:  factory,
		pages:    pages,
		defaults: defaults,
		policy:   bluemonday.UGCPolicy(),
	}
}

// Routes mounts the public pages.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/about", h.About)
	r.Get("/work", h.Work)
	r.Get("/work/{id}", h.Project)
	r.Get("/blog", h.Blog)
	r.Get("/blog/{slug}", h.Post)
	r.Get("/testimonials", h.Testimonials)
	r.Get("/contact", h.Contact)
	r.Post("/contact", h.SubmitContact)
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, _ *http.Request) {
	h.pages.Render(w, http.StatusNotFound, "notfound.html", page{Owner: h.defaults.Owner, Title: "Not found"})
}

// Section is one block of a page: fetched items, or the defaults when the
// backend returned nothing, plus the error message when the fetch failed.
type Section[T any] struct {
	Items []T
	Error string
}

// Empty reports whether there is nothing to show.
func (s Section[T]) Empty() bool { return len(s.Items) == 0 }

func section[T any](s query.State[[]T], fallback []T) Section[T] {
	items := query.Or(s, nil)
	if len(items) == 0 {
		items = fallback
	}
	return Section[T]{Items: items, Error: errorText(s.Err)}
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

type page struct {
	Title  string
	Path   string
	Owner  Owner
	Active string
}

type homePage struct {
	page
	Projects     Section[domain.Project]
	Services     Section[domain.Service]
	Testimonials Section[domain.Testimonial]
	Pricing      Section[domain.PricingPlan]
	Skills       Section[domain.Skill]
}

func (h *Handler) basePage(r *http.Request, title, active string) page {
	return page{Title: title, Path: r.URL.Path, Owner: h.defaults.Owner, Active: active}
}

// Home handles GET /.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	conn := h.backend.For(r)
	api := conn.API

	projects := query.New(api.Projects.Featured)
	services := query.New(api.Services.List)
	testimonials := query.New(api.Testimonials.List)
	pricing := query.New(api.Pricing.List)
	skills := query.New(api.Skills.List)
	query.Settle(r.Context(), projects, services, testimonials, pricing, skills)

	if conn.FollowRedirect(w, r) {
		return
	}

	approved := testimonials.State()
	if approved.Loaded() {
		approved.Data = filter(approved.Data, func(t domain.Testimonial) bool { return t.Approved })
	}

	h.pages.Render(w, http.StatusOK, "home.html", homePage{
		page:         h.basePage(r, h.defaults.Owner.Name, "home"),
		Projects:     section(projects.State(), h.defaults.Projects),
		Services:     section(services.State(), h.defaults.Services),
		Testimonials: section(approved, h.defaults.Testimonials),
		Pricing:      section(pricing.State(), h.defaults.Pricing),
		Skills:       section(skills.State(), h.defaults.Skills),
	})
}

type aboutPage struct {
	page
	Bio        []string
	Experience []Experience
	Skills     Section[domain.Skill]
}

// About handles GET /about.
func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	conn := h.backend.For(r)
	skills := query.Fetch(r.Context(), conn.API.Skills.List)
	if conn.FollowRedirect(w, r) {
		return
	}

	h.pages.Render(w, http.StatusOK, "about.html", aboutPage{
		page:       h.basePage(r, "About", "about"),
		Bio:        h.defaults.About.Bio,
		Experience: h.defaults.About.Experience,
		Skills:     section(skills, h.defaults.Skills),
	})
}

type workPage struct {
	page
	Projects   Section[domain.Project]
	Categories []domain.Category
	Category   string
}

// Work handles GET /work, optionally filtered by ?category=.
func (h *Handler) Work(w http.ResponseWriter, r *http.Request) {
	conn := h.backend.For(r)
	api := conn.API
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	projects := query.New(func(ctx context.Context) ([]domain.Project, error) {
		if category == "" {
			return api.Projects.List(ctx)
		}
		return api.Projects.Filter(ctx, url.Values{"category": {category}})
	})
	categories := query.New(api.Categories.List)
	query.Settle(r.Context(), projects, categories)

	if conn.FollowRedirect(w, r) {
		return
	}

	fallback := h.defaults.Projects
	if category != "" {
		fallback = nil
	}
	h.pages.Render(w, http.StatusOK, "work.html", workPage{
		page:       h.basePage(r, "Work", "work"),
		Projects:   section(projects.State(), fallback),
		Categories: query.Or(categories.State(), nil),
		Category:   category,
	})
}

type projectPage struct {
	page
	Project domain.Project
	Error   string
}

// Project handles GET /work/{id}.
func (h *Handler) Project(w http.ResponseWriter, r *http.Request) {
	conn := h.backend.For(r)
	state := query.Fetch(r.Context(), func(ctx context.Context) (domain.Project, error) {
		return conn.API.Projects.Get(ctx, chi.URLParam(r, "id"))
	})
	if conn.FollowRedirect(w, r) {
		return
	}

	data := projectPage{page: h.basePage(r, "Project", "work")}
	status := http.StatusOK
	if state.Failed() {
		data.Error = errorText(state.Err)
		status = statusFor(state.Err)
	} else {
		data.Project = state.Data
		data.Title = state.Data.Title
	}
	h.pages.Render(w, status, "project.html", data)
}

type blogPage struct {
	page
	Posts      Section[domain.Blog]
	Categories []domain.Category
	Category   string
}

// Blog handles GET /blog, optionally filtered by ?category=.
func (h *Handler) Blog(w http.ResponseWriter, r *http.Request) {
	conn := h.backend.For(r)
	api := conn.API
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	posts := query.New(func(ctx context.Context) ([]domain.Blog, error) {
		if category == "" {
			return api.Blogs.List(ctx)
		}
		return api.Blogs.Filter(ctx, url.Values{"category": {category}})
	})
	categories := query.New(api.Categories.List)
	query.Settle(r.Context(), posts, categories)

	if conn.FollowRedirect(w, r) {
		return
	}

	state := posts.State()
	if state.Loaded() {
		state.Data = filter(state.Data, func(b domain.Blog) bool { return b.Published })
	}
	h.pages.Render(w, http.StatusOK, "blog.html", blogPage{
		page:       h.basePage(r, "Blog", "blog"),
		Posts:      section(state, nil),
		Categories: query.Or(categories.State(), nil),
		Category:   category,
	})
}

type postPage struct {
	page
	Post  domain.Blog
	Body  template.HTML
	Error string
}

// Post handles GET /blog/{slug}.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	conn := h.backend.For(r)
	state := query.Fetch(r.Context(), func(ctx context.Context) (domain.Blog, error) {
		return conn.API.Blogs.BySlug(ctx, chi.URLParam(r, "slug"))
	})
	if conn.FollowRedirect(w, r) {
		return
	}

	data := postPage{page: h.basePage(r, "Blog", "blog")}
	status := http.StatusOK
	if state.Failed() {
		data.Error = errorText(state.Err)
		status = statusFor(state.Err)
	} else {
		post := state.Data
		if strings.TrimSpace(post.Content) != "" {
			post.ReadTime = content.ReadTime(post.Content)
		}
		data.Post = post
		data.Title = post.Title
		// Sanitized by the UGC policy before being marked safe.
		data.Body = template.HTML(h.policy.Sanitize(post.Content)) //nolint:gosec
	}
	h.pages.Render(w, status, "post.html", data)
}

type testimonialsPage struct {
	page
	Testimonials Section[domain.Testimonial]
}

// Testimonials handles GET /testimonials.
func (h *Handler) Testimonials(w http.ResponseWriter, r *http.Request) {
	conn := h.backend.For(r)
	state := query.Fetch(r.Context(), conn.API.Testimonials.List)
	if conn.FollowRedirect(w, r) {
		return
	}
	if state.Loaded() {
		state.Data = filter(state.Data, func(t domain.Testimonial) bool { return t.Approved })
	}

	h.pages.Render(w, http.StatusOK, "testimonials.html", testimonialsPage{
		page:         h.basePage(r, "Testimonials", "testimonials"),
		Testimonials: section(state, h.defaults.Testimonials),
	})
}

type contactPage struct {
	page
	Form   domain.ContactMessage
	Banner string
	Sent   bool
}

// Contact handles GET /contact.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, http.StatusOK, "contact.html", contactPage{
		page: h.basePage(r, "Contact", "contact"),
		Sent: r.URL.Query().Get("sent") == "1",
	})
}

// SubmitContact handles POST /contact.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	data := contactPage{page: h.basePage(r, "Contact", "contact")}
	if err := r.ParseForm(); err != nil {
		data.Banner = "Invalid form submission"
		h.pages.Render(w, http.StatusBadRequest, "contact.html", data)
		return
	}

	data.Form = domain.ContactMessage{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Subject: r.PostFormValue("subject"),
		Message: r.PostFormValue("message"),
	}
	data.Form.Normalize()

	if data.Form.Name == "" || data.Form.Email == "" || data.Form.Message == "" {
		data.Banner = "Please fill in your name, email and message"
		h.pages.Render(w, http.StatusUnprocessableEntity, "contact.html", data)
		return
	}

	conn := h.backend.For(r)
	err := conn.API.Contact.Send(r.Context(), data.Form)
	if conn.FollowRedirect(w, r) {
		return
	}
	if err != nil {
		data.Banner = errorText(err)
		h.pages.Render(w, http.StatusBadGateway, "contact.html", data)
		return
	}

	http.Redirect(w, r, "/contact?sent=1", http.StatusSeeOther)
}

// errorText is the message shown in an error panel. Backend messages are
// shown as-is; transport failures get the generic message.
func errorText(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return apiclient.DefaultErrorMessage
}

// statusFor maps a backend error to the status of the rendered page.
func statusFor(err error) int {
	if apiclient.StatusCode(err) == http.StatusNotFound {
		return http.StatusNotFound
	}
	return http.StatusOK
}
