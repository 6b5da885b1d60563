// Package admin serves the back-office: sign-in, a dashboard and CRUD
// screens for every backend collection.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ashureev/folio/internal/apiclient"
	"github.com/ashureev/folio/internal/backend"
	"github.com/ashureev/folio/internal/domain"
	"github.com/ashureev/folio/internal/identity"
	"github.com/ashureev/folio/internal/query"
	"github.com/ashureev/folio/web"
	"github.com/go-chi/chi/v5"
)

// notices are the confirmations shown after a redirect, keyed by ?notice=.
var notices = map[string]string{
	"created":    "Saved.",
	"updated":    "Changes saved.",
	"deleted":    "Deleted.",
	"approved":   "Testimonial approved.",
	"unapproved": "Testimonial hidden.",
	"password":   "Password changed.",
	"signedout":  "You have been signed out.",
}

// Handler renders the back-office.
type Handler struct {
	backend   *backend.Factory
	pages     *web.Renderer
	resources []resourceDef
	byName    map[string]resourceDef
	logger    *slog.Logger
}

// NewHandler creates an admin handler.
func NewHandler(factory *backend.Factory, pages *web.Renderer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	defs := definitions()
	byName := make(map[string]resourceDef, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}
	return &Handler{
		backend:   factory,
		pages:     pages,
		resources: defs,
		byName:    byName,
		logger:    logger,
	}
}

// Routes mounts the back-office under /admin and the sign-in screen at the
// factory's login path, where 401 redirects land.
func (h *Handler) Routes(r chi.Router) {
	r.Get(h.backend.LoginPath(), h.LoginPage)
	r.Post(h.backend.LoginPath(), h.Login)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Get("/", h.Dashboard)
			r.Get("/password", h.PasswordPage)
			r.Post("/password", h.ChangePassword)
			r.Get("/{resource}", h.List)
			r.Post("/{resource}", h.Create)
			r.Get("/{resource}/new", h.New)
			r.Get("/{resource}/{id}/edit", h.Edit)
			r.Post("/{resource}/{id}", h.Update)
			r.Post("/{resource}/{id}/delete", h.Delete)
			r.Post("/{resource}/{id}/approve", h.Approve)
		})
	})
}

// requireAdmin sends visitors without an admin session to the login screen.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := h.backend.For(r).Session
		if !sess.Authenticated(r.Context()) || !sess.IsAdmin(r.Context()) {
			http.Redirect(w, r, h.backend.LoginPath(), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type page struct {
	Title     string
	Active    string
	User      *domain.User
	Resources []resourceDef
	Notice    string
	Banner    string
	LoginPath string
}

func (h *Handler) basePage(r *http.Request, conn *backend.Conn, title, active string) page {
	return page{
		Title:     title,
		Active:    active,
		User:      conn.Session.User(r.Context()),
		Resources: h.resources,
		Notice:    notices[r.URL.Query().Get("notice")],
		LoginPath: h.backend.LoginPath(),
	}
}

type loginPage struct {
	page
	Email string
}

// LoginPage renders the sign-in form.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	conn := h.backend.For(r)
	if conn.Session.Authenticated(r.Context()) && conn.Session.IsAdmin(r.Context()) {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	h.pages.Render(w, http.StatusOK, "login.html", loginPage{page: h.basePage(r, conn, "Sign in", "login")})
}

// Login submits the sign-in form.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	conn := h.backend.For(r)
	data := loginPage{page: h.basePage(r, conn, "Sign in", "login")}
	if err := r.ParseForm(); err != nil {
		data.Banner = "Invalid form submission"
		h.pages.Render(w, http.StatusBadRequest, "login.html", data)
		return
	}

	creds := domain.Credentials{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	data.Email = creds.Email
	if err := requireFields(requirement{"Email", creds.Email}, requirement{"Password", creds.Password}); err != nil {
		data.Banner = err.Error()
		h.pages.Render(w, http.StatusUnprocessableEntity, "login.html", data)
		return
	}

	result, err := conn.API.Auth.Login(r.Context(), creds)
	if err != nil {
		h.logger.Info("Admin login rejected", "email", creds.Email, "ip", identity.IPFromRequest(r), "error", err)
		data.Banner = errorText(err)
		h.pages.Render(w, failureStatus(err), "login.html", data)
		return
	}

	if !result.User.IsAdmin() {
		if err := conn.Session.Clear(r.Context()); err != nil {
			h.logger.Warn("Failed to clear non-admin session", "error", err)
		}
		data.Banner = "This account does not have access to the admin area"
		h.pages.Render(w, http.StatusForbidden, "login.html", data)
		return
	}

	h.logger.Info("Admin signed in", "email", result.User.Email)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// Logout handles POST /admin/logout. The local session is always cleared.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	conn := h.backend.For(r)
	if err := conn.API.Auth.Logout(r.Context()); err != nil {
		h.logger.Warn("Backend logout failed", "error", err)
	}
	http.Redirect(w, r, h.backend.LoginPath()+"?notice=signedout", http.StatusSeeOther)
}

// Tile is one dashboard counter.
type Tile struct {
	Resource resourceDef
	Count    int
	Error    string
}

type dashboardPage struct {
	page
	Tiles []Tile
}

// Dashboard handles GET /admin. All collections are counted in parallel.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	conn := h.backend.For(r)

	counts := make([]*query.Query[int], len(h.resources))
	runners := make([]query.Runner, len(h.resources))
	for i, def := range h.resources {
		counts[i] = query.New(func(ctx context.Context) (int, error) {
			rows, err := def.list(ctx, conn.API)
			return len(rows), err
		})
		runners[i] = counts[i]
	}
	query.Settle(r.Context(), runners...)

	if conn.FollowRedirect(w, r) {
		return
	}

	data := dashboardPage{page: h.basePage(r, conn, "Dashboard", "dashboard")}
	for i, def := range h.resources {
		state := counts[i].State()
		data.Tiles = append(data.Tiles, Tile{Resource: def, Count: state.Data, Error: errorText(state.Err)})
	}
	h.pages.Render(w, http.StatusOK, "dashboard.html", data)
}

type listPage struct {
	page
	Resource resourceDef
	Rows     []Row
	Error    string
}

// List handles GET /admin/{resource}.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	def, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.renderList(w, r, h.backend.For(r), def, "", http.StatusOK)
}

func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, conn *backend.Conn, def resourceDef, banner string, status int) {
	state := query.Fetch(r.Context(), func(ctx context.Context) ([]Row, error) {
		return def.list(ctx, conn.API)
	})
	if conn.FollowRedirect(w, r) {
		return
	}

	data := listPage{page: h.basePage(r, conn, def.Title, def.Name), Resource: def, Rows: state.Data, Error: errorText(state.Err)}
	data.Banner = banner
	h.pages.Render(w, status, "list.html", data)
}

type formPage struct {
	page
	Resource resourceDef
	Action   string
	Fields   []Field
	Creating bool
	Missing  bool
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, conn *backend.Conn, def resourceDef, id string, form Form, banner string, status int) {
	data := formPage{
		page:     h.basePage(r, conn, "New "+def.Singular, def.Name),
		Resource: def,
		Action:   "/admin/" + def.Name,
		Creating: id == "",
	}
	if id != "" {
		data.Title = "Edit " + def.Singular
		data.Action += "/" + url.PathEscape(id)
	}
	if form != nil {
		data.Fields = form.Fields()
	} else {
		data.Missing = true
	}
	data.Banner = banner
	h.pages.Render(w, status, "form.html", data)
}

// New handles GET /admin/{resource}/new.
func (h *Handler) New(w http.ResponseWriter, r *http.Request) {
	def, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, h.backend.For(r), def, "", def.parse(url.Values{}, true), "", http.StatusOK)
}

// Create handles POST /admin/{resource}.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "")
}

// Edit handles GET /admin/{resource}/{id}/edit.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	def, ok := h.lookup(w, r)
	if !ok {
		return
	}
	conn := h.backend.For(r)
	id := chi.URLParam(r, "id")

	state := query.Fetch(r.Context(), func(ctx context.Context) (Form, error) {
		return def.load(ctx, conn.API, id)
	})
	if conn.FollowRedirect(w, r) {
		return
	}
	if state.Failed() {
		status := http.StatusBadGateway
		if apiclient.StatusCode(state.Err) == http.StatusNotFound {
			status = http.StatusNotFound
		}
		h.renderForm(w, r, conn, def, id, nil, errorText(state.Err), status)
		return
	}
	h.renderForm(w, r, conn, def, id, state.Data, "", http.StatusOK)
}

// Update handles POST /admin/{resource}/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, chi.URLParam(r, "id"))
}

// save creates (id == "") or updates a record from the posted form.
func (h *Handler) save(w http.ResponseWriter, r *http.Request, id string) {
	def, ok := h.lookup(w, r)
	if !ok {
		return
	}
	conn := h.backend.For(r)
	if err := r.ParseForm(); err != nil {
		h.renderForm(w, r, conn, def, id, def.parse(url.Values{}, id == ""), "Invalid form submission", http.StatusBadRequest)
		return
	}

	form := def.parse(r.PostForm, id == "")
	if err := form.Validate(); err != nil {
		h.renderForm(w, r, conn, def, id, form, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var err error
	notice := "created"
	if id == "" {
		err = def.create(r.Context(), conn.API, form.Payload())
	} else {
		err = def.update(r.Context(), conn.API, id, form.Payload())
		notice = "updated"
	}
	if conn.FollowRedirect(w, r) {
		return
	}
	if err != nil {
		h.logger.Warn("Failed to save record", "resource", def.Name, "id", id, "error", err)
		h.renderForm(w, r, conn, def, id, form, errorText(err), failureStatus(err))
		return
	}

	http.Redirect(w, r, "/admin/"+def.Name+"?notice="+notice, http.StatusSeeOther)
}

// Delete handles POST /admin/{resource}/{id}/delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	def, ok := h.lookup(w, r)
	if !ok {
		return
	}
	conn := h.backend.For(r)
	id := chi.URLParam(r, "id")

	err := def.remove(r.Context(), conn.API, id)
	if conn.FollowRedirect(w, r) {
		return
	}
	if err != nil {
		h.logger.Warn("Failed to delete record", "resource", def.Name, "id", id, "error", err)
		h.renderList(w, r, conn, def, errorText(err), failureStatus(err))
		return
	}
	http.Redirect(w, r, "/admin/"+def.Name+"?notice=deleted", http.StatusSeeOther)
}

// Approve handles POST /admin/testimonials/{id}/approve. The posted
// "approved" field sets the new state.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	def, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if def.Name != "testimonials" {
		h.notFound(w, r)
		return
	}
	conn := h.backend.For(r)
	if err := r.ParseForm(); err != nil {
		h.renderList(w, r, conn, def, "Invalid form submission", http.StatusBadRequest)
		return
	}

	approved := checked(r.PostForm, "approved")
	_, err := conn.API.Testimonials.SetApproved(r.Context(), chi.URLParam(r, "id"), approved)
	if conn.FollowRedirect(w, r) {
		return
	}
	if err != nil {
		h.renderList(w, r, conn, def, errorText(err), failureStatus(err))
		return
	}

	notice := "approved"
	if !approved {
		notice = "unapproved"
	}
	http.Redirect(w, r, "/admin/testimonials?notice="+notice, http.StatusSeeOther)
}

type passwordPage struct {
	page
	Fields []Field
}

// PasswordPage handles GET /admin/password.
func (h *Handler) PasswordPage(w http.ResponseWriter, r *http.Request) {
	conn := h.backend.For(r)
	h.pages.Render(w, http.StatusOK, "password.html", passwordPage{
		page:   h.basePage(r, conn, "Change password", "password"),
		Fields: (&PasswordForm{}).Fields(),
	})
}

// ChangePassword handles POST /admin/password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	conn := h.backend.For(r)
	form := &PasswordForm{}
	data := passwordPage{page: h.basePage(r, conn, "Change password", "password"), Fields: form.Fields()}
	if err := r.ParseForm(); err != nil {
		data.Banner = "Invalid form submission"
		h.pages.Render(w, http.StatusBadRequest, "password.html", data)
		return
	}

	form.Current = r.PostFormValue("currentPassword")
	form.New = r.PostFormValue("newPassword")
	form.Confirm = r.PostFormValue("confirmPassword")
	if err := form.Validate(); err != nil {
		data.Banner = err.Error()
		h.pages.Render(w, http.StatusUnprocessableEntity, "password.html", data)
		return
	}

	err := conn.API.Auth.ChangePassword(r.Context(), form.Payload().(domain.PasswordChange))
	if conn.FollowRedirect(w, r) {
		return
	}
	if err != nil {
		data.Banner = errorText(err)
		h.pages.Render(w, failureStatus(err), "password.html", data)
		return
	}
	http.Redirect(w, r, "/admin?notice=password", http.StatusSeeOther)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (resourceDef, bool) {
	def, ok := h.byName[chi.URLParam(r, "resource")]
	if !ok {
		h.notFound(w, r)
	}
	return def, ok
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	conn := h.backend.For(r)
	h.pages.Render(w, http.StatusNotFound, "notfound.html", h.basePage(r, conn, "Not found", ""))
}

// errorText is the banner text for a failed backend call.
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

// failureStatus passes backend client errors through and reports anything
// else as a bad gateway.
func failureStatus(err error) int {
	if code := apiclient.StatusCode(err); code >= 400 && code < 500 {
		return code
	}
	return http.StatusBadGateway
}
