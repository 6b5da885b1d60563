package admin

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/ashureev/folio/internal/content"
	"github.com/ashureev/folio/internal/domain"
)

// Field is one input of an admin form.
type Field struct {
	Name     string
	Label    string
	Kind     string // text, email, password, url, number, textarea, checkbox, select
	Value    string
	Checked  bool
	Required bool
	Options  []string
	Help     string
}

// Form is the editable state of one record. Values are kept as entered so a
// rejected submission re-renders unchanged.
type Form interface {
	Fields() []Field
	Validate() error
	Payload() any
}

// RequiredError lists the labels of required fields left blank.
type RequiredError struct {
	Labels []string
}

func (e *RequiredError) Error() string {
	return "Please fill in: " + strings.Join(e.Labels, ", ")
}

type requirement struct {
	label string
	value string
}

func requireFields(reqs ...requirement) error {
	var missing []string
	for _, r := range reqs {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.label)
		}
	}
	if len(missing) > 0 {
		return &RequiredError{Labels: missing}
	}
	return nil
}

// splitList splits comma or newline separated input, dropping blanks.
func splitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func checked(v url.Values, name string) bool {
	switch v.Get(name) {
	case "on", "true", "1":
		return true
	}
	return false
}

// BlogForm edits a blog post. Slug and read time are derived on submit.
type BlogForm struct {
	Title, Slug, Excerpt, Content, CoverImage, Category, Tags, Author string
	Published                                                         bool
}

func blogForm(v url.Values, _ bool) Form {
	return &BlogForm{
		Title:      v.Get("title"),
		Slug:       v.Get("slug"),
		Excerpt:    v.Get("excerpt"),
		Content:    v.Get("content"),
		CoverImage: v.Get("coverImage"),
		Category:   v.Get("category"),
		Tags:       v.Get("tags"),
		Author:     v.Get("author"),
		Published:  checked(v, "published"),
	}
}

func blogFormOf(b domain.Blog) Form {
	return &BlogForm{
		Title: b.Title, Slug: b.Slug, Excerpt: b.Excerpt, Content: b.Content, CoverImage: b.CoverImage,
		Category: b.Category, Tags: strings.Join(b.Tags, ", "), Author: b.Author, Published: b.Published,
	}
}

// Fields implements Form.
func (f *BlogForm) Fields() []Field {
	return []Field{
		{Name: "title", Label: "Title", Kind: "text", Value: f.Title, Required: true},
		{Name: "slug", Label: "Slug", Kind: "text", Value: f.Slug, Help: "Leave empty to derive it from the title."},
		{Name: "excerpt", Label: "Excerpt", Kind: "textarea", Value: f.Excerpt},
		{Name: "content", Label: "Content (HTML)", Kind: "textarea", Value: f.Content, Required: true},
		{Name: "coverImage", Label: "Cover image URL", Kind: "url", Value: f.CoverImage},
		{Name: "category", Label: "Category", Kind: "text", Value: f.Category},
		{Name: "tags", Label: "Tags", Kind: "text", Value: f.Tags, Help: "Comma separated."},
		{Name: "author", Label: "Author", Kind: "text", Value: f.Author},
		{Name: "published", Label: "Published", Kind: "checkbox", Checked: f.Published},
	}
}

// Validate implements Form.
func (f *BlogForm) Validate() error {
	return requireFields(requirement{"Title", f.Title}, requirement{"Content", f.Content})
}

// Payload implements Form.
func (f *BlogForm) Payload() any {
	slug := content.Slugify(f.Slug)
	if slug == "" {
		slug = content.Slugify(f.Title)
	}
	excerpt := strings.TrimSpace(f.Excerpt)
	if excerpt == "" {
		excerpt = content.Excerpt(f.Content, 160)
	}
	return domain.Blog{
		Title:      strings.TrimSpace(f.Title),
		Slug:       slug,
		Excerpt:    excerpt,
		Content:    f.Content,
		CoverImage: strings.TrimSpace(f.CoverImage),
		Category:   strings.TrimSpace(f.Category),
		Tags:       splitList(f.Tags),
		Author:     strings.TrimSpace(f.Author),
		ReadTime:   content.ReadTime(f.Content),
		Published:  f.Published,
	}
}

// ProjectForm edits a portfolio project.
type ProjectForm struct {
	Title, Description, Image, Technologies, LiveURL, GithubURL, Category, Order string
	Featured                                                                     bool
}

func projectForm(v url.Values, _ bool) Form {
	return &ProjectForm{
		Title:        v.Get("title"),
		Description:  v.Get("description"),
		Image:        v.Get("image"),
		Technologies: v.Get("technologies"),
		LiveURL:      v.Get("liveUrl"),
		GithubURL:    v.Get("githubUrl"),
		Category:     v.Get("category"),
		Order:        v.Get("order"),
		Featured:     checked(v, "featured"),
	}
}

func projectFormOf(p domain.Project) Form {
	return &ProjectForm{
		Title: p.Title, Description: p.Description, Image: p.Image, Technologies: strings.Join(p.Technologies, ", "),
		LiveURL: p.LiveURL, GithubURL: p.GithubURL, Category: p.Category, Order: itoa(p.Order), Featured: p.Featured,
	}
}

// Fields implements Form.
func (f *ProjectForm) Fields() []Field {
	return []Field{
		{Name: "title", Label: "Title", Kind: "text", Value: f.Title, Required: true},
		{Name: "description", Label: "Description", Kind: "textarea", Value: f.Description, Required: true},
		{Name: "image", Label: "Image URL", Kind: "url", Value: f.Image},
		{Name: "technologies", Label: "Technologies", Kind: "text", Value: f.Technologies, Help: "Comma separated."},
		{Name: "liveUrl", Label: "Live URL", Kind: "url", Value: f.LiveURL},
		{Name: "githubUrl", Label: "Source URL", Kind: "url", Value: f.GithubURL},
		{Name: "category", Label: "Category", Kind: "text", Value: f.Category},
		{Name: "order", Label: "Order", Kind: "number", Value: f.Order},
		{Name: "featured", Label: "Featured", Kind: "checkbox", Checked: f.Featured},
	}
}

// Validate implements Form.
func (f *ProjectForm) Validate() error {
	return requireFields(requirement{"Title", f.Title}, requirement{"Description", f.Description})
}

// Payload implements Form.
func (f *ProjectForm) Payload() any {
	return domain.Project{
		Title:        strings.TrimSpace(f.Title),
		Description:  strings.TrimSpace(f.Description),
		Image:        strings.TrimSpace(f.Image),
		Technologies: splitList(f.Technologies),
		LiveURL:      strings.TrimSpace(f.LiveURL),
		GithubURL:    strings.TrimSpace(f.GithubURL),
		Category:     strings.TrimSpace(f.Category),
		Featured:     f.Featured,
		Order:        atoi(f.Order),
	}
}

// ServiceForm edits an offered service.
type ServiceForm struct {
	Title, Description, Icon, Features, Order string
}

func serviceForm(v url.Values, _ bool) Form {
	return &ServiceForm{
		Title:       v.Get("title"),
		Description: v.Get("description"),
		Icon:        v.Get("icon"),
		Features:    v.Get("features"),
		Order:       v.Get("order"),
	}
}

func serviceFormOf(s domain.Service) Form {
	return &ServiceForm{
		Title: s.Title, Description: s.Description, Icon: s.Icon,
		Features: strings.Join(s.Features, "\n"), Order: itoa(s.Order),
	}
}

// Fields implements Form.
func (f *ServiceForm) Fields() []Field {
	return []Field{
		{Name: "title", Label: "Title", Kind: "text", Value: f.Title, Required: true},
		{Name: "description", Label: "Description", Kind: "textarea", Value: f.Description, Required: true},
		{Name: "icon", Label: "Icon", Kind: "text", Value: f.Icon},
		{Name: "features", Label: "Features", Kind: "textarea", Value: f.Features, Help: "One per line."},
		{Name: "order", Label: "Order", Kind: "number", Value: f.Order},
	}
}

// Validate implements Form.
func (f *ServiceForm) Validate() error {
	return requireFields(requirement{"Title", f.Title}, requirement{"Description", f.Description})
}

// Payload implements Form.
func (f *ServiceForm) Payload() any {
	return domain.Service{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Icon:        strings.TrimSpace(f.Icon),
		Features:    splitList(f.Features),
		Order:       atoi(f.Order),
	}
}

// PricingForm edits a pricing plan.
type PricingForm struct {
	Name, Price, Currency, Period, Features, CTA string
	Popular                                      bool
}

func pricingForm(v url.Values, _ bool) Form {
	return &PricingForm{
		Name:     v.Get("name"),
		Price:    v.Get("price"),
		Currency: v.Get("currency"),
		Period:   v.Get("period"),
		Features: v.Get("features"),
		CTA:      v.Get("cta"),
		Popular:  checked(v, "popular"),
	}
}

func pricingFormOf(p domain.PricingPlan) Form {
	return &PricingForm{
		Name: p.Name, Price: strconv.FormatFloat(p.Price, 'f', -1, 64), Currency: p.Currency, Period: p.Period,
		Features: strings.Join(p.Features, "\n"), CTA: p.CTA, Popular: p.Popular,
	}
}

// Fields implements Form.
func (f *PricingForm) Fields() []Field {
	return []Field{
		{Name: "name", Label: "Name", Kind: "text", Value: f.Name, Required: true},
		{Name: "price", Label: "Price", Kind: "number", Value: f.Price, Required: true},
		{Name: "currency", Label: "Currency", Kind: "select", Value: f.Currency, Options: []string{"USD", "EUR", "GBP"}},
		{Name: "period", Label: "Period", Kind: "text", Value: f.Period, Help: "e.g. project, month"},
		{Name: "features", Label: "Features", Kind: "textarea", Value: f.Features, Help: "One per line."},
		{Name: "cta", Label: "Button label", Kind: "text", Value: f.CTA},
		{Name: "popular", Label: "Highlight as popular", Kind: "checkbox", Checked: f.Popular},
	}
}

// Validate implements Form.
func (f *PricingForm) Validate() error {
	return requireFields(requirement{"Name", f.Name}, requirement{"Price", f.Price})
}

// Payload implements Form.
func (f *PricingForm) Payload() any {
	price, _ := strconv.ParseFloat(strings.TrimSpace(f.Price), 64)
	return domain.PricingPlan{
		Name:     strings.TrimSpace(f.Name),
		Price:    price,
		Currency: strings.TrimSpace(f.Currency),
		Period:   strings.TrimSpace(f.Period),
		Features: splitList(f.Features),
		Popular:  f.Popular,
		CTA:      strings.TrimSpace(f.CTA),
	}
}

// TestimonialForm edits a testimonial.
type TestimonialForm struct {
	Name, Role, Company, Content, Avatar, Rating string
	Approved                                     bool
}

func testimonialForm(v url.Values, _ bool) Form {
	return &TestimonialForm{
		Name:     v.Get("name"),
		Role:     v.Get("role"),
		Company:  v.Get("company"),
		Content:  v.Get("content"),
		Avatar:   v.Get("avatar"),
		Rating:   v.Get("rating"),
		Approved: checked(v, "approved"),
	}
}

func testimonialFormOf(t domain.Testimonial) Form {
	return &TestimonialForm{
		Name: t.Name, Role: t.Role, Company: t.Company, Content: t.Content, Avatar: t.Avatar,
		Rating: itoa(t.Rating), Approved: t.Approved,
	}
}

// Fields implements Form.
func (f *TestimonialForm) Fields() []Field {
	return []Field{
		{Name: "name", Label: "Name", Kind: "text", Value: f.Name, Required: true},
		{Name: "role", Label: "Role", Kind: "text", Value: f.Role},
		{Name: "company", Label: "Company", Kind: "text", Value: f.Company},
		{Name: "content", Label: "Quote", Kind: "textarea", Value: f.Content, Required: true},
		{Name: "avatar", Label: "Avatar URL", Kind: "url", Value: f.Avatar},
		{Name: "rating", Label: "Rating", Kind: "select", Value: f.Rating, Options: []string{"5", "4", "3", "2", "1"}},
		{Name: "approved", Label: "Approved", Kind: "checkbox", Checked: f.Approved},
	}
}

// Validate implements Form.
func (f *TestimonialForm) Validate() error {
	return requireFields(requirement{"Name", f.Name}, requirement{"Quote", f.Content})
}

// Payload implements Form.
func (f *TestimonialForm) Payload() any {
	t := domain.Testimonial{
		Name:     strings.TrimSpace(f.Name),
		Role:     strings.TrimSpace(f.Role),
		Company:  strings.TrimSpace(f.Company),
		Content:  strings.TrimSpace(f.Content),
		Avatar:   strings.TrimSpace(f.Avatar),
		Rating:   atoi(f.Rating),
		Approved: f.Approved,
	}
	t.Normalize()
	return t
}

// SkillForm edits a skill.
type SkillForm struct {
	Name, Level, Category, Icon string
}

func skillForm(v url.Values, _ bool) Form {
	return &SkillForm{
		Name:     v.Get("name"),
		Level:    v.Get("level"),
		Category: v.Get("category"),
		Icon:     v.Get("icon"),
	}
}

func skillFormOf(s domain.Skill) Form {
	return &SkillForm{Name: s.Name, Level: strconv.Itoa(s.Level), Category: s.Category, Icon: s.Icon}
}

// Fields implements Form.
func (f *SkillForm) Fields() []Field {
	return []Field{
		{Name: "name", Label: "Name", Kind: "text", Value: f.Name, Required: true},
		{Name: "level", Label: "Level (0-100)", Kind: "number", Value: f.Level, Required: true},
		{Name: "category", Label: "Category", Kind: "text", Value: f.Category},
		{Name: "icon", Label: "Icon", Kind: "text", Value: f.Icon},
	}
}

// Validate implements Form.
func (f *SkillForm) Validate() error {
	return requireFields(requirement{"Name", f.Name}, requirement{"Level", f.Level})
}

// Payload implements Form.
func (f *SkillForm) Payload() any {
	s := domain.Skill{
		Name:     strings.TrimSpace(f.Name),
		Level:    atoi(f.Level),
		Category: strings.TrimSpace(f.Category),
		Icon:     strings.TrimSpace(f.Icon),
	}
	s.Normalize()
	return s
}

// CategoryForm edits a category. An empty slug is derived from the name.
type CategoryForm struct {
	Name, Slug, Description string
}

func categoryForm(v url.Values, _ bool) Form {
	return &CategoryForm{Name: v.Get("name"), Slug: v.Get("slug"), Description: v.Get("description")}
}

func categoryFormOf(c domain.Category) Form {
	return &CategoryForm{Name: c.Name, Slug: c.Slug, Description: c.Description}
}

// Fields implements Form.
func (f *CategoryForm) Fields() []Field {
	return []Field{
		{Name: "name", Label: "Name", Kind: "text", Value: f.Name, Required: true},
		{Name: "slug", Label: "Slug", Kind: "text", Value: f.Slug, Help: "Leave empty to derive it from the name."},
		{Name: "description", Label: "Description", Kind: "textarea", Value: f.Description},
	}
}

// Validate implements Form.
func (f *CategoryForm) Validate() error {
	return requireFields(requirement{"Name", f.Name})
}

// Payload implements Form.
func (f *CategoryForm) Payload() any {
	slug := content.Slugify(f.Slug)
	if slug == "" {
		slug = content.Slugify(f.Name)
	}
	return domain.Category{Name: strings.TrimSpace(f.Name), Slug: slug, Description: strings.TrimSpace(f.Description)}
}

// UserForm edits a back-office account. The password is required only when
// creating; an empty password on edit leaves it unchanged.
type UserForm struct {
	Name, Email, Role, Password string
	Creating                    bool
}

type userPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password,omitempty"`
}

func userForm(v url.Values, creating bool) Form {
	return &UserForm{
		Name:     v.Get("name"),
		Email:    v.Get("email"),
		Role:     v.Get("role"),
		Password: v.Get("password"),
		Creating: creating,
	}
}

func userFormOf(u domain.User) Form {
	return &UserForm{Name: u.Name, Email: u.Email, Role: u.Role}
}

// Fields implements Form.
func (f *UserForm) Fields() []Field {
	password := Field{Name: "password", Label: "Password", Kind: "password", Required: f.Creating}
	if !f.Creating {
		password.Help = "Leave empty to keep the current password."
	}
	return []Field{
		{Name: "name", Label: "Name", Kind: "text", Value: f.Name, Required: true},
		{Name: "email", Label: "Email", Kind: "email", Value: f.Email, Required: true},
		{Name: "role", Label: "Role", Kind: "select", Value: f.Role, Options: []string{domain.RoleUser, domain.RoleAdmin}},
		password,
	}
}

// Validate implements Form.
func (f *UserForm) Validate() error {
	reqs := []requirement{{"Name", f.Name}, {"Email", f.Email}}
	if f.Creating {
		reqs = append(reqs, requirement{"Password", f.Password})
	}
	return requireFields(reqs...)
}

// Payload implements Form.
func (f *UserForm) Payload() any {
	role := f.Role
	if role != domain.RoleAdmin {
		role = domain.RoleUser
	}
	return userPayload{
		Name:     strings.TrimSpace(f.Name),
		Email:    strings.TrimSpace(f.Email),
		Role:     role,
		Password: f.Password,
	}
}

// PasswordForm changes the signed-in admin's password.
type PasswordForm struct {
	Current, New, Confirm string
}

// Fields implements Form.
func (f *PasswordForm) Fields() []Field {
	return []Field{
		{Name: "currentPassword", Label: "Current password", Kind: "password", Required: true},
		{Name: "newPassword", Label: "New password", Kind: "password", Required: true},
		{Name: "confirmPassword", Label: "Confirm new password", Kind: "password", Required: true},
	}
}

// Validate implements Form.
func (f *PasswordForm) Validate() error {
	if err := requireFields(
		requirement{"Current password", f.Current},
		requirement{"New password", f.New},
		requirement{"Confirm new password", f.Confirm},
	); err != nil {
		return err
	}
	if f.New != f.Confirm {
		return errPasswordMismatch
	}
	return nil
}

// Payload implements Form.
func (f *PasswordForm) Payload() any {
	return domain.PasswordChange{CurrentPassword: f.Current, NewPassword: f.New}
}
