package admin

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/ashureev/folio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlogFormDerivesSlugAndReadTime(t *testing.T) {
	body := "<p>" + strings.Repeat("word ", 450) + "</p>"
	form := blogForm(url.Values{
		"title":     {"Hello, World! 2024"},
		"content":   {body},
		"tags":      {"go, web,, notes"},
		"published": {"on"},
	}, true)
	require.NoError(t, form.Validate())

	blog := form.Payload().(domain.Blog)
	assert.Equal(t, "hello-world-2024", blog.Slug)
	assert.Equal(t, "3 min read", blog.ReadTime)
	assert.Equal(t, []string{"go", "web", "notes"}, blog.Tags)
	assert.True(t, blog.Published)
	assert.NotEmpty(t, blog.Excerpt)
}

func TestBlogFormExplicitSlug(t *testing.T) {
	form := blogForm(url.Values{"title": {"Ignored"}, "slug": {"My Custom Slug"}, "content": {"x"}}, true)
	assert.Equal(t, "my-custom-slug", form.Payload().(domain.Blog).Slug)
}

func TestFormRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		form    Form
		missing []string
	}{
		{"blog", blogForm(url.Values{}, true), []string{"Title", "Content"}},
		{"blog whitespace", blogForm(url.Values{"title": {"  "}, "content": {"x"}}, true), []string{"Title"}},
		{"project", projectForm(url.Values{"title": {"a"}}, true), []string{"Description"}},
		{"pricing", pricingForm(url.Values{"name": {"Basic"}}, true), []string{"Price"}},
		{"testimonial", testimonialForm(url.Values{}, true), []string{"Name", "Quote"}},
		{"category", categoryForm(url.Values{}, true), []string{"Name"}},
		{"user create", userForm(url.Values{"name": {"a"}, "email": {"a@b"}}, true), []string{"Password"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate()
			var reqErr *RequiredError
			require.ErrorAs(t, err, &reqErr)
			assert.Equal(t, tt.missing, reqErr.Labels)
		})
	}
}

func TestUserFormEditKeepsPassword(t *testing.T) {
	form := userForm(url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "role": {"superuser"}}, false)
	require.NoError(t, form.Validate())

	data, err := json.Marshal(form.Payload())
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada","email":"ada@example.com","role":"user"}`, string(data))
}

func TestCategoryFormSlugFromName(t *testing.T) {
	form := categoryForm(url.Values{"name": {"Développement Web"}}, true)
	assert.Equal(t, "developpement-web", form.Payload().(domain.Category).Slug)
}

func TestFormFieldsKeepEnteredValues(t *testing.T) {
	form := projectForm(url.Values{"title": {"Rocket"}, "featured": {"on"}, "order": {"3"}}, true)

	values := map[string]Field{}
	for _, f := range form.Fields() {
		values[f.Name] = f
	}
	assert.Equal(t, "Rocket", values["title"].Value)
	assert.True(t, values["featured"].Checked)
	assert.Equal(t, "3", values["order"].Value)
	assert.Equal(t, 3, form.Payload().(domain.Project).Order)
}

func TestPasswordFormMismatch(t *testing.T) {
	form := &PasswordForm{Current: "old", New: "a", Confirm: "b"}
	assert.ErrorIs(t, form.Validate(), errPasswordMismatch)

	form.Confirm = "a"
	require.NoError(t, form.Validate())
	assert.Equal(t, domain.PasswordChange{CurrentPassword: "old", NewPassword: "a"}, form.Payload())
}

func TestRowDefinitionsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, def := range definitions() {
		assert.False(t, seen[def.Name], def.Name)
		seen[def.Name] = true
		assert.NotEmpty(t, def.Columns)
	}
	assert.Len(t, seen, 8)
}
