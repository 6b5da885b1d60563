package admin

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/ashureev/folio/internal/domain"
	"github.com/ashureev/folio/internal/resource"
)

var errPasswordMismatch = errors.New("The new passwords do not match")

// crud is the part of a resource collection the back-office uses.
type crud[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, payload any) (T, error)
	Update(ctx context.Context, id string, payload any) (T, error)
	Delete(ctx context.Context, id string) error
}

// Row is one line of a resource list.
type Row struct {
	ID         string
	Cells      []string
	Approvable bool
	Approved   bool
}

// resourceDef describes one editable collection with the record type erased,
// so every screen is served by the same handlers.
type resourceDef struct {
	Name     string
	Title    string
	Singular string
	Columns  []string

	list   func(ctx context.Context, api *resource.API) ([]Row, error)
	load   func(ctx context.Context, api *resource.API, id string) (Form, error)
	parse  func(v url.Values, creating bool) Form
	create func(ctx context.Context, api *resource.API, payload any) error
	update func(ctx context.Context, api *resource.API, id string, payload any) error
	remove func(ctx context.Context, api *resource.API, id string) error
}

func define[T any](
	name, title, singular string,
	columns []string,
	coll func(*resource.API) crud[T],
	row func(T) Row,
	parse func(url.Values, bool) Form,
	formOf func(T) Form,
) resourceDef {
	return resourceDef{
		Name:     name,
		Title:    title,
		Singular: singular,
		Columns:  columns,
		list: func(ctx context.Context, api *resource.API) ([]Row, error) {
			items, err := coll(api).List(ctx)
			if err != nil {
				return nil, err
			}
			rows := make([]Row, 0, len(items))
			for _, it := range items {
				rows = append(rows, row(it))
			}
			return rows, nil
		},
		load: func(ctx context.Context, api *resource.API, id string) (Form, error) {
			item, err := coll(api).Get(ctx, id)
			if err != nil {
				return nil, err
			}
			return formOf(item), nil
		},
		parse: parse,
		create: func(ctx context.Context, api *resource.API, payload any) error {
			_, err := coll(api).Create(ctx, payload)
			return err
		},
		update: func(ctx context.Context, api *resource.API, id string, payload any) error {
			_, err := coll(api).Update(ctx, id, payload)
			return err
		},
		remove: func(ctx context.Context, api *resource.API, id string) error {
			return coll(api).Delete(ctx, id)
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// definitions lists the editable collections in navigation order.
func definitions() []resourceDef {
	return []resourceDef{
		define("blogs", "Blog posts", "blog post",
			[]string{"Title", "Slug", "Category", "Read time", "Published"},
			func(api *resource.API) crud[domain.Blog] { return api.Blogs },
			func(b domain.Blog) Row {
				return Row{ID: b.ID, Cells: []string{b.Title, b.Slug, b.Category, b.ReadTime, yesNo(b.Published)}}
			},
			blogForm, blogFormOf),
		define("projects", "Projects", "project",
			[]string{"Title", "Category", "Featured", "Order"},
			func(api *resource.API) crud[domain.Project] { return api.Projects },
			func(p domain.Project) Row {
				return Row{ID: p.ID, Cells: []string{p.Title, p.Category, yesNo(p.Featured), strconv.Itoa(p.Order)}}
			},
			projectForm, projectFormOf),
		define("services", "Services", "service",
			[]string{"Title", "Features", "Order"},
			func(api *resource.API) crud[domain.Service] { return api.Services },
			func(s domain.Service) Row {
				return Row{ID: s.ID, Cells: []string{s.Title, strconv.Itoa(len(s.Features)), strconv.Itoa(s.Order)}}
			},
			serviceForm, serviceFormOf),
		define("pricing", "Pricing", "pricing plan",
			[]string{"Name", "Price", "Period", "Popular"},
			func(api *resource.API) crud[domain.PricingPlan] { return api.Pricing },
			func(p domain.PricingPlan) Row {
				price := strconv.FormatFloat(p.Price, 'f', -1, 64) + " " + p.Currency
				return Row{ID: p.ID, Cells: []string{p.Name, price, p.Period, yesNo(p.Popular)}}
			},
			pricingForm, pricingFormOf),
		define("testimonials", "Testimonials", "testimonial",
			[]string{"Name", "Company", "Rating", "Approved"},
			func(api *resource.API) crud[domain.Testimonial] { return api.Testimonials },
			func(t domain.Testimonial) Row {
				return Row{
					ID:         t.ID,
					Cells:      []string{t.Name, t.Company, strconv.Itoa(t.Rating), yesNo(t.Approved)},
					Approvable: true,
					Approved:   t.Approved,
				}
			},
			testimonialForm, testimonialFormOf),
		define("skills", "Skills", "skill",
			[]string{"Name", "Category", "Level"},
			func(api *resource.API) crud[domain.Skill] { return api.Skills },
			func(s domain.Skill) Row {
				return Row{ID: s.ID, Cells: []string{s.Name, s.Category, strconv.Itoa(s.Level) + "%"}}
			},
			skillForm, skillFormOf),
		define("categories", "Categories", "category",
			[]string{"Name", "Slug"},
			func(api *resource.API) crud[domain.Category] { return api.Categories },
			func(c domain.Category) Row {
				return Row{ID: c.ID, Cells: []string{c.Name, c.Slug}}
			},
			categoryForm, categoryFormOf),
		define("users", "Users", "user",
			[]string{"Name", "Email", "Role"},
			func(api *resource.API) crud[domain.User] { return api.Users },
			func(u domain.User) Row {
				return Row{ID: u.ID, Cells: []string{u.Name, u.Email, u.Role}}
			},
			userForm, userFormOf),
	}
}
