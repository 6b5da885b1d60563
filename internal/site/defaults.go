package site

import (
	"fmt"

	"github.com/ashureev/folio/internal/domain"
	"github.com/ashureev/folio/web"
	"gopkg.in/yaml.v3"
)

// Owner describes the person the portfolio belongs to.
type Owner struct {
	Name     string   `yaml:"name"`
	Title    string   `yaml:"title"`
	Tagline  string   `yaml:"tagline"`
	Email    string   `yaml:"email"`
	Location string   `yaml:"location"`
	Socials  []Social `yaml:"socials"`
}

// Social is a profile link.
type Social struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Experience is one entry of the about page timeline.
type Experience struct {
	Role    string `yaml:"role"`
	Company string `yaml:"company"`
	Period  string `yaml:"period"`
	Summary string `yaml:"summary"`
}

// Defaults is the hardcoded content shown for sections the backend leaves empty.
type Defaults struct {
	Owner Owner `yaml:"owner"`
	About struct {
		Bio        []string     `yaml:"bio"`
		Experience []Experience `yaml:"experience"`
	} `yaml:"about"`
	Services     []domain.Service     `yaml:"services"`
	Projects     []domain.Project     `yaml:"projects"`
	Testimonials []domain.Testimonial `yaml:"testimonials"`
	Pricing      []domain.PricingPlan `yaml:"pricing"`
	Skills       []domain.Skill       `yaml:"skills"`
}

// LoadDefaults reads the embedded defaults.yaml.
func LoadDefaults() (*Defaults, error) {
	data, err := web.Content("defaults.yaml")
	if err != nil {
		return nil, err
	}
	return ParseDefaults(data)
}

// ParseDefaults decodes defaults YAML and normalizes every record.
func ParseDefaults(data []byte) (*Defaults, error) {
	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse defaults: %w", err)
	}
	normalizeAll(d.Services)
	normalizeAll(d.Projects)
	normalizeAll(d.Testimonials)
	normalizeAll(d.Pricing)
	normalizeAll(d.Skills)
	return &d, nil
}

func normalizeAll[T any, P interface {
	*T
	domain.Normalizer
}](items []T) {
	for i := range items {
		P(&items[i]).Normalize()
	}
}
