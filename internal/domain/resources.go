package domain

import (
	"strings"
)

// Normalizer is implemented by every record decoded from the backend.
type Normalizer interface {
	Normalize()
}

// Envelope is the response shape of every backend endpoint.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// Blog is a blog post.
type Blog struct {
	ID          string   `json:"_id,omitempty"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Excerpt     string   `json:"excerpt"`
	Content     string   `json:"content"`
	CoverImage  string   `json:"coverImage"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Author      string   `json:"author"`
	ReadTime    string   `json:"readTime"`
	Published   bool     `json:"published"`
	PublishedAt string   `json:"publishedAt,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
}

// Normalize applies display defaults.
func (b *Blog) Normalize() {
	b.Title = strings.TrimSpace(b.Title)
	if b.Title == "" {
		b.Title = "Untitled post"
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	if b.Category == "" {
		b.Category = "General"
	}
	if b.Author == "" {
		b.Author = "Admin"
	}
	if b.ReadTime == "" {
		b.ReadTime = "1 min read"
	}
	if b.PublishedAt == "" {
		b.PublishedAt = b.CreatedAt
	}
}

// Project is a portfolio work item.
type Project struct {
	ID           string   `json:"_id,omitempty"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Image        string   `json:"image"`
	Technologies []string `json:"technologies"`
	LiveURL      string   `json:"liveUrl,omitempty"`
	GithubURL    string   `json:"githubUrl,omitempty"`
	Category     string   `json:"category"`
	Featured     bool     `json:"featured"`
	Order        int      `json:"order"`
}

// Normalize applies display defaults.
func (p *Project) Normalize() {
	if p.Title == "" {
		p.Title = "Untitled project"
	}
	if p.Technologies == nil {
		p.Technologies = []string{}
	}
	if p.Category == "" {
		p.Category = "Web"
	}
	if p.Image == "" {
		p.Image = "/static/img/placeholder.svg"
	}
}

// Service is an offered service.
type Service struct {
	ID          string   `json:"_id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Features    []string `json:"features"`
	Order       int      `json:"order"`
}

// Normalize applies display defaults.
func (s *Service) Normalize() {
	if s.Title == "" {
		s.Title = "Service"
	}
	if s.Features == nil {
		s.Features = []string{}
	}
	if s.Icon == "" {
		s.Icon = "sparkles"
	}
}

// Testimonial is a client quote.
type Testimonial struct {
	ID       string `json:"_id,omitempty"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Company  string `json:"company"`
	Content  string `json:"content"`
	Avatar   string `json:"avatar"`
	Rating   int    `json:"rating"`
	Approved bool   `json:"approved"`
}

// Normalize applies display defaults and clamps the rating to 1..5.
func (t *Testimonial) Normalize() {
	if t.Name == "" {
		t.Name = "Anonymous"
	}
	switch {
	case t.Rating <= 0:
		t.Rating = 5
	case t.Rating > 5:
		t.Rating = 5
	}
}

// PricingPlan is a pricing tier.
type PricingPlan struct {
	ID       string   `json:"_id,omitempty"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Currency string   `json:"currency"`
	Period   string   `json:"period"`
	Features []string `json:"features"`
	Popular  bool     `json:"popular"`
	CTA      string   `json:"cta"`
}

// Normalize applies display defaults.
func (p *PricingPlan) Normalize() {
	if p.Name == "" {
		p.Name = "Plan"
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	if p.Period == "" {
		p.Period = "project"
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	if p.CTA == "" {
		p.CTA = "Get started"
	}
	if p.Price < 0 {
		p.Price = 0
	}
}

// Skill is a skill with a proficiency level in percent.
type Skill struct {
	ID       string `json:"_id,omitempty"`
	Name     string `json:"name"`
	Level    int    `json:"level"`
	Category string `json:"category"`
	Icon     string `json:"icon,omitempty"`
}

// Normalize clamps the level to 0..100.
func (s *Skill) Normalize() {
	if s.Level < 0 {
		s.Level = 0
	}
	if s.Level > 100 {
		s.Level = 100
	}
	if s.Category == "" {
		s.Category = "Other"
	}
}

// Category groups blog posts and projects.
type Category struct {
	ID          string `json:"_id,omitempty"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// Normalize applies display defaults.
func (c *Category) Normalize() {
	if c.Name == "" {
		c.Name = "Uncategorized"
	}
}

// ContactMessage is a message sent through the contact form.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// Normalize trims user input.
func (c *ContactMessage) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Subject = strings.TrimSpace(c.Subject)
	c.Message = strings.TrimSpace(c.Message)
}
