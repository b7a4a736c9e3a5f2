// Package resumeapi is the typed contract of the authenticated resume
// backend, layered on the gateway.
package resumeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/resumeforge/resume-builder-backend/internal/gateway"
)

// Payload is a creation or update body holding only populated fields.
type Payload map[string]interface{}

// Gateway is the transport the client needs.
type Gateway interface {
	Get(ctx context.Context, path string, out interface{}) error
	Post(ctx context.Context, path string, body, out interface{}) error
	Put(ctx context.Context, path string, body, out interface{}) error
	Patch(ctx context.Context, path string, body, out interface{}) error
	Delete(ctx context.Context, path string, out interface{}) error
}

type Resume struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	Summary             string `json:"summary,omitempty"`
	OptimizedSummary    string `json:"optimized_summary,omitempty"`
	ProfessionalTagline string `json:"professional_tagline,omitempty"`
	Status              string `json:"status,omitempty"`
}

// Item is the minimal shape returned by section creation endpoints.
type Item struct {
	ID string `json:"id"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	gateway.TokenResponse
	User json.RawMessage `json:"user,omitempty"`
}

// Sections the backend exposes under /resumes/{id}/.
var Sections = map[string]bool{
	"experiences":    true,
	"educations":     true,
	"projects":       true,
	"certifications": true,
	"skills":         true,
	"languages":      true,
	"interests":      true,
}

type Client struct {
	gw Gateway
}

func New(gw Gateway) *Client {
	return &Client{gw: gw}
}

func (c *Client) CreateResume(ctx context.Context, p Payload) (*Resume, error) {
	var out Resume
	if err := c.gw.Post(ctx, "/resumes/", p, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, fmt.Errorf("create resume: response carried no id")
	}
	return &out, nil
}

func (c *Client) DeleteResume(ctx context.Context, resumeID string) error {
	return c.gw.Delete(ctx, resumePath(resumeID, ""), nil)
}

func (c *Client) UpdatePersonal(ctx context.Context, resumeID string, p Payload) error {
	return c.gw.Put(ctx, resumePath(resumeID, "personal/"), p, nil)
}

func (c *Client) UpdateSummary(ctx context.Context, resumeID, summary string) error {
	return c.gw.Put(ctx, resumePath(resumeID, "summary/"), Payload{"summary": summary}, nil)
}

func (c *Client) UpdateOptimizedSummary(ctx context.Context, resumeID, summary string) error {
	return c.gw.Put(ctx, resumePath(resumeID, "optimized-summary/"), Payload{"optimized_summary": summary}, nil)
}

// CreateSectionItem adds one entry to a list section of the resume.
func (c *Client) CreateSectionItem(ctx context.Context, resumeID, section string, p Payload) (*Item, error) {
	if !Sections[section] {
		return nil, fmt.Errorf("unknown resume section %q", section)
	}
	var out Item
	if err := c.gw.Post(ctx, resumePath(resumeID, section+"/"), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.gw.Post(ctx, "/auth/register/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.gw.Post(ctx, "/auth/login/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.gw.Post(ctx, "/auth/logout/", Payload{"refresh_token": refreshToken}, nil)
}

func resumePath(resumeID, suffix string) string {
	return "/resumes/" + url.PathEscape(resumeID) + "/" + suffix
}
