// Package pagerduty creates incidents through the PagerDuty REST API.
package pagerduty

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PagerDuty/go-pagerduty"

	"github.com/vietddude/sigwatch/internal/core/domain"
)

// Config holds PagerDuty credentials.
type Config struct {
	BaseURL   string
	APIKey    string
	ServiceID string
	Email     string
	Timeout   time.Duration
	// InstanceID is appended to incident details to tell monitors apart.
	InstanceID string
}

// Client implements alerting.Notifier.
type Client struct {
	cfg Config
	api *pagerduty.Client
}

// NewClient creates a PagerDuty client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	var opts []pagerduty.ClientOptions
	if cfg.BaseURL != "" {
		opts = append(opts, pagerduty.WithAPIEndpoint(strings.TrimRight(cfg.BaseURL, "/")))
	}
	api := pagerduty.NewClient(cfg.APIKey, opts...)
	api.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{cfg: cfg, api: api}
}

// Notify creates an incident for alert.
func (c *Client) Notify(ctx context.Context, alert domain.Alert) error {
	opts := &pagerduty.CreateIncidentOptions{
		Type:  "incident",
		Title: alert.Title,
		Service: &pagerduty.APIReference{
			ID:   c.cfg.ServiceID,
			Type: "service_reference",
		},
		Body: &pagerduty.APIDetails{
			Type:    "incident_body",
			Details: c.details(alert),
		},
		IncidentKey: string(alert.ResolvedKey()),
	}

	if _, err := c.api.CreateIncidentWithContext(ctx, c.cfg.Email, opts); err != nil {
		return domain.NewError(domain.KindNotify, "create incident", err)
	}
	return nil
}

func (c *Client) details(alert domain.Alert) string {
	if c.cfg.InstanceID == "" {
		return alert.Details
	}
	return fmt.Sprintf("%s\n\nReported by sigwatch %s at %s",
		alert.Details, c.cfg.InstanceID, alert.RaisedAt.UTC().Format(time.RFC3339))
}
