// Package feagi is the REST client for the FEAGI API: magic link
// resolution, agent registration, and burst-engine queries.
package feagi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"resty.dev/v3"

	"github.com/Kakcalu13/webots-controllers/internal/capability"
)

// ConnectionSettings is what a studio magic link resolves to. Fields left
// zero by the studio keep their flag-provided values.
type ConnectionSettings struct {
	Host     string `json:"feagi_host"`
	APIPort  int    `json:"feagi_api_port"`
	DataPort int    `json:"feagi_data_port"`
	MagicID  string `json:"magic_id"`
}

// Registration is the agent document sent to FEAGI when the embodiment
// comes online.
type Registration struct {
	AgentType         string                  `json:"agent_type"`
	AgentID           string                  `json:"agent_id"`
	AgentDataPort     int                     `json:"agent_data_port,omitempty"`
	ControllerVersion string                  `json:"controller_version"`
	Capabilities      capability.Capabilities `json:"capabilities"`
}

// Session is FEAGI's answer to a successful registration.
type Session struct {
	AgentID        string  `json:"agent_id"`
	SessionToken   string  `json:"session_token,omitempty"`
	BurstFrequency float64 `json:"burst_frequency,omitempty"`
}

// Client talks to one FEAGI instance.
type Client struct {
	rest       *resty.Client
	apiVersion string
	logger     *slog.Logger
}

// NewClient builds a client for the FEAGI API at baseURL (scheme + host +
// api port).
func NewClient(baseURL, apiVersion string, logger *slog.Logger) *Client {
	rest := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond)

	return &Client{
		rest:       rest,
		apiVersion: apiVersion,
		logger:     logger.With("component", "feagi_api"),
	}
}

// Close releases the underlying HTTP resources.
func (c *Client) Close() error {
	return c.rest.Close()
}

// HealthCheck probes the API before registration so connection problems
// surface as one clear error instead of a failed register call.
func (c *Client) HealthCheck(ctx context.Context) error {
	res, err := c.rest.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/%s/feagi/health_check", c.apiVersion))
	if err != nil {
		return fmt.Errorf("FEAGI health check failed: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("FEAGI health check returned %s", res.Status())
	}
	c.logger.Debug("FEAGI health check passed.")
	return nil
}

// Register announces the agent and its capability document to FEAGI.
func (c *Client) Register(ctx context.Context, reg Registration) (*Session, error) {
	var session Session
	res, err := c.rest.R().
		SetContext(ctx).
		SetBody(reg).
		SetResult(&session).
		Post(fmt.Sprintf("/%s/agent/register", c.apiVersion))
	if err != nil {
		return nil, fmt.Errorf("agent registration failed: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("agent registration rejected: %s: %s", res.Status(), res.String())
	}
	if session.AgentID == "" {
		session.AgentID = reg.AgentID
	}
	c.logger.Info("Agent registered with FEAGI.", "agent_id", session.AgentID)
	return &session, nil
}

// Deregister removes the agent from FEAGI. Best effort on shutdown.
func (c *Client) Deregister(ctx context.Context, agentID string) error {
	res, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("agent_id", agentID).
		Delete(fmt.Sprintf("/%s/agent/deregister", c.apiVersion))
	if err != nil {
		return fmt.Errorf("agent deregistration failed: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("agent deregistration rejected: %s", res.Status())
	}
	return nil
}

// StimulationPeriod fetches the burst engine's current period.
func (c *Client) StimulationPeriod(ctx context.Context) (time.Duration, error) {
	var body struct {
		StimulationPeriod float64 `json:"stimulation_period"`
	}
	res, err := c.rest.R().
		SetContext(ctx).
		SetResult(&body).
		Get(fmt.Sprintf("/%s/burst_engine/stimulation_period", c.apiVersion))
	if err != nil {
		return 0, fmt.Errorf("failed to fetch stimulation period: %w", err)
	}
	if res.IsError() {
		return 0, fmt.Errorf("stimulation period query returned %s", res.Status())
	}
	if body.StimulationPeriod <= 0 {
		return 0, fmt.Errorf("FEAGI reported non-positive stimulation period %v", body.StimulationPeriod)
	}
	return time.Duration(body.StimulationPeriod * float64(time.Second)), nil
}

// ResolveMagicLink fetches the connection settings a studio magic link
// points at. The link itself is the full URL handed to the user.
func ResolveMagicLink(ctx context.Context, link string, logger *slog.Logger) (*ConnectionSettings, error) {
	rest := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2)
	defer rest.Close()

	var settings ConnectionSettings
	res, err := rest.R().
		SetContext(ctx).
		SetResult(&settings).
		Get(link)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve magic link: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("magic link rejected: %s", res.Status())
	}
	if settings.Host == "" {
		return nil, fmt.Errorf("magic link response carried no FEAGI host")
	}
	logger.Info("Magic link resolved.", "host", settings.Host, "api_port", settings.APIPort)
	return &settings, nil
}
