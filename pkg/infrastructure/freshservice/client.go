// Package freshservice is a client for the Freshservice v2 REST API, covering
// the ticket and note calls the sync engine needs.
package freshservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/golem/pkg/domain/ticket"
)

const (
	// DefaultTimeout bounds every HTTP request.
	DefaultTimeout = 30 * time.Second
	// StatusOpen and StatusClosed are the Freshservice ticket status codes.
	StatusOpen   = 2
	StatusClosed = 5

	serviceName     = "freshservice"
	maxResponseSize = 10 * 1024 * 1024
)

// Client talks to a single Freshservice domain using API key basic auth.
type Client struct {
	Domain     string
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

var _ ticket.Helpdesk = (*Client)(nil)

// NewClient fails with a *ticket.ConfigError before any network call when
// the domain or key is missing.
func NewClient(domain, apiKey string) (*Client, error) {
	var missing []string
	if domain == "" {
		missing = append(missing, "FRESH_DOMAIN")
	}
	if apiKey == "" {
		missing = append(missing, "FRESH_API_KEY")
	}
	if len(missing) > 0 {
		return nil, &ticket.ConfigError{Component: serviceName, Missing: missing}
	}

	return &Client{
		Domain:     domain,
		APIKey:     apiKey,
		BaseURL:    "https://" + domain + "/api/v2",
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}, nil
}

// WithHTTPClient returns a copy using the given HTTP client.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	clone := *c
	clone.HTTPClient = httpClient
	return &clone
}

// WithBaseURL returns a copy pointed at another API root.
func (c *Client) WithBaseURL(baseURL string) *Client {
	clone := *c
	clone.BaseURL = strings.TrimRight(baseURL, "/")
	return &clone
}

// TicketURL is the agent portal link for a ticket.
func (c *Client) TicketURL(id int64) string {
	return fmt.Sprintf("https://%s/a/tickets/%d", c.Domain, id)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.APIKey, "X")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", serviceName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", serviceName, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ticket.RemoteError{Service: serviceName, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", serviceName, err)
	}
	return nil
}

type ticketEnvelope struct {
	Ticket ticket.FreshTicket `json:"ticket"`
}

type createEnvelope struct {
	Ticket ticket.FreshTicketCreate `json:"ticket"`
}

type updateEnvelope struct {
	Ticket ticket.FreshTicketUpdate `json:"ticket"`
}

type ticketsEnvelope struct {
	Tickets []ticket.FreshTicket `json:"tickets"`
}

type notePayload struct {
	Body    string `json:"body"`
	Private bool   `json:"private"`
}

func ticketPath(id int64) string {
	return "/tickets/" + strconv.FormatInt(id, 10)
}

// CreateTicket creates a ticket and returns it as stored by the helpdesk.
func (c *Client) CreateTicket(ctx context.Context, payload ticket.FreshTicketCreate) (*ticket.FreshTicket, error) {
	var env ticketEnvelope
	if err := c.doRequest(ctx, http.MethodPost, "/tickets", createEnvelope{Ticket: payload}, &env); err != nil {
		return nil, err
	}
	return &env.Ticket, nil
}

// GetTicket fetches one ticket by number.
func (c *Client) GetTicket(ctx context.Context, id int64) (*ticket.FreshTicket, error) {
	var env ticketEnvelope
	if err := c.doRequest(ctx, http.MethodGet, ticketPath(id), nil, &env); err != nil {
		return nil, err
	}
	return &env.Ticket, nil
}

// UpdateTicket applies a partial update.
func (c *Client) UpdateTicket(ctx context.Context, id int64, update ticket.FreshTicketUpdate) (*ticket.FreshTicket, error) {
	var env ticketEnvelope
	if err := c.doRequest(ctx, http.MethodPut, ticketPath(id), updateEnvelope{Ticket: update}, &env); err != nil {
		return nil, err
	}
	return &env.Ticket, nil
}

// AddNote attaches a note to a ticket.
func (c *Client) AddNote(ctx context.Context, id int64, body string, private bool) error {
	return c.doRequest(ctx, http.MethodPost, ticketPath(id)+"/notes", notePayload{Body: body, Private: private}, nil)
}

// CloseTicket records the resolution as a private note, then sets the closed status.
func (c *Client) CloseTicket(ctx context.Context, id int64, resolution string) (*ticket.FreshTicket, error) {
	if resolution != "" {
		if err := c.AddNote(ctx, id, "**Resolution:**\n"+resolution, true); err != nil {
			return nil, err
		}
	}
	return c.UpdateTicket(ctx, id, ticket.FreshTicketUpdate{Status: StatusClosed})
}

// ListMyTickets returns new and open tickets assigned to the API key's agent.
func (c *Client) ListMyTickets(ctx context.Context) ([]ticket.FreshTicket, error) {
	var env ticketsEnvelope
	if err := c.doRequest(ctx, http.MethodGet, "/tickets?filter=new_and_my_open", nil, &env); err != nil {
		return nil, err
	}
	return env.Tickets, nil
}
