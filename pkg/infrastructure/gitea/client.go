// Package gitea is a client for the Gitea v1 REST API: issues, comments,
// pull requests and organization repositories.
package gitea

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/golem/pkg/domain/ticket"
	"golang.org/x/oauth2"
)

const (
	// DefaultTimeout bounds every HTTP request.
	DefaultTimeout = 30 * time.Second
	// PageSize is the page size used when scanning issues.
	PageSize = 50

	serviceName     = "gitea"
	maxResponseSize = 10 * 1024 * 1024
	maxIssuePages   = 20
)

// Client talks to one Gitea instance with a personal access token.
type Client struct {
	BaseURL    string
	Org        string
	HTTPClient *http.Client
}

var _ ticket.Forge = (*Client)(nil)

// NewClient fails with a *ticket.ConfigError before any network call when
// the URL, token or default organization is missing.
func NewClient(baseURL, token, org string) (*Client, error) {
	var missing []string
	if baseURL == "" {
		missing = append(missing, "GITEA_URL")
	}
	if token == "" {
		missing = append(missing, "GITEA_TOKEN")
	}
	if org == "" {
		missing = append(missing, "GITEA_ORG")
	}
	if len(missing) > 0 {
		return nil, &ticket.ConfigError{Component: serviceName, Missing: missing}
	}

	httpClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	httpClient.Timeout = DefaultTimeout

	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/") + "/api/v1",
		Org:        org,
		HTTPClient: httpClient,
	}, nil
}

// WithHTTPClient returns a copy using the given HTTP client. The caller is
// responsible for authentication on that client.
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

// RepoPath qualifies a bare repository name with the default organization.
func (c *Client) RepoPath(repo string) string {
	if strings.Contains(repo, "/") {
		return repo
	}
	return c.Org + "/" + repo
}

func (c *Client) buildURL(path string, params url.Values) string {
	u := c.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func (c *Client) doRequest(ctx context.Context, method, urlStr string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
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

	// 204 No Content carries no body to decode.
	if out == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", serviceName, err)
	}
	return nil
}

func (c *Client) issuesPath(repo string) string {
	return "/repos/" + c.RepoPath(repo) + "/issues"
}

func (c *Client) issuePath(repo string, number int) string {
	return c.issuesPath(repo) + "/" + strconv.Itoa(number)
}

// GetIssue fetches one issue.
func (c *Client) GetIssue(ctx context.Context, repo string, number int) (*ticket.Issue, error) {
	var issue ticket.Issue
	if err := c.doRequest(ctx, http.MethodGet, c.buildURL(c.issuePath(repo, number), nil), nil, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// ListIssues returns a single page of issues matching the filter.
func (c *Client) ListIssues(ctx context.Context, repo string, opts ticket.ListIssuesOptions) ([]ticket.Issue, error) {
	return c.listIssuesPage(ctx, repo, opts, 0)
}

func (c *Client) listIssuesPage(ctx context.Context, repo string, opts ticket.ListIssuesOptions, page int) ([]ticket.Issue, error) {
	params := url.Values{}
	if opts.State != "" {
		params.Set("state", opts.State)
	}
	if len(opts.Labels) > 0 {
		params.Set("labels", strings.Join(opts.Labels, ","))
	}
	if page > 0 {
		params.Set("type", "issues")
		params.Set("page", strconv.Itoa(page))
		params.Set("limit", strconv.Itoa(PageSize))
	}

	var issues []ticket.Issue
	if err := c.doRequest(ctx, http.MethodGet, c.buildURL(c.issuesPath(repo), params), nil, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// CreateIssue opens a new issue.
func (c *Client) CreateIssue(ctx context.Context, repo string, payload ticket.IssueCreate) (*ticket.Issue, error) {
	var issue ticket.Issue
	if err := c.doRequest(ctx, http.MethodPost, c.buildURL(c.issuesPath(repo), nil), payload, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// UpdateIssue patches an issue.
func (c *Client) UpdateIssue(ctx context.Context, repo string, number int, update ticket.IssueUpdate) (*ticket.Issue, error) {
	var issue ticket.Issue
	if err := c.doRequest(ctx, http.MethodPatch, c.buildURL(c.issuePath(repo, number), nil), update, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

type commentPayload struct {
	Body string `json:"body"`
}

// AddComment posts a comment on an issue.
func (c *Client) AddComment(ctx context.Context, repo string, number int, body string) error {
	return c.doRequest(ctx, http.MethodPost, c.buildURL(c.issuePath(repo, number)+"/comments", nil), commentPayload{Body: body}, nil)
}

// CloseIssue sets the issue state to closed.
func (c *Client) CloseIssue(ctx context.Context, repo string, number int) (*ticket.Issue, error) {
	closed := "closed"
	return c.UpdateIssue(ctx, repo, number, ticket.IssueUpdate{State: &closed})
}

// FindIssueByTicketID scans open and closed issues for one tagged with the
// display id. An issue whose title carries "[INC-1234]" wins over any issue
// that only names the id as a whole word in its body, whatever page either is
// on. It returns nil when no issue matches.
func (c *Client) FindIssueByTicketID(ctx context.Context, repo, displayID string) (*ticket.Issue, error) {
	tag := "[" + displayID + "]"
	inBody := regexp.MustCompile(`\b` + regexp.QuoteMeta(displayID) + `\b`)
	var bodyMatch *ticket.Issue
	for page := 1; page <= maxIssuePages; page++ {
		issues, err := c.listIssuesPage(ctx, repo, ticket.ListIssuesOptions{State: "all"}, page)
		if err != nil {
			return nil, err
		}
		for i := range issues {
			if strings.Contains(issues[i].Title, tag) {
				return &issues[i], nil
			}
			if bodyMatch == nil && inBody.MatchString(issues[i].Body) {
				bodyMatch = &issues[i]
			}
		}
		if len(issues) < PageSize {
			break
		}
	}
	return bodyMatch, nil
}

func (c *Client) pullPath(repo string, number int) string {
	return "/repos/" + c.RepoPath(repo) + "/pulls/" + strconv.Itoa(number)
}

// GetPullRequest fetches one pull request.
func (c *Client) GetPullRequest(ctx context.Context, repo string, number int) (*ticket.PullRequest, error) {
	var pr ticket.PullRequest
	if err := c.doRequest(ctx, http.MethodGet, c.buildURL(c.pullPath(repo, number), nil), nil, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// CreatePullRequest opens a pull request from head into base.
func (c *Client) CreatePullRequest(ctx context.Context, repo string, payload ticket.PullRequestCreate) (*ticket.PullRequest, error) {
	var pr ticket.PullRequest
	if err := c.doRequest(ctx, http.MethodPost, c.buildURL("/repos/"+c.RepoPath(repo)+"/pulls", nil), payload, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

type mergePayload struct {
	Do                string `json:"Do"`
	MergeTitleField   string `json:"MergeTitleField,omitempty"`
	MergeMessageField string `json:"MergeMessageField,omitempty"`
}

// MergePullRequest merges a pull request, squashing unless another style is given.
func (c *Client) MergePullRequest(ctx context.Context, repo string, number int, opts ticket.MergeOptions) error {
	style := opts.Style
	if style == "" {
		style = ticket.MergeStyleSquash
	}
	payload := mergePayload{Do: string(style), MergeTitleField: opts.Title, MergeMessageField: opts.Message}
	return c.doRequest(ctx, http.MethodPost, c.buildURL(c.pullPath(repo, number)+"/merge", nil), payload, nil)
}

// ListOrgRepos lists repositories of the default organization.
func (c *Client) ListOrgRepos(ctx context.Context) ([]ticket.Repository, error) {
	var repos []ticket.Repository
	if err := c.doRequest(ctx, http.MethodGet, c.buildURL("/orgs/"+c.Org+"/repos", nil), nil, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// GetRepo fetches repository metadata.
func (c *Client) GetRepo(ctx context.Context, repo string) (*ticket.Repository, error) {
	var r ticket.Repository
	if err := c.doRequest(ctx, http.MethodGet, c.buildURL("/repos/"+c.RepoPath(repo), nil), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
