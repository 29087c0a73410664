package gitea

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/felixgeelhaar/golem/pkg/domain/ticket"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, func() []recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []recordedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			if err := json.Unmarshal(data, &rec.Body); err != nil {
				t.Errorf("request body is not JSON: %v", err)
			}
		}
		mu.Lock()
		requests = append(requests, rec)
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, "tok", "CRDE")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.BaseURL != server.URL+"/api/v1" {
		t.Fatalf("BaseURL = %q", client.BaseURL)
	}
	return client, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), requests...)
	}
}

func TestNewClient_MissingConfig(t *testing.T) {
	_, err := NewClient("https://git.example.com", "", "")
	var cfgErr *ticket.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if len(cfgErr.Missing) != 2 || cfgErr.Missing[0] != "GITEA_TOKEN" || cfgErr.Missing[1] != "GITEA_ORG" {
		t.Errorf("unexpected missing keys %v", cfgErr.Missing)
	}
	if !errors.Is(err, ticket.ErrConfig) {
		t.Error("expected errors.Is ErrConfig")
	}
}

func TestRepoPath(t *testing.T) {
	client, err := NewClient("https://git.example.com/", "tok", "CRDE")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.BaseURL != "https://git.example.com/api/v1" {
		t.Errorf("BaseURL = %q", client.BaseURL)
	}
	if got := client.RepoPath("golem"); got != "CRDE/golem" {
		t.Errorf("RepoPath(golem) = %q", got)
	}
	if got := client.RepoPath("other/golem"); got != "other/golem" {
		t.Errorf("RepoPath(other/golem) = %q", got)
	}
}

func TestCreateIssue(t *testing.T) {
	client, requests := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1,"number":42,"title":"[INC-4521] Fix login bug","html_url":"https://git.example.com/CRDE/golem/issues/42"}`))
	})

	issue, err := client.CreateIssue(context.Background(), "golem", ticket.IssueCreate{Title: "[INC-4521] Fix login bug", Body: "body"})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	if issue.Number != 42 || issue.HTMLURL == "" {
		t.Errorf("unexpected issue %+v", issue)
	}

	req := requests()[0]
	if req.Method != http.MethodPost || req.Path != "/api/v1/repos/CRDE/golem/issues" {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)
	}
	if req.Body["title"] != "[INC-4521] Fix login bug" {
		t.Errorf("unexpected body %v", req.Body)
	}
}

func TestAddComment_NoContent(t *testing.T) {
	client, requests := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.AddComment(context.Background(), "golem", 42, "🤖 Golem: Status: new → review"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	req := requests()[0]
	if req.Path != "/api/v1/repos/CRDE/golem/issues/42/comments" || req.Body["body"] != "🤖 Golem: Status: new → review" {
		t.Errorf("unexpected request %+v", req)
	}
}

func TestCloseIssue(t *testing.T) {
	client, requests := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"number":42,"state":"closed"}`))
	})

	issue, err := client.CloseIssue(context.Background(), "golem", 42)
	if err != nil {
		t.Fatalf("CloseIssue: %v", err)
	}
	if issue.State != "closed" {
		t.Errorf("state = %q", issue.State)
	}
	req := requests()[0]
	if req.Method != http.MethodPatch || req.Body["state"] != "closed" {
		t.Errorf("unexpected request %+v", req)
	}
	if _, ok := req.Body["title"]; ok {
		t.Error("title should be omitted from a state-only update")
	}
}

func TestRemoteError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("invalid"))
	})

	_, err := client.GetIssue(context.Background(), "golem", 1)
	var remote *ticket.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected *RemoteError, got %v", err)
	}
	if remote.Service != "gitea" || remote.StatusCode != http.StatusUnprocessableEntity || remote.Body != "invalid" {
		t.Errorf("unexpected remote error %+v", remote)
	}
}

func TestFindIssueByTicketID(t *testing.T) {
	page1 := make([]ticket.Issue, 0, PageSize)
	for i := 1; i <= PageSize; i++ {
		page1 = append(page1, ticket.Issue{Number: i, Title: fmt.Sprintf("[INC-%d] other", 9000+i), Body: "mentions INC-45210"})
	}
	page2 := []ticket.Issue{
		{Number: 77, Title: "Login fix", Body: "tracked in INC-4521"},
	}

	client, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		switch page {
		case 1:
			_ = json.NewEncoder(w).Encode(page1)
		case 2:
			_ = json.NewEncoder(w).Encode(page2)
		default:
			_, _ = w.Write([]byte("[]"))
		}
	})

	issue, err := client.FindIssueByTicketID(context.Background(), "golem", "INC-4521")
	if err != nil {
		t.Fatalf("FindIssueByTicketID: %v", err)
	}
	if issue == nil || issue.Number != 77 {
		t.Fatalf("expected issue 77, got %+v", issue)
	}

	reqs := requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 page requests, got %d", len(reqs))
	}
	if q := reqs[0].Query; q != "limit=50&page=1&state=all&type=issues" {
		t.Errorf("unexpected query %q", q)
	}
}

func TestFindIssueByTicketID_TitleTagAndMiss(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"number":5,"title":"[SR-12] Provision laptop","body":""}]`))
	})

	issue, err := client.FindIssueByTicketID(context.Background(), "golem", "SR-12")
	if err != nil || issue == nil || issue.Number != 5 {
		t.Fatalf("expected issue 5, got %+v, %v", issue, err)
	}

	issue, err = client.FindIssueByTicketID(context.Background(), "golem", "INC-1")
	if err != nil {
		t.Fatalf("FindIssueByTicketID: %v", err)
	}
	if issue != nil {
		t.Errorf("expected no match, got %+v", issue)
	}
}

func TestFindIssueByTicketID_PrefersTitleTagOverBodyMention(t *testing.T) {
	page1 := make([]ticket.Issue, 0, PageSize)
	page1 = append(page1, ticket.Issue{Number: 3, Title: "Session cleanup", Body: "related to INC-12"})
	for i := 2; i <= PageSize; i++ {
		page1 = append(page1, ticket.Issue{Number: 100 + i, Title: "unrelated"})
	}
	page2 := []ticket.Issue{
		{Number: 88, Title: "[INC-12] Login fails", Body: "Users cannot log in"},
	}

	client, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			_ = json.NewEncoder(w).Encode(page1)
		case "2":
			_ = json.NewEncoder(w).Encode(page2)
		default:
			_, _ = w.Write([]byte("[]"))
		}
	})

	issue, err := client.FindIssueByTicketID(context.Background(), "golem", "INC-12")
	if err != nil {
		t.Fatalf("FindIssueByTicketID: %v", err)
	}
	if issue == nil || issue.Number != 88 {
		t.Fatalf("expected titled issue 88, got %+v", issue)
	}
	if n := len(requests()); n != 2 {
		t.Errorf("expected 2 page requests, got %d", n)
	}
}

func TestMergePullRequest_DefaultsToSquash(t *testing.T) {
	client, requests := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if err := client.MergePullRequest(context.Background(), "golem", 3, ticket.MergeOptions{Title: "fix: login"}); err != nil {
		t.Fatalf("MergePullRequest: %v", err)
	}
	req := requests()[0]
	if req.Path != "/api/v1/repos/CRDE/golem/pulls/3/merge" {
		t.Errorf("unexpected path %s", req.Path)
	}
	if req.Body["Do"] != "squash" || req.Body["MergeTitleField"] != "fix: login" {
		t.Errorf("unexpected body %v", req.Body)
	}
}

func TestListOrgRepos(t *testing.T) {
	client, requests := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"name":"golem","full_name":"CRDE/golem","default_branch":"main"}]`))
	})

	repos, err := client.ListOrgRepos(context.Background())
	if err != nil {
		t.Fatalf("ListOrgRepos: %v", err)
	}
	if len(repos) != 1 || repos[0].FullName != "CRDE/golem" {
		t.Errorf("unexpected repos %+v", repos)
	}
	if requests()[0].Path != "/api/v1/orgs/CRDE/repos" {
		t.Errorf("unexpected path %s", requests()[0].Path)
	}
}
