package cli

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/felixgeelhaar/golem/pkg/domain/ticket"
	"github.com/felixgeelhaar/golem/pkg/storage"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("read stdout: %v", err)
	}
	return buf.String()
}

// resetFlags clears package level flag values left over from earlier runs.
func resetFlags() {
	projectPath = ""
	jsonOutput = false
	verbose = false
	noColor = false
	listStatus = ""
	listPending = false
	statusNote = ""
	configForce = false
	worktreeBase = ""
	commitMessage = ""
	newSubject, newDescription, newType, newSlug, newRepo = "", "", "", "", ""
	newPriority = "3"
	importType, importSlug, importRepo = "", "", ""
}

// runCLI executes the root command against a project directory and returns stdout.
func runCLI(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var err error
	out := captureStdout(t, func() {
		RootCmd.SetArgs(append([]string{"--no-color", "--project", root}, args...))
		err = RootCmd.Execute()
	})
	return out, err
}

var remoteEnv = []string{
	"FRESH_DOMAIN", "FRESH_API_KEY",
	"GITEA_URL", "GITEA_TOKEN", "GITEA_ORG", "GITEA_REPO",
	"GOLEM_BASE_BRANCH", "GOLEM_GIT_REMOTE",
}

func unsetRemoteEnv(t *testing.T) {
	t.Helper()
	for _, env := range remoteEnv {
		t.Setenv(env, "")
		_ = os.Unsetenv(env)
	}
}

// seedTicket writes a local-only record into a fresh project directory.
func seedTicket(t *testing.T, root, id string, status ticket.Status) *ticket.State {
	t.Helper()
	repo := storage.NewFilesystemRepository(root)
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	state := ticket.NewState(id, "login-bug", ticket.TypeFix, created)
	state.Status = status
	if err := repo.Save(state); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
	return state
}

func loadTicket(t *testing.T, root, id string) *ticket.State {
	t.Helper()
	state, ok := storage.NewFilesystemRepository(root).Load(id)
	if !ok {
		t.Fatalf("ticket %s not found", id)
	}
	return state
}
