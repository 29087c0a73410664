package watch

import (
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/golem/pkg/storage"
)

// Filter decides which files in the tickets directory are ticket records.
type Filter struct {
	Include []string
	Exclude []string
}

// NewFilter creates a filter from include and exclude globs.
func NewFilter(include, exclude []string) *Filter {
	return &Filter{Include: include, Exclude: exclude}
}

// DefaultFilter matches record files and skips hidden, backup and temp files.
func DefaultFilter() *Filter {
	return NewFilter([]string{"*" + storage.TicketExt}, []string{".*", "*~", "*.tmp", "*.swp"})
}

// Matches reports whether the path passes the filter. Patterns are tried
// against the base name and the full path. Excludes win over includes.
func (f *Filter) Matches(path string) bool {
	base := filepath.Base(path)

	for _, pattern := range f.Exclude {
		if globMatch(pattern, base) || globMatch(pattern, path) {
			return false
		}
	}

	if len(f.Include) == 0 {
		return true
	}
	for _, pattern := range f.Include {
		if globMatch(pattern, base) || globMatch(pattern, path) {
			return true
		}
	}
	return false
}

// TicketID returns the ticket id a record path belongs to.
func (f *Filter) TicketID(path string) (string, bool) {
	if !f.Matches(path) {
		return "", false
	}
	id := strings.TrimSuffix(filepath.Base(path), storage.TicketExt)
	return id, id != ""
}

func globMatch(pattern, name string) bool {
	matched, _ := filepath.Match(pattern, name)
	return matched
}
