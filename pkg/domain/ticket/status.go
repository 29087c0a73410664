package ticket

import (
	"fmt"
	"strconv"
	"strings"
)

// Status is the workflow state of a ticket.
type Status string

const (
	StatusNew        Status = "new"
	StatusSpec       Status = "spec"
	StatusPlanning   Status = "planning"
	StatusInProgress Status = "in-progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
	StatusBlocked    Status = "blocked"
)

// Statuses lists the workflow vocabulary in order.
var Statuses = []Status{
	StatusNew,
	StatusSpec,
	StatusPlanning,
	StatusInProgress,
	StatusReview,
	StatusDone,
	StatusBlocked,
}

// IsValid reports whether s belongs to the workflow vocabulary.
func (s Status) IsValid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// ParseStatus converts user input into a Status.
func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
	}
	return s, nil
}

// CommitType is the conventional-commit classification of a ticket.
type CommitType string

const (
	TypeFeat     CommitType = "feat"
	TypeFix      CommitType = "fix"
	TypeRefactor CommitType = "refactor"
	TypeDocs     CommitType = "docs"
	TypeTest     CommitType = "test"
	TypeChore    CommitType = "chore"
)

// CommitTypes lists the accepted commit types.
var CommitTypes = []CommitType{TypeFeat, TypeFix, TypeRefactor, TypeDocs, TypeTest, TypeChore}

// IsValid reports whether t is a known commit type.
func (t CommitType) IsValid() bool {
	for _, known := range CommitTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseCommitType converts user input into a CommitType.
func ParseCommitType(value string) (CommitType, error) {
	t := CommitType(strings.ToLower(strings.TrimSpace(value)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCommitType, value)
	}
	return t, nil
}

// Helpdesk priorities: 1=Urgent ... 4=Low.
const (
	PriorityUrgent  = 1
	PriorityHigh    = 2
	PriorityMedium  = 3
	PriorityLow     = 4
	DefaultPriority = PriorityMedium
)

// ParsePriority converts user input into a helpdesk priority.
func ParsePriority(value string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || p < PriorityUrgent || p > PriorityLow {
		return 0, fmt.Errorf("%w: %q (expected 1-4)", ErrInvalidPriority, value)
	}
	return p, nil
}
