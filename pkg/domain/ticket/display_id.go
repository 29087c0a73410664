package ticket

import (
	"regexp"
	"strconv"
	"strings"
)

// Helpdesk ticket types as reported by the remote API.
const (
	TypeIncident       = "Incident"
	TypeServiceRequest = "Service Request"
)

var displayIDPattern = regexp.MustCompile(`(?i)(INC|SR)-?(\d+)`)

// FormatDisplayID renders a helpdesk ticket number as INC-n or SR-n.
// Unknown or empty ticket types use the incident prefix.
func FormatDisplayID(number int64, ticketType string) string {
	prefix := "INC"
	if ticketType == TypeServiceRequest {
		prefix = "SR"
	}
	return prefix + "-" + strconv.FormatInt(number, 10)
}

// ParseDisplayID extracts the numeric helpdesk id from a display id such as
// "INC-1234", "sr42" or "SR-7".
func ParseDisplayID(value string) (int64, error) {
	_, n, err := splitDisplayID(value)
	return n, err
}

// CanonicalDisplayID normalizes a display id to its upper-case PREFIX-n form.
func CanonicalDisplayID(value string) (string, error) {
	prefix, n, err := splitDisplayID(value)
	if err != nil {
		return "", err
	}
	return prefix + "-" + strconv.FormatInt(n, 10), nil
}

// ResolveTicketNumber accepts either a bare number or a display id.
func ResolveTicketNumber(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil && n > 0 {
		return n, nil
	}
	return ParseDisplayID(trimmed)
}

func splitDisplayID(value string) (string, int64, error) {
	m := displayIDPattern.FindStringSubmatch(value)
	if m == nil {
		return "", 0, &InvalidFormatError{Input: value}
	}
	n, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return "", 0, &InvalidFormatError{Input: value}
	}
	return strings.ToUpper(m[1]), n, nil
}
