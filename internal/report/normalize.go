package report

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeToken brings a user supplied token to the form the scanner
// records, so that exclusion lists match regardless of case or composition.
func normalizeToken(token string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(token)))
}
