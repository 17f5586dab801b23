package email

import (
	"regexp"
	"strings"

	"github.com/emersion/go-message/mail"
)

var angleAddress = regexp.MustCompile(`<([^<>\s]+@[^<>\s]+)>`)

// ExtractAddress returns the bare, lower-cased address from a header value
// such as `"Acme Sales" <sales@acme.com>`. Values that are already bare are
// trimmed and lower-cased.
func ExtractAddress(from string) string {
	from = strings.TrimSpace(from)
	if addr, err := mail.ParseAddress(from); err == nil {
		return strings.ToLower(addr.Address)
	}
	if m := angleAddress.FindStringSubmatch(from); m != nil {
		return strings.ToLower(m[1])
	}
	return strings.ToLower(from)
}
