// Package sanitize strips markup from customer-supplied free text before it
// is stored or echoed into emails and the admin dashboard.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
)

// Sanitizer removes all HTML from text. Safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func New() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Text strips tags and trims surrounding space. Entities produced by the
// policy are decoded again so "Tom & Jerry" is stored as typed.
func (s *Sanitizer) Text(in string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in)))
}

// Customer returns a copy of c with every free-text field sanitized.
func (s *Sanitizer) Customer(c models.CustomerInfo) models.CustomerInfo {
	return models.CustomerInfo{
		Name:    s.Text(c.Name),
		Email:   strings.ToLower(strings.TrimSpace(c.Email)),
		Phone:   strings.TrimSpace(c.Phone),
		Address: s.Text(c.Address),
		Notes:   s.Text(c.Notes),
	}
}
