// Package mailmerge substitutes contact fields into campaign templates.
package mailmerge

import (
	"strings"

	"github.com/prsim/prsim/internal/domain/model"
)

// Apply replaces the supported template variables with the contact's data.
// Unknown variables are left untouched so a typo is visible in previews
// instead of silently vanishing.
//
// Supported: {{first_name}}, {{last_name}}, {{full_name}}, {{email}},
// {{organization}}, {{job_title}}.
func Apply(template string, contact *model.Contact) string {
	if contact == nil {
		return template
	}
	r := strings.NewReplacer(
		"{{first_name}}", contact.FirstName,
		"{{last_name}}", contact.LastName,
		"{{full_name}}", contact.FullName(),
		"{{email}}", contact.Email,
		"{{organization}}", contact.Organization,
		"{{job_title}}", contact.JobTitle,
	)
	return r.Replace(template)
}
