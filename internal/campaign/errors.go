package campaign

import "errors"

var (
	ErrMissingName    = errors.New("campaign name is required")
	ErrMissingSubject = errors.New("campaign subject is required")
	ErrMissingBody    = errors.New("campaign body is required")
	ErrMissingEmail   = errors.New("contact email is required")
	ErrNotDraft       = errors.New("campaign is not in draft")
	ErrNoRecipients   = errors.New("campaign has no recipients to send to")
)
