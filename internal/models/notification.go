// internal/models/notification.go
package models

// ListingEvent is published once a listing document is persisted.
type ListingEvent struct {
	EventID    string `json:"eventId"`
	Type       string `json:"type"` // "listing.created" or "listing.updated"
	Entity     string `json:"entity"`
	DocumentID string `json:"documentId"`
	UserID     string `json:"userId"`
	Tier       string `json:"tier,omitempty"`
	Completion int    `json:"completion"`
	OccurredAt string `json:"occurredAt"`
}

// EmailMessage represents an email to be sent
type EmailMessage struct {
	To       []string `json:"to"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	HTMLBody string   `json:"htmlBody,omitempty"`
	From     string   `json:"from"`
}
