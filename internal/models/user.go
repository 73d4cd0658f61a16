// internal/models/user.go
package models

// User is the identity returned by the auth verify endpoint.
type User struct {
	ID     string `json:"id"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	Locale string `json:"locale,omitempty"`
}

// VerifyResponse is the body of GET /api/auth/verify.
type VerifyResponse struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user,omitempty"`
}
