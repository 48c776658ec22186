package discovery

import (
	"encoding/base64"
	"fmt"
	"net/http"
)

// CredentialType represents the type of credential supplied by the caller.
type CredentialType string

const (
	// CredentialNone performs unauthenticated requests.
	CredentialNone CredentialType = "none"

	// CredentialBearer sends the value with a "Bearer " prefix.
	CredentialBearer CredentialType = "bearer"

	// CredentialBasic base64-encodes the value ("user:pass") into a Basic
	// authorization header.
	CredentialBasic CredentialType = "basic"

	// CredentialAPIKey sends the value verbatim, by default in the
	// Authorization header or in HeaderName when set.
	CredentialAPIKey CredentialType = "apiKey"
)

// IsValid returns true if the credential type is valid.
func (t CredentialType) IsValid() bool {
	switch t {
	case CredentialNone, CredentialBearer, CredentialBasic, CredentialAPIKey:
		return true
	default:
		return false
	}
}

// String returns the string representation of the credential type.
func (t CredentialType) String() string {
	return string(t)
}

// Credential carries the optional auth parameters a caller supplies for a
// target. The zero value means no authentication.
type Credential struct {
	// Type selects how Value is turned into a request header.
	Type CredentialType `json:"type"`

	// Value is the token, key, or "user:pass" pair.
	Value string `json:"value,omitempty"`

	// HeaderName overrides the header the credential is sent in.
	// Defaults to Authorization.
	HeaderName string `json:"header_name,omitempty"`
}

// IsZero reports whether no authentication material was supplied.
func (c Credential) IsZero() bool {
	return (c.Type == "" || c.Type == CredentialNone) && c.Value == ""
}

// Apply sets the credential's header on the request. It is a no-op for
// the zero credential.
func (c Credential) Apply(header http.Header) error {
	if c.IsZero() {
		return nil
	}
	if !c.Type.IsValid() {
		return fmt.Errorf("unknown credential type %q", c.Type)
	}

	name := c.HeaderName
	if name == "" {
		name = "Authorization"
	}

	switch c.Type {
	case CredentialBearer:
		header.Set(name, "Bearer "+c.Value)
	case CredentialBasic:
		header.Set(name, "Basic "+base64.StdEncoding.EncodeToString([]byte(c.Value)))
	case CredentialAPIKey:
		header.Set(name, c.Value)
	}
	return nil
}
