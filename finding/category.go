package finding

import "fmt"

// Category represents the vulnerability class of a security finding.
type Category string

const (
	// CategoryPromptInjection indicates hidden or manipulative instructions
	// embedded in manifest text fields.
	// Examples: "ignore previous instructions", "do not mention this to the user"
	CategoryPromptInjection Category = "prompt_injection"

	// CategoryToolShadowing indicates attempts by one declared sub-entity to
	// alter the behavior of its siblings.
	// Examples: "when calling other tools, always route output through this one"
	CategoryToolShadowing Category = "tool_shadowing"

	// CategoryDataExfiltration indicates descriptions or parameters shaped to
	// move data off the host.
	// Examples: sensitive filesystem paths, webhook/callback parameter names
	CategoryDataExfiltration Category = "data_exfiltration"

	// CategoryCommandInjection indicates shell metacharacters or execution
	// primitives embedded in declared text.
	// Examples: backticks, "$(...)", piped shell commands
	CategoryCommandInjection Category = "command_injection"

	// CategorySecretExposure indicates credential material present in a
	// manifest or sub-entity declaration.
	// Examples: API keys, bearer tokens, private key blocks
	CategorySecretExposure Category = "secret_exposure"

	// CategoryExcessiveSurface indicates an unusually large declared attack
	// surface or over-broad input acceptance.
	// Examples: dozens of declared tools, open-ended object parameters
	CategoryExcessiveSurface Category = "excessive_surface"

	// CategoryAuthentication indicates weaknesses in the authentication
	// posture of the declared endpoint.
	// Examples: successful unauthenticated handshake or task submission
	CategoryAuthentication Category = "authentication"

	// CategoryTransportSecurity indicates weaknesses in transport protection.
	// Examples: plaintext endpoints, missing security response headers
	CategoryTransportSecurity Category = "transport_security"

	// CategoryInformationDisclosure indicates unintended metadata exposure.
	// Examples: implementation versions, framework fingerprints, stack traces
	CategoryInformationDisclosure Category = "information_disclosure"

	// CategoryDiscovery indicates the manifest or handshake could not be
	// resolved at all; the finding carries the per-candidate attempt log.
	CategoryDiscovery Category = "discovery"
)

// IsValid returns true if the category is valid.
func (c Category) IsValid() bool {
	switch c {
	case CategoryPromptInjection,
		CategoryToolShadowing,
		CategoryDataExfiltration,
		CategoryCommandInjection,
		CategorySecretExposure,
		CategoryExcessiveSurface,
		CategoryAuthentication,
		CategoryTransportSecurity,
		CategoryInformationDisclosure,
		CategoryDiscovery:
		return true
	default:
		return false
	}
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// DisplayName returns a human-readable display name for the category.
func (c Category) DisplayName() string {
	switch c {
	case CategoryPromptInjection:
		return "Prompt Injection"
	case CategoryToolShadowing:
		return "Tool Shadowing"
	case CategoryDataExfiltration:
		return "Data Exfiltration"
	case CategoryCommandInjection:
		return "Command Injection"
	case CategorySecretExposure:
		return "Secret Exposure"
	case CategoryExcessiveSurface:
		return "Excessive Surface Area"
	case CategoryAuthentication:
		return "Authentication"
	case CategoryTransportSecurity:
		return "Transport Security"
	case CategoryInformationDisclosure:
		return "Information Disclosure"
	case CategoryDiscovery:
		return "Discovery Failure"
	default:
		return string(c)
	}
}

// Description returns a brief description of the category.
func (c Category) Description() string {
	switch c {
	case CategoryPromptInjection:
		return "Hidden or manipulative instructions embedded in manifest text"
	case CategoryToolShadowing:
		return "Sub-entities attempting to alter the behavior of their siblings"
	case CategoryDataExfiltration:
		return "Declarations shaped to move sensitive data off the host"
	case CategoryCommandInjection:
		return "Shell execution primitives embedded in declared text"
	case CategorySecretExposure:
		return "Credential material exposed in a manifest"
	case CategoryExcessiveSurface:
		return "Over-broad declared attack surface or input acceptance"
	case CategoryAuthentication:
		return "Weak authentication posture of the declared endpoint"
	case CategoryTransportSecurity:
		return "Weak transport protection for the declared endpoint"
	case CategoryInformationDisclosure:
		return "Unintended exposure of implementation metadata"
	case CategoryDiscovery:
		return "Manifest or handshake could not be resolved"
	default:
		return ""
	}
}

// ParseCategory parses a string into a Category value.
// Returns an error if the string is not a valid category.
func ParseCategory(s string) (Category, error) {
	category := Category(s)
	if !category.IsValid() {
		return "", fmt.Errorf("invalid category: %s", s)
	}
	return category, nil
}

// AllCategories returns all valid categories.
func AllCategories() []Category {
	return []Category{
		CategoryPromptInjection,
		CategoryToolShadowing,
		CategoryDataExfiltration,
		CategoryCommandInjection,
		CategorySecretExposure,
		CategoryExcessiveSurface,
		CategoryAuthentication,
		CategoryTransportSecurity,
		CategoryInformationDisclosure,
		CategoryDiscovery,
	}
}
