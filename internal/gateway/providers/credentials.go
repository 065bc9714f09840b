package providers

import "strings"

// IsValidKey reports whether an API key is usable: non-empty and not one
// of the placeholder values shipped in sample env files.
func IsValidKey(key string) bool {
	if key == "" {
		return false
	}
	if strings.Contains(key, "placeholder") || strings.Contains(key, "test-key") {
		return false
	}
	return key != "your-key-here"
}

// Credentials maps provider name to API key.
type Credentials map[string]string

// Snapshot returns an independent copy.
func (c Credentials) Snapshot() Credentials {
	out := make(Credentials, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Valid reports whether the key for provider passes IsValidKey.
func (c Credentials) Valid(provider string) bool {
	return IsValidKey(c[provider])
}
