package logger

import (
	"net/url"
	"strings"
)

// SanitizedEmail masks an email address for logging (e.g., "u***@e***.com")
func SanitizedEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "[invalid-email]"
	}

	username := parts[0]
	domain := parts[1]

	// Mask username: keep first char, mask rest
	if len(username) > 1 {
		username = string(username[0]) + strings.Repeat("*", len(username)-1)
	}

	// Mask domain: keep TLD, mask the rest
	domainParts := strings.Split(domain, ".")
	if len(domainParts) > 1 {
		for i := 0; i < len(domainParts)-1; i++ {
			domainParts[i] = strings.Repeat("*", len(domainParts[i]))
		}
		domain = strings.Join(domainParts, ".")
	}

	return username + "@" + domain
}

var sensitiveQueryKeys = []string{"password", "token", "secret", "email", "auth", "next"}

// HasSensitiveQuery reports whether any query parameter name looks like it
// carries a credential or personal data, in which case the whole query string
// is kept out of the logs. Unparseable queries are treated as sensitive.
func HasSensitiveQuery(rawQuery string) bool {
	if rawQuery == "" {
		return false
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return true
	}
	for key := range values {
		key = strings.ToLower(key)
		for _, s := range sensitiveQueryKeys {
			if strings.Contains(key, s) {
				return true
			}
		}
	}
	return false
}
