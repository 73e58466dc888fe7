package logger

import "strings"

// RedactEmail masks an address for logging: "john.doe@example.com" becomes
// "jo***@example.com", and local parts of two characters or fewer are fully
// masked.
func RedactEmail(email string) string {
	name, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***@***"
	}
	if len(name) > 2 {
		return name[:2] + "***@" + domain
	}
	return "***@" + domain
}
