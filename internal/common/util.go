package common

import "strings"

// EmailLocalPart returns the part of email before '@', or the whole string
// when there is no '@'.
func EmailLocalPart(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}

// HasEmailDomain reports whether email ends with "@"+domain. The leading '@'
// of domain is optional and the comparison is case-insensitive.
func HasEmailDomain(email, domain string) bool {
	domain = strings.TrimPrefix(strings.ToLower(domain), "@")
	return strings.HasSuffix(strings.ToLower(email), "@"+domain)
}

// WipeByteArray zeroes b. Use it on secrets once they are no longer needed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
