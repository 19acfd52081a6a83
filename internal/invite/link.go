package invite

import (
	"errors"
	"net/url"
	"strings"
)

const writePath = "/write/"

// Link builds the shareable URL for token: {origin}/write/{token}.
func Link(origin, token string) string {
	return strings.TrimRight(origin, "/") + writePath + url.PathEscape(token)
}

// TokenFromLink accepts either a bare token or a full invite link and
// returns the token.
func TokenFromLink(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("empty invite")
	}
	if !strings.Contains(s, "/") {
		return s, nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", err
	}
	i := strings.LastIndex(u.Path, writePath)
	if i < 0 {
		return "", errors.New("not an invite link")
	}
	token, err := url.PathUnescape(strings.Trim(u.Path[i+len(writePath):], "/"))
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", errors.New("invite link has no token")
	}
	return token, nil
}
