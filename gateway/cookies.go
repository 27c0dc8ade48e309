package gateway

import "strings"

// splitSetCookie splits a Set-Cookie value that joins several cookies with
// commas. A comma inside an Expires date does not start a new cookie.
func splitSetCookie(value string) []string {
	var (
		cookies []string
		current strings.Builder
	)
	for _, part := range strings.Split(value, ",") {
		if current.Len() > 0 && !inExpiresDate(current.String()) {
			cookies = appendCookie(cookies, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(',')
		}
		current.WriteString(part)
	}
	return appendCookie(cookies, current.String())
}

// inExpiresDate reports whether cookie ends inside "Expires=Wdy" before the
// date's comma
func inExpiresDate(cookie string) bool {
	attrs := strings.Split(cookie, ";")
	last := strings.ToLower(strings.TrimSpace(attrs[len(attrs)-1]))
	if !strings.HasPrefix(last, "expires=") {
		return false
	}
	return !strings.Contains(last, " ")
}

func appendCookie(cookies []string, cookie string) []string {
	if cookie = strings.TrimSpace(cookie); cookie != "" {
		cookies = append(cookies, cookie)
	}
	return cookies
}
