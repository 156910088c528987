package urlutil

import (
	"net/url"
	"path"
	"strings"
)

// SanitizeReturnPath restricts a caller-supplied return destination to a
// same-site absolute path. Anything that could leave the site (scheme-relative
// or absolute URLs, backslash tricks) falls back to def.
func SanitizeReturnPath(raw, def string) string {
	if raw == "" {
		return def
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return def
	}
	if !strings.HasPrefix(decoded, "/") || strings.HasPrefix(decoded, "//") {
		return def
	}
	if strings.ContainsAny(decoded, "\\\r\n") {
		return def
	}
	u, err := url.Parse(decoded)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return def
	}
	return decoded
}

// JoinPath safely joins URL paths, handling trailing and leading slashes correctly
func JoinPath(base string, paths ...string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	allPaths := append([]string{u.Path}, paths...)
	u.Path = path.Join(allPaths...)

	if len(paths) > 0 && strings.HasSuffix(paths[len(paths)-1], "/") {
		u.Path += "/"
	}

	return u.String(), nil
}
