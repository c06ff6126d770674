package ttkeep

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL indicates an input line could not be parsed as a post URL.
// Invalid lines are skipped with a warning, never fatal to a run.
var ErrInvalidURL = errors.New("invalid post URL")

// Normalize canonicalizes a raw post URL into the stable identifier used as
// the archive key. Query parameters (tracking noise), fragments, and
// credentials are stripped, scheme and host are lowercased, and a trailing
// slash is trimmed. Path segments are left untouched: they encode the
// platform's post type and ID.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty line", ErrInvalidURL)
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidURL, trimmed, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidURL, trimmed)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q: missing host", ErrInvalidURL, trimmed)
	}
	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path != "/" {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}
	return u.String(), nil
}

// PostIDFromIdentifier derives the deterministic media file stem for an
// identifier: the trailing numeric path segment when present (the platform's
// post ID), otherwise the last non-empty segment.
func PostIDFromIdentifier(identifier string) string {
	u, err := url.Parse(identifier)
	path := identifier
	if err == nil {
		path = u.Path
	}
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i] != "" {
			return segs[i]
		}
	}
	return strings.TrimPrefix(identifier, "https://")
}

// KindFromIdentifier guesses the media kind from the identifier path,
// mirroring the /@user/photo/<id> versus /@user/video/<id> convention.
// Returns "photo", "video", or "" when the path does not say.
func KindFromIdentifier(identifier string) string {
	u, err := url.Parse(identifier)
	if err != nil {
		return ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) != 3 || !strings.HasPrefix(segs[0], "@") {
		return ""
	}
	switch segs[1] {
	case "photo":
		return "photo"
	case "video":
		return "video"
	}
	return ""
}
