// Package qrid turns a raw scanned payload into an equipment identifier.
//
// Two payload shapes are accepted: a bare token such as "A-113_b", or a URL whose last
// path segment is the token, e.g. "equipos://detalles/42" or "https://host/path/42".
package qrid

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/crucial707/hci-lending/internal/apperr"
)

// DefaultSchemes are the custom URI schemes printed on the asset labels.
var DefaultSchemes = []string{"equipos"}

var (
	tokenPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	numericPattern = regexp.MustCompile(`^[0-9]+$`)
)

type options struct {
	numeric bool
	schemes []string
}

// Option configures Extract.
type Option func(*options)

// Numeric additionally requires the identifier to be all digits, for stores keyed by integer id.
func Numeric() Option {
	return func(o *options) { o.numeric = true }
}

// WithSchemes replaces the recognised custom schemes. http and https are always recognised.
func WithSchemes(schemes ...string) Option {
	return func(o *options) { o.schemes = schemes }
}

// Extract returns the identifier carried by payload. It performs no I/O and always returns
// the same result for the same input.
func Extract(payload string, opts ...Option) (string, error) {
	o := options{schemes: DefaultSchemes}
	for _, opt := range opts {
		opt(&o)
	}

	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", invalid("empty payload")
	}

	candidate := payload
	if rest, ok := stripPrefix(payload, o.schemes); ok {
		candidate = lastSegment(rest)
		if candidate == "" {
			return "", invalid("no identifier in URL")
		}
	}

	if !tokenPattern.MatchString(candidate) {
		return "", invalid("identifier contains invalid characters")
	}
	if o.numeric && !numericPattern.MatchString(candidate) {
		return "", invalid("identifier must be numeric")
	}
	return candidate, nil
}

// ParseAssetID extracts a numeric identifier and converts it to an asset id.
func ParseAssetID(payload string, opts ...Option) (int, error) {
	tok, err := Extract(payload, append(opts, Numeric())...)
	if err != nil {
		return 0, err
	}
	id, err := strconv.Atoi(tok)
	if err != nil || id <= 0 {
		return 0, invalid("identifier is not a valid asset id")
	}
	return id, nil
}

// stripPrefix removes a recognised "scheme://" prefix (case-insensitive) and any query or fragment.
func stripPrefix(payload string, schemes []string) (string, bool) {
	scheme, rest, ok := strings.Cut(payload, "://")
	if !ok {
		return "", false
	}
	if !strings.EqualFold(scheme, "http") && !strings.EqualFold(scheme, "https") && !knownScheme(scheme, schemes) {
		return "", false
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	return rest, true
}

func knownScheme(scheme string, schemes []string) bool {
	for _, s := range schemes {
		if strings.EqualFold(scheme, s) {
			return true
		}
	}
	return false
}

func lastSegment(path string) string {
	parts := strings.Split(path, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return ""
}

func invalid(reason string) error {
	return apperr.ErrInvalidFormat.WithDetail("scanned code is not a valid equipment identifier: %s", reason)
}
