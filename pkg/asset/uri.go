package asset

import (
	"net/url"
	"strings"
)

// ParseURI extracts the content hash and optional extension from a packmule
// asset URI.
//
// Records reference their primary asset and thumbnail with URIs of the form
//
//	<scheme>://<host>/<hash>.<extension>
//
// where the first path segment is the asset's content hash, optionally
// followed by a file extension. Only the first segment is consulted; any
// trailing segments or query parameters are ignored.
//
// Returns the lowercased hash, the extension without its leading dot ("" if
// absent), and ok=false for anything that does not parse or whose hash part
// is not a well-formed digest. This parser is deliberately isolated from the
// pipeline so the URI scheme can change without touching concurrency logic.
func ParseURI(uri string) (Hash, string, bool) {
	if uri == "" {
		return "", "", false
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return "", "", false
	}

	segment := strings.TrimPrefix(parsed.Path, "/")
	if i := strings.IndexByte(segment, '/'); i >= 0 {
		segment = segment[:i]
	}
	if segment == "" {
		return "", "", false
	}

	ext := ""
	if i := strings.IndexByte(segment, '.'); i >= 0 {
		segment, ext = segment[:i], segment[i+1:]
	}

	hash := Hash(strings.ToLower(segment))
	if !hash.Valid() {
		return "", "", false
	}

	return hash, ext, true
}
