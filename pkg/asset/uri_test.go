package asset

import (
	"strings"
	"testing"
)

func TestParseURI(t *testing.T) {
	digest := string(HashBytes([]byte("asset")))

	tests := []struct {
		name     string
		uri      string
		wantHash Hash
		wantExt  string
		wantOK   bool
	}{
		{
			name:     "hash with extension",
			uri:      "packmule://assets/" + digest + ".png",
			wantHash: Hash(digest),
			wantExt:  "png",
			wantOK:   true,
		},
		{
			name:     "hash without extension",
			uri:      "packmule://assets/" + digest,
			wantHash: Hash(digest),
			wantExt:  "",
			wantOK:   true,
		},
		{
			name:     "uppercase hash is normalized",
			uri:      "packmule://assets/" + strings.ToUpper(digest) + ".jpg",
			wantHash: Hash(digest),
			wantExt:  "jpg",
			wantOK:   true,
		},
		{
			name:     "trailing segments ignored",
			uri:      "packmule://assets/" + digest + ".png/extra/stuff",
			wantHash: Hash(digest),
			wantExt:  "png",
			wantOK:   true,
		},
		{
			name:   "empty uri",
			uri:    "",
			wantOK: false,
		},
		{
			name:   "hash part not a digest",
			uri:    "packmule://assets/not-a-hash.png",
			wantOK: false,
		},
		{
			name:   "no path",
			uri:    "packmule://assets",
			wantOK: false,
		},
		{
			name:   "digest too short",
			uri:    "packmule://assets/abc123.png",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, ext, ok := ParseURI(tt.uri)
			if ok != tt.wantOK {
				t.Fatalf("ParseURI(%q) ok = %v, want %v", tt.uri, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if hash != tt.wantHash {
				t.Errorf("hash = %s, want %s", hash, tt.wantHash)
			}
			if ext != tt.wantExt {
				t.Errorf("ext = %q, want %q", ext, tt.wantExt)
			}
		})
	}
}
