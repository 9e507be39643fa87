package local

import (
	"path/filepath"
	"testing"
)

func TestPathMapping(t *testing.T) {
	base := filepath.Join("store")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"user", userPath(base, "owner1"), "store/owner1/User"},
		{"contacts dir", contactsDir(base, "owner1"), "store/owner1/Contacts"},
		{"contact", contactPath(base, "owner1", "friend1"), "store/owner1/Contacts/friend1"},
		{"messages dir", messagesDir(base, "owner1", "contact1"), "store/owner1/Messages/contact1"},
		{"message", messagePath(base, "owner1", "contact1", "msg1"), "store/owner1/Messages/contact1/msg1"},
		{"records dir", recordsDir(base, "owner1"), "store/owner1/Records"},
		{"record", recordPath(base, "owner1", "rec1"), "store/owner1/Records/rec1"},
		{"group", groupPath(base, "owner1", "grp1"), "store/owner1/Groups/grp1"},
		{"group storage", storagePath(groupPath(base, "owner1", "grp1")), "store/owner1/Groups/grp1.Storage"},
		{"member", memberPath(base, "owner1", "grp1", "user2"), "store/owner1/GroupMembers/grp1/user2"},
		{"member storage", storagePath(memberPath(base, "owner1", "grp1", "user2")), "store/owner1/GroupMembers/grp1/user2.Storage"},
		{"variable", variablePath(base, "owner1", "var1"), "store/owner1/Variables/var1"},
		{"definition", definitionPath(base, "owner1", "var1"), "store/owner1/VariableDefinitions/var1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != filepath.FromSlash(tt.want) {
				t.Errorf("got %s, want %s", tt.got, filepath.FromSlash(tt.want))
			}
		})
	}
}

// TestPathMapping_NoCollisions spot-checks that distinct identities map to
// distinct paths.
func TestPathMapping_NoCollisions(t *testing.T) {
	base := "store"
	paths := []string{
		userPath(base, "a"),
		userPath(base, "b"),
		contactPath(base, "a", "x"),
		contactPath(base, "b", "x"),
		recordPath(base, "a", "x"),
		groupPath(base, "a", "x"),
		variablePath(base, "a", "x"),
		definitionPath(base, "a", "x"),
		memberPath(base, "a", "x", "y"),
		messagePath(base, "a", "x", "y"),
	}

	seen := make(map[string]bool)
	for _, p := range paths {
		if seen[p] {
			t.Errorf("path collision: %s", p)
		}
		seen[p] = true
	}
}
