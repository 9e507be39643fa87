package local

import "path/filepath"

// Deterministic mapping from (owner, entity kind, optional id) to relative
// filesystem paths. Pure functions, no I/O, no validation: malformed ids are
// the caller's responsibility. Paths for different owners, kinds and ids
// never collide.
//
// Layout under base path B for owner O:
//
//	B/O/User.json
//	B/O/Contacts/<friendID>.json
//	B/O/Messages/<contactID>/<msgID>.json
//	B/O/Records/<recordID>.json
//	B/O/Groups/<groupID>.json (+ <groupID>.Storage.json)
//	B/O/GroupMembers/<groupID>/<userID>.json (+ <userID>.Storage.json)
//	B/O/Variables/<path>.json
//	B/O/VariableDefinitions/<path>.json
//
// All functions return paths without the .json serialization suffix; the
// entity store owns the suffix.

const (
	contactsDirName    = "Contacts"
	messagesDirName    = "Messages"
	recordsDirName     = "Records"
	groupsDirName      = "Groups"
	membersDirName     = "GroupMembers"
	variablesDirName   = "Variables"
	definitionsDirName = "VariableDefinitions"
	storagePathSuffix  = ".Storage"
)

func userPath(base, ownerID string) string {
	return filepath.Join(base, ownerID, "User")
}

func contactsDir(base, ownerID string) string {
	return filepath.Join(base, ownerID, contactsDirName)
}

func contactPath(base, ownerID, friendID string) string {
	return filepath.Join(contactsDir(base, ownerID), friendID)
}

func messagesDir(base, ownerID, contactID string) string {
	return filepath.Join(base, ownerID, messagesDirName, contactID)
}

func messagePath(base, ownerID, contactID, messageID string) string {
	return filepath.Join(messagesDir(base, ownerID, contactID), messageID)
}

func recordsDir(base, ownerID string) string {
	return filepath.Join(base, ownerID, recordsDirName)
}

func recordPath(base, ownerID, recordID string) string {
	return filepath.Join(recordsDir(base, ownerID), recordID)
}

func groupsDir(base, ownerID string) string {
	return filepath.Join(base, ownerID, groupsDirName)
}

func groupPath(base, ownerID, groupID string) string {
	return filepath.Join(groupsDir(base, ownerID), groupID)
}

func membersDir(base, ownerID, groupID string) string {
	return filepath.Join(base, ownerID, membersDirName, groupID)
}

func memberPath(base, ownerID, groupID, userID string) string {
	return filepath.Join(membersDir(base, ownerID, groupID), userID)
}

func variablesDir(base, ownerID string) string {
	return filepath.Join(base, ownerID, variablesDirName)
}

func variablePath(base, ownerID, varPath string) string {
	return filepath.Join(variablesDir(base, ownerID), varPath)
}

func definitionsDir(base, ownerID string) string {
	return filepath.Join(base, ownerID, definitionsDirName)
}

func definitionPath(base, ownerID, varPath string) string {
	return filepath.Join(definitionsDir(base, ownerID), varPath)
}

// storagePath returns the path of the auxiliary storage sub-entity stored
// alongside a group or member entity (<id>.Storage).
func storagePath(entityPath string) string {
	return entityPath + storagePathSuffix
}
