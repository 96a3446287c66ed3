// Package identity maps raw user identifiers to display profiles. The
// directory is fetched once per board session and cached by id; lookups are
// idempotent and side-effect free, and an unknown id degrades to a
// deterministic placeholder rather than an error. Callers never block on an
// unresolved identity.
package identity

import (
	"log"
	"os"
	"strings"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// warnLog records resolution gaps. They are a warning-level signal only and
// are never raised to the user.
var warnLog = log.New(os.Stderr, "[WARN] identity: ", log.LstdFlags)

// placeholderPrefixLen is how many characters of the raw id appear in a
// placeholder display name.
const placeholderPrefixLen = 4

// Directory is a read-only id-to-profile cache.
type Directory struct {
	byID map[string]types.UserProfile
}

// NewDirectory builds a Directory from a user listing. Entries without an
// id are skipped; later duplicates win, matching the backing store's
// last-write semantics.
func NewDirectory(users []types.UserProfile) *Directory {
	byID := make(map[string]types.UserProfile, len(users))
	for _, u := range users {
		if u.ID == "" {
			continue
		}
		u.DisplayName = displayName(u)
		byID[u.ID] = u
	}
	return &Directory{byID: byID}
}

// Resolve maps an id to its profile. An empty id resolves to nil. A
// non-empty id missing from the directory resolves to a deterministic
// placeholder profile so rendering never stalls on a directory gap.
func (d *Directory) Resolve(id string) *types.UserProfile {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	if u, ok := d.byID[id]; ok {
		return &u
	}
	warnLog.Printf("no directory entry for %q, using placeholder", id)
	p := Placeholder(id)
	return &p
}

// Len returns the number of cached profiles.
func (d *Directory) Len() int {
	return len(d.byID)
}

// Placeholder builds the deterministic stand-in profile for an unknown id.
func Placeholder(id string) types.UserProfile {
	prefix := id
	if len(prefix) > placeholderPrefixLen {
		prefix = prefix[:placeholderPrefixLen]
	}
	return types.UserProfile{
		ID:          id,
		DisplayName: "User " + prefix,
	}
}

// displayName picks the first non-empty of full name, display name, and
// email, falling back to the placeholder name derived from the id.
func displayName(u types.UserProfile) string {
	for _, candidate := range []string{u.FullName, u.DisplayName, u.Email} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return Placeholder(u.ID).DisplayName
}
