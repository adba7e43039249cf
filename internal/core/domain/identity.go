package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// FingerprintLength is the number of hex characters kept from the identity hash.
const FingerprintLength = 16

// SourceIdentity identifies one analysable scope: a source location at a
// revision, optionally narrowed to a subtree.
// Subtree is nil when the whole tree is analysed; a nil subtree and an
// empty subtree are different identities.
type SourceIdentity struct {
	// Location is the source reference (URL, owner/repo or local path).
	Location string `json:"location" yaml:"location"`

	// Ref is the branch, tag or commit to analyse.
	Ref string `json:"ref" yaml:"ref"`

	// Subtree is the optional slash-separated path below the tree root.
	Subtree *string `json:"subtree,omitempty" yaml:"subtree,omitempty"`
}

// NewSourceIdentity builds an identity. An empty subtree argument means no subtree.
func NewSourceIdentity(location, ref, subtree string) SourceIdentity {
	id := SourceIdentity{Location: location, Ref: ref}
	if subtree != "" {
		id.Subtree = &subtree
	}
	return id
}

// HasSubtree returns true if the identity is narrowed to a subtree.
func (i SourceIdentity) HasSubtree() bool {
	return i.Subtree != nil
}

// SubtreePath returns the subtree path, or an empty string when absent.
func (i SourceIdentity) SubtreePath() string {
	if i.Subtree == nil {
		return ""
	}
	return *i.Subtree
}

// Equal reports whether both identities name the same scope.
func (i SourceIdentity) Equal(other SourceIdentity) bool {
	if i.Location != other.Location || i.Ref != other.Ref {
		return false
	}
	if i.Subtree == nil || other.Subtree == nil {
		return i.Subtree == nil && other.Subtree == nil
	}
	return *i.Subtree == *other.Subtree
}

// SubtreeDepth returns the number of path segments in the subtree, 0 when absent.
func (i SourceIdentity) SubtreeDepth() int {
	if i.Subtree == nil || *i.Subtree == "" || *i.Subtree == "." {
		return 0
	}
	return len(strings.Split(*i.Subtree, "/"))
}

// Scope returns a human-readable description of what is being analysed.
func (i SourceIdentity) Scope() string {
	if i.Subtree != nil {
		return fmt.Sprintf("subfolder '%s'", *i.Subtree)
	}
	return "entire repository"
}

// String returns location#ref with the subtree appended when present.
func (i SourceIdentity) String() string {
	s := i.Location + "#" + i.Ref
	if i.Subtree != nil {
		s += "@" + *i.Subtree
	}
	return s
}

// Validate checks the identity can be analysed.
// The subtree, when present, must be a clean relative slash path inside the tree.
func (i SourceIdentity) Validate() error {
	if strings.TrimSpace(i.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	if strings.TrimSpace(i.Ref) == "" {
		return fmt.Errorf("%w: ref is required", ErrInvalidInput)
	}
	if i.Subtree != nil {
		sub := *i.Subtree
		if !fs.ValidPath(sub) || sub == "." || path.Clean(sub) != sub {
			return fmt.Errorf("%w: subtree %q must be a relative path inside the tree", ErrInvalidInput, sub)
		}
	}
	return nil
}

// NormaliseSubtree converts user input into the canonical subtree form:
// forward slashes, no leading "./" or "/", no trailing slash.
// An input that reduces to nothing yields an empty string.
func NormaliseSubtree(raw string) string {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "\\", "/"))
	if s == "" {
		return ""
	}
	s = path.Clean(s)
	s = strings.TrimPrefix(s, "/")
	if s == "." {
		return ""
	}
	return s
}

// Fingerprint derives the cache key for an identity.
// It hashes "location#ref", appending "@subtree" when a subtree is present,
// and keeps the first FingerprintLength hex characters.
func Fingerprint(id SourceIdentity) string {
	content := id.Location + "#" + id.Ref
	if id.Subtree != nil {
		content += "@" + *id.Subtree
	}
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:FingerprintLength]
}
