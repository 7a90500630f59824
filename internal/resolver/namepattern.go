package resolver

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/snapbase/snapbase/internal/snaperr"
)

// validNamePattern matches the legal character set for a snapshot_name.
var validNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidateSnapshotName enforces the snapshot_name invariant: non-empty,
// restricted to filesystem- and URL-safe characters.
func ValidateSnapshotName(name string) error {
	if name == "" {
		return snaperr.NewConfigInvalid("snapshot name must not be empty")
	}
	if !validNamePattern.MatchString(name) {
		return snaperr.NewConfigInvalid("snapshot name %q contains characters outside [A-Za-z0-9._-]", name)
	}
	return nil
}

// NameContext supplies the token values for ExpandNamePattern. Now and
// HashFunc are overridable so expansion is deterministic in tests, per the
// "deterministic given (pattern, source, existing snapshots, fixed clock,
// fixed RNG seed)" invariant.
type NameContext struct {
	SourceKey string
	Format    string
	Existing  map[string]bool // snapshot names already used by this source
	Now       func() time.Time
	HashFunc  func() (string, error)
}

var tokenPattern = regexp.MustCompile(`\{[a-z_]+\}`)

// ExpandNamePattern resolves the name-pattern tokens against ctx. {seq} is
// resolved last and incremented until the full expanded name is unique
// within ctx.Existing.
func ExpandNamePattern(pattern string, ctx NameContext) (string, error) {
	now := time.Now
	if ctx.Now != nil {
		now = ctx.Now
	}
	t := now().UTC()

	sourceBase := filepath.Base(ctx.SourceKey)
	ext := filepath.Ext(sourceBase)
	sourceNoExt := strings.TrimSuffix(sourceBase, ext)
	extNoDot := strings.TrimPrefix(ext, ".")

	hashFunc := ctx.HashFunc
	if hashFunc == nil {
		hashFunc = randomHex7
	}

	user := currentUser()

	replaceStatic := func(s string) (string, error) {
		var outerErr error
		out := tokenPattern.ReplaceAllStringFunc(s, func(tok string) string {
			switch tok {
			case "{source}":
				return sourceNoExt
			case "{source_ext}":
				return extNoDot
			case "{format}":
				return ctx.Format
			case "{timestamp}":
				return t.Format("20060102T150405Z")
			case "{date}":
				return t.Format("2006-01-02")
			case "{time}":
				return t.Format("150405")
			case "{user}":
				return user
			case "{hash}":
				h, err := hashFunc()
				if err != nil {
					outerErr = err
					return tok
				}
				return h
			case "{seq}":
				return tok // resolved in the loop below
			default:
				return tok
			}
		})
		return out, outerErr
	}

	partial, err := replaceStatic(pattern)
	if err != nil {
		return "", snaperr.NewConfigInvalid("expand name pattern %q: %v", pattern, err)
	}

	if !strings.Contains(partial, "{seq}") {
		if err := ValidateSnapshotName(partial); err != nil {
			return "", err
		}
		return partial, nil
	}

	for seq := 1; ; seq++ {
		candidate := strings.ReplaceAll(partial, "{seq}", strconv.Itoa(seq))
		if !ctx.Existing[candidate] {
			if err := ValidateSnapshotName(candidate); err != nil {
				return "", err
			}
			return candidate, nil
		}
	}
}

func randomHex7() (string, error) {
	// 4 bytes of entropy hex-encode to 8 chars; truncating to 7 keeps the
	// spec's exact width while leaving ~2^28 possible values, comfortably
	// collision-free across ~10^6 snapshots.
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf)[:7], nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	return "unknown"
}
