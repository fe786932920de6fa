package classify

import (
	"fmt"
	"regexp"
)

// Pattern defines a named change-line pattern.
type Pattern struct {
	Name  string
	Regex *regexp.Regexp
	Kind  Kind
}

// Built-in change-line patterns. All are anchored at the bullet marker.
var (
	// - feat: ..., - fix(core): ..., - perf: ...
	conventionalUserRegex = regexp.MustCompile(`^- (feat|fix|perf)(\(|:)`)

	// - chore: ..., - ci(deps): ..., - docs: ...
	conventionalInternalRegex = regexp.MustCompile(`^- (chore|ci|test|refactor|docs|build|style|debug)(\(|:)`)

	// - Merge pull request #12 from ..., - Merge branch 'main'
	mergeRegex = regexp.MustCompile(`^- Merge `)

	// Subsumed by conventional_internal; kept so configs can name it alone.
	choreRegex = regexp.MustCompile(`^- chore: `)
)

// BuiltInPatterns contains all available change-line patterns keyed by name.
var BuiltInPatterns = map[string]Pattern{
	"conventional_user": {
		Name:  "conventional_user",
		Regex: conventionalUserRegex,
		Kind:  UserFacing,
	},
	"conventional_internal": {
		Name:  "conventional_internal",
		Regex: conventionalInternalRegex,
		Kind:  Internal,
	},
	"merge": {
		Name:  "merge",
		Regex: mergeRegex,
		Kind:  Internal,
	},
	"chore": {
		Name:  "chore",
		Regex: choreRegex,
		Kind:  Internal,
	},
}

// DefaultUserFacing returns the pattern names enabled for user-facing lines by default.
func DefaultUserFacing() []string {
	return []string{"conventional_user"}
}

// DefaultInternal returns the pattern names enabled for internal lines by default.
func DefaultInternal() []string {
	return []string{"conventional_internal", "merge", "chore"}
}

// GetPatterns returns the patterns of the given kind matching names.
// Unknown names and patterns of another kind are reported as an error.
func GetPatterns(kind Kind, names []string) ([]Pattern, error) {
	patterns := make([]Pattern, 0, len(names))
	for _, name := range names {
		pattern, ok := BuiltInPatterns[name]
		if !ok {
			return nil, fmt.Errorf("unknown pattern %q", name)
		}
		if pattern.Kind != kind {
			return nil, fmt.Errorf("pattern %q is %s, not %s", name, pattern.Kind, kind)
		}
		patterns = append(patterns, pattern)
	}
	return patterns, nil
}
