// Package classify decides whether a changelog bullet line is relevant to
// end users.
//
// A line is matched against two pattern sets. User-facing patterns decide
// what survives in the published changelog; internal patterns are only used
// for reporting.
package classify

import (
	"fmt"
	"regexp"
)

// Kind is the classification of a single change line.
type Kind int

const (
	Unclassified Kind = iota
	UserFacing
	Internal
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case UserFacing:
		return "user-facing"
	case Internal:
		return "internal"
	default:
		return "unclassified"
	}
}

// Classifier matches change lines against user-facing and internal patterns.
type Classifier struct {
	userFacing []*regexp.Regexp
	internal   []*regexp.Regexp
}

// Options selects the patterns a Classifier uses.
type Options struct {
	UserFacing      []string // Built-in pattern names
	Internal        []string // Built-in pattern names
	ExtraUserFacing []string // Raw regular expressions
	ExtraInternal   []string // Raw regular expressions
}

// DefaultOptions returns the options matching the standard conventional-commit rules.
func DefaultOptions() Options {
	return Options{
		UserFacing: DefaultUserFacing(),
		Internal:   DefaultInternal(),
	}
}

// New compiles a Classifier from the given options.
func New(opts Options) (*Classifier, error) {
	userFacing, err := compile(UserFacing, opts.UserFacing, opts.ExtraUserFacing)
	if err != nil {
		return nil, fmt.Errorf("user-facing patterns: %w", err)
	}
	internal, err := compile(Internal, opts.Internal, opts.ExtraInternal)
	if err != nil {
		return nil, fmt.Errorf("internal patterns: %w", err)
	}
	return &Classifier{userFacing: userFacing, internal: internal}, nil
}

// Default returns a Classifier built from DefaultOptions.
func Default() *Classifier {
	c, err := New(DefaultOptions())
	if err != nil {
		panic(err)
	}
	return c
}

func compile(kind Kind, names, extra []string) ([]*regexp.Regexp, error) {
	patterns, err := GetPatterns(kind, names)
	if err != nil {
		return nil, err
	}

	res := make([]*regexp.Regexp, 0, len(patterns)+len(extra))
	for _, p := range patterns {
		res = append(res, p.Regex)
	}
	for _, expr := range extra {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
		}
		res = append(res, re)
	}
	return res, nil
}

// IsUserFacing reports whether the line matches any user-facing pattern.
func (c *Classifier) IsUserFacing(line string) bool {
	return matchAny(c.userFacing, line)
}

// IsInternal reports whether the line matches any internal pattern.
func (c *Classifier) IsInternal(line string) bool {
	return matchAny(c.internal, line)
}

// Classify returns the kind of a change line. User-facing wins when a line
// matches both sets.
func (c *Classifier) Classify(line string) Kind {
	switch {
	case c.IsUserFacing(line):
		return UserFacing
	case c.IsInternal(line):
		return Internal
	default:
		return Unclassified
	}
}

func matchAny(patterns []*regexp.Regexp, line string) bool {
	for _, re := range patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
