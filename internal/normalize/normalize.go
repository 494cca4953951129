// Package normalize maps raw window titles and classes to stable identities.
//
// Normalization is an ordered cascade of pure rules. Each rule either claims
// the window (returning an identity) or passes. The first claim wins, so
// specific rules must come before generic title stripping.
//
// Matching is case-insensitive: the title is lower-cased once before the
// cascade runs. The one exception is the sub-window rule, which matches the
// literal lower-case "win" prefix so that titles such as "WinSCP" or
// "Windows Terminal" are left alone.
package normalize

import (
	"strings"
)

// Identity is the canonical name of an application or activity.
type Identity string

// Empty is returned when a window carries neither a usable title nor a
// class. Callers must treat it as "no usable window".
const Empty Identity = ""

// IsEmpty reports whether id is the empty sentinel.
func (id Identity) IsEmpty() bool {
	return id == Empty
}

func (id Identity) String() string {
	return string(id)
}

// Input is the view of a window that rules inspect.
type Input struct {
	// Title is the trimmed raw title.
	Title string
	// Class is the trimmed window class.
	Class string

	lowerTitle string
	lowerClass string
}

// NewInput trims title and class and precomputes their lower-case forms.
func NewInput(title, class string) Input {
	title = strings.TrimSpace(title)
	class = strings.TrimSpace(class)
	return Input{
		Title:      title,
		Class:      class,
		lowerTitle: strings.ToLower(title),
		lowerClass: strings.ToLower(class),
	}
}

// LowerTitle returns the lower-cased title.
func (in Input) LowerTitle() string { return in.lowerTitle }

// LowerClass returns the lower-cased class.
func (in Input) LowerClass() string { return in.lowerClass }

// Rule is one step of the cascade. Apply returns ok=false to pass the window
// on to the next rule.
type Rule struct {
	Name  string
	Apply func(in Input) (id Identity, ok bool)
}

// Normalizer evaluates rules in order.
type Normalizer struct {
	rules []Rule
}

// New returns a Normalizer with the default rule set.
func New() *Normalizer {
	return NewWithRules(DefaultRules()...)
}

// NewWithRules returns a Normalizer that evaluates exactly the given rules.
func NewWithRules(rules ...Rule) *Normalizer {
	r := make([]Rule, len(rules))
	copy(r, rules)
	return &Normalizer{rules: r}
}

// Normalize returns the identity for a title/class pair. It never fails; a
// window with neither title nor class yields Empty.
func (n *Normalizer) Normalize(title, class string) Identity {
	in := NewInput(title, class)
	if in.Title == "" && in.Class == "" {
		return Empty
	}
	for _, rule := range n.rules {
		if id, ok := rule.Apply(in); ok {
			return id
		}
	}
	return Empty
}

// Rules returns the names of the configured rules in evaluation order.
func (n *Normalizer) Rules() []string {
	names := make([]string, 0, len(n.rules))
	for _, r := range n.rules {
		names = append(names, r.Name)
	}
	return names
}

var defaultNormalizer = New()

// Normalize runs the default rule set.
func Normalize(title, class string) Identity {
	return defaultNormalizer.Normalize(title, class)
}
