package overlayfile

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/sk31337/oca/bindings/go/bundle"
)

// KindRule is the resolved rule for one overlay kind.
type KindRule struct {
	Kind             bundle.Kind
	RequiresLanguage bool
	// RequiredLanguages are lower case and sorted.
	RequiredLanguages []string
	// Versions is nil when every version is supported.
	Versions *semver.Constraints
}

// Supports reports whether an overlay type version satisfies the version constraint.
func (r KindRule) Supports(version string) bool {
	if r.Versions == nil {
		return true
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return r.Versions.Check(v)
}

// Rules is the rule set the validator applies, keyed by overlay kind.
// Kinds without a rule have no language or version requirements.
type Rules struct {
	kinds map[bundle.Kind]KindRule
}

// Resolve checks the rules of the file and resolves kind names.
func (f *File) Resolve() (*Rules, error) {
	rules := &Rules{kinds: make(map[bundle.Kind]KindRule, len(f.Overlays))}
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(f.Overlays)) {
		kind, ok := bundle.LookupKind(name)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %q", bundle.ErrUnknownOverlayKind, name))
			continue
		}
		if _, dup := rules.kinds[kind]; dup {
			errs = append(errs, fmt.Errorf("%q: rules for %s are declared more than once", name, kind))
			continue
		}
		rule, err := resolve(kind, f.Overlays[name])
		if err != nil {
			errs = append(errs, fmt.Errorf("%q: %w", name, err))
			continue
		}
		rules.kinds[kind] = rule
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOverlayFile, err)
	}
	return rules, nil
}

func resolve(kind bundle.Kind, r Rule) (KindRule, error) {
	rule := KindRule{
		Kind:             kind,
		RequiresLanguage: r.RequiresLanguage || len(r.RequiredLanguages) > 0,
	}
	for _, lang := range r.RequiredLanguages {
		if err := bundle.ValidateLanguage(lang); err != nil {
			return KindRule{}, err
		}
		rule.RequiredLanguages = append(rule.RequiredLanguages, strings.ToLower(lang))
	}
	slices.Sort(rule.RequiredLanguages)
	rule.RequiredLanguages = slices.Compact(rule.RequiredLanguages)

	if r.Versions != "" {
		c, err := semver.NewConstraint(r.Versions)
		if err != nil {
			return KindRule{}, fmt.Errorf("invalid version constraint %q: %w", r.Versions, err)
		}
		rule.Versions = c
	}
	return rule, nil
}

// NewRules builds a rule set from resolved rules. A later rule for the same kind replaces an earlier one.
func NewRules(rules ...KindRule) *Rules {
	rs := &Rules{kinds: make(map[bundle.Kind]KindRule, len(rules))}
	for _, r := range rules {
		rs.kinds[r.Kind] = r
	}
	return rs
}

// Default requires a language for every language-keyed kind.
func Default() *Rules {
	var rules []KindRule
	for _, kind := range bundle.Kinds() {
		if kind.Localized() {
			rules = append(rules, KindRule{Kind: kind, RequiresLanguage: true})
		}
	}
	return NewRules(rules...)
}

// Rule returns the rule of a kind.
func (r *Rules) Rule(kind bundle.Kind) (KindRule, bool) {
	if r == nil {
		return KindRule{}, false
	}
	rule, ok := r.kinds[kind]
	return rule, ok
}

// Kinds returns the kinds with rules in declaration order of the kinds.
func (r *Rules) Kinds() []bundle.Kind {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.kinds))
}
