package validation

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Rule identifies the check that produced an Error.
type Rule string

const (
	RuleMalformedBundle           Rule = "MalformedBundle"
	RuleUnknownOverlayKind        Rule = "UnknownOverlayKind"
	RuleUnknownAttributeReference Rule = "UnknownAttributeReference"
	RuleMissingLanguage           Rule = "MissingLanguage"
	RuleMissingTranslation        Rule = "MissingTranslation"
	RuleDanglingFlag              Rule = "DanglingFlag"
	RuleEntryCodeMismatch         Rule = "EntryCodeMismatch"
	RuleDuplicateOverlay          Rule = "DuplicateOverlay"
	RuleUnsupportedVersion        Rule = "UnsupportedVersion"
	RuleDigestMismatch            Rule = "DigestMismatch"
	RuleInvalidData               Rule = "InvalidData"
	RuleConditionNotMet           Rule = "ConditionNotMet"
)

// Error is a single violation.
type Error struct {
	Rule      Rule   `json:"rule"`
	Attribute string `json:"attribute,omitempty"`
	Language  string `json:"language,omitempty"`
	Message   string `json:"message"`
}

func (e Error) String() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}

// Result is the outcome of a validation. Errors is never nil.
type Result struct {
	Valid  bool    `json:"valid"`
	Errors []Error `json:"errors"`
}

func (r *Result) String() string {
	if r.Valid {
		return "valid"
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.String())
	}
	return fmt.Sprintf("invalid: %s", strings.Join(msgs, "; "))
}

// collector gathers the errors of one rule at a time and keeps them in a stable order.
type collector struct {
	errs  []Error
	batch []Error
}

func (c *collector) add(rule Rule, attr, lang, format string, args ...any) {
	c.batch = append(c.batch, Error{Rule: rule, Attribute: attr, Language: lang, Message: fmt.Sprintf(format, args...)})
}

// flush sorts the current batch by attribute, language and message and appends it.
func (c *collector) flush() {
	slices.SortStableFunc(c.batch, func(a, b Error) int {
		return cmp.Or(
			cmp.Compare(a.Attribute, b.Attribute),
			cmp.Compare(a.Language, b.Language),
			cmp.Compare(a.Message, b.Message),
		)
	})
	c.errs = append(c.errs, c.batch...)
	c.batch = nil
}

func (c *collector) result() *Result {
	c.flush()
	errs := c.errs
	if errs == nil {
		errs = []Error{}
	}
	return &Result{Valid: len(errs) == 0, Errors: errs}
}
