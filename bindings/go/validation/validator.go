// Package validation checks bundles against their own referential integrity
// and the rules of an overlay file. Validation never fails: every problem,
// including a malformed document, is reported in the Result.
package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/sk31337/oca/bindings/go/bundle"
	v1 "github.com/sk31337/oca/bindings/go/normalisation/json/v1"
	"github.com/sk31337/oca/bindings/go/overlayfile"
	"github.com/sk31337/oca/bindings/go/said"
)

const Realm = "validation"

type Options struct {
	// Rules are the overlay file rules. overlayfile.Default() is used when nil.
	Rules *overlayfile.Rules
	// VerifyDigests recomputes every digest and reports stored digests that differ.
	VerifyDigests bool
	Logger        *slog.Logger
}

type Option func(*Options)

// WithRules validates against the rules of an overlay file.
func WithRules(rules *overlayfile.Rules) Option {
	return func(o *Options) {
		o.Rules = rules
	}
}

// WithDigestVerification enables the DigestMismatch rule.
func WithDigestVerification() Option {
	return func(o *Options) {
		o.VerifyDigests = true
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func newOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	if options.Rules == nil {
		options.Rules = overlayfile.Default()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return options
}

// Validate checks a finalized bundle.
func Validate(ctx context.Context, b *bundle.Bundle, opts ...Option) *Result {
	c := &collector{}
	doc, err := b.Document()
	if err != nil {
		c.add(RuleMalformedBundle, "", "", "%v", err)
		return c.result()
	}
	validateDocument(ctx, c, doc, newOptions(opts))
	return c.result()
}

// ValidateDocument checks a bundle document that may not have been built
// through a builder, for example one read with bundle.DecodeDocument.
func ValidateDocument(ctx context.Context, doc *bundle.Document, opts ...Option) *Result {
	c := &collector{}
	if doc == nil {
		c.add(RuleMalformedBundle, "", "", "no document")
		return c.result()
	}
	validateDocument(ctx, c, doc, newOptions(opts))
	return c.result()
}

// ValidateJSON checks the JSON (or CBOR) projection of a bundle. The document
// is checked against the bundle schema first, then read leniently and validated
// as far as its content allows.
func ValidateJSON(ctx context.Context, data []byte, opts ...Option) *Result {
	options := newOptions(opts)
	c := &collector{}

	data, err := bundle.ToJSON(data)
	if err != nil {
		c.add(RuleMalformedBundle, "", "", "%v", err)
		return c.result()
	}

	structural := checkStructure(c, data)
	c.flush()

	doc, issues, err := bundle.DecodeDocument(data)
	if err != nil {
		if structural {
			c.add(RuleMalformedBundle, "", "", "%v", err)
		}
		return c.result()
	}
	for _, issue := range issues {
		switch {
		case errors.Is(issue, bundle.ErrUnknownOverlayKind):
			c.add(RuleUnknownOverlayKind, "", "", "%v", issue)
		case structural:
			c.add(RuleMalformedBundle, "", "", "%v", issue)
		}
	}
	if doc.V != "" {
		if _, _, err := bundle.ParseVersion(doc.V); err != nil && structural {
			c.add(RuleMalformedBundle, "", "", "v: %v", err)
		}
	}
	c.flush()

	options.Logger.DebugContext(ctx, "read bundle document", "realm", Realm, "issues", len(issues), "overlays", len(doc.Overlays))
	validateDocument(ctx, c, doc, options)
	return c.result()
}

func validateDocument(ctx context.Context, c *collector, doc *bundle.Document, options *Options) {
	cb := doc.CaptureBase
	if cb == nil {
		cb = &bundle.CaptureBase{}
	}

	checkShapes(c, doc.Overlays)
	checkAttributeReferences(c, cb, doc.Overlays)
	checkLanguages(c, doc.Overlays, options.Rules)
	checkTranslations(c, doc.Overlays, options.Rules)
	checkFlags(c, cb)
	checkEntryCodes(c, doc.Overlays)
	checkDuplicates(c, doc.Overlays)
	checkVersions(c, doc.Overlays, options.Rules)
	if options.VerifyDigests {
		checkDigests(c, doc)
	}
	c.flush()

	options.Logger.DebugContext(ctx, "checked bundle document", "realm", Realm, "digest", doc.Digest, "errors", len(c.errs))
}

// checkShapes reports kind specific payloads that a builder would have rejected.
func checkShapes(c *collector, overlays []bundle.Overlay) {
	for _, o := range overlays {
		if err := o.Validate(); err != nil {
			c.add(RuleMalformedBundle, "", o.GetLanguage(), "%s overlay: %v", o.Kind(), err)
		}
		if lang := o.GetLanguage(); lang != "" {
			if err := bundle.ValidateLanguage(lang); err != nil {
				c.add(RuleMalformedBundle, "", lang, "%s overlay: %v", o.Kind(), err)
			}
		}
	}
	c.flush()
}

func checkAttributeReferences(c *collector, cb *bundle.CaptureBase, overlays []bundle.Overlay) {
	for _, o := range overlays {
		for _, name := range o.AttributeNames() {
			if _, ok := cb.Attribute(name); !ok {
				c.add(RuleUnknownAttributeReference, name, o.GetLanguage(),
					"%s overlay refers to attribute %q which is not in the capture base", o.Kind(), name)
			}
		}
	}
	c.flush()
}

func checkLanguages(c *collector, overlays []bundle.Overlay, rules *overlayfile.Rules) {
	for _, o := range overlays {
		rule, ok := rules.Rule(o.Kind())
		if ok && rule.RequiresLanguage && o.GetLanguage() == "" {
			c.add(RuleMissingLanguage, "", "", "%s overlay has no language", o.Kind())
		}
	}
	c.flush()
}

func checkTranslations(c *collector, overlays []bundle.Overlay, rules *overlayfile.Rules) {
	for _, kind := range rules.Kinds() {
		rule, _ := rules.Rule(kind)
		if len(rule.RequiredLanguages) == 0 {
			continue
		}
		present := map[string]struct{}{}
		for _, o := range overlays {
			if o.Kind() == kind {
				present[strings.ToLower(o.GetLanguage())] = struct{}{}
			}
		}
		for _, lang := range rule.RequiredLanguages {
			if _, ok := present[lang]; !ok {
				c.add(RuleMissingTranslation, "", lang, "%s overlay for language %q is missing", kind, lang)
			}
		}
	}
	c.flush()
}

func checkFlags(c *collector, cb *bundle.CaptureBase) {
	for _, name := range cb.FlaggedAttributes {
		if _, ok := cb.Attribute(name); !ok {
			c.add(RuleDanglingFlag, name, "", "flagged attribute %q is not in the capture base", name)
		}
	}
	c.flush()
}

func checkEntryCodes(c *collector, overlays []bundle.Overlay) {
	codes := map[string]map[string]struct{}{}
	for _, o := range overlays {
		ec, ok := o.(*bundle.EntryCode)
		if !ok {
			continue
		}
		for attr, list := range ec.AttributeEntryCodes {
			if codes[attr] == nil {
				codes[attr] = map[string]struct{}{}
			}
			for _, code := range list {
				codes[attr][code] = struct{}{}
			}
		}
	}

	for _, o := range overlays {
		entry, ok := o.(*bundle.Entry)
		if !ok {
			continue
		}
		for attr, entries := range entry.AttributeEntries {
			allowed, ok := codes[attr]
			if !ok {
				continue
			}
			for _, code := range slices.Sorted(maps.Keys(entries)) {
				if _, ok := allowed[code]; !ok {
					c.add(RuleEntryCodeMismatch, attr, entry.Language,
						"entry code %q of attribute %q is not one of its entry codes", code, attr)
				}
			}
		}
	}
	c.flush()
}

func checkDuplicates(c *collector, overlays []bundle.Overlay) {
	type key struct {
		kind bundle.Kind
		key  string
	}
	seen := map[key]struct{}{}
	for _, o := range overlays {
		k := key{kind: o.Kind(), key: strings.ToLower(o.GetLanguage())}
		if link, ok := o.(*bundle.Link); ok {
			k.key = link.TargetBundle
		}
		if _, dup := seen[k]; dup {
			if o.Kind().Localized() {
				c.add(RuleDuplicateOverlay, "", o.GetLanguage(), "%s overlay for language %q appears more than once", o.Kind(), o.GetLanguage())
			} else {
				c.add(RuleDuplicateOverlay, "", "", "%s overlay appears more than once", o.Kind())
			}
			continue
		}
		seen[k] = struct{}{}
	}
	c.flush()
}

func checkVersions(c *collector, overlays []bundle.Overlay, rules *overlayfile.Rules) {
	for _, o := range overlays {
		version := o.GetType().Version
		if _, err := semver.StrictNewVersion(version); err != nil {
			c.add(RuleUnsupportedVersion, "", o.GetLanguage(), "%s overlay version %q is not a semantic version", o.Kind(), version)
			continue
		}
		if rule, ok := rules.Rule(o.Kind()); ok && !rule.Supports(version) {
			c.add(RuleUnsupportedVersion, "", o.GetLanguage(), "%s overlay version %q does not satisfy %s", o.Kind(), version, rule.Versions)
		}
	}
	c.flush()
}

// checkDigests recomputes the digests bottom-up on a copy of the document.
func checkDigests(c *collector, doc *bundle.Document) {
	clone, err := doc.Clone()
	if err != nil {
		c.add(RuleDigestMismatch, "", "", "cannot copy document: %v", err)
		c.flush()
		return
	}

	mismatch := func(what string, v said.Addressable, algo string) {
		stored := v.GetDigest()
		ok, computed, err := said.Verify(v, algo)
		switch {
		case err != nil:
			c.add(RuleDigestMismatch, "", "", "%s: %v", what, err)
		case !ok:
			c.add(RuleDigestMismatch, "", "", "%s: stored digest %q, computed %q", what, stored, computed)
		}
	}

	if clone.CaptureBase != nil {
		mismatch("capture base", clone.CaptureBase, v1.Algorithm)
	}
	for _, o := range clone.Overlays {
		what := fmt.Sprintf("%s overlay", o.Kind())
		if lang := o.GetLanguage(); lang != "" {
			what += fmt.Sprintf(" (%s)", lang)
		}
		if clone.CaptureBase != nil && o.GetCaptureBase() != clone.CaptureBase.Digest {
			c.add(RuleDigestMismatch, "", "", "%s: attached to capture base %q, expected %q", what, o.GetCaptureBase(), clone.CaptureBase.Digest)
		}
		mismatch(what, o, v1.Algorithm)
	}
	bundle.SortOverlays(clone.Overlays)
	mismatch("bundle", clone, v1.BundleAlgorithm)
	c.flush()
}
