// Package v1 provides the canonical JSON form used to derive the self-addressing
// identifiers of capture bases, overlays and bundles.
//
// The form is RFC 8785 (JCS) over the JSON projection of the object.
// Capture bases and overlays are digested whole with Algorithm. Bundles use
// BundleAlgorithm, which keeps only the members listed in BundleRules.
package v1
