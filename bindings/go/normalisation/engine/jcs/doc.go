// Package jcs implements the JSON Canonicalization Scheme (JCS) as defined in RFC 8785
// together with transformation rules that decide which parts of a document take part
// in its canonical form.
//
// A value is first marshaled to JSON and read back into generic maps and slices.
// The rules are then applied from the root down while the structure is rebuilt, and the result is
// serialised with RFC 8785: object members sorted, no insignificant whitespace,
// ES6 number formatting and minimal string escaping. Fields holding null are dropped.
//
// Rules:
//
//  1. MapExcludes drops the listed fields of an object (a nil rule) or applies the
//     given rule to them.
//  2. MapIncludes keeps only the listed fields of an object.
//  3. ArrayExcludes applies a rule to every element of an array.
//  4. MapValue transforms a value before the next rule is applied.
//
// Usage:
//
//	canonical, err := jcs.Normalise(input, jcs.MapExcludes{"v": nil})
//
// For more information about JCS, see RFC 8785:
// https://datatracker.ietf.org/doc/html/rfc8785
package jcs
