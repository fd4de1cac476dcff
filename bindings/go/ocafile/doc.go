// Package ocafile compiles OCAfile text into bundles and renders bundles back
// into OCAfile text.
//
// An OCAfile is line oriented:
//
//	--name=passport
//	ADD ATTRIBUTE number=Text \
//	    issued=DateTime
//	ADD FLAGGED_ATTRIBUTES number
//	ADD OVERLAY LABEL
//	  language="en"
//	  attribute_labels
//	    number="Passport Number"
//
// Keywords and overlay kinds are matched case-insensitively. Lines indented
// below an ADD OVERLAY statement form its block, a key without a value opens
// a nested block. Lines starting with # are comments.
package ocafile
