package lexer

import "golang.org/x/text/unicode/norm"

// normalizeSource applies Unicode NFC normalization to source text before
// tokenizing, so that visually identical identifiers written with distinct
// combining-character sequences compare equal as byte strings. This mirrors
// the normalization step a source-to-token front end runs ahead of the
// scanner proper, rather than teaching the scanner itself about composed
// vs. decomposed code points.
func normalizeSource(src string) string {
	if norm.NFC.IsNormalString(src) {
		return src
	}
	return norm.NFC.String(src)
}
