// Package fingerprint produces the stable content hash used to detect the
// same posting reappearing under a different URL.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// hexLen is how many hex characters of the hash are kept. 64 bits is plenty
// for the corpus size and keeps the column short.
const hexLen = 16

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	bracketsRe   = regexp.MustCompile(`[【】\[\]（）()「」『』]`)
	affixHeadRe  = regexp.MustCompile(`^株式会社\s*`)
	affixTailRe  = regexp.MustCompile(`\s*株式会社$`)
)

// Normalize canonicalises text for hashing: case-fold, collapse internal
// whitespace, strip bracket punctuation, and strip the 株式会社 legal-entity
// affix so the same company spelled with or without it hashes identically.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	t := strings.ToLower(strings.TrimSpace(text))
	t = whitespaceRe.ReplaceAllString(t, " ")
	t = affixHeadRe.ReplaceAllString(t, "")
	t = affixTailRe.ReplaceAllString(t, "")
	t = bracketsRe.ReplaceAllString(t, "")
	return strings.TrimSpace(t)
}

// Generate returns the deduplication fingerprint for a (title, company,
// source) triple. Pure and deterministic: two independent runs over the same
// underlying posting always agree.
func Generate(title, company, source string) string {
	joined := strings.Join([]string{
		Normalize(title),
		Normalize(company),
		strings.ToLower(strings.TrimSpace(source)),
	}, "|")

	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])[:hexLen]
}
