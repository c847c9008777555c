package usecase

import (
	"regexp"
	"strings"
)

// Verification codes come in two shapes: a 6-digit run (482910) or two
// 5-character alphanumeric groups joined by a hyphen with at least four
// digits overall (A1B2C-D3E4F). RE2 has no lookarounds, so the digit
// minimum and the no-adjacent-period guard are checked after matching.
var codePattern = regexp.MustCompile(`\b([0-9]{6}|[A-Za-z0-9]{5}-[A-Za-z0-9]{5})\b`)

// ExtractCodes returns the distinct code candidates found in text, in
// first-seen order. Empty input yields an empty result.
func ExtractCodes(text string) []string {
	if text == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var codes []string

	for _, loc := range codePattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		match := text[start:end]

		// A leading period marks a version number or decimal fragment
		// ("v1.123456"), never a code. A trailing period only
		// disqualifies when it continues into a decimal ("123456.78");
		// a sentence-final period is fine.
		if start > 0 && text[start-1] == '.' {
			continue
		}
		if end+1 < len(text) && text[end] == '.' && isAlnum(text[end+1]) {
			continue
		}

		if strings.Contains(match, "-") && digitCount(match) < 4 {
			continue
		}

		if _, ok := seen[match]; ok {
			continue
		}
		seen[match] = struct{}{}
		codes = append(codes, match)
	}

	return codes
}

func isAlnum(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
