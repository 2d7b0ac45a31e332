// Package ref parses the free-text values that documents attach to timeline
// chunks: cross-references with roman-numeral submodule selectors, duration
// strings, work-log lines and milestone citations.
package ref

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrInvalidDuration  = errors.New("invalid duration")
	ErrInvalidRoman     = errors.New("invalid roman numeral")
	ErrInvalidReference = errors.New("invalid reference")
)

var (
	referenceRe   = regexp.MustCompile(`^([^()]+?)\s*(?:\(([^()]*)\))?$`)
	selectorSepRe = regexp.MustCompile(`[\s,]+`)
	slugRe        = regexp.MustCompile(`[\W_]+`)
	parensRe      = regexp.MustCompile(`[()]`)
	nonWordRe     = regexp.MustCompile(`\W+`)
)

// SplitNameAndSubmodules splits "Name (I, IV)" into the base name and the
// zero-based submodule indices. A reference without a parenthesized group
// yields no indices; the caller picks the default.
func SplitNameAndSubmodules(text string) (string, []int, error) {
	text = strings.TrimSpace(text)
	m := referenceRe.FindStringSubmatch(text)
	if m == nil {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidReference, text)
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return "", nil, fmt.Errorf("%w: empty name in %q", ErrInvalidReference, text)
	}

	var indices []int
	for _, tok := range selectorSepRe.Split(m[2], -1) {
		if tok == "" {
			continue
		}
		n, err := FromRoman(tok)
		if err != nil {
			return "", nil, fmt.Errorf("reference %q: %w", text, err)
		}
		indices = append(indices, n-1)
	}
	return name, indices, nil
}

// DisplayID renders a (name, submodule) pair as "name (III)".
func DisplayID(name string, submodule int) string {
	return fmt.Sprintf("%s (%s)", name, ToRoman(submodule+1))
}

// SanitizeID turns a display id into a diagram identifier: parentheses are
// dropped and every remaining run of non-word characters becomes "-".
func SanitizeID(id string) string {
	id = parensRe.ReplaceAllString(id, "")
	return nonWordRe.ReplaceAllString(id, "-")
}

// Slugify lowercases a title and collapses punctuation and whitespace runs
// into single dashes.
func Slugify(s string) string {
	return slugRe.ReplaceAllString(strings.ToLower(s), "-")
}
