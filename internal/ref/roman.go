package ref

import (
	"fmt"
	"regexp"
	"strings"
)

var romanRe = regexp.MustCompile(`^M{0,4}(CM|CD|D?C{0,3})(XC|XL|L?X{0,3})(IX|IV|V?I{0,3})$`)

var romanTable = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// FromRoman converts a roman numeral, in either case, to its value.
func FromRoman(s string) (int, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	if up == "" || !romanRe.MatchString(up) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRoman, s)
	}
	n := 0
	for _, r := range romanTable {
		for strings.HasPrefix(up, r.symbol) {
			n += r.value
			up = up[len(r.symbol):]
		}
	}
	return n, nil
}

// ToRoman renders n (1..4999) as an upper-case roman numeral. Values out of
// range fall back to decimal so display ids never panic.
func ToRoman(n int) string {
	if n <= 0 || n >= 5000 {
		return fmt.Sprintf("%d", n)
	}
	var sb strings.Builder
	for _, r := range romanTable {
		for n >= r.value {
			sb.WriteString(r.symbol)
			n -= r.value
		}
	}
	return sb.String()
}
