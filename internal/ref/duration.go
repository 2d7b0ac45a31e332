package ref

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var durationTokenRe = regexp.MustCompile(`(\d+(?:\.\d+)?|\.\d+)[^\w]*([A-Za-z]*)`)

// ParseDuration reads an hours component ("1.5", "2h", "1 hr", "3 hrs") and a
// minutes component ("20m", "5 min", "10 mins") and returns their sum in
// minutes. The first component of each kind wins. A string yielding zero
// minutes is rejected.
func ParseDuration(text string) (int, error) {
	var hours, minutes float64
	var haveHours, haveMinutes bool

	for _, m := range durationTokenRe.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		unit := strings.ToLower(m[2])
		switch {
		case strings.HasPrefix(unit, "m"):
			if !haveMinutes {
				minutes, haveMinutes = v, true
			}
		case unit == "" || unit == "h" || unit == "hr" || unit == "hrs" || unit == "hour" || unit == "hours":
			if !haveHours {
				hours, haveHours = v, true
			}
		}
	}

	total := int(hours*60 + minutes)
	if total <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, text)
	}
	return total, nil
}
