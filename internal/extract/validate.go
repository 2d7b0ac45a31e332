package extract

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMultipleTimelines = errors.New("only one timeline per document")
	ErrEmptyDirective    = errors.New("directive has no value")
)

// ValidateDeclarations checks the per-document rules that do not need the
// session: at most one Milestones and one Deadlines section, and a value for
// every directive. All violations are reported together.
func ValidateDeclarations(d *Declarations) error {
	if d == nil {
		return errors.New("nil declarations")
	}
	var errs []error
	if d.MilestoneSections > 1 {
		errs = append(errs, fmt.Errorf("%w: %s has %d Milestones sections", ErrMultipleTimelines, d.DocID, d.MilestoneSections))
	}
	if d.DeadlineSections > 1 {
		errs = append(errs, fmt.Errorf("%w: %s has %d Deadlines sections", ErrMultipleTimelines, d.DocID, d.DeadlineSections))
	}
	for _, dir := range d.Directives {
		if len(dir.Values) == 0 {
			errs = append(errs, fmt.Errorf("%w: %s in %q", ErrEmptyDirective, dir.Kind, dir.Section.Title))
			continue
		}
		for _, v := range dir.Values {
			if strings.TrimSpace(v) == "" {
				errs = append(errs, fmt.Errorf("%w: %s in %q", ErrEmptyDirective, dir.Kind, dir.Section.Title))
				break
			}
		}
	}
	return errors.Join(errs...)
}
