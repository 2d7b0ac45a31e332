package ref

import (
	"strings"
	"time"
)

// Citation is a milestone or deadline list item: an optional leading date,
// a chunk reference and an optional submodule selection.
type Citation struct {
	Date       time.Time `json:"date,omitzero"`
	Ref        string    `json:"ref"`
	Submodules []int     `json:"submodules,omitempty"`
}

// ParseCitation parses "2015-01-01 Parser (I, IV)". The first word is taken
// as the date only when it parses as one.
func ParseCitation(text string, loc *time.Location) (Citation, error) {
	name, subs, err := SplitNameAndSubmodules(text)
	if err != nil {
		return Citation{}, err
	}

	c := Citation{Ref: name, Submodules: subs}
	if head, tail, ok := strings.Cut(name, " "); ok {
		if t, err := ParseDate(head, loc); err == nil {
			c.Date = t
			c.Ref = strings.TrimSpace(tail)
		}
	}
	return c, nil
}
