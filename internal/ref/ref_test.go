package ref

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	cases := map[string]int{
		"1 hr":        60,
		"1":           60,
		"1h":          60,
		"1 hrs":       60,
		"1.5 hrs":     90,
		"1.5 hrs 20m": 110,
		"20 min":      20,
		"20 mins":     20,
		"2h30m":       150,
		" 2hrs ":      120,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseDuration_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "soon", "0h"} {
		_, err := ParseDuration(in)
		assert.ErrorIs(t, err, ErrInvalidDuration, in)
	}
}

func TestSplitNameAndSubmodules(t *testing.T) {
	name, subs, err := SplitNameAndSubmodules("link1 (I, IV)")
	require.NoError(t, err)
	assert.Equal(t, "link1", name)
	assert.Equal(t, []int{0, 3}, subs)

	name, subs, err = SplitNameAndSubmodules("link1 (i, IV)")
	require.NoError(t, err)
	assert.Equal(t, "link1", name)
	assert.Equal(t, []int{0, 3}, subs)

	name, subs, err = SplitNameAndSubmodules("link1")
	require.NoError(t, err)
	assert.Equal(t, "link1", name)
	assert.Empty(t, subs)

	name, subs, err = SplitNameAndSubmodules("  Parser Design (II) ")
	require.NoError(t, err)
	assert.Equal(t, "Parser Design", name)
	assert.Equal(t, []int{1}, subs)
}

func TestSplitNameAndSubmodules_Errors(t *testing.T) {
	_, _, err := SplitNameAndSubmodules("link1 (IIII)")
	assert.ErrorIs(t, err, ErrInvalidRoman)

	_, _, err = SplitNameAndSubmodules("link1 (A)")
	assert.ErrorIs(t, err, ErrInvalidRoman)

	_, _, err = SplitNameAndSubmodules("(I)")
	assert.ErrorIs(t, err, ErrInvalidReference)

	_, _, err = SplitNameAndSubmodules("")
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestRomanRoundTrip(t *testing.T) {
	for n := 1; n < 200; n++ {
		got, err := FromRoman(ToRoman(n))
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
	assert.Equal(t, "XIV", ToRoman(14))
	assert.Equal(t, "MCMXCIV", ToRoman(1994))
}

func TestDisplayAndSanitizeID(t *testing.T) {
	assert.Equal(t, "B (I)", DisplayID("B", 0))
	assert.Equal(t, "parser (III)", DisplayID("parser", 2))
	assert.Equal(t, "B-I", SanitizeID(DisplayID("B", 0)))
	assert.Equal(t, "parser-design-IV", SanitizeID("parser-design (IV)"))
	assert.Equal(t, "a-b-II", SanitizeID("a.b (II)"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "parser-design", Slugify("Parser Design"))
	assert.Equal(t, "a-b-c", Slugify("A,  b__c"))
	assert.Equal(t, "phase-2-", Slugify("Phase 2!"))
}

func TestParseWorkLogLine(t *testing.T) {
	now := time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)

	e, err := ParseWorkLogLine("2015-01-01: 2hrs 90%", now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), e.Start)
	assert.Equal(t, 120, e.Minutes)
	assert.True(t, e.HasCompleteness)
	assert.InDelta(t, 0.9, e.Completeness, 1e-9)
	assert.True(t, e.Completed.IsZero())
}

func TestParseWorkLogLine_NoDate(t *testing.T) {
	now := time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)

	e, err := ParseWorkLogLine("1.5 hrs 20m", now, time.UTC)
	require.NoError(t, err)
	assert.True(t, e.Start.IsZero())
	assert.Equal(t, 110, e.Minutes)
	assert.False(t, e.HasCompleteness)
}

func TestParseWorkLogLine_PercentOnlyCompletes(t *testing.T) {
	now := time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)

	e, err := ParseWorkLogLine("100%", now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 0, e.Minutes)
	assert.InDelta(t, 1.0, e.Completeness, 1e-9)
	assert.Equal(t, now, e.Completed)

	e, err = ParseWorkLogLine("2015-03-04: 100%", now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, 3, 4, 0, 0, 0, 0, time.UTC), e.Completed)
}

func TestParseWorkLogLine_ClockTimeInPrefix(t *testing.T) {
	now := time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)

	e, err := ParseWorkLogLine("2015-01-01 10:30: 45m", now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, 1, 1, 10, 30, 0, 0, time.UTC), e.Start)
	assert.Equal(t, 45, e.Minutes)
}

func TestParseWorkLogLine_NothingUsable(t *testing.T) {
	_, err := ParseWorkLogLine("did some stuff", time.Now(), time.UTC)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	// A date alone records no work.
	_, err = ParseWorkLogLine("2015-01-01:", time.Now(), time.UTC)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestParseCitation(t *testing.T) {
	c, err := ParseCitation("link1", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, Citation{Ref: "link1"}, c)

	c, err = ParseCitation("2015-01-01 link1 (i, IV)", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "link1", c.Ref)
	assert.Equal(t, []int{0, 3}, c.Submodules)
	assert.Equal(t, time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), c.Date)

	c, err = ParseCitation("02/01/2012 link2", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "link2", c.Ref)
	assert.Equal(t, time.Date(2012, 2, 1, 0, 0, 0, 0, time.UTC), c.Date)

	c, err = ParseCitation("Parser Design (II)", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "Parser Design", c.Ref)
	assert.True(t, c.Date.IsZero())
}
