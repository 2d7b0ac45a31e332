package report

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/doctimeline/internal/timeline"
)

var now = time.Date(2020, 1, 8, 0, 0, 0, 0, time.UTC)

func TestRow_Formats(t *testing.T) {
	r := timeline.NewRollup()
	r.Start = now.AddDate(0, 0, -7)
	r.RequestedMinutes["a (I)"] = 60
	r.RequestedMinutes["b (I)"] = 60
	r.MinutesWorked["a (I)"] = 30
	r.MinutesWorked["b (I)"] = 60
	r.Done["a (I)"] = 0.5
	r.Done["b (I)"] = 0.5

	got := Row(timeline.Finalize("Milestone 1", r, now))
	assert.Equal(t, []string{
		"Milestone 1",
		"2.00 h",
		"50 %",
		"1.50 h",
		"0.50 h",
		"1.50 h",
		"7.00 d",
		"1.50",
		"50 %",
		"2020-01-15",
		"2020-01-12",
	}, got)
	assert.Len(t, got, len(Header()))
}

func TestRow_NoETA(t *testing.T) {
	r := timeline.NewRollup()
	r.Start = now
	r.RequestedMinutes["a (I)"] = 90

	got := Row(timeline.Finalize("fresh", r, now))
	assert.Equal(t, "1.50 h", got[1])
	assert.Equal(t, "0 %", got[2])
	assert.Equal(t, "0.00", got[7])
	assert.Equal(t, "n/a", got[9])
	assert.Equal(t, "n/a", got[10])
}

func TestChunkTable(t *testing.T) {
	s := timeline.NewSession(slog.New(slog.NewTextHandler(io.Discard, nil)))
	a := s.Define("parser", "Parser", "doc")
	require.NoError(t, a.SetRequestedTimes([]string{"1h", "2h"}))
	b := s.Define("lexer", "Lexer", "doc")
	require.NoError(t, b.SetRequestedTimes([]string{"4h"}))
	require.NoError(t, a.AddDependencies(0, []string{"Lexer"}))
	require.NoError(t, a.RecordWorkLog(1, []string{"2020-01-01: 1h 50%"}, now, time.UTC))

	f, err := s.Resolve(now)
	require.NoError(t, err)

	rows, err := ChunkTable(a, f)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Parser (I)", rows[0][0])
	// Only the submodule itself counts, not the lexer it depends on.
	assert.Equal(t, "1.00 h", rows[0][1])
	assert.Equal(t, "Parser (II)", rows[1][0])
	assert.Equal(t, "2.00 h", rows[1][1])
	assert.Equal(t, "50 %", rows[1][2])
	assert.Equal(t, "7.00 d", rows[1][6])
}

func TestText(t *testing.T) {
	out := Text([][]string{{"Milestone 1", "2.00 h"}})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], strings.Repeat(" ", ColumnWidth)+" Requested time"))
	assert.Equal(t, "Milestone 1      2.00 h", lines[1])
}
