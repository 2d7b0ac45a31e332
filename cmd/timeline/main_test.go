package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planDoc = `# Lexer

requested-time: 2h

# Parser

requested-time: 1h

dependent-tasks:

- Lexer
- Scanner

# Milestones

- Parser
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	t.Setenv("TIMELINE_TZ", "UTC")
	t.Setenv("TIMELINE_CONFIG", "")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRender(t *testing.T) {
	path := writeFile(t, "plan.md", planDoc)

	out, err := run(t, "render", path)
	require.NoError(t, err)
	assert.Contains(t, out, "== plan ==")
	assert.Contains(t, out, "blockdiag {")
	assert.Contains(t, out, `lexer-I -> parser-I [color = "red"]`)
	assert.Contains(t, out, "Milestone 1")
	assert.Contains(t, out, "warning: parser (I): dependency \"Scanner\" dropped")
}

func TestRender_JSON(t *testing.T) {
	path := writeFile(t, "plan.md", planDoc)

	out, err := run(t, "-o", "json", "render", path)
	require.NoError(t, err)
	var results []struct {
		DocID      string   `json:"doc_id"`
		Lines      []string `json:"lines"`
		Milestones []struct {
			Group   string `json:"group"`
			Label   string `json:"label"`
			Cited   struct {
				Ref string `json:"ref"`
			} `json:"cited"`
			Summary struct {
				RequestedMinutes int `json:"requested_minutes"`
			} `json:"summary"`
		} `json:"milestones"`
		Total struct {
			Label string `json:"label"`
		} `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "plan", results[0].DocID)
	assert.NotEmpty(t, results[0].Lines)
	require.Len(t, results[0].Milestones, 1)
	m := results[0].Milestones[0]
	assert.Equal(t, "Milestone0", m.Group)
	assert.Equal(t, "Milestone 1", m.Label)
	assert.Equal(t, "Parser", m.Cited.Ref)
	assert.Equal(t, 180, m.Summary.RequestedMinutes)
	assert.Equal(t, "Total", results[0].Total.Label)
	assert.NotContains(t, out, `"ETADays"`)
}

func TestCheck(t *testing.T) {
	good := writeFile(t, "plan.md", planDoc)
	out, err := run(t, "check", good)
	require.NoError(t, err)
	assert.Contains(t, out, "ok   plan.md (2 chunks)")
	assert.Contains(t, out, "warn")

	bad := writeFile(t, "bad.md", "# Broken\n\nrequested-time: soon\n")
	out, err = run(t, "check", bad)
	assert.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, out, "FAIL bad.md")
}

func TestRender_InvalidOutput(t *testing.T) {
	path := writeFile(t, "plan.md", planDoc)
	_, err := run(t, "-o", "yaml", "render", path)
	assert.Error(t, err)
}
