package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/juris/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func TestAppFlags(t *testing.T) {
	app := newApp()

	t.Run("log-level defaults to info", func(t *testing.T) {
		var levelFlag *cli.StringFlag
		for _, flag := range app.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "log-level" {
				levelFlag = f
			}
		}
		require.NotNil(t, levelFlag)
		assert.Equal(t, "info", levelFlag.Value)
	})

	t.Run("config reads JURIS_CONFIG", func(t *testing.T) {
		var configFlag *cli.StringFlag
		for _, flag := range app.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "config" {
				configFlag = f
			}
		}
		require.NotNil(t, configFlag)
		assert.Equal(t, []string{"JURIS_CONFIG"}, configFlag.EnvVars)
	})

	t.Run("every command is registered", func(t *testing.T) {
		for _, name := range []string{"ingest", "search", "compare", "precedents", "rebuild-index", "stats"} {
			assert.NotNil(t, findCommand(t, app, name).Action, name)
		}
	})

	t.Run("precedents defaults", func(t *testing.T) {
		cmd := findCommand(t, app, "precedents")
		for _, flag := range cmd.Flags {
			switch f := flag.(type) {
			case *cli.IntFlag:
				if f.Name == "max-results" {
					assert.Equal(t, 10, f.Value)
				}
			case *cli.BoolFlag:
				if f.Name == "similar-facts" {
					assert.True(t, f.Value)
				}
			}
		}
	})
}

func TestSetupLogger(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"juris", "--log-level", "verbose", "stats"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestArgumentValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"ingest without file", []string{"juris", "ingest"}},
		{"search without query", []string{"juris", "search"}},
		{"compare with one case", []string{"juris", "compare", "base.json"}},
		{"precedents without case", []string{"juris", "precedents"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			app.Writer = &bytes.Buffer{}
			err := app.Run(tt.args)
			assert.ErrorIs(t, err, errArgsRequired)
		})
	}
}

func TestReadDecisions(t *testing.T) {
	t.Run("skips blank lines", func(t *testing.T) {
		input := `{"process_number":"1","court_type":"TJ","decision_type":"acordao","decision_text":"a"}

{"process_number":"2","court_type":"STF","decision_type":"sumula","decision_text":"b"}
`
		decisions, err := readDecisions(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, decisions, 2)
		assert.Equal(t, "1", decisions[0].ProcessNumber)
		assert.Equal(t, core.CourtSTF, decisions[1].CourtType)
		assert.Equal(t, core.DecisionSumula, decisions[1].DecisionType)
	})

	t.Run("reports the failing line", func(t *testing.T) {
		_, err := readDecisions(strings.NewReader("{\"process_number\":\"1\"}\n{not json}\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})
}

func TestCourtTypes(t *testing.T) {
	courts, err := courtTypes([]string{"stf", "TJ"})
	require.NoError(t, err)
	assert.Equal(t, []core.CourtType{core.CourtSTF, core.CourtTJ}, courts)

	_, err = courtTypes([]string{"supreme"})
	assert.ErrorIs(t, err, core.ErrInvalidCourtType)
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &bytes.Buffer{}
	require.NoError(t, app.Run(append([]string{"juris", "--log-level", "error"}, args...)))
	return out.Bytes()
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "juris.yaml", fmt.Sprintf(`
store:
  path: %s
blob:
  kind: local
  root: %s
`, filepath.Join(dir, "decisions"), filepath.Join(dir, "blobs")))

	decisions := writeFile(t, dir, "decisions.jsonl", strings.Join([]string{
		`{"process_number":"0001234-56.2022.8.19.0001","court_name":"TJRJ","court_type":"TJ","decision_type":"acordao","decision_date":"2022-03-01T00:00:00Z","summary":"Dano moral por negativação indevida.","decision_text":"A inscrição indevida gera dano moral presumido, conforme o art. 14 do CDC.","legal_subjects":["responsabilidade civil"]}`,
		`{"process_number":"0009876-54.2019.1.00.0000","court_name":"STF","court_type":"STF","decision_type":"acordao","decision_date":"2019-08-20T00:00:00Z","decision_text":"Indenização por dano moral decorrente de ato do Estado, nos termos do art. 37 da CF.","legal_subjects":["responsabilidade civil"]}`,
	}, "\n"))

	var ingested struct {
		Ingested int       `json:"ingested"`
		IDs      []core.ID `json:"ids"`
	}
	require.NoError(t, json.Unmarshal(run(t, "-c", cfgPath, "ingest", decisions), &ingested))
	assert.Equal(t, 2, ingested.Ingested)
	assert.Len(t, ingested.IDs, 2)

	t.Run("stats", func(t *testing.T) {
		var stats statsOutput
		require.NoError(t, json.Unmarshal(run(t, "-c", cfgPath, "stats"), &stats))
		require.NotNil(t, stats.Store)
		assert.Equal(t, 2, stats.Store.TotalDecisions)
		assert.Equal(t, 2, stats.Index.Count)
	})

	t.Run("search", func(t *testing.T) {
		var results []core.SearchResult
		out := run(t, "-c", cfgPath, "search", "--threshold", "0.01", "--court", "stf", "dano", "moral")
		require.NoError(t, json.Unmarshal(out, &results))
		for _, r := range results {
			assert.Equal(t, core.CourtSTF, r.Decision.CourtType)
			assert.GreaterOrEqual(t, r.SimilarityScore, 0.01)
			assert.Empty(t, r.Decision.Embedding)
		}
	})

	t.Run("compare", func(t *testing.T) {
		base := writeFile(t, dir, "base.json", `{"id":"base","decision_text":"Dano moral.","legal_subjects":["responsabilidade civil"],"keywords":["dano moral"]}`)
		other := writeFile(t, dir, "other.json", `{"id":"other","decision_text":"Dano moral.","legal_subjects":["responsabilidade civil"],"keywords":["dano moral"]}`)

		var results []core.CaseSimilarityResult
		require.NoError(t, json.Unmarshal(run(t, "-c", cfgPath, "compare", "-d", "legal", base, other), &results))
		require.Len(t, results, 1)
		assert.Equal(t, "other", results[0].CaseID)
		assert.InDelta(t, 1.0, results[0].DimensionScores[core.DimensionLegal], 1e-9)
	})

	t.Run("compare stored", func(t *testing.T) {
		var results []core.CaseSimilarityResult
		out := run(t, "-c", cfgPath, "compare", "--stored", "-d", "procedural", "-d", "contextual",
			"0001234-56.2022.8.19.0001", "0009876-54.2019.1.00.0000")
		require.NoError(t, json.Unmarshal(out, &results))
		require.Len(t, results, 1)
		assert.Equal(t, "0009876-54.2019.1.00.0000", results[0].CaseID)
		assert.Equal(t, 0.5, results[0].DimensionScores[core.DimensionProcedural])
		assert.InDelta(t, 1-924.0/3650, results[0].DimensionScores[core.DimensionContextual], 1e-9)
	})

	t.Run("rebuild-index", func(t *testing.T) {
		var result struct {
			Decisions int `json:"decisions"`
			Indexed   int `json:"indexed"`
		}
		require.NoError(t, json.Unmarshal(run(t, "-c", cfgPath, "rebuild-index"), &result))
		assert.Equal(t, 2, result.Decisions)
		assert.Equal(t, 2, result.Indexed)
	})
}
