package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/poiesic/juris"
	"github.com/poiesic/juris/cache"
	"github.com/poiesic/juris/config"
	"github.com/poiesic/juris/core"
	"github.com/poiesic/juris/index"
	"github.com/poiesic/juris/search"
	"github.com/urfave/cli/v2"
)

const dateLayout = "2006-01-02"

// maxLineSize bounds one JSON line; decision texts can be long.
const maxLineSize = 16 << 20

var (
	errArgsRequired = errors.New("missing arguments")
	errEmptyInput   = errors.New("no decisions in input")
)

func openEngine(c *cli.Context) (*juris.Engine, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	return juris.Open(c.Context, cfg)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// openInput opens path, or stdin for "-".
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// readDecisions parses one decision per non-blank line.
func readDecisions(r io.Reader) ([]*core.LegalDecision, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var decisions []*core.LegalDecision
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var d core.LegalDecision
		if err := json.Unmarshal([]byte(text), &d); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		decisions = append(decisions, &d)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return decisions, nil
}

func readCase(path string) (core.CaseData, error) {
	var cd core.CaseData
	f, err := openInput(path)
	if err != nil {
		return cd, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&cd); err != nil {
		return cd, fmt.Errorf("failed to parse case %s: %w", path, err)
	}
	return cd, nil
}

func withoutEmbedding(d *core.LegalDecision) *core.LegalDecision {
	if d == nil || d.Embedding == nil {
		return d
	}
	cp := *d
	cp.Embedding = nil
	return &cp
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("%w: ingest needs one input file", errArgsRequired)
	}
	batchSize := c.Int("batch-size")
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}

	in, err := openInput(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	decisions, err := readDecisions(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("failed to read decisions: %w", err)
	}
	if len(decisions) == 0 {
		return errEmptyInput
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ids := make([]core.ID, 0, len(decisions))
	for start := 0; start < len(decisions); start += batchSize {
		end := min(start+batchSize, len(decisions))
		added, err := engine.Ingest(c.Context, decisions[start:end]...)
		if err != nil {
			return fmt.Errorf("ingestion failed after %d decisions: %w", len(ids), err)
		}
		for _, d := range added {
			ids = append(ids, d.Id)
		}
	}

	return writeJSON(c.App.Writer, struct {
		Ingested int       `json:"ingested"`
		IDs      []core.ID `json:"ids"`
	}{len(ids), ids})
}

func courtTypes(values []string) ([]core.CourtType, error) {
	out := make([]core.CourtType, 0, len(values))
	for _, v := range values {
		ct, err := core.ParseCourtType(strings.ToUpper(v))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, v)
		}
		out = append(out, ct)
	}
	return out, nil
}

func searchFilters(c *cli.Context) (*core.SearchFilters, error) {
	courts, err := courtTypes(c.StringSlice("court"))
	if err != nil {
		return nil, err
	}
	f := &core.SearchFilters{
		CourtTypes:    courts,
		LegalSubjects: c.StringSlice("subject"),
		DateFrom:      c.Timestamp("from"),
		DateTo:        c.Timestamp("to"),
	}
	for _, v := range c.StringSlice("decision-type") {
		dt, err := core.ParseDecisionType(strings.ToLower(v))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, v)
		}
		f.DecisionTypes = append(f.DecisionTypes, dt)
	}
	if f.IsZero() {
		return nil, nil
	}
	return f, nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: search needs a query", errArgsRequired)
	}
	filters, err := searchFilters(c)
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	results, err := engine.Search(c.Context, search.SearchRequest{
		Query:      query,
		Filters:    filters,
		MaxResults: c.Int("max-results"),
		Threshold:  c.Float64("threshold"),
		Explain:    c.Bool("explain"),
	})
	if err != nil {
		return err
	}

	out := make([]core.SearchResult, len(results))
	for i, r := range results {
		out[i] = *r
		out[i].Decision = withoutEmbedding(r.Decision)
	}
	return writeJSON(c.App.Writer, out)
}

func compareCommand(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("%w: compare needs a base case and at least one other", errArgsRequired)
	}
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	load := readCase
	if c.Bool("stored") {
		load = func(processNumber string) (core.CaseData, error) {
			return engine.StoredCase(c.Context, processNumber)
		}
	}

	args := c.Args().Slice()
	base, err := load(args[0])
	if err != nil {
		return err
	}
	req := search.CompareRequest{Base: base, IncludeExplanation: c.Bool("explain")}
	for _, arg := range args[1:] {
		other, err := load(arg)
		if err != nil {
			return err
		}
		req.Others = append(req.Others, other)
	}
	for _, d := range c.StringSlice("dimension") {
		req.Dimensions = append(req.Dimensions, core.SimilarityDimension(strings.ToLower(d)))
	}

	results, err := engine.CompareCases(c.Context, req)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, results)
}

func precedentsCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("%w: precedents needs one case file", errArgsRequired)
	}
	cd, err := readCase(c.Args().First())
	if err != nil {
		return err
	}
	courts, err := courtTypes(c.StringSlice("court"))
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	precedents, err := engine.FindPrecedents(c.Context, search.PrecedentRequest{
		Case:                cd,
		MaxResults:          c.Int("max-results"),
		CourtHierarchy:      courts,
		IncludeSimilarFacts: c.Bool("similar-facts"),
	})
	if err != nil {
		return err
	}
	for i := range precedents {
		precedents[i].Decision = withoutEmbedding(precedents[i].Decision)
	}
	return writeJSON(c.App.Writer, precedents)
}

func rebuildIndexCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.RebuildIndex(c.Context, c.Bool("reembed"), c.App.ErrWriter)
	if err != nil {
		return fmt.Errorf("index rebuild failed: %w", err)
	}
	return writeJSON(c.App.Writer, result)
}

type statsOutput struct {
	Store *core.Statistics `json:"store"`
	Index index.Stats      `json:"index"`
	Cache cache.LayerStats `json:"cache"`
}

func statsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	return writeStats(c.Context, c.App.Writer, engine)
}

func writeStats(ctx context.Context, w io.Writer, engine *juris.Engine) error {
	store, err := engine.Statistics(ctx)
	if err != nil {
		return err
	}
	idx, err := engine.IndexStats(ctx)
	if err != nil {
		return err
	}
	return writeJSON(w, statsOutput{Store: store, Index: idx, Cache: engine.CacheStats()})
}
