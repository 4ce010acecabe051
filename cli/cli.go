// Package cli wires the decide/simulate/serve subcommands into a
// urfave/cli/v2 app, mirroring the teacher's cli package: package-level
// shared flag variables, one handler function per command, and a single
// exported *cli.App consumed by main.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	cli "github.com/urfave/cli/v2"

	"github.com/ChristianF88/batchdecider/config"
	"github.com/ChristianF88/batchdecider/decider"
	"github.com/ChristianF88/batchdecider/diagnostics"
	"github.com/ChristianF88/batchdecider/model"
	"github.com/ChristianF88/batchdecider/statsingest"
	"github.com/ChristianF88/batchdecider/tui"
	"github.com/ChristianF88/batchdecider/version"
	"github.com/ChristianF88/batchdecider/vizreport"
)

func parseDate(d string) time.Time {
	t, err := time.Parse(time.RFC3339, d)
	if err != nil {
		return time.Now()
	}
	return t
}

var (
	configFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "Path to batchdecider.toml",
		Required: true,
	}
	vertexFlag = &cli.StringFlag{
		Name:     "vertex",
		Usage:    "Job vertex name to decide for (must have a [vertex.<name>] entry or fall back to [global])",
		Required: true,
	}
	scenarioFlag = &cli.StringFlag{
		Name:  "scenario",
		Usage: "Path to a scenario JSON file describing consumed results (see SPEC_FULL.md §7)",
	}
	initialParallelismFlag = &cli.IntFlag{
		Name:  "initialParallelism",
		Usage: "User-fixed parallelism for this vertex, or omit for unset",
		Value: decider.UnsetParallelism,
	}
	plotPathFlag = &cli.StringFlag{
		Name:  "plotPath",
		Usage: "Path to write an HTML weight-distribution chart for the decision (even-data path only)",
	}
	tuiFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Launch the live terminal dashboard showing this decision",
		Value: false,
	}
	addrFlag = &cli.StringFlag{
		Name:  "addr",
		Usage: "Address to listen on for lumberjack statistics ingest",
		Value: ":5044",
	}
	readTimeoutFlag = &cli.DurationFlag{
		Name:  "readTimeout",
		Usage: "Read timeout for the ingest listener",
		Value: 30 * time.Second,
	}
)

// scenarioFile is the on-disk shape accepted by --scenario, matching
// SPEC_FULL.md §7's scenario file format.
type scenarioFile struct {
	Results []scenarioResult `json:"results"`
}

type scenarioResult struct {
	JobID             string    `json:"jobId"`
	VertexID          string    `json:"vertexId"`
	ResultPartitionID string    `json:"resultPartitionId"`
	Broadcast         bool      `json:"broadcast"`
	Pointwise         bool      `json:"pointwise"`
	NumBytesProduced  int64     `json:"numBytesProduced"`
	SubpartitionBytes [][]int64 `json:"subpartitionBytesByPartition"`
}

func loadScenario(path string) ([]scenarioResultInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cli: failed to read scenario %s: %w", path, err)
	}
	var sf scenarioFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("cli: failed to parse scenario %s: %w", path, err)
	}
	out := make([]scenarioResultInfo, len(sf.Results))
	for i, r := range sf.Results {
		out[i] = newScenarioResultInfo(r)
	}
	return out, nil
}

func handleDecide(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	resolved, err := cfg.Resolve(c.String("vertex"))
	if err != nil {
		return err
	}

	d, err := decider.New(resolved, diagnostics.NewWriterSink(os.Stderr))
	if err != nil {
		return err
	}

	var results []scenarioResultInfo
	if path := c.String("scenario"); path != "" {
		results, err = loadScenario(path)
		if err != nil {
			return err
		}
	}
	blockingResults := make([]model.BlockingResultInfo, len(results))
	for i := range results {
		blockingResults[i] = results[i]
	}
	infos, err := d.Decide(c.String("vertex"), blockingResults, c.Int("initialParallelism"))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(infos); err != nil {
		return fmt.Errorf("cli: failed to encode decision: %w", err)
	}

	if plotPath := c.String("plotPath"); plotPath != "" && infos.EvenData && len(results) > 0 {
		weights := aggregateWeights(results)
		if len(weights) > 0 {
			ranges := rangesForPlot(results, infos)
			if err := vizreport.RenderDistribution(weights, ranges, plotPath); err != nil {
				return err
			}
		}
	}

	if c.Bool("tui") {
		dash := tui.NewDashboard()
		dash.Push(tui.DecisionFromResult(c.String("vertex"), infos))
		return dash.Run()
	}

	return nil
}

func handleSimulate(c *cli.Context) error {
	// simulate runs the same decision as decide but against every
	// [vertex.<name>] override in the config file, useful for sanity
	// checking a whole topology's configuration at once.
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	path := c.String("scenario")
	if path == "" {
		return fmt.Errorf("cli: simulate requires --scenario")
	}
	results, err := loadScenario(path)
	if err != nil {
		return err
	}
	blockingResults := make([]model.BlockingResultInfo, len(results))
	for i := range results {
		blockingResults[i] = results[i]
	}

	for name := range cfg.Vertices {
		resolved, err := cfg.Resolve(name)
		if err != nil {
			return err
		}
		d, err := decider.New(resolved, diagnostics.Discard{})
		if err != nil {
			return err
		}
		infos, err := d.Decide(name, blockingResults, decider.UnsetParallelism)
		if err != nil {
			return fmt.Errorf("cli: simulate vertex %s: %w", name, err)
		}
		fmt.Printf("%s: parallelism=%d inputs=%d\n", name, infos.Parallelism, len(infos.Inputs))
	}
	return nil
}

func handleServe(c *cli.Context) error {
	store := statsingest.NewStore()
	server, err := statsingest.NewServer(c.String("addr"), c.Duration("readTimeout"), store)
	if err != nil {
		return err
	}
	if err := server.Accept(); err != nil {
		return err
	}
	fmt.Printf("statsingest: listening on %s\n", server.Addr())
	select {}
}

// App is the top-level command-line interface.
var App = &cli.App{
	Name:     "batchdecider",
	Usage:    "Decide adaptive batch parallelism for data-processing job vertices",
	Version:  version.Version,
	Compiled: parseDate(version.Date),
	Commands: []*cli.Command{
		{
			Name:   "decide",
			Usage:  "Decide parallelism and input assignment for one vertex",
			Flags:  []cli.Flag{configFlag, vertexFlag, scenarioFlag, initialParallelismFlag, plotPathFlag, tuiFlag},
			Action: handleDecide,
		},
		{
			Name:   "simulate",
			Usage:  "Decide parallelism for every configured vertex against one scenario",
			Flags:  []cli.Flag{configFlag, scenarioFlag},
			Action: handleSimulate,
		},
		{
			Name:   "serve",
			Usage:  "Run a lumberjack statistics ingest server",
			Flags:  []cli.Flag{addrFlag, readTimeoutFlag},
			Action: handleServe,
		},
	},
}
