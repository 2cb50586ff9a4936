package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/user/letgo_analyzer_go/internal/analysis"
	"github.com/user/letgo_analyzer_go/internal/audit"
	"github.com/user/letgo_analyzer_go/internal/config"
	"github.com/user/letgo_analyzer_go/internal/importer"
	"github.com/user/letgo_analyzer_go/internal/report"
	"github.com/user/letgo_analyzer_go/internal/threshold"
	"github.com/user/letgo_analyzer_go/internal/waveform"
)

// options are the letgo flags as given on the command line.
type options struct {
	configPath string
	dataFile   string
	currentID  string
	voltageID  string
	skipTime   float64
	byLabel    bool

	// Overrides for config.Config; only applied when set.
	importer       string
	format         string
	condition      string
	interpretation string
	version        string
	thresholds     string
	workers        int
	minWindow      float64
	requireData    bool
	json           bool
	progress       bool
	plotDir        string
	pdfPath        string

	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{set: make(map[string]bool)}
	fs := flag.NewFlagSet("letgo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = printUsage

	fs.StringVar(&opts.importer, "i", "", "Importer source type")
	fs.StringVar(&opts.format, "f", "", "Importer format type")
	fs.StringVar(&opts.dataFile, "d", "", "Data file to analyze")
	fs.StringVar(&opts.currentID, "c", "", "Channel ID of the current waveform")
	fs.StringVar(&opts.voltageID, "v", "", "Channel ID of the voltage waveform")
	fs.StringVar(&opts.condition, "e", "", "Test condition (dry, wet)")
	fs.Float64Var(&opts.skipTime, "s", 0, "Skip samples before this time in seconds")
	fs.BoolVar(&opts.byLabel, "by-label", false, "Match -c and -v against channel labels instead of IDs")
	fs.StringVar(&opts.interpretation, "interpretation-level", "", "Interpretation level")
	fs.StringVar(&opts.version, "standard-version", "", "Standard version")
	fs.IntVar(&opts.workers, "num-cores", 0, "Worker limit (0 = every CPU)")
	fs.Float64Var(&opts.minWindow, "w", 0, "Minimum compliant window in seconds")
	fs.Float64Var(&opts.minWindow, "window-duration", 0, "Minimum compliant window in seconds")
	fs.StringVar(&opts.thresholds, "thresholds", "", "Threshold table YAML file")
	fs.StringVar(&opts.configPath, "config", "", "Config file")
	fs.BoolVar(&opts.requireData, "require-data", false, "Fail when nothing remains after the skip time")
	fs.BoolVar(&opts.json, "json", false, "Print the result as JSON")
	fs.StringVar(&opts.plotDir, "plot", "", "Directory for PNG plots")
	fs.StringVar(&opts.pdfPath, "pdf", "", "PDF report path")
	fs.BoolVar(&opts.progress, "progress", false, "Show a progress view")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	if opts.dataFile == "" {
		return nil, errors.New("a data file is required (-d)")
	}
	if opts.currentID == "" && opts.voltageID == "" {
		return nil, errors.New("at least one of -c (current) or -v (voltage) is required")
	}
	if opts.workers < 0 {
		return nil, fmt.Errorf("--num-cores must be >= 0, got %d", opts.workers)
	}
	if opts.minWindow < 0 {
		return nil, fmt.Errorf("-w must be >= 0, got %g", opts.minWindow)
	}
	return opts, nil
}

// apply overlays the flags that were given on cfg.
func (o *options) apply(cfg *config.Config) {
	str := map[string]struct{ dst, src *string }{
		"i":                    {&cfg.Importer, &o.importer},
		"f":                    {&cfg.Format, &o.format},
		"e":                    {&cfg.Condition, &o.condition},
		"interpretation-level": {&cfg.Interpretation, &o.interpretation},
		"standard-version":     {&cfg.StandardVersion, &o.version},
		"thresholds":           {&cfg.Thresholds, &o.thresholds},
		"plot":                 {&cfg.Report.PlotDir, &o.plotDir},
	}
	for name, f := range str {
		if o.set[name] {
			*f.dst = *f.src
		}
	}
	if o.set["num-cores"] {
		cfg.Workers = o.workers
	}
	if o.set["w"] || o.set["window-duration"] {
		cfg.MinWindow = o.minWindow
	}
	if o.set["require-data"] {
		cfg.RequireData = o.requireData
	}
	if o.set["json"] {
		cfg.Report.JSON = o.json
	}
	if o.set["progress"] {
		cfg.Report.Progress = o.progress
	}
}

// thresholdConfig parses the enumerated tokens of cfg.
func thresholdConfig(cfg *config.Config) (threshold.Config, error) {
	var tc threshold.Config
	if cfg.Condition == "" {
		return tc, errors.New("a test condition is required (-e dry|wet)")
	}
	var err error
	if tc.Condition, err = threshold.ParseCondition(cfg.Condition); err != nil {
		return tc, err
	}
	if tc.Interpretation, err = threshold.ParseInterpretation(cfg.Interpretation); err != nil {
		return tc, err
	}
	if tc.Version, err = threshold.ParseStandardVersion(cfg.StandardVersion); err != nil {
		return tc, err
	}
	return tc, nil
}

func loadTable(path string) (*threshold.Table, error) {
	if path == "" {
		return threshold.Default()
	}
	return threshold.LoadFile(path)
}

// App runs one let-go analysis and writes its reports.
type App struct {
	ctx    context.Context
	stdout io.Writer
	logger *log.Logger
}

// NewApp creates an App writing reports to stdout and status to stderr.
func NewApp(ctx context.Context, stdout, stderr io.Writer) *App {
	return &App{
		ctx:    ctx,
		stdout: stdout,
		logger: log.New(stderr, "letgo: ", log.LstdFlags),
	}
}

func (a *App) sendStatus(format string, args ...any) {
	a.logger.Printf(format, args...)
}

func runLetGo(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts, err := parseFlags(args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	return NewApp(ctx, os.Stdout, os.Stderr).Run(opts)
}

// Run executes the analysis described by opts. A FAIL verdict is returned as
// ExitCodeError{Code: 1}.
func (a *App) Run(opts *options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	opts.apply(cfg)

	tc, err := thresholdConfig(cfg)
	if err != nil {
		return err
	}
	table, err := loadTable(cfg.Thresholds)
	if err != nil {
		return err
	}
	if err := audit.Audit(table, tc); err != nil {
		return err
	}
	warnings := audit.Warnings(tc, cfg.MinWindow)
	for _, w := range warnings {
		a.sendStatus("warning: %s", w)
	}
	a.sendStatus("configuration %s from %s", tc, table.Source())

	sel := importer.Selector{}
	for _, name := range []string{opts.currentID, opts.voltageID} {
		switch {
		case name == "":
		case opts.byLabel:
			sel.Labels = append(sel.Labels, name)
		default:
			sel.IDs = append(sel.IDs, name)
		}
	}
	a.sendStatus("importing %s (%s/%s)", opts.dataFile, cfg.Importer, cfg.Format)
	ds, err := importer.Import(cfg.Importer, cfg.Format, opts.dataFile, sel)
	if err != nil {
		return err
	}
	for _, w := range ds.Warnings {
		a.sendStatus("import: %s", w)
	}

	req := analysis.Request{
		Config:      tc,
		SkipTime:    opts.skipTime,
		MinWindow:   cfg.MinWindow,
		Workers:     cfg.Workers,
		RequireData: cfg.RequireData,
	}
	find := ds.ByID
	if opts.byLabel {
		find = ds.ByLabel
	}
	for _, ch := range []struct {
		name string
		dst  **waveform.Waveform
	}{{opts.currentID, &req.Current}, {opts.voltageID, &req.Voltage}} {
		if ch.name == "" {
			continue
		}
		w, ok := find(ch.name)
		if !ok {
			return fmt.Errorf("channel %q not found in %s", ch.name, opts.dataFile)
		}
		*ch.dst = w
	}

	var res *analysis.Result
	if cfg.Report.Progress {
		res, err = a.analyzeWithProgress(table, req)
	} else {
		res, err = analysis.Analyze(a.ctx, table, req)
	}
	if err != nil {
		return err
	}
	a.sendStatus("analysis complete: %s, %d segments", res.Verdict, len(res.Segments))

	curves, _ := table.Lookup(tc)
	run := report.NewRun(opts.dataFile, res, curves)
	run.Version = Version
	run.Warnings = append(run.Warnings, warnings...)
	run.Warnings = append(run.Warnings, ds.Warnings...)
	run.AddWaveform(analysis.Current, req.Current)
	run.AddWaveform(analysis.Voltage, req.Voltage)

	if cfg.Report.JSON {
		err = report.WriteJSON(a.stdout, run)
	} else {
		err = report.WriteText(a.stdout, run)
	}
	if err != nil {
		return err
	}

	if cfg.Report.PlotDir != "" || opts.pdfPath != "" {
		plots := a.renderPlots(run)
		if cfg.Report.PlotDir != "" {
			if err := writePlots(cfg.Report.PlotDir, plots); err != nil {
				return err
			}
			a.sendStatus("plots written to %s", cfg.Report.PlotDir)
		}
		if opts.pdfPath != "" {
			if err := report.BuildPDFReport(opts.pdfPath, run, plots); err != nil {
				return err
			}
			a.sendStatus("PDF report written to %s", opts.pdfPath)
		}
	}

	if res.Verdict == analysis.Fail {
		return ExitCodeError{Code: exitFail}
	}
	return nil
}

// renderPlots draws every plot the run has data for. A plot that fails is
// logged and left out.
func (a *App) renderPlots(run *report.Run) map[string][]byte {
	plotConfigs := []struct {
		Name string
		Make func() ([]byte, error)
	}{
		{report.PlotCurrent, func() ([]byte, error) { return report.CreateWaveformPlot(run, analysis.Current) }},
		{report.PlotVoltage, func() ([]byte, error) { return report.CreateWaveformPlot(run, analysis.Voltage) }},
		{report.PlotHeatmap, func() ([]byte, error) { return report.CreateExceedanceHeatmap(run) }},
	}
	plots := make(map[string][]byte)
	for _, pc := range plotConfigs {
		if pc.Name == report.PlotCurrent && run.Waveform(analysis.Current) == nil ||
			pc.Name == report.PlotVoltage && run.Waveform(analysis.Voltage) == nil {
			continue
		}
		img, err := pc.Make()
		if err != nil {
			a.sendStatus("plot %s: %v", pc.Name, err)
			continue
		}
		plots[pc.Name] = img
	}
	return plots
}

func writePlots(dir string, plots map[string][]byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create plot directory: %w", err)
	}
	for name, img := range plots {
		if err := os.WriteFile(filepath.Join(dir, name+".png"), img, 0o644); err != nil {
			return fmt.Errorf("write plot %s: %w", name, err)
		}
	}
	return nil
}
