package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oakwood-commons/pageview/internal/config"
	"github.com/oakwood-commons/pageview/internal/formatter"
	"github.com/oakwood-commons/pageview/internal/limiter"
	"github.com/oakwood-commons/pageview/internal/query"
	"github.com/oakwood-commons/pageview/internal/ui"
	"github.com/oakwood-commons/pageview/pkg/core"
	"github.com/oakwood-commons/pageview/pkg/loader"
	"github.com/oakwood-commons/pageview/pkg/logger"
	"github.com/oakwood-commons/pageview/pkg/settings"
)

// errShowHelp is returned by loadInput when there is neither a file argument
// nor piped stdin.
var errShowHelp = errors.New("no input provided")

// openLogFileFn opens the --log-file target. Tests replace it.
var openLogFileFn = func(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// closeLogFile releases the log file opened by the current run.
var closeLogFile = func() {}

var (
	interactive    bool
	output         string
	configFile     string
	logFile        string
	debug          bool
	noColor        bool
	pageSize       int
	pageNumber     int
	filters        []string
	searchTerm     string
	searchFields   []string
	matchAll       bool
	wildcards      bool
	sortField      string
	descending     bool
	columns        []string
	maxColumnWidth int
	debounceMS     int
	renderSnapshot bool
	startKeys      []string
	snapshotWidth  int
	snapshotHeight int
	limitRecords   int
	offsetRecords  int
	tailRecords    int
)

var stdinIsPiped = func() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

var rootCmd = &cobra.Command{
	Use:   settings.CliBinaryName + " [file]",
	Short: settings.CliBinaryName + " - page, filter, search and sort record sets",
	Long: settings.CliBinaryName + ` loads a record set (JSON array, NDJSON, YAML, TOML or CSV) and shows
one page of it. Filters are CEL expressions with '_' bound to the record.
Search matches a term against the displayed columns or --search-field paths.
Sort takes a field path or a CEL expression.

With -i the records open in an interactive pager.`,
	Example: `  pageview hosts.json
  pageview hosts.json --filter '_.cores > 4' --sort cores --desc
  pageview hosts.csv --search web --search-field name --page 2 --page-size 10
  cat hosts.ndjson | pageview --wildcards --search 'web-*' -o json
  pageview hosts.yaml -i`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		run := settings.NewCliParams()
		if debug {
			run.MinLogLevel = -1
		}
		run.LogFile = logFile
		run.ConfigFile = configFile
		run.OutputFormat = output
		run.Interactive = interactive
		run.NoColor = noColor

		lgr, cleanup, err := setupLogger(run)
		if err != nil {
			return err
		}
		closeLogFile = cleanup
		lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = settings.IntoContext(ctx, run)
		cmd.SetContext(logger.WithLogger(ctx, lgr))
		return nil
	},
	RunE: runRoot,
}

// setupLogger maps the run settings onto the global logger. The pager owns
// the terminal, so interactive runs only log when --log-file is set.
// The returned cleanup flushes the logger and closes the log file.
func setupLogger(run *settings.Run) (*logr.Logger, func(), error) {
	opts := logger.Options{Level: run.MinLogLevel}
	cleanup := func() {}
	switch {
	case run.LogFile != "":
		f, err := openLogFileFn(run.LogFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		opts.Writer = f
		cleanup = func() {
			logger.Sync()
			_ = f.Close()
		}
	case run.Interactive:
		opts.Writer = io.Discard
	}
	return logger.Setup(opts), cleanup, nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	lgr := *logger.FromContext(ctx)
	run := settings.FromContextOrDefault(ctx)

	cfg, err := loadConfig(run.ConfigFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := validateFlags(); err != nil {
		return err
	}

	records, err := loadInput(args, cmd.InOrStdin(), lgr)
	if errors.Is(err, errShowHelp) {
		return cmd.Help()
	}
	if err != nil {
		return err
	}
	records = limiter.Apply(recordLimits(), records)

	noColorOut := cfg.Display.NoColor
	formatter.SetTableTheme(cfg.Display.Colors.TableColors())
	q := buildQuery(cfg)

	if run.Interactive || renderSnapshot {
		width, height := resolveSize(snapshotWidth, snapshotHeight)
		opts := ui.Options{
			PageSize:       cfg.Paging.PageSize,
			Columns:        cfg.Display.Columns,
			SearchFields:   cfg.Search.Fields,
			Wildcards:      cfg.Search.Wildcards,
			MatchAll:       cfg.Search.MatchAll,
			Debounce:       cfg.Debounce(),
			MaxColumnWidth: cfg.Display.MaxColumnWidth,
			NoColor:        noColorOut,
			Colors:         cfg.Display.Colors.TableColors(),
			Width:          width,
			Height:         height,
			Query:          q,
			Logger:         lgr,
		}
		if renderSnapshot {
			frame, err := ui.RenderSnapshot(records, opts, startKeys)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), frame)
			return nil
		}
		progOpts, cleanup := getProgramOptions()
		defer cleanup()
		return ui.Run(ctx, records, opts, startKeys, progOpts...)
	}

	width := snapshotWidth
	if width <= 0 {
		width, _ = detectTerminalSize()
	}
	engine, err := core.New(core.WithLogger(lgr))
	if err != nil {
		return err
	}
	page, err := engine.Page(records, pageRequest(cfg, q))
	if errors.Is(err, core.ErrInvalidRequest) {
		return usageError{err: err}
	}
	if err != nil {
		return err
	}
	return page.Write(cmd.OutOrStdout(), core.Format(output), core.RenderOptions{Width: width, NoColor: noColorOut})
}

func pageRequest(cfg config.Config, q query.Query) core.Request {
	return core.Request{
		PageSize:       cfg.Paging.PageSize,
		Columns:        cfg.Display.Columns,
		MaxColumnWidth: cfg.Display.MaxColumnWidth,
		Filters:        q.Filters,
		Search:         q.Search,
		SearchFields:   q.SearchFields,
		MatchAll:       q.MatchAll,
		Wildcards:      q.Wildcards,
		Sort:           q.Sort,
		Descending:     q.Descending,
		Page:           q.Page,
	}
}

// loadConfig merges the resolved config file with the flags the user set.
func loadConfig(path string, flags *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(config.ResolvePath(path))
	if err != nil {
		return config.Config{}, usageError{err: err}
	}
	if flags.Changed("page-size") {
		cfg.Paging.PageSize = pageSize
	}
	if flags.Changed("debounce-ms") {
		cfg.Search.DebounceMS = debounceMS
	}
	if flags.Changed("wildcards") {
		cfg.Search.Wildcards = wildcards
	}
	if flags.Changed("match-all") {
		cfg.Search.MatchAll = matchAll
	}
	if flags.Changed("search-field") {
		cfg.Search.Fields = searchFields
	}
	if flags.Changed("columns") {
		cfg.Display.Columns = columns
	}
	if flags.Changed("max-column-width") {
		cfg.Display.MaxColumnWidth = maxColumnWidth
	}
	if flags.Changed("no-color") {
		cfg.Display.NoColor = noColor
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, usageError{err: err}
	}
	return cfg, nil
}

func validateFlags() error {
	if _, err := core.ParseFormat(output); err != nil {
		return usageError{err: err}
	}
	if pageNumber < 0 {
		return usageError{err: fmt.Errorf("page %d must not be negative", pageNumber)}
	}
	if descending && strings.TrimSpace(sortField) == "" {
		return usageError{err: errors.New("--desc requires --sort")}
	}
	if err := recordLimits().Validate(); err != nil {
		return usageError{err: err}
	}
	return nil
}

func recordLimits() limiter.Config {
	return limiter.Config{Limit: limitRecords, Offset: offsetRecords, Tail: tailRecords}
}

func buildQuery(cfg config.Config) query.Query {
	return query.Query{
		Filters:      filters,
		Search:       searchTerm,
		SearchFields: cfg.Search.Fields,
		MatchAll:     cfg.Search.MatchAll,
		Wildcards:    cfg.Search.Wildcards,
		Sort:         sortField,
		Descending:   descending,
		Page:         pageNumber,
	}
}

// loadInput reads the file argument, or stdin when it is piped.
func loadInput(args []string, stdin io.Reader, lgr logr.Logger) ([]loader.Record, error) {
	if len(args) == 1 && args[0] != "-" {
		return loader.LoadFile(args[0], lgr)
	}
	if len(args) == 0 && !stdinIsPiped() {
		return nil, errShowHelp
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	records, err := loader.LoadRecords(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse stdin: %w", err)
	}
	lgr.V(1).Info("records loaded", "path", "-", "count", len(records))
	return records, nil
}

func init() { //nolint:gochecknoinits
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config-file", "", "path to a YAML config file")
	pf.StringVar(&logFile, "log-file", "", "write JSON logs to this file")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")

	f := rootCmd.Flags()
	f.BoolVarP(&interactive, "interactive", "i", false, "start the interactive pager")
	f.StringVarP(&output, "output", "o", string(core.FormatTable), "output format: table|json|yaml|csv")
	f.BoolVar(&noColor, "no-color", false, "disable color output")
	f.IntVar(&pageSize, "page-size", 20, "records per page (default from config)")
	f.IntVar(&pageNumber, "page", 0, "page to show; out of range values are clamped")
	f.StringArrayVar(&filters, "filter", nil, "CEL filter with '_' as the record, e.g. '_.cores > 4' (repeatable, AND-combined)")
	f.StringVar(&searchTerm, "search", "", "case-insensitive search term")
	f.StringArrayVar(&searchFields, "search-field", nil, "field path to search (repeatable, default: displayed columns)")
	f.BoolVar(&matchAll, "match-all", false, "require every search field to match")
	f.BoolVar(&wildcards, "wildcards", false, "treat * and ? in the search term as wildcards")
	f.StringVar(&sortField, "sort", "", "field path or CEL expression to sort by")
	f.BoolVar(&descending, "desc", false, "sort descending")
	f.StringSliceVar(&columns, "columns", nil, "columns to display, comma separated (default: every key)")
	f.IntVar(&maxColumnWidth, "max-column-width", 0, "truncate cells wider than this (0 = no limit)")
	f.IntVar(&debounceMS, "debounce-ms", 0, "interactive search debounce in milliseconds (default from config)")
	f.BoolVar(&renderSnapshot, "snapshot", false, "render one pager frame and exit; honors --width/--height")
	f.StringArrayVar(&startKeys, "press", nil, `keys to press on startup, e.g. "/web<CR>" or "<Right>"`)
	f.IntVar(&snapshotWidth, "width", 0, "output width in columns")
	f.IntVar(&snapshotHeight, "height", 0, "output height in rows")
	f.IntVar(&limitRecords, "limit", 0, "keep at most N input records before paging")
	f.IntVar(&offsetRecords, "offset", 0, "skip the first N input records")
	f.IntVar(&tailRecords, "tail", 0, "keep only the last N input records (excludes --limit; ignores --offset)")
	_ = f.MarkHidden("snapshot")
	_ = f.MarkHidden("press")

	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(versionCmd)
	configCmd.AddCommand(configGetCmd, configDefaultsCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command.
func Execute() error {
	defer func() {
		closeLogFile()
		closeLogFile = func() {}
	}()
	return rootCmd.ExecuteContext(context.Background())
}
