package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/palletdiff/pkg/config"
	"github.com/platinummonkey/palletdiff/pkg/engine"
	"github.com/platinummonkey/palletdiff/pkg/observability"
	"github.com/platinummonkey/palletdiff/pkg/report"
	"github.com/platinummonkey/palletdiff/pkg/storage"
)

// Build information, set with -ldflags.
var (
	Version = "dev"
	Commit  = "none"
)

// ExitError carries a process exit status out of a command. Codes 2 and 3
// are verdicts, not failures.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// app holds state shared by every command for one invocation.
type app struct {
	configPath string
	logLevel   string
	format     string
	noColor    bool
	verbose    bool

	cfg    *config.Config
	logger *observability.Logger
	store  *storage.FileSystemStorage
	engine *engine.Engine
	stdin  io.Reader
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	a := &app{stdin: os.Stdin}

	root := &cobra.Command{
		Use:   "palletdiff",
		Short: "Compare runtime metadata and decide upgrade compatibility",
		Long: `palletdiff reduces two runtime metadata documents to a canonical model,
lists what changed between them and decides whether the upgrade is compatible
and whether it requires a transaction version bump.

Exit codes:
  0  safe
  1  error
  2  incompatible changes
  3  transaction version bump required`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a YAML config file")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.format, "format", "", "Output format (text, json, yaml)")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored text output")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "List compatible changes in the verdict block")

	root.AddCommand(
		newDiffCommand(a),
		newCheckCommand(a),
		newReduceCommand(a),
		newInfoCommand(a),
		newRawDiffCommand(a),
		newVersionCommand(),
	)
	return root
}

// setup loads configuration and builds the engine. Flags override config.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.format != "" {
		cfg.Output.Format = a.format
	}
	if a.noColor {
		cfg.Output.Color = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = observability.NewLoggerWithFormat(cfg.LogLevel(),
		cfg.LogFormat(), cmd.ErrOrStderr())

	store, err := storage.NewFileSystemStorage(cfg.StorageConfig())
	if err != nil {
		return err
	}
	a.store = store.WithStdin(a.stdin)

	opts := []engine.Option{
		engine.WithLogger(a.logger),
		engine.WithVolatileTypes(cfg.Hasher.VolatileTypes),
	}
	if cfg.Cache.Size > 0 {
		opts = append(opts, engine.WithCache(storage.NewRuntimeCache(cfg.Cache.Size, cfg.Cache.TTL)))
	}
	a.engine = engine.New(a.store, opts...)
	return nil
}

func (a *app) outputFormat() report.Format {
	f, err := report.ParseFormat(a.cfg.Output.Format)
	if err != nil {
		return report.FormatText
	}
	return f
}

// flushMetrics writes the textfile when one is configured. Failures are
// logged only.
func (a *app) flushMetrics() {
	if a.cfg.Metrics.File == "" {
		return
	}
	if err := a.engine.Metrics().WriteTextfile(a.cfg.Metrics.File); err != nil {
		a.logger.WithError(err).Warnf("failed to write metrics textfile %s", a.cfg.Metrics.File)
	}
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	return ExecuteContext(context.Background(), args, stdout, stderr)
}

// ExecuteContext is Execute with a context that cancels watch mode.
func ExecuteContext(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", exitErr.Err)
		}
		return exitErr.Code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}
