package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ghostwipe/ghostwipe/internal/config"
	"github.com/ghostwipe/ghostwipe/internal/lifecycle"
	"github.com/ghostwipe/ghostwipe/internal/prompt"
)

// Env carries the process streams into the command tree. The zero value
// uses the real process streams; tests replace them.
type Env struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Interrupts cancels a prompt in progress when it receives. May be nil.
	Interrupts <-chan os.Signal

	// Getenv looks up environment variables. Default: os.Getenv.
	Getenv func(string) string

	// Prompter replaces the terminal prompter (for testing).
	Prompter prompt.Prompter

	// DataDir overrides the data directory (for testing).
	DataDir string

	// Now overrides the clock used to date backups (for testing).
	Now func() time.Time

	// RunIDs overrides the run id generator (for testing).
	RunIDs lifecycle.RunIDGenerator
}

func (e *Env) withDefaults() *Env {
	out := *e
	if out.In == nil {
		out.In = os.Stdin
	}
	if out.Out == nil {
		out.Out = os.Stdout
	}
	if out.Err == nil {
		out.Err = os.Stderr
	}
	if out.Getenv == nil {
		out.Getenv = os.Getenv
	}
	return &out
}

// RootOptions holds global flags for all commands, and the configuration
// and logger resolved from them before any command runs.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	DebugLog   string
	NoBanner   bool

	Config config.Config
	Logger *slog.Logger

	env      *Env
	term     *prompt.Terminal
	closeLog func() error
}

// NewRootCommand creates the root command for the GHOSTWIPE launcher.
func NewRootCommand(env *Env) *cobra.Command {
	cmd, _ := newRoot(env)
	return cmd
}

func newRoot(env *Env) (*cobra.Command, *RootOptions) {
	if env == nil {
		env = &Env{}
	}
	opts := &RootOptions{env: env.withDefaults()}

	cmd := &cobra.Command{
		Use:   "ghostwipe",
		Short: "GHOSTWIPE - personal data inventory launcher",
		Long: `GHOSTWIPE keeps an inventory of where your personal data lives and
which data brokers you have asked to remove it.

Run without a subcommand, it unlocks the store (setting it up or encrypting it
first when needed) and opens the console.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd.Context(), opts)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file (env "+config.DefaultConfigEnv+")")
	cmd.PersistentFlags().StringVar(&opts.DebugLog, "debug-log", "", "mirror log records into this file")
	cmd.PersistentFlags().BoolVar(&opts.NoBanner, "no-banner", false, "skip the launcher banner")

	// Add subcommands
	cmd.AddCommand(NewLaunchCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))
	cmd.AddCommand(NewRekeyCommand(opts))
	cmd.AddCommand(NewDevResetCommand(opts))

	return cmd, opts
}

// resolve builds the configuration (defaults, then the config file, then
// the flags the operator set) and the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	flags := cmd.Flags()

	path, required := o.ConfigPath, flags.Changed("config")
	if path == "" {
		path = o.env.Getenv(config.DefaultConfigEnv)
		required = path != ""
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	if flags.Changed("verbose") {
		cfg.Verbose = o.Verbose
	}
	if flags.Changed("format") {
		cfg.Format = o.Format
	}
	if flags.Changed("debug-log") {
		cfg.DebugLog = o.DebugLog
	}
	if flags.Changed("no-banner") {
		cfg.Banner = !o.NoBanner
	}
	if o.env.DataDir != "" {
		cfg.DataDir = o.env.DataDir
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	logger, closeLog, err := newLogger(cfg, o.env.Err)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open debug log", err)
	}
	o.Config = cfg
	o.Logger = logger
	o.closeLog = closeLog
	return nil
}

// prompter returns the operator input source, creating the terminal
// prompter on first use. Execute closes it, which restores the terminal.
func (o *RootOptions) prompter() prompt.Prompter {
	if o.env.Prompter != nil {
		return o.env.Prompter
	}
	if o.term == nil {
		if f, ok := o.env.In.(*os.File); ok {
			o.term = prompt.NewTerminal(f, o.env.Out, o.env.Interrupts)
		} else {
			o.term = prompt.NewReaderTerminal(o.env.In, o.env.Out, o.env.Interrupts)
		}
	}
	return o.term
}

func (o *RootOptions) controller() *lifecycle.Controller {
	var opts []lifecycle.Option
	if o.env.Now != nil {
		opts = append(opts, lifecycle.WithClock(o.env.Now))
	}
	if o.env.RunIDs != nil {
		opts = append(opts, lifecycle.WithRunIDs(o.env.RunIDs))
	}
	return lifecycle.New(o.Config, o.prompter(), o.env.Out, o.Logger, opts...)
}

func (o *RootOptions) reporter() *Reporter {
	return &Reporter{
		JSON:    o.Config.Format == "json",
		Out:     o.env.Out,
		Diag:    o.env.Err,
		Verbose: o.Config.Verbose,
	}
}

// Execute runs the command tree with args and returns the process exit code.
// Errors the commands did not classify (unknown flags, bad arguments) are
// usage errors.
func Execute(ctx context.Context, env *Env, args []string) int {
	cmd, opts := newRoot(env)
	cmd.SetArgs(args)
	cmd.SetIn(opts.env.In)
	cmd.SetOut(opts.env.Out)
	cmd.SetErr(opts.env.Err)

	err := cmd.ExecuteContext(ctx)
	if opts.term != nil {
		if cerr := opts.term.Close(); cerr != nil {
			fmt.Fprintf(opts.env.Err, "warning: restoring terminal: %v\n", cerr)
		}
	}
	if opts.closeLog != nil {
		if cerr := opts.closeLog(); cerr != nil {
			fmt.Fprintf(opts.env.Err, "warning: closing debug log: %v\n", cerr)
		}
	}
	code := exitCode(err)
	if err != nil {
		fmt.Fprintln(opts.env.Err, color.New(color.FgRed).Sprintf("Error: %v", err))
	}
	return code
}
