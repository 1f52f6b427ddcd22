package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	perrors "github.com/jmgilman/go/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stackvity/fexplore/internal/config"
	"github.com/stackvity/fexplore/internal/explorer"
	"github.com/stackvity/fexplore/internal/filesystem"
	"github.com/stackvity/fexplore/internal/render"
)

// Variables for version embedding via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes
const (
	ExitCodeSuccess     = 0
	ExitCodeFailed      = 1
	ExitCodeConfigError = 2
	ExitCodePartial     = 3
	ExitCodeCancelled   = 4
	ExitCodeUnknown     = 10
)

// configNames are searched for in the current directory when --config is not given.
var configNames = []string{".fexplore", "fexplore"}

// flagKeys maps configuration keys to the flags that override them.
var flagKeys = map[string]string{
	"dir":            "dir",
	"config":         "config",
	"verbose":        "verbose",
	"format":         "format",
	"timeFormat":     "time-format",
	"followSymlinks": "follow-symlinks",
	"chdir":          "chdir",
	"stageMoves":     "stage-moves",
	"yes":            "yes",
	"list.long":      "long",
	"list.template":  "template",
	"watch.enabled":  "watch",
	"watch.debounce": "debounce",
}

// app carries the state shared by all commands of one invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	opts     *config.Options
	format   render.Format
	logger   *slog.Logger
	fs       filesystem.FileSystem
	session  *explorer.Session
	renderer *render.Renderer
	confirm  explorer.Confirmer
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fexplore",
		Short: "Browse and manage files from the command line",
		Long: `fexplore lists, navigates, creates, deletes, copies, moves, renames
and searches files and directories.

Every command runs against a working directory (--dir, default: the current
directory). Output is plain text or, with --format, JSON, YAML or TOML.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("dir", "d", "", "Starting working directory (default: current directory)")
	flags.StringP("config", "c", "", "Configuration file path (default: .fexplore.yaml, fexplore.yaml)")
	flags.BoolP("verbose", "v", false, "Enable verbose debug logging")
	flags.String("format", string(render.FormatText), "Output format: text, json, yaml or toml")
	flags.String("time-format", render.DefaultTimeFormat, "Go time layout for modification times")
	flags.Bool("follow-symlinks", false, "Descend into symlinked directories when searching")
	flags.Bool("chdir", false, "Also change the process working directory on navigation")
	flags.Bool("stage-moves", true, "Stage the copy of a cross-device move under a hidden name")
	flags.BoolP("yes", "y", false, "Do not prompt before deleting a non-empty directory")

	rootCmd.SetVersionTemplate(fmt.Sprintf("fexplore version %s (commit: %s, built: %s)\n", version, commit, date))

	rootCmd.AddCommand(
		newLsCmd(a),
		newCdCmd(a),
		newPwdCmd(a),
		newTouchCmd(a),
		newMkdirCmd(a),
		newRmCmd(a),
		newCpCmd(a),
		newMvCmd(a),
		newRenameCmd(a),
		newSearchCmd(a),
		newInfoCmd(a),
	)
	return rootCmd
}

// loadConfig merges defaults < config file < FEXPLORE_* environment < flags.
func loadConfig(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	config.SetDefaults(v)

	v.SetEnvPrefix("FEXPLORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		for _, name := range configNames {
			v.SetConfigName(name)
			err := v.ReadInConfig()
			if err == nil {
				break
			}
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
			}
		}
	}

	for key, name := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("internal error binding flag %s: %w", name, err)
		}
	}
	return v, nil
}

func configError(err error) error {
	return perrors.Wrap(err, perrors.CodeInvalidConfig, "configuration error")
}

// setup loads configuration and builds the session for the command being run.
func (a *app) setup(cmd *cobra.Command) error {
	v, err := loadConfig(cmd)
	if err != nil {
		return configError(err)
	}

	opts := &config.Options{}
	if err := v.Unmarshal(opts); err != nil {
		return configError(fmt.Errorf("error unmarshalling configuration: %w", err))
	}
	if err := opts.ValidateConfig(); err != nil {
		return configError(err)
	}
	a.opts = opts

	format, err := render.ParseFormat(opts.Format)
	if err != nil {
		return configError(err)
	}
	a.format = format

	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: logLevel}))
	if v.ConfigFileUsed() != "" {
		a.logger.Debug("Using config file", "path", v.ConfigFileUsed())
	}
	a.logger.Debug("Configuration loaded and validated successfully", "options", *opts)

	if a.fs == nil {
		a.fs = filesystem.NewRealFileSystem()
	}
	a.session, err = explorer.NewSession(a.fs, a.logger, opts.Dir, explorer.Options{
		FollowSymlinks: opts.FollowSymlinks,
		SyncProcessDir: opts.Chdir,
		StageMoves:     opts.StageMoves,
	})
	if err != nil {
		return err
	}

	a.renderer = render.New(a.stdout, a.format, opts.TimeFormat, nil)
	if opts.AssumeYes {
		a.confirm = explorer.AlwaysConfirm
	} else {
		a.confirm = &explorer.PromptConfirmer{In: a.stdin, Out: a.stderr}
	}
	return nil
}

// reportError prints err in the configured format on stderr.
func (a *app) reportError(err error) {
	if a.logger != nil {
		a.logger.Debug("Command failed", "code", perrors.GetCode(err), "error", err)
	}
	r := a.renderer
	if r == nil {
		r = render.New(nil, render.FormatText, "", nil)
	}
	if werr := r.Error(a.stderr, err); werr != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
}

// exitCodeFor maps an error's code to the process exit status.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	switch perrors.GetCode(err) {
	case perrors.CodeInvalidConfig:
		return ExitCodeConfigError
	case explorer.CodePartial:
		return ExitCodePartial
	case explorer.CodeCancelled:
		return ExitCodeCancelled
	case perrors.CodeUnknown:
		return ExitCodeUnknown
	default:
		return ExitCodeFailed
	}
}

// run executes one command line and returns the exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		a.reportError(err)
	}
	return exitCodeFor(err)
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
