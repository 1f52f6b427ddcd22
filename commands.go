package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	perrors "github.com/jmgilman/go/errors"
	"github.com/spf13/cobra"

	"github.com/stackvity/fexplore/internal/explorer"
	"github.com/stackvity/fexplore/internal/render"
	"github.com/stackvity/fexplore/internal/template"
	"github.com/stackvity/fexplore/internal/watch"
)

func newLsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List the working directory, directories first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := a.renderer
			if a.opts.List.TemplateFile != "" {
				tmpl, err := template.NewExecutor(a.opts.List.TemplateFile, a.fs)
				if err != nil {
					return configError(err)
				}
				a.logger.Debug("Custom template executor initialized", "file", a.opts.List.TemplateFile)
				r = render.New(a.stdout, a.format, a.opts.TimeFormat, tmpl)
			}

			list := func() error {
				entries, err := a.session.List()
				if err != nil {
					return err
				}
				return r.Listing(a.session.Cwd(), entries, a.opts.List.Detailed)
			}
			if err := list(); err != nil {
				return err
			}
			if !a.opts.Watch.Enabled {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := watch.New(a.fs, a.session.Cwd(), a.opts.Watch.Debounce, a.logger)
			err := w.Run(ctx, func(ctx context.Context, changed []string) error {
				a.logger.Debug("Directory changed, listing again", "paths", changed)
				return list()
			})
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return perrors.WithContext(perrors.Wrap(err, perrors.CodeExecutionFailed, "watch stopped"), "path", a.session.Cwd())
		},
	}
	cmd.Flags().BoolP("long", "l", false, "Show permissions, owner, group, size and modification time")
	cmd.Flags().String("template", "", "Path to a Go template file used to render the listing")
	cmd.Flags().Bool("watch", false, "Keep running and list again whenever the directory changes")
	cmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before listing again in watch mode")
	return cmd
}

func newCdCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cd <path>",
		Short: "Change directory (.., absolute or relative) and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			before := a.session.Cwd()
			dir, err := a.session.Navigate(args[0])
			// A failed process chdir still moves the session.
			if err != nil && dir == before {
				return err
			}
			if perr := a.renderer.Path(dir); perr != nil {
				return perr
			}
			return err
		},
	}
}

func newPwdCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pwd",
		Short: "Print the working directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.renderer.Path(a.session.Cwd())
		},
	}
}

func newTouchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "touch <name>",
		Short: "Create an empty file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.session.CreateFile(args[0])
			if err != nil {
				return err
			}
			return a.renderer.Result(render.Result{
				Operation: "touch",
				Path:      p,
				Message:   fmt.Sprintf("File created successfully: %s", args[0]),
			})
		},
	}
}

func newMkdirCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <name>",
		Short: "Create a directory (mode 0755)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.session.CreateDir(args[0])
			if err != nil {
				return err
			}
			return a.renderer.Result(render.Result{
				Operation: "mkdir",
				Path:      p,
				Message:   fmt.Sprintf("Directory created successfully: %s", args[0]),
			})
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a file or directory, asking before removing a non-empty directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := "File"
			if e, err := a.session.Lookup(args[0]); err == nil && e.Type == explorer.EntryDir {
				kind = "Directory"
			}
			if err := a.session.Delete(args[0], a.confirm); err != nil {
				return err
			}
			return a.renderer.Result(render.Result{
				Operation: "rm",
				Path:      args[0],
				Message:   fmt.Sprintf("%s deleted successfully: %s", kind, args[0]),
			})
		},
	}
}

func newCpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cp <src> <dst>",
		Short: "Copy a file or directory tree, keeping permission bits",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := "File"
			if e, err := a.session.Lookup(args[0]); err == nil && e.Type == explorer.EntryDir {
				kind = "Directory"
			}
			dst, err := a.session.Copy(args[0], args[1])
			if err != nil {
				return err
			}
			return a.renderer.Result(render.Result{
				Operation:   "cp",
				Path:        args[0],
				Destination: dst,
				Message:     fmt.Sprintf("%s copied successfully from %s to %s", kind, args[0], dst),
			})
		},
	}
}

func newMvCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <src> <dst>",
		Short: "Move a file or directory, into <dst> if it is a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.session.Move(args[0], args[1])
			if err != nil {
				return err
			}
			kind := "File"
			if res.IsDir {
				kind = "Directory"
			}
			return a.renderer.Result(render.Result{
				Operation:   "mv",
				Path:        res.Source,
				Destination: res.Destination,
				Method:      string(res.Method),
				Message:     fmt.Sprintf("%s moved successfully to %s", kind, res.Destination),
			})
		},
	}
}

func newRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename an item in the working directory; fails if <new> exists",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.session.Rename(args[0], args[1])
			if err != nil {
				return err
			}
			return a.renderer.Result(render.Result{
				Operation:   "rename",
				Path:        args[0],
				Destination: p,
				Message:     fmt.Sprintf("Renamed successfully: %s -> %s", args[0], args[1]),
			})
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <term> [base]",
		Short: "Find entries whose name contains <term> (case-sensitive)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := explorer.MatchSubstring
			if glob, _ := cmd.Flags().GetBool("glob"); glob {
				mode = explorer.MatchGlob
			}
			base := ""
			if len(args) == 2 {
				base = args[1]
			}
			res, err := a.session.Search(args[0], base, mode)
			if err != nil {
				return err
			}
			return a.renderer.Search(res)
		},
	}
	cmd.Flags().Bool("glob", false, "Treat <term> as a glob pattern (supports **)")
	return cmd
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <name>",
		Short: "Show details of a single item, including its MIME type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.session.Info(args[0])
			if err != nil {
				return err
			}
			return a.renderer.Entry(e)
		},
	}
}
