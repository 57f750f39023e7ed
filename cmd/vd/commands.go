package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johns/vibe-diary/internal/archive"
	"github.com/johns/vibe-diary/internal/check"
	"github.com/johns/vibe-diary/internal/config"
	"github.com/johns/vibe-diary/internal/hook"
)

func newReplayCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "replay <journal.jsonl.zst>",
		Short: "Feed an archived input journal through the diary as a new session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := archive.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()
			return a.ingest(cmd, r, dryRun, false)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "test", false, "dry run: print the diary entry instead of saving it")
	return cmd
}

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Register vd as a hook in ~/.claude/settings.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return hook.Install(cmd.ErrOrStderr())
		},
	}
}

func newUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the vd hook from ~/.claude/settings.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return hook.Uninstall(cmd.ErrOrStderr())
		},
	}
}

var errCheckFailed = errors.New("one or more checks failed")

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report configuration, database and hook health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := check.Run(a.cfg)
			if _, err := fmt.Fprint(cmd.OutOrStdout(), r.Format()); err != nil {
				return err
			}
			if r.HasFailures() {
				return errCheckFailed
			}
			return nil
		},
	}
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, written, err := config.WriteDefault(a.cfg.DiaryDir)
			if err != nil {
				return err
			}
			if written {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", config.CompressHome(path))
			} else {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", config.CompressHome(path))
			}
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "vd v%s (vibe-diary)\n", version)
			return err
		},
	}
}
