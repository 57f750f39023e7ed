package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/johns/vibe-diary/internal/archive"
	"github.com/johns/vibe-diary/internal/config"
	"github.com/johns/vibe-diary/internal/hook"
	"github.com/johns/vibe-diary/internal/store"
)

// app carries the loaded config, with command-line overrides applied.
type app struct {
	cfg config.Config

	diaryDir string
	verbose  bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var (
		dryRun     bool
		showRecent bool
		limit      int
	)

	rootCmd := &cobra.Command{
		Use:   "vd",
		Short: "vd (vibe-diary): record Claude Code sessions as a work diary",
		Long: `vd reads session events, one JSON object per line, from stdin and records
objectives, categorized accomplishments, issues, tool usage and modified files
in a SQLite diary. Register it as a Claude Code hook with "vd install".`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showRecent {
				if !cmd.Flags().Changed("limit") {
					limit = a.cfg.RecentLimit
				}
				return a.showRecent(cmd, limit, dryRun, false)
			}
			return a.ingest(cmd, cmd.InOrStdin(), dryRun, a.cfg.Archive.Enabled)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.diaryDir, "diary-dir", "", "directory holding diary.db (default ~/.claude)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log diagnostics to stderr")

	f := rootCmd.Flags()
	f.BoolVar(&dryRun, "test", false, "dry run: print the diary entry instead of saving it")
	f.BoolVar(&showRecent, "show-recent", false, "print recent diary entries and exit")
	f.IntVar(&limit, "limit", 5, "number of entries for --show-recent")

	rootCmd.AddCommand(
		newRecentCmd(a),
		newReplayCmd(a),
		newInstallCmd(),
		newUninstallCmd(),
		newCheckCmd(a),
		newInitCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

// load reads the config file and applies explicitly set flags on top.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("diary-dir") {
		cfg.DiaryDir = config.ExpandHome(a.diaryDir)
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = a.verbose
	}
	a.cfg = cfg
	return nil
}

func (a *app) logger(cmd *cobra.Command) *log.Logger {
	if !a.cfg.Verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "vd: ", 0)
}

// openStore resolves the database location, migrating a legacy database
// once, and opens it.
func (a *app) openStore(logger *log.Logger) (*store.Store, error) {
	path, migrated, err := store.Prepare(a.cfg.DiaryDir)
	if err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}
	if migrated {
		logger.Printf("migrated database from %s to %s", store.LegacyPathIn(a.cfg.DiaryDir), path)
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}
	logger.Printf("using database %s", path)
	return st, nil
}

// ingest runs one session over the lines of in.
func (a *app) ingest(cmd *cobra.Command, in io.Reader, dryRun, journal bool) error {
	logger := a.logger(cmd)
	opts := hook.Options{
		DryRun: dryRun,
		Out:    cmd.OutOrStdout(),
		Errs:   cmd.ErrOrStderr(),
		Log:    logger,
	}

	if dryRun {
		return hook.New(nil, opts).Run(in)
	}

	st, err := a.openStore(logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if journal {
		j, err := archive.Create(a.cfg.ArchiveDir(), time.Now(), os.Getpid())
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "vd: journal disabled: %v\n", err)
		} else {
			logger.Printf("journaling input to %s", j.Path())
			opts.Journal = j
		}
	}

	return hook.New(st, opts).Run(in)
}
