package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/nivram913/fuse-digiposte/internal/config"
	"github.com/nivram913/fuse-digiposte/internal/fusefs"
	"github.com/nivram913/fuse-digiposte/internal/logging"
	"github.com/nivram913/fuse-digiposte/internal/preflight"
	"github.com/nivram913/fuse-digiposte/internal/tree"
)

func newMountCommand(ctx *commandContext) *cobra.Command {
	var checkOnly bool
	var allowOther bool
	var debug bool

	cmd := &cobra.Command{
		Use:   "mount MOUNTPOINT",
		Short: "Mount the account as a read-only filesystem",
		Long: "Mounts the Digiposte folders and documents at MOUNTPOINT and blocks until " +
			"SIGINT or SIGTERM, then unmounts. Documents are downloaded on first open.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			mountpoint, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve mountpoint: %w", err)
			}
			if !cmd.Flags().Changed("allow-other") {
				allowOther = cfg.Mount.AllowOther
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			token, err := ctx.token(signalCtx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			results := preflight.RunMount(signalCtx, cfg, mountpoint, token)
			if checkOnly || preflight.Failed(results) {
				fmt.Fprintln(out, renderPreflight(results, shouldColorize(out)))
			}
			if preflight.Failed(results) {
				return errors.New("preflight checks failed")
			}
			if checkOnly {
				return nil
			}

			client, err := ctx.newClient(cfg, token)
			if err != nil {
				return err
			}
			defer client.Close()

			logger := ctx.log()
			tr, err := tree.Load(signalCtx, client, logger)
			if err != nil {
				return err
			}
			cache, err := fusefs.OpenCache(cfg.Mount.CacheDir, client, cfg.Mount.KeepCache, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := cache.Close(); err != nil {
					logging.WarnWithContext(logger, "cache cleanup failed", "cache_close_failed",
						logging.Error(err),
						logging.String(logging.FieldImpact, "downloaded documents may remain on disk"),
						logging.String(logging.FieldErrorHint, "remove mount.cache_dir by hand"))
				}
			}()

			server, err := fusefs.Mount(fusefs.Options{
				Mountpoint: mountpoint,
				Tree:       tr,
				Cache:      cache,
				AllowOther: allowOther,
				Debug:      debug,
				Logger:     logger,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Mounted at %s (Ctrl+C to unmount)\n", mountpoint)
			return fusefs.Serve(signalCtx, server, logger)
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "Run preflight checks and exit")
	cmd.Flags().BoolVar(&allowOther, "allow-other", false, "Let other users access the mount (needs user_allow_other)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Log every FUSE request")
	return cmd
}

var (
	passColors = text.Colors{text.FgGreen}
	failColors = text.Colors{text.FgRed}
)

func renderPreflight(results []preflight.Result, colorize bool) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status, colors := "OK", passColors
		if !r.Passed {
			status, colors = "FAIL", failColors
		}
		if colorize {
			status = colors.Sprint(status)
		}
		rows = append(rows, []string{r.Name, status, r.Detail})
	}
	return renderTable([]column{leftColumn("Check"), leftColumn("Status"), leftColumn("Detail")}, rows)
}
