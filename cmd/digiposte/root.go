package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var tokenFlag string
	var serverFDs []int

	ctx := newCommandContext(&configFlag, &tokenFlag)

	rootCmd := &cobra.Command{
		Use:           "digiposte",
		Short:         "Digiposte command-line client",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Positional args are only meaningful as the WRITE_FD of --server.
		Args: cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("server") {
				if len(args) > 0 {
					return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
				}
				return cmd.Help()
			}
			fds, err := serverDescriptors(serverFDs, args)
			if err != nil {
				return err
			}
			r := os.NewFile(uintptr(fds[0]), "digiposte-pipe-read")
			w := os.NewFile(uintptr(fds[1]), "digiposte-pipe-write")
			if r == nil || w == nil {
				return fmt.Errorf("invalid --server descriptors %d,%d", fds[0], fds[1])
			}
			defer r.Close()
			defer w.Close()
			return runPipeServer(cmd, ctx, r, w)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "Digiposte bearer token (overrides config and stored login)")
	rootCmd.Flags().IntSliceVar(&serverFDs, "server", nil, "Run the pipe server on READ_FD WRITE_FD (or READ_FD,WRITE_FD)")

	for _, cmd := range newActionCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newTreeCommand(ctx))
	rootCmd.AddCommand(newLsCommand(ctx))
	rootCmd.AddCommand(newLoginCommand(ctx))
	rootCmd.AddCommand(newLogoutCommand(ctx))
	rootCmd.AddCommand(newMountCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

// serverDescriptors accepts both "--server R W" and "--server R,W".
func serverDescriptors(flagValues []int, args []string) ([2]int, error) {
	var fds [2]int
	values := append([]int(nil), flagValues...)
	for _, arg := range args {
		fd, err := strconv.Atoi(arg)
		if err != nil {
			return fds, fmt.Errorf("--server: invalid descriptor %q", arg)
		}
		values = append(values, fd)
	}
	if len(values) != 2 {
		return fds, fmt.Errorf("--server takes exactly two descriptors (READ_FD WRITE_FD), got %d", len(values))
	}
	for i, fd := range values {
		if fd < 0 {
			return fds, fmt.Errorf("--server: invalid descriptor %d", fd)
		}
		fds[i] = fd
	}
	return fds, nil
}
