package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nivram913/fuse-digiposte/internal/ipc"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var readFD int
	var writeFD int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer pipe records until the read side is closed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			var w io.Writer = cmd.OutOrStdout()
			readFile, err := openDescriptor(readFD, 0, "digiposte-pipe-read")
			if err != nil {
				return err
			}
			if readFile != nil {
				defer readFile.Close()
				r = readFile
			}
			writeFile, err := openDescriptor(writeFD, 1, "digiposte-pipe-write")
			if err != nil {
				return err
			}
			if writeFile != nil {
				defer writeFile.Close()
				w = writeFile
			}
			return runPipeServer(cmd, ctx, r, w)
		},
	}

	cmd.Flags().IntVar(&readFD, "read-fd", 0, "Descriptor to read records from")
	cmd.Flags().IntVar(&writeFD, "write-fd", 1, "Descriptor to write replies to")
	return cmd
}

// openDescriptor wraps fd unless it is the standard descriptor, in which
// case the command's own stream is used so output can be redirected.
func openDescriptor(fd, standard int, name string) (*os.File, error) {
	if fd == standard {
		return nil, nil
	}
	if fd < 0 {
		return nil, fmt.Errorf("invalid descriptor %d", fd)
	}
	f := os.NewFile(uintptr(fd), name)
	if f == nil {
		return nil, fmt.Errorf("invalid descriptor %d", fd)
	}
	return f, nil
}

// runPipeServer resolves the token, then serves records until EOF or a
// termination signal.
func runPipeServer(cmd *cobra.Command, ctx *commandContext, r io.Reader, w io.Writer) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := ctx.client(signalCtx)
	if err != nil {
		return err
	}
	defer client.Close()

	server := ipc.NewServer(client, ctx.log())
	if err := server.Serve(signalCtx, r, w); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
