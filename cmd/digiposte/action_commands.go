package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nivram913/fuse-digiposte/internal/ipc"
	"github.com/nivram913/fuse-digiposte/internal/services/digiposte"
)

// newActionCommands exposes every pipe action as a subcommand. Output mirrors
// the pipe replies: a JSON body, an object ID, or OK.
func newActionCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newGetFoldersTreeCommand(ctx),
		newGetFolderContentCommand(ctx),
		newGetFileCommand(ctx),
		newCreateFolderCommand(ctx),
		newRenameObjectCommand(ctx),
		newDeleteObjectCommand(ctx),
		newMoveObjectCommand(ctx),
		newUploadFileCommand(ctx),
	}
}

func newGetFoldersTreeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   ipc.ActionGetFoldersTree,
		Short: "Print the folder tree as returned by the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(client *digiposte.Client) error {
				body, err := client.FoldersTree(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(body))
				return nil
			})
		},
	}
}

func newGetFolderContentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   ipc.ActionGetFolderContent + " FOLDER_ID",
		Short: "Print the documents of a folder (empty ID for the root)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(client *digiposte.Client) error {
				body, err := client.FolderContent(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(body))
				return nil
			})
		},
	}
}

func newGetFileCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   ipc.ActionGetFile + " FILE_ID DEST",
		Short: "Download a document to a local path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(client *digiposte.Client) error {
				if err := client.DownloadFile(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ipc.ReplyOK)
				return nil
			})
		},
	}
}

func newCreateFolderCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   ipc.ActionCreateFolder + " NAME [PARENT_ID]",
		Short: "Create a folder and print its ID",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var parentID string
			if len(args) == 2 {
				parentID = args[1]
			}
			return ctx.withClient(cmd, func(client *digiposte.Client) error {
				id, err := client.CreateFolder(cmd.Context(), args[0], parentID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
}

func newRenameObjectCommand(ctx *commandContext) *cobra.Command {
	var isFile bool
	cmd := &cobra.Command{
		Use:   ipc.ActionRenameObject + " ID NEW_NAME",
		Short: "Rename a folder, or a document with --file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(client *digiposte.Client) error {
				if err := client.RenameObject(cmd.Context(), objectKind(isFile), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ipc.ReplyOK)
				return nil
			})
		},
	}
	addFileFlag(cmd, &isFile)
	return cmd
}

func newDeleteObjectCommand(ctx *commandContext) *cobra.Command {
	var isFile bool
	cmd := &cobra.Command{
		Use:   ipc.ActionDeleteObject + " ID",
		Short: "Move a folder, or a document with --file, to the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(client *digiposte.Client) error {
				if err := client.DeleteObject(cmd.Context(), objectKind(isFile), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ipc.ReplyOK)
				return nil
			})
		},
	}
	addFileFlag(cmd, &isFile)
	return cmd
}

func newMoveObjectCommand(ctx *commandContext) *cobra.Command {
	var isFile bool
	cmd := &cobra.Command{
		Use:   ipc.ActionMoveObject + " ID [DEST_ID]",
		Short: "Move a folder, or a document with --file, into another folder (root when omitted)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dest string
			if len(args) == 2 {
				dest = args[1]
			}
			return ctx.withClient(cmd, func(client *digiposte.Client) error {
				if err := client.MoveObject(cmd.Context(), objectKind(isFile), args[0], dest); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ipc.ReplyOK)
				return nil
			})
		},
	}
	addFileFlag(cmd, &isFile)
	return cmd
}

func newUploadFileCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   ipc.ActionUploadFile + " DEST_ID SRC NAME [SIZE]",
		Short: "Upload a local file as a new document and print its ID",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			up := digiposte.Upload{FolderID: args[0], Path: args[1], Name: args[2]}
			if len(args) == 4 {
				size, err := strconv.ParseInt(args[3], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid size %q: %w", args[3], err)
				}
				if size < 0 {
					return errors.New("size must not be negative")
				}
				up.Size = size
			}
			return ctx.withClient(cmd, func(client *digiposte.Client) error {
				id, err := client.UploadFile(cmd.Context(), up)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
}

func addFileFlag(cmd *cobra.Command, target *bool) {
	cmd.Flags().BoolVarP(target, "file", "f", false, "Target a document instead of a folder")
}

func objectKind(isFile bool) digiposte.ObjectKind {
	if isFile {
		return digiposte.KindDocument
	}
	return digiposte.KindFolder
}
