package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/nivram913/fuse-digiposte/internal/services/digiposte"
	"github.com/nivram913/fuse-digiposte/internal/tree"
)

func newTreeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tree [PATH]",
		Short: "Show the folder hierarchy below PATH",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "/"
			if len(args) == 1 {
				target = args[0]
			}
			return ctx.withClient(cmd, func(client *digiposte.Client) error {
				tr, err := tree.Load(cmd.Context(), client, ctx.log())
				if err != nil {
					return err
				}
				folder, err := tr.ResolveFolder(cmd.Context(), target)
				if err != nil {
					return err
				}
				folders := subtree(tr, folder)
				if asJSON {
					return writeJSON(cmd, folders)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderFolderTree(tr.Path(folder), folders))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// subtree rebuilds the nested listing below root in collation order.
func subtree(tr *tree.Tree, root *tree.Folder) *digiposte.FolderTree {
	out := &digiposte.FolderTree{Folders: []digiposte.FolderEntry{}}
	// parents[d] is the slice receiving folders at depth d.
	parents := []*[]digiposte.FolderEntry{&out.Folders}
	tr.Walk(root, func(f *tree.Folder, depth int) {
		parents = parents[:depth+1]
		siblings := parents[depth]
		*siblings = append(*siblings, digiposte.FolderEntry{ID: f.ID, Name: f.Name, Folders: []digiposte.FolderEntry{}})
		parents = append(parents, &(*siblings)[len(*siblings)-1].Folders)
	})
	return out
}

func renderFolderTree(label string, folders *digiposte.FolderTree) string {
	lw := list.NewWriter()
	lw.SetStyle(list.StyleConnectedRounded)
	lw.AppendItem(label)
	level := 0
	folders.Walk(func(entry digiposte.FolderEntry, depth int) {
		for level < depth+1 {
			lw.Indent()
			level++
		}
		for level > depth+1 {
			lw.UnIndent()
			level--
		}
		lw.AppendItem(entry.Name)
	})
	return lw.Render()
}

type lsEntry struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Size int64  `json:"size,omitempty"`
	ID   string `json:"id"`
}

func newLsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ls [PATH]",
		Short: "List a folder, or describe a document, by path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "/"
			if len(args) == 1 {
				target = args[0]
			}
			return ctx.withClient(cmd, func(client *digiposte.Client) error {
				tr, err := tree.Load(cmd.Context(), client, ctx.log())
				if err != nil {
					return err
				}
				folder, file, err := tr.Resolve(cmd.Context(), target)
				if err != nil {
					return err
				}

				var entries []lsEntry
				if file != nil {
					entries = append(entries, documentEntry(file))
				} else {
					children, err := tr.SortedEntries(cmd.Context(), folder)
					if err != nil {
						return err
					}
					for _, child := range children {
						if child.IsDir() {
							entries = append(entries, lsEntry{Name: child.Name, Kind: digiposte.KindFolder.String(), ID: child.Folder.ID})
							continue
						}
						entries = append(entries, documentEntry(child.File))
					}
				}

				if asJSON {
					if entries == nil {
						entries = []lsEntry{}
					}
					return writeJSON(cmd, entries)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "Folder is empty")
					return nil
				}
				fmt.Fprintln(out, renderEntries(entries, shouldColorize(out)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func documentEntry(file *tree.File) lsEntry {
	return lsEntry{Name: file.Name, Kind: digiposte.KindDocument.String(), Size: file.Size, ID: file.ID}
}

func renderEntries(entries []lsEntry, colorize bool) string {
	folderColors := text.Colors{text.FgBlue, text.Bold}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name
		size := "-"
		if e.Kind == digiposte.KindFolder.String() {
			if colorize {
				name = folderColors.Sprint(name)
			}
		} else {
			size = humanize.IBytes(uint64(e.Size))
		}
		rows = append(rows, []string{name, e.Kind, size, e.ID})
	}
	return renderTable(
		[]column{leftColumn("Name"), leftColumn("Kind"), rightColumn("Size"), leftColumn("ID")},
		rows,
	)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
