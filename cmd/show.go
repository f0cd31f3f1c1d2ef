package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/josephgoksu/TaskDivider/internal/app"
	"github.com/josephgoksu/TaskDivider/internal/mindmap"
	"github.com/josephgoksu/TaskDivider/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show [node]",
	Short: "Print the mind map as a tree",
	Long: `Print the whole mind map, or the subtree under [node].

--watch redraws whenever the document changes on disk, which is handy next
to an editor or an MCP client working on the same file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := documentPath("")
		if err != nil {
			return err
		}
		ref := ""
		if len(args) == 1 {
			ref = args[0]
		}
		if err := renderDocument(cmd, path, ref); err != nil {
			return err
		}
		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			return watchDocument(cmd.Context(), path, func() {
				if ui.IsInteractive() {
					printf(cmd, "\033[H\033[2J")
				}
				if err := renderDocument(cmd, path, ref); err != nil {
					printf(cmd, "%s\n", ui.RenderErrorPanel("Could not reload", err.Error()))
				}
			})
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Bool("markdown", false, "render as a markdown outline")
	showCmd.Flags().Bool("ids", false, "show node ids")
	showCmd.Flags().Bool("details", false, "show node details")
	showCmd.Flags().Int("depth", 0, "limit the depth shown (0 = all)")
	showCmd.Flags().Bool("watch", false, "redraw when the document changes")
}

func renderDocument(cmd *cobra.Command, path, ref string) error {
	doc, err := loadDocument(path)
	if err != nil {
		return err
	}
	tree, err := doc.Tree(mindmap.DefaultPolicy())
	if err != nil {
		return err
	}
	root := tree.Snapshot()
	if ref != "" {
		id, err := app.ResolveNode(tree, ref)
		if err != nil {
			return err
		}
		if root, err = tree.Subtree(id); err != nil {
			return err
		}
	}

	width := ui.TerminalWidth()
	if md, _ := cmd.Flags().GetBool("markdown"); md {
		out, err := ui.RenderNodeMarkdown(root, width)
		if err != nil {
			return err
		}
		printf(cmd, "%s", out)
		return nil
	}

	ids, _ := cmd.Flags().GetBool("ids")
	details, _ := cmd.Flags().GetBool("details")
	depth, _ := cmd.Flags().GetInt("depth")
	printf(cmd, "%s", ui.RenderTree(root, ui.TreeOptions{Width: width, ShowIDs: ids, ShowDetails: details, MaxDepth: depth}))
	return nil
}

// watchDocument calls onChange after path is written, until ctx is done.
// The parent directory is watched so editors that replace the file by
// rename are still seen. Bursts of events are collapsed.
func watchDocument(ctx context.Context, path string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	const debounce = 150 * time.Millisecond
	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer = time.After(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "path", path, "error", err)
		case <-timer:
			timer = nil
			onChange()
		}
	}
}
