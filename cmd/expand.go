package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/TaskDivider/internal/logger"
	"github.com/josephgoksu/TaskDivider/internal/ui"
)

var expandCmd = &cobra.Command{
	Use:   "expand <node>",
	Short: "Generate subtasks for a node",
	Long: `Expand a node into subtasks. <node> is a node id or (part of) its name.

On failure the document is left unchanged.`,
	Example: `  taskdivider expand Learn-Guitar-Basics
  taskdivider expand "open chords"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openExisting(cmd, true)
		if err != nil {
			return err
		}
		defer func() { _ = w.Close() }()

		id, err := w.resolve(args[0])
		if err != nil {
			return err
		}
		logger.SetLastTopic(id)

		spin := newSpinner(cmd, fmt.Sprintf("Expanding %s...", id))
		spin.Start()
		err = w.session.Expand(cmd.Context(), id)
		spin.Stop()
		if err != nil {
			return err
		}
		if err := w.Save(); err != nil {
			return err
		}

		sub, err := w.session.Tree().Subtree(id)
		if err != nil {
			return err
		}
		printf(cmd, "%s", ui.RenderTree(sub, ui.TreeOptions{ShowIDs: true, Width: ui.TerminalWidth()}))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(expandCmd)
}
