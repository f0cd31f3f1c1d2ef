package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/josephgoksu/TaskDivider/internal/app"
	"github.com/josephgoksu/TaskDivider/internal/logger"
	"github.com/josephgoksu/TaskDivider/internal/mindmap"
	"github.com/josephgoksu/TaskDivider/internal/ui"
)

var generateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Generate a task mind map for a topic",
	Long: `Ask the LLM to break a topic into subtopics and save the result as a
mindmap document (<topic>_mind_map.json unless --output or --file is given).

With --depth N every leaf is expanded N more levels. Leaves of one level
are expanded concurrently.`,
	Example: `  taskdivider generate "Learn Guitar"
  taskdivider generate "Data Structures" --depth 2 -o ds.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringP("output", "o", "", "document to write (overrides --file)")
	generateCmd.Flags().Int("depth", 0, "expand every leaf this many extra levels")
	generateCmd.Flags().Bool("force", false, "overwrite an existing document")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	output, _ := cmd.Flags().GetString("output")
	depth, _ := cmd.Flags().GetInt("depth")
	force, _ := cmd.Flags().GetBool("force")
	if depth < 0 {
		return fmt.Errorf("--depth must be >= 0, got %d", depth)
	}

	path := output
	if path == "" {
		var err error
		if path, err = documentPath(topic); err != nil {
			return err
		}
	}
	if exists, _ := afero.Exists(appFS, path); exists && !force {
		return fmt.Errorf("%s already exists; use --force to overwrite", path)
	}

	w, err := openWorkspace(cmd, path, true, false)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	logger.SetLastTopic(topic)
	spin := newSpinner(cmd, fmt.Sprintf("Generating %q...", topic))
	spin.Start()
	genErr := w.session.Generate(cmd.Context(), topic)
	spin.Stop()
	if genErr != nil && w.session.Tree() == nil {
		return genErr
	}

	var expandErr error
	if genErr == nil && depth > 0 {
		spin = newSpinner(cmd, fmt.Sprintf("Expanding %d level(s)...", depth))
		spin.Start()
		expandErr = w.session.ExpandAll(cmd.Context(), depth)
		spin.Stop()
		if expandErr != nil {
			slog.Warn("some expansions failed", "error", expandErr)
		}
	}

	if err := w.Save(); err != nil {
		return err
	}
	if err := printTree(cmd, w.session); err != nil {
		return err
	}
	printf(cmd, "\nSaved to %s\n", path)

	if genErr != nil {
		return fmt.Errorf("generation failed, error node saved: %w", genErr)
	}
	if errors.Is(expandErr, mindmap.ErrGeneration) {
		panel := ui.NewPanel("Incomplete expansion", expandErr.Error()+"\n\nRetry with 'taskdivider expand <node>'.").
			WithBorderColor(ui.ColorWarning).
			WithWidth(min(ui.TerminalWidth(), ui.DefaultWidth))
		printf(cmd, "%s\n", panel.Render())
	}
	return nil
}

// newSpinner returns a spinner on stderr, silent when stdout is not a terminal.
func newSpinner(cmd *cobra.Command, suffix string) *ui.Spinner {
	if !ui.IsInteractive() {
		return ui.NewSpinner(nil, suffix)
	}
	return ui.NewSpinner(cmd.ErrOrStderr(), suffix)
}

// printTree renders the whole tree.
func printTree(cmd *cobra.Command, s *app.Session) error {
	root, err := s.Snapshot()
	if err != nil {
		return err
	}
	printf(cmd, "%s", ui.RenderTree(root, ui.TreeOptions{Width: ui.TerminalWidth()}))
	return nil
}
