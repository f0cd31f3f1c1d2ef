package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/TaskDivider/internal/logger"
	"github.com/josephgoksu/TaskDivider/internal/ui"
)

var detailCmd = &cobra.Command{
	Use:   "detail <node>",
	Short: "Fetch a task's detailed explanation, checklist and links",
	Long: `Fetch the detailed explanation and evaluation checklist for a node, then
search for learning links when the node has none. Results are cached in the
document: a second call prints them without contacting the LLM.`,
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

		spin := newSpinner(cmd, fmt.Sprintf("Fetching detail for %s...", id))
		spin.Start()
		selErr := w.session.SelectNode(cmd.Context(), id)
		spin.Stop()
		// Partial results (detail fetched, link search failed) are still saved.
		if err := w.Save(); err != nil {
			return err
		}
		if selErr != nil {
			return selErr
		}

		n, err := w.session.Node(id)
		if err != nil {
			return err
		}
		out, err := ui.RenderDetail(n, ui.TerminalWidth())
		if err != nil {
			return err
		}
		ui.RenderPageHeader(cmd.OutOrStdout(), n.ID, ui.StatusIcon(n.Status)+" "+n.Status.Label())
		printf(cmd, "%s", out)
		return nil
	},
}

var rolesCmd = &cobra.Command{
	Use:   "roles <node>",
	Short: "Generate role and responsibility assignments for a task",
	Long: `Generate who-does-what assignments for a node from its detail and
checklist. The detail is fetched first when it is missing.`,
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

		spin := newSpinner(cmd, fmt.Sprintf("Assigning roles for %s...", id))
		spin.Start()
		n, err := w.session.Node(id)
		if err == nil && !n.HasDetail() {
			err = w.session.SelectNode(cmd.Context(), id)
		}
		if err == nil {
			err = w.session.GenerateRolesForNode(cmd.Context(), id)
		}
		spin.Stop()
		if saveErr := w.Save(); saveErr != nil {
			return saveErr
		}
		if err != nil {
			return err
		}

		if n, err = w.session.Node(id); err != nil {
			return err
		}
		printf(cmd, "%s\n\n", ui.StyleSectionTitle.Render(n.Name))
		printf(cmd, "%s", ui.RolesTable(n.RRData, 40).Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detailCmd)
	rootCmd.AddCommand(rolesCmd)
}
