package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/josephgoksu/TaskDivider/internal/mindmap"
	"github.com/josephgoksu/TaskDivider/internal/ui"
)

// statusFlag is a pflag.Value that only accepts known statuses.
type statusFlag struct {
	value mindmap.Status
	set   bool
}

var _ pflag.Value = (*statusFlag)(nil)

func (f *statusFlag) String() string { return string(f.value) }

func (f *statusFlag) Set(s string) error {
	st, err := mindmap.ParseStatus(strings.ReplaceAll(s, "-", "_"))
	if err != nil {
		return err
	}
	f.value, f.set = st, true
	return nil
}

func (f *statusFlag) Type() string { return "status" }

var editStatus statusFlag

var editCmd = &cobra.Command{
	Use:   "edit <node>",
	Short: "Rename a node or change its details or status",
	Example: `  taskdivider edit Basics --status done
  taskdivider edit Learn-Guitar-Songs --name "First songs" --details "Three easy songs"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var patch mindmap.Patch
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			patch.Name = &name
		}
		if cmd.Flags().Changed("details") {
			details, _ := cmd.Flags().GetString("details")
			patch.Details = &details
		}
		if cmd.Flags().Changed("status") && editStatus.set {
			st := editStatus.value
			patch.Status = &st
		}
		if patch.IsEmpty() {
			return fmt.Errorf("nothing to change; pass --name, --details or --status")
		}

		w, err := openExisting(cmd, false)
		if err != nil {
			return err
		}
		defer func() { _ = w.Close() }()

		id, err := w.resolve(args[0])
		if err != nil {
			return err
		}
		if err := w.session.UpdateNodeFields(id, patch); err != nil {
			return err
		}
		if err := w.Save(); err != nil {
			return err
		}
		n, err := w.session.Node(id)
		if err != nil {
			return err
		}
		printf(cmd, "%s %s (%s)\n", ui.StatusIcon(n.Status), n.Name, n.Status.Label())
		return nil
	},
}

var checklistCmd = &cobra.Command{
	Use:   "checklist <node> add <text> | rm <index> | set <index> <text>",
	Short: "Edit a task's evaluation checklist",
	Long: `Add, remove or replace evaluation checklist items. Indexes start at 1,
as printed by 'taskdivider checklist <node>'. The checklist must have been
generated with 'taskdivider detail' first.`,
	Example: `  taskdivider checklist Basics
  taskdivider checklist Basics add "Can switch between G and C in time"
  taskdivider checklist Basics set 2 "Strum in 4/4"
  taskdivider checklist Basics rm 1`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openExisting(cmd, false)
		if err != nil {
			return err
		}
		defer func() { _ = w.Close() }()

		id, err := w.resolve(args[0])
		if err != nil {
			return err
		}
		if len(args) > 1 {
			op, err := parseChecklistOp(args[1:])
			if err != nil {
				return err
			}
			if err := w.session.EditChecklist(id, op); err != nil {
				return err
			}
			if err := w.Save(); err != nil {
				return err
			}
		}

		n, err := w.session.Node(id)
		if err != nil {
			return err
		}
		for i, item := range n.EvaluationChecklist {
			printf(cmd, "%2d. %s\n", i+1, item)
		}
		return nil
	},
}

// parseChecklistOp parses "add <text>", "rm <n>" or "set <n> <text>" with
// 1-based indexes.
func parseChecklistOp(args []string) (mindmap.ChecklistOp, error) {
	index := func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return 0, fmt.Errorf("invalid checklist index %q", s)
		}
		return n - 1, nil
	}

	switch args[0] {
	case "add":
		if len(args) < 2 {
			return mindmap.ChecklistOp{}, fmt.Errorf("usage: add <text>")
		}
		return mindmap.ChecklistOp{Kind: mindmap.ChecklistAdd, Text: strings.Join(args[1:], " ")}, nil
	case "rm", "remove":
		if len(args) != 2 {
			return mindmap.ChecklistOp{}, fmt.Errorf("usage: rm <index>")
		}
		i, err := index(args[1])
		return mindmap.ChecklistOp{Kind: mindmap.ChecklistRemove, Index: i}, err
	case "set":
		if len(args) < 3 {
			return mindmap.ChecklistOp{}, fmt.Errorf("usage: set <index> <text>")
		}
		i, err := index(args[1])
		return mindmap.ChecklistOp{Kind: mindmap.ChecklistSet, Index: i, Text: strings.Join(args[2:], " ")}, err
	default:
		return mindmap.ChecklistOp{}, fmt.Errorf("unknown checklist action %q (add, rm, set)", args[0])
	}
}

var deleteCmd = &cobra.Command{
	Use:     "delete <node>",
	Aliases: []string{"rm"},
	Short:   "Delete a node and all of its subtasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openExisting(cmd, false)
		if err != nil {
			return err
		}
		defer func() { _ = w.Close() }()

		id, err := w.resolve(args[0])
		if err != nil {
			return err
		}
		removed, err := w.session.DeleteNode(id)
		if err != nil {
			return err
		}
		if err := w.Save(); err != nil {
			return err
		}
		printf(cmd, "Deleted %s (%d node(s))\n", id, len(removed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(checklistCmd)
	rootCmd.AddCommand(deleteCmd)

	editCmd.Flags().String("name", "", "new name (the node id does not change)")
	editCmd.Flags().String("details", "", "new one-line details")
	editCmd.Flags().Var(&editStatus, "status", "not_started, in_progress, done or skipped")
}
