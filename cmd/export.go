package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/josephgoksu/TaskDivider/internal/app"
	"github.com/josephgoksu/TaskDivider/internal/mindmap"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the mind map as JSON, Markdown or YAML",
	Long: `Export the mind map. JSON keeps every field and can be loaded again
with --file; Markdown is an outline (headings, details, checklist, links)
and YAML mirrors the JSON document.

Without --output the export goes to stdout. Use -o auto for the default
name, e.g. Learn_Guitar_mind_map.md.`,
	Example: `  taskdivider export --format markdown -o auto
  taskdivider export --format yaml > guitar.yaml
  taskdivider export --format md --clipboard`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		toClipboard, _ := cmd.Flags().GetBool("clipboard")

		format = app.NormalizeFormat(format)
		switch format {
		case app.FormatJSON, app.FormatMarkdown, app.FormatYAML:
		default:
			return fmt.Errorf("unsupported export format %q (json, markdown, yaml)", format)
		}

		w, err := openExisting(cmd, false)
		if err != nil {
			return err
		}
		defer func() { _ = w.Close() }()

		var buf bytes.Buffer
		if err := w.session.Export(&buf, format); err != nil {
			return err
		}

		if toClipboard {
			if err := writeClipboard(buf.String()); err != nil {
				return fmt.Errorf("copy to clipboard: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Copied %s export to clipboard\n", format)
			if output == "" {
				return nil
			}
		}

		switch output {
		case "":
			_, err = cmd.OutOrStdout().Write(buf.Bytes())
			return err
		case "auto":
			output = mindmap.FileName(w.session.Tree().Topic(), app.FormatExtension(format))
			if dir := filepath.Dir(w.path); dir != "." {
				output = filepath.Join(dir, output)
			}
		}
		if strings.EqualFold(filepath.Clean(output), filepath.Clean(w.path)) {
			return fmt.Errorf("refusing to overwrite the source document %s", w.path)
		}
		if err := writeFile(output, buf.Bytes()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("format", app.FormatJSON, "json, markdown (md) or yaml (yml)")
	exportCmd.Flags().StringP("output", "o", "", "output file, or 'auto' for <topic>_mind_map.<ext>")
	exportCmd.Flags().Bool("clipboard", false, "copy the export to the clipboard")
}
