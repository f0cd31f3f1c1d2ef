/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/josephgoksu/TaskDivider/internal/config"
	"github.com/josephgoksu/TaskDivider/internal/logger"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
	// docFile is the mindmap document the command reads and writes.
	docFile string
	// version is the application version.
	version = "0.1.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "taskdivider",
	Short: "TaskDivider breaks a goal into an AI-generated task mind map.",
	Long: `TaskDivider turns a topic into a hierarchical mind map of tasks using an LLM.

Generate a map, expand any node into subtasks, fetch a detailed explanation
and evaluation checklist for a task, assign roles, and export the result as
JSON, Markdown or YAML.

  taskdivider generate "Learn Guitar" --depth 1
  taskdivider expand Basics
  taskdivider detail "open chords"
  taskdivider show`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetCommand(cmd.CommandPath())
		return setupLogger(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// GetVersion returns the application version.
func GetVersion() string {
	return version
}

func init() {
	cobra.OnInitialize(InitConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.taskdivider/.taskdivider.yaml or $HOME/.taskdivider.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&docFile, "file", "f", "", "mindmap document (default <topic>_mind_map.json)")

	// Bind persistent flags to Viper
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.Version = version
	logger.SetVersion(version)
}

// setupLogger installs the process logger on stderr.
func setupLogger(cmd *cobra.Command) error {
	cfg, err := config.LoadLogConfig()
	if err != nil {
		return err
	}
	slog.SetDefault(logger.New(logger.Options{
		Level:  cfg.Level,
		Format: cfg.Format,
		Writer: cmd.ErrOrStderr(),
	}))
	return nil
}

// printf writes to the command's stdout.
func printf(cmd *cobra.Command, format string, a ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, a...)
}
