package cmd

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/TaskDivider/internal/app"
	"github.com/josephgoksu/TaskDivider/internal/config"
	"github.com/josephgoksu/TaskDivider/internal/llm"
	"github.com/josephgoksu/TaskDivider/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change TaskDivider settings",
	Long: `Manage the global configuration in ~/.taskdivider/.taskdivider.yaml.

Settings can also come from ./.taskdivider/.taskdivider.yaml, a .env file, or
TASKDIVIDER_* environment variables (TASKDIVIDER_LLM_PROVIDER, ...).`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a global configuration value",
	Example: `  taskdivider config set llm.provider anthropic
  taskdivider config set mindmap.graftPolicy dedupe
  taskdivider config set mindmap.expansionTimeout 60s`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.SetGlobalValue(args[0], parseConfigValue(args[1]))
		if err != nil {
			return err
		}
		printf(cmd, "Set %s in %s\n", args[0], path)
		return nil
	},
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key <provider> <api-key>",
	Short: "Store an API key for an LLM provider",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := llm.ValidateProvider(args[0])
		if err != nil {
			return err
		}
		path, err := config.SaveAPIKeyForProvider(string(provider), args[1])
		if err != nil {
			return err
		}
		printf(cmd, "Saved %s API key to %s\n", provider, path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings (API keys are not shown)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := app.LoadSettings()
		if err != nil {
			return err
		}
		printf(cmd, "llm.provider              %s\n", st.LLM.Provider)
		printf(cmd, "llm.model                 %s\n", st.LLM.Model)
		printf(cmd, "llm.apiKey                %s\n", keyState(st.LLM.APIKey))
		if st.Fallback != nil {
			printf(cmd, "llm.fallback              %s/%s\n", st.Fallback.Provider, st.Fallback.Model)
		}
		printf(cmd, "mindmap.expansionTimeout  %s\n", st.Mindmap.ExpansionTimeout)
		printf(cmd, "mindmap.graftPolicy       %s\n", st.Mindmap.Policy.Graft)
		printf(cmd, "mindmap.collisionPolicy   %s\n", st.Mindmap.Policy.Collision)
		printf(cmd, "mindmap.maxRetries        %d\n", st.Mindmap.MaxRetries)
		printf(cmd, "search.provider           %s\n", st.Search.Provider)
		printf(cmd, "search.limit              %d\n", st.Search.Limit)
		printf(cmd, "search.refineQuery        %t\n", st.Search.RefineQuery)
		if st.PromptsDir != "" {
			printf(cmd, "prompts.dir               %s\n", st.PromptsDir)
		}
		return nil
	},
}

var configModelsCmd = &cobra.Command{
	Use:   "models [provider]",
	Short: "List known models and their pricing",
	Long: `List the models TaskDivider knows prices for. Any other model name is
accepted by llm.model; generation cost is then logged as 0.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		providers := []string{llm.ProviderOpenAI, llm.ProviderAnthropic, llm.ProviderGemini, llm.ProviderDeepSeek, llm.ProviderOllama}
		if len(args) == 1 {
			p, err := llm.ValidateProvider(args[0])
			if err != nil {
				return err
			}
			providers = []string{string(p)}
		}

		tbl := &ui.Table{Headers: []string{"Provider", "Model", "Price"}}
		for _, p := range providers {
			for _, m := range llm.ModelsForProvider(p) {
				id := m.ID
				if m.IsDefault {
					id += " (default)"
				}
				tbl.Rows = append(tbl.Rows, []string{m.Provider, id, m.PriceInfo()})
			}
		}
		printf(cmd, "%s", tbl.Render())
		return nil
	},
}

func keyState(key string) string {
	if key == "" {
		return "(not set)"
	}
	return "(set)"
}

// parseConfigValue stores integers and true/false as typed YAML values.
func parseConfigValue(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetKeyCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configModelsCmd)
}
