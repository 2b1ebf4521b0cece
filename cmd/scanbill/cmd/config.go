package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/scanbill/scanbill/internal/config"
)

// configCmd shows the resolved configuration and search behavior.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show resolved configuration",
	Long: `Show the resolved configuration after merging defaults, config file,
environment variables, and flags.

Examples:
  scanbill config
  scanbill config --paths
  scanbill config --init scanbill.yaml`,
	SilenceUsage: true,
	RunE:         runConfigCommand,
}

func runConfigCommand(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if initFile, _ := cmd.Flags().GetString("init"); initFile != "" {
		if err := config.GenerateDefaultConfigFile(initFile); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
		_, _ = fmt.Fprintf(out, "Default configuration written to %s\n", initFile)
		return nil
	}

	if showPaths, _ := cmd.Flags().GetBool("paths"); showPaths {
		_, _ = fmt.Fprintln(out, "Configuration search paths:")
		for _, p := range config.GetConfigSearchPaths() {
			_, _ = fmt.Fprintf(out, "  %s\n", p)
		}
		return nil
	}

	loader := GetConfigLoader()
	if used := loader.GetConfigFileUsed(); used != "" {
		_, _ = fmt.Fprintf(out, "# loaded from %s\n", used)
	} else {
		_, _ = fmt.Fprintln(out, "# no config file found, showing defaults")
	}

	data, err := yaml.Marshal(loader.GetResolvedConfig())
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	_, _ = fmt.Fprint(out, string(data))
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().String("init", "", "write a default configuration file and exit")
	configCmd.Flags().Bool("paths", false, "list configuration search paths")
}
