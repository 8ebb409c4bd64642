package cmd

import (
	"fmt"

	"github.com/rustyeddy/paperbroker/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage configuration files for the broker.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  paperbroker config init --output broker.yaml
  paperbroker config validate --file broker.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings. API keys and
OAuth credentials still need to be filled in or supplied through the
environment.

Example:
  paperbroker config init --output broker.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded. Environment
variables are applied before validation, the same way serve does it.

Example:
  paperbroker config validate --file broker.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "broker.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nFill in quotes.api_key and the auth credentials, then run:")
	fmt.Printf("  paperbroker serve --config %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("✓ Configuration valid: %s\n", configValidatePath)
	fmt.Printf("  Server: %s (frontend %s)\n", cfg.Server.Addr, cfg.Server.FrontendURL)
	fmt.Printf("  Store: %s\n", cfg.Store.Driver)
	fmt.Printf("  Starting cash: %d cents\n", cfg.Account.StartingCash)
	if cfg.Feed.Enabled {
		fmt.Printf("  Feed: %s via %v\n", cfg.Feed.Topic, cfg.Feed.Brokers)
	}
	return nil
}
