package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/felixgeelhaar/golem/internal/infrastructure/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage .golem/config.yaml",
}

var configForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to .golem/config.yaml",
	Long: `Write the effective configuration (defaults, existing file and environment)
to .golem/config.yaml. Credentials are never written; keep FRESH_API_KEY and
GITEA_TOKEN in the environment.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		path, err := config.Path(root)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return NewCLIError("config already exists", "Use --force to overwrite "+path, nil)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to access config: %w", err)
		}

		cfg, err := config.Load(root)
		if err != nil {
			return err
		}
		if err := config.Save(root, cfg); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		printSuccess("Wrote %s", path)
		if missing := append(cfg.MissingFresh(), cfg.MissingGitea()...); len(missing) > 0 {
			printDetail("Still unset: %v", missing)
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with credentials redacted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		cfg, err := config.Load(root)
		if err != nil {
			return err
		}

		redacted := cfg.Redacted()
		if jsonOutput {
			return printJSON(redacted)
		}
		data, err := yaml.Marshal(redacted)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Print(string(data))
		if cfg.Fresh.APIKey != "" {
			printDetail("FRESH_API_KEY is set")
		}
		if cfg.Gitea.Token != "" {
			printDetail("GITEA_TOKEN is set")
		}
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configInitCmd, configShowCmd)
	RootCmd.AddCommand(configCmd)
}
