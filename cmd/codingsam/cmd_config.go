package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jayainhufs/coding-sam/internal/config"
	"github.com/jayainhufs/coding-sam/internal/daemon"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage local configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create ~/.codingsam with default config and a guest learner ID",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		return initConfigDir(cmd.OutOrStdout(), force)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective daemon configuration (API keys hidden)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadLocalConfig()
		if err != nil {
			return err
		}
		for _, p := range cfg.LLM.Providers {
			if p != nil && p.APIKey != "" {
				p.APIKey = "********"
			}
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, renderKV("Address:", daemonAddr()))
		fmt.Fprintln(out, renderKV("User:", viper.GetString("user")))
		fmt.Fprintln(out)
		_, err = out.Write(data)
		return err
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config.yaml")
	configCmd.AddCommand(configInitCmd, configShowCmd)
}

// initConfigDir writes config.yaml unless present (or force) and assigns a
// guest ID in cli.yaml when none is configured
func initConfigDir(out io.Writer, force bool) error {
	dir, err := config.EnsureDir()
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	fmt.Fprintln(out, renderKV("Directory:", dir))

	configPath := filepath.Join(dir, "config.yaml")
	_, statErr := os.Stat(configPath)
	switch {
	case errors.Is(statErr, os.ErrNotExist) || force:
		if err := config.SaveLocalConfig(config.DefaultLocalConfig()); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintln(out, renderKV("Config:", configPath+" "+mark(true)))
	case statErr != nil:
		return fmt.Errorf("stat config: %w", statErr)
	default:
		fmt.Fprintln(out, renderKV("Config:", configPath+" (exists)"))
	}

	user := viper.GetString("user")
	if user == "" {
		user = daemon.NewGuestID()
		viper.Set("user", user)
	}
	cliPath := filepath.Join(dir, cliConfigName)
	if err := writeCLIConfig(cliPath, daemonAddr(), user); err != nil {
		return err
	}
	fmt.Fprintln(out, renderKV("User:", user))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next: 'codingsam start', then 'codingsam problem'.")
	return nil
}

func writeCLIConfig(path, addr, user string) error {
	v := viper.New()
	v.Set("addr", addr)
	v.Set("user", user)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
