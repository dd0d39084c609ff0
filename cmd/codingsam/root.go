package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jayainhufs/coding-sam/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

const (
	defaultAddr   = "http://127.0.0.1:7433"
	cliConfigName = "cli.yaml"
	pidFile       = "codingsamd.pid"
)

var rootCmd = &cobra.Command{
	Use:   "codingsam",
	Short: "Coding practice tutor",
	Long: `codingsam talks to the codingsam daemon. Problems are solved in five
written steps (understand, decompose, pattern, abstract, pseudocode) which are
scored, tracked and turned into XP, a level and a daily streak.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("addr", "", "Daemon address (env CODINGSAM_ADDR, default "+defaultAddr+")")
	rootCmd.PersistentFlags().String("user", "", "Learner ID sent as X-User-ID (env CODINGSAM_USER)")

	_ = viper.BindPFlag("addr", rootCmd.PersistentFlags().Lookup("addr"))
	_ = viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))

	viper.SetDefault("addr", defaultAddr)
	viper.SetEnvPrefix("CODINGSAM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(
		startCmd, stopCmd, statusCmd, logsCmd,
		problemsCmd, problemCmd,
		profileCmd, levelCmd, evaluateCmd,
		runCmd, mcpCmd, configCmd, versionCmd,
	)
}

// initConfig reads ~/.codingsam/cli.yaml when it exists
func initConfig() {
	path, err := cliConfigPath()
	if err != nil {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
	}
}

func cliConfigPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, cliConfigName), nil
}

// daemonAddr returns the resolved daemon base URL without a trailing slash
func daemonAddr() string {
	addr := viper.GetString("addr")
	if addr == "" {
		addr = defaultAddr
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return strings.TrimRight(addr, "/")
}

func newClient() *client {
	return newHTTPClient(daemonAddr(), viper.GetString("user"))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "codingsam %s\n", Version)
	},
}
