// Package commands implements the CLI commands for the csmoney scraper.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alisaosipova/steam-csmoney/internal/logger"
	"github.com/alisaosipova/steam-csmoney/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "csmoney",
	Short: "Marketplace scraper for cs.money listing pages",
	Long: `Scrapes cs.money listing pages, extracts the embedded item snapshot
and delivers normalized item batches to a sink.

Examples:
  # Scrape one page and print the batch as JSON
  csmoney scrape -u "https://cs.money/csgo/trade" --sink stdout

  # Publish batches to Kafka through a proxy pool
  csmoney scrape -u "https://cs.money/csgo/trade" \
      --proxy "http://user:pass@p1:8080" --proxy "http://user:pass@p2:8080" \
      --sink kafka --brokers localhost:9092 --topic csmoney.items`,
	Version: version.String(),
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.csmoney.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".csmoney")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CSMONEY")
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
