package cmd

import (
	"fmt"
	"github.com/spf13/viper"
	"os"

	"github.com/spf13/cobra"
	"hoursync/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hoursync",
	Short: "Push tracked hours into remote payroll drafts as billable line items.",
	Long: `
**********************************************
*               HOURSYNC                     *
**********************************************

This CLI and server push locally tracked hour entries into a remote payroll
service. Entries of one day share a payroll draft; every employee gets one
calculation inside the draft, with one wage row per synced entry.

The server mode additionally keeps an append-only local hours log, serves a
PIN lookup for the web UI, and relays chat conversations to an assistant API.
`,
	Example: `
  # Create configuration file
  hoursync config create

  # Run the HTTP server
  hoursync serve

  # Sync a batch of entries from a JSON file
  hoursync sync --input entries.json

  # Export the local hours log
  hoursync export --mode raw --output ./hours.csv

  # Export daily totals
  hoursync export --mode daily --output ./daily-summary.xlsx
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.hoursync.yaml, then ./.hoursync.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".hoursync" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".hoursync")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found. Create one first with: hoursync config create")
	}
}
