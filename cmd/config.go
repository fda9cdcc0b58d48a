package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage hoursync configuration file values.",
	Long: `Create, edit, display, and delete the hoursync configuration file.

The configuration stores application-wide values:
- payroll.api_url / token_url / username / password / hourly_price
- server.listen_addr / app_key
- storage.database_path
- assistant.api_url / api_key
- employees[].name / pin / employment_id`,
	Example: `
  # Create default config in $HOME/.hoursync.yaml
  hoursync config create

  # Show active config and source file
  hoursync config show

  # Open active config in editor (creates example if missing)
  hoursync config edit

  # Delete active config file
  hoursync config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
