package cmd

import (
	"fmt"
	"github.com/spf13/viper"

	"github.com/spf13/cobra"
	"hoursync/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values. Secrets are
masked.`,
	Example: `
  # Show active configuration
  hoursync config show
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Println("Invalid config:", err)
			return
		}

		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Println("Config file loaded from:", viper.ConfigFileUsed())
			fmt.Println("Configuration:")
			fmt.Printf("payroll.api_url: %s\n", cfg.Payroll.APIURL)
			fmt.Printf("payroll.token_url: %s\n", cfg.Payroll.TokenURL)
			fmt.Printf("payroll.username: %s\n", cfg.Payroll.Username)
			fmt.Printf("payroll.password: %s\n", maskSecret(cfg.Payroll.Password))
			fmt.Printf("payroll.hourly_price: %.2f\n", cfg.Payroll.HourlyPrice)
			fmt.Printf("payroll.token_max_age: %s\n", cfg.Payroll.TokenMaxAge)
			fmt.Printf("payroll.draft_title_prefix: %s\n", cfg.Payroll.DraftTitlePrefix)
			fmt.Printf("server.listen_addr: %s\n", cfg.Server.ListenAddr)
			fmt.Printf("server.app_key: %s\n", maskSecret(cfg.Server.AppKey))
			fmt.Printf("storage.database_path: %s\n", cfg.Storage.DatabasePath)
			fmt.Printf("assistant.api_url: %s\n", cfg.Assistant.APIURL)
			fmt.Printf("assistant.api_key: %s\n", maskSecret(cfg.Assistant.APIKey))
			fmt.Printf("employees: %d\n", len(cfg.Employees))
			for i, employee := range cfg.Employees {
				fmt.Printf("employees[%d].name: %s\n", i, employee.Name)
				fmt.Printf("employees[%d].pin: %s\n", i, maskSecret(employee.PIN))
				fmt.Printf("employees[%d].employment_id: %s\n", i, employee.EmploymentID)
			}
		}

	},
}

func maskSecret(value string) string {
	if value == "" {
		return "(not set)"
	}
	return "********"
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
