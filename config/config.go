package config

import (
	"bytes"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"strings"
)

const (
	KeyPayrollAPIURL       = "payroll.api_url"
	KeyPayrollTokenURL     = "payroll.token_url"
	KeyPayrollUsername     = "payroll.username"
	KeyPayrollPassword     = "payroll.password"
	KeyPayrollHourlyPrice  = "payroll.hourly_price"
	KeyPayrollTokenMaxAge  = "payroll.token_max_age"
	KeyPayrollTitlePrefix  = "payroll.draft_title_prefix"
	KeyServerListenAddr    = "server.listen_addr"
	KeyServerAppKey        = "server.app_key"
	KeyStorageDatabasePath = "storage.database_path"
	KeyAssistantAPIURL     = "assistant.api_url"
	KeyAssistantAPIKey     = "assistant.api_key"
	KeyEmployees           = "employees"
)

type Config struct {
	Payroll   PayrollConfig   `mapstructure:"payroll" validate:"required"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Employees []Employee      `mapstructure:"employees"`
}

type PayrollConfig struct {
	APIURL           string  `mapstructure:"api_url" validate:"required,url"`
	TokenURL         string  `mapstructure:"token_url" validate:"required,url"`
	Username         string  `mapstructure:"username" validate:"required"`
	Password         string  `mapstructure:"password" validate:"required"`
	HourlyPrice      float64 `mapstructure:"hourly_price" validate:"gt=0"`
	TokenMaxAge      string  `mapstructure:"token_max_age"`
	DraftTitlePrefix string  `mapstructure:"draft_title_prefix"`
}

type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	AppKey     string `mapstructure:"app_key"`
}

type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

type AssistantConfig struct {
	APIURL string `mapstructure:"api_url"`
	APIKey string `mapstructure:"api_key"`
}

// Employee maps a local login PIN to a remote employment. The PIN gates the
// web UI only; the employment id is what the payroll API cares about.
type Employee struct {
	Name         string `mapstructure:"name"`
	PIN          string `mapstructure:"pin"`
	EmploymentID string `mapstructure:"employment_id"`
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# hoursync configuration
payroll:
  api_url: "https://api.salaxy.com/v03-rc"
  token_url: "https://secure.salaxy.com/v03-rc/connect/token"
  username: ""
  password: ""
  hourly_price: 20
  token_max_age: "23h"
  draft_title_prefix: "Hoursync"

server:
  listen_addr: ":8080"
  app_key: ""

storage:
  database_path: "hoursync.db"

assistant:
  api_url: ""
  api_key: ""

employees: []
`
}

// EmployeeByPIN returns the employee whose PIN matches, if any.
func (c *Config) EmployeeByPIN(pin string) (Employee, bool) {
	for _, employee := range c.Employees {
		if employee.PIN == pin {
			return employee, true
		}
	}
	return Employee{}, false
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validateEmployees(cfg.Employees); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyPayrollAPIURL, "https://api.salaxy.com/v03-rc")
	v.SetDefault(KeyPayrollTokenURL, "https://secure.salaxy.com/v03-rc/connect/token")
	v.SetDefault(KeyPayrollHourlyPrice, 20)
	v.SetDefault(KeyPayrollTokenMaxAge, "23h")
	v.SetDefault(KeyPayrollTitlePrefix, "Hoursync")
	v.SetDefault(KeyServerListenAddr, ":8080")
	v.SetDefault(KeyStorageDatabasePath, "hoursync.db")
	v.SetDefault(KeyEmployees, []map[string]any{})
}

func validateEmployees(employees []Employee) error {
	seenPINs := make(map[string]struct{}, len(employees))
	for i, employee := range employees {
		if strings.TrimSpace(employee.Name) == "" {
			return fmt.Errorf("validation failed: employees[%d].name is required", i)
		}
		pin := strings.TrimSpace(employee.PIN)
		if pin == "" {
			return fmt.Errorf("validation failed: employees[%d].pin is required", i)
		}
		if len(pin) < 4 {
			return fmt.Errorf("validation failed: employees[%d].pin must be at least 4 characters", i)
		}
		if _, exists := seenPINs[pin]; exists {
			return fmt.Errorf("validation failed: duplicate pin for employees[%d]", i)
		}
		seenPINs[pin] = struct{}{}
		if strings.TrimSpace(employee.EmploymentID) == "" {
			return fmt.Errorf("validation failed: employees[%d].employment_id is required", i)
		}
	}
	return nil
}
