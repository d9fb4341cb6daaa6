package config

import (
	"fmt"
	"os"
	"strconv"

	"inkasso/internal/logger"
)

// Config is the externally supplied configuration of one inkasso process.
type Config struct {
	// Access gate
	AccessPassword string
	LogoURL        string

	// Input layout of the accounting exports
	PaymentType     string
	DebtorSkipRows  int
	InvoiceSkipRows int

	// Classification
	RulesFile string

	// Output
	ReportFile string

	// Google Sheets Configuration
	GoogleSheetURL string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		AccessPassword: getEnv("ACCESS_PASSWORD", ""),
		LogoURL:        getEnv("LOGO_URL", "https://likvido.dk/wp-content/uploads/2020/10/Likvido_logo_blue.svg"),
		PaymentType:    getEnv("PAYMENT_TYPE", "Kundeindbetaling"),
		RulesFile:      getEnv("RULES_FILE", ""),
		ReportFile:     getEnv("REPORT_FILE", "Inkasso_oversigt.xlsx"),
		GoogleSheetURL: getEnv("GOOGLE_SHEET_URL", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:  getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:      getEnv("LOG_OUTPUT", "stderr"),
	}

	var err error
	if config.DebtorSkipRows, err = getEnvInt("DEBTOR_SKIP_ROWS", 5); err != nil {
		return nil, err
	}
	if config.InvoiceSkipRows, err = getEnvInt("INVOICE_SKIP_ROWS", 3); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Default returns the configuration used when nothing is set in the environment.
func Default() *Config {
	return &Config{
		PaymentType:     "Kundeindbetaling",
		DebtorSkipRows:  5,
		InvoiceSkipRows: 3,
		ReportFile:      "Inkasso_oversigt.xlsx",
		LogLevel:        "info",
		LogFormat:       "console",
		LogTimeFormat:   "2006-01-02T15:04:05Z07:00",
		LogOutput:       "stderr",
	}
}

func (c *Config) validate() error {
	if c.PaymentType == "" {
		return fmt.Errorf("PAYMENT_TYPE must not be empty")
	}
	if c.DebtorSkipRows < 0 {
		return fmt.Errorf("DEBTOR_SKIP_ROWS must not be negative, got %d", c.DebtorSkipRows)
	}
	if c.InvoiceSkipRows < 0 {
		return fmt.Errorf("INVOICE_SKIP_ROWS must not be negative, got %d", c.InvoiceSkipRows)
	}
	if c.ReportFile == "" {
		return fmt.Errorf("REPORT_FILE must not be empty")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
