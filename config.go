package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/inventory"
	"oci-compliance-report/internal/ocisource"
	"oci-compliance-report/internal/scan"
	"oci-compliance-report/internal/scope"
)

// ConfigFileEnv names a configuration file to use when --config is not given.
const ConfigFileEnv = "OCI_REPORT_CONFIG_FILE"

// AppConfig represents the YAML configuration structure
type AppConfig struct {
	Version string        `yaml:"version"`
	General GeneralConfig `yaml:"general"`
	OCI     OCIConfig     `yaml:"oci"`
	Scan    ScanConfig    `yaml:"scan"`
	Output  OutputConfig  `yaml:"output"`
	Filters FilterConfig  `yaml:"filters"`
}

// GeneralConfig holds general execution settings
type GeneralConfig struct {
	Timeout      int    `yaml:"timeout"`       // Timeout in seconds
	LogLevel     string `yaml:"log_level"`     // silent, normal, verbose, debug
	LogFormat    string `yaml:"log_format"`    // console, json
	OutputFormat string `yaml:"output_format"` // text, json, csv
	Progress     bool   `yaml:"progress"`
	MaxWorkers   int    `yaml:"max_workers"`
}

// OCIConfig selects credentials and transport settings
type OCIConfig struct {
	ConfigFile        string `yaml:"config_file"`
	Profile           string `yaml:"profile"`
	Region            string `yaml:"region"`
	InstancePrincipal bool   `yaml:"instance_principal"`
	ConnectTimeout    int    `yaml:"connect_timeout"` // seconds
	ReadTimeout       int    `yaml:"read_timeout"`    // seconds
	MaxRetries        int    `yaml:"max_retries"`
}

// ScanConfig holds what the report covers
type ScanConfig struct {
	CompartmentID   string   `yaml:"compartment_id"` // empty = tenancy
	Recursive       bool     `yaml:"recursive"`
	MaxDepth        int      `yaml:"max_depth"`
	PageSize        int      `yaml:"page_size"`
	InstanceGroupID string   `yaml:"instance_group_id"`
	ShowDetails     bool     `yaml:"show_details"`
	VerboseTunnels  bool     `yaml:"verbose_tunnels"`
	Namespace       string   `yaml:"namespace"`     // empty = looked up
	ObjectPrefix    string   `yaml:"object_prefix"` // empty = today's backup prefix
	RiskLevel       string   `yaml:"risk_level"`
	Kinds           []string `yaml:"kinds"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	File        string `yaml:"file"`         // empty = stdout
	MetricsFile string `yaml:"metrics_file"` // empty = no metrics
}

var (
	validLogLevels     = []string{"silent", "normal", "verbose", "debug"}
	validLogFormats    = []string{"console", "json"}
	validOutputFormats = []string{"text", "json", "csv"}
	validRiskLevels    = []string{"CRITICAL", "HIGH", "MEDIUM", "LOW", "MINOR"}
)

// Default configuration values
func getDefaultConfig() *AppConfig {
	return &AppConfig{
		Version: "1.0",
		General: GeneralConfig{
			Timeout:      1800,
			LogLevel:     "normal",
			LogFormat:    "console",
			OutputFormat: "text",
			Progress:     true,
			MaxWorkers:   scan.DefaultMaxWorkers,
		},
		OCI: OCIConfig{
			ConnectTimeout: 10,
			ReadTimeout:    600,
			MaxRetries:     ocisource.DefaultMaxRetries,
		},
		Scan: ScanConfig{
			MaxDepth:  scope.DefaultMaxDepth,
			PageSize:  collect.DefaultPageSize,
			RiskLevel: inventory.DefaultRiskLevel,
			Kinds:     []string{},
		},
		Filters: FilterConfig{
			IncludeCompartments: []string{},
			ExcludeCompartments: []string{},
			IncludeKinds:        []string{},
			ExcludeKinds:        []string{},
		},
	}
}

// getConfigPaths lists configuration files in priority order
func getConfigPaths() []string {
	paths := []string{}

	if configFile := os.Getenv(ConfigFileEnv); configFile != "" {
		paths = append(paths, configFile)
	}

	paths = append(paths, "./oci-compliance-report.yaml")

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".oci-compliance-report.yaml"))
	}

	paths = append(paths, "/etc/oci-compliance-report.yaml")

	return paths
}

// LoadConfig loads the configuration over the defaults. An explicit path must
// exist; otherwise the first file found on the search path is used, if any.
// The returned path is empty when only defaults apply. The result is not
// validated; callers validate once command-line overrides are merged.
func LoadConfig(explicit string) (*AppConfig, string, error) {
	config := getDefaultConfig()

	paths := getConfigPaths()
	if explicit != "" {
		paths = []string{explicit}
	}

	var used string
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if explicit != "" {
				return nil, "", fmt.Errorf("failed to read configuration file %s: %w", path, err)
			}
			continue
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, "", fmt.Errorf("failed to parse configuration file %s: %w", path, err)
		}
		used = path
		break
	}

	return config, used, nil
}

// validateConfig validates the loaded configuration
func validateConfig(config *AppConfig) error {
	if !contains(validLogLevels, config.General.LogLevel) {
		return fmt.Errorf("invalid log_level '%s', must be one of: %v", config.General.LogLevel, validLogLevels)
	}
	if !contains(validLogFormats, config.General.LogFormat) {
		return fmt.Errorf("invalid log_format '%s', must be one of: %v", config.General.LogFormat, validLogFormats)
	}
	if !contains(validOutputFormats, config.General.OutputFormat) {
		return fmt.Errorf("invalid output_format '%s', must be one of: %v", config.General.OutputFormat, validOutputFormats)
	}
	if config.General.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got: %d", config.General.Timeout)
	}
	if config.General.MaxWorkers <= 0 {
		return fmt.Errorf("max_workers must be positive, got: %d", config.General.MaxWorkers)
	}

	if config.OCI.ConnectTimeout <= 0 || config.OCI.ReadTimeout <= 0 {
		return fmt.Errorf("connect_timeout and read_timeout must be positive, got: %d and %d", config.OCI.ConnectTimeout, config.OCI.ReadTimeout)
	}
	if config.OCI.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got: %d", config.OCI.MaxRetries)
	}

	if config.Scan.PageSize <= 0 || config.Scan.PageSize > 1000 {
		return fmt.Errorf("page_size must be between 1 and 1000, got: %d", config.Scan.PageSize)
	}
	if config.Scan.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got: %d", config.Scan.MaxDepth)
	}
	if config.Scan.Recursive && config.Scan.InstanceGroupID != "" {
		return errors.New("recursive and instance_group_id are mutually exclusive")
	}
	if !contains(validRiskLevels, strings.ToUpper(config.Scan.RiskLevel)) {
		return fmt.Errorf("invalid risk_level '%s', must be one of: %v", config.Scan.RiskLevel, validRiskLevels)
	}
	for _, k := range config.Scan.Kinds {
		if _, err := normalizeKind(k); err != nil {
			return err
		}
	}

	return ValidateFilterConfig(config.Filters)
}

// contains checks if a string slice contains a specific string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// SaveConfig saves the current configuration to a YAML file
func SaveConfig(config *AppConfig, filename string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	return nil
}

// GenerateDefaultConfigFile creates a default configuration file
func GenerateDefaultConfigFile(filename string) error {
	return SaveConfig(getDefaultConfig(), filename)
}

// CLIOverrides carries the flags the user actually set; nil fields keep the file value.
type CLIOverrides struct {
	Timeout           *int
	LogLevel          *string
	LogFormat         *string
	OutputFormat      *string
	Progress          *bool
	MaxWorkers        *int
	OutputFile        *string
	MetricsFile       *string
	ConfigFile        *string
	Profile           *string
	Region            *string
	InstancePrincipal *bool
	CompartmentID     *string
	Recursive         *bool
	PageSize          *int
	InstanceGroupID   *string
	ShowDetails       *bool
	VerboseTunnels    *bool
	Namespace         *string
	ObjectPrefix      *string
	RiskLevel         *string
	Kinds             []string
	ExcludeKinds      []string
}

// MergeWithCLIArgs merges CLI arguments over the configuration file settings
func MergeWithCLIArgs(config *AppConfig, cli CLIOverrides) {
	setInt(&config.General.Timeout, cli.Timeout)
	setString(&config.General.LogLevel, cli.LogLevel)
	setString(&config.General.LogFormat, cli.LogFormat)
	setString(&config.General.OutputFormat, cli.OutputFormat)
	setBool(&config.General.Progress, cli.Progress)
	setInt(&config.General.MaxWorkers, cli.MaxWorkers)

	setString(&config.Output.File, cli.OutputFile)
	setString(&config.Output.MetricsFile, cli.MetricsFile)

	setString(&config.OCI.ConfigFile, cli.ConfigFile)
	setString(&config.OCI.Profile, cli.Profile)
	setString(&config.OCI.Region, cli.Region)
	setBool(&config.OCI.InstancePrincipal, cli.InstancePrincipal)

	setString(&config.Scan.CompartmentID, cli.CompartmentID)
	setBool(&config.Scan.Recursive, cli.Recursive)
	setInt(&config.Scan.PageSize, cli.PageSize)
	setString(&config.Scan.InstanceGroupID, cli.InstanceGroupID)
	setBool(&config.Scan.ShowDetails, cli.ShowDetails)
	setBool(&config.Scan.VerboseTunnels, cli.VerboseTunnels)
	setString(&config.Scan.Namespace, cli.Namespace)
	setString(&config.Scan.ObjectPrefix, cli.ObjectPrefix)
	setString(&config.Scan.RiskLevel, cli.RiskLevel)

	if len(cli.Kinds) > 0 {
		config.Scan.Kinds = cli.Kinds
	}
	if len(cli.ExcludeKinds) > 0 {
		config.Filters.ExcludeKinds = append(config.Filters.ExcludeKinds, cli.ExcludeKinds...)
	}
}

func setString(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Timeout returns the overall run timeout.
func (c *AppConfig) Timeout() time.Duration {
	return time.Duration(c.General.Timeout) * time.Second
}

// SourceConfig converts the oci section for the transport adapter.
func (c *AppConfig) SourceConfig() ocisource.Config {
	return ocisource.Config{
		ConfigFile:        c.OCI.ConfigFile,
		Profile:           c.OCI.Profile,
		Region:            c.OCI.Region,
		InstancePrincipal: c.OCI.InstancePrincipal,
		ConnectTimeout:    time.Duration(c.OCI.ConnectTimeout) * time.Second,
		ReadTimeout:       time.Duration(c.OCI.ReadTimeout) * time.Second,
	}
}
