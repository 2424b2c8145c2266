// Package config loads repoctx defaults from global and local YAML files and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/temirov/repoctx/internal/utils"
)

const (
	// GlobalConfigDirectoryName is the directory under the user's home holding the global configuration.
	GlobalConfigDirectoryName = ".repoctx"
	// GlobalConfigFileName is the global configuration file name.
	GlobalConfigFileName = "config.yaml"
	// LocalConfigFileName is the configuration file looked up in the working directory.
	LocalConfigFileName = "repoctx.yaml"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
	HomeDirectory    string
}

// ApplicationConfiguration holds command defaults read from configuration files.
type ApplicationConfiguration struct {
	Export ExportConfiguration `mapstructure:"export" yaml:"export"`
	Forge  ForgeConfiguration  `mapstructure:"forge" yaml:"forge"`
	Serve  ServeConfiguration  `mapstructure:"serve" yaml:"serve"`
	Log    LogConfiguration    `mapstructure:"log" yaml:"log"`
}

// ExportConfiguration defines defaults for the export command and the HTTP service.
type ExportConfiguration struct {
	Branch         string             `mapstructure:"branch" yaml:"branch,omitempty"`
	Exclude        []string           `mapstructure:"exclude" yaml:"exclude"`
	Workers        *int               `mapstructure:"workers" yaml:"workers,omitempty"`
	AllowTruncated *bool              `mapstructure:"allow_truncated" yaml:"allow_truncated,omitempty"`
	Output         string             `mapstructure:"output" yaml:"output,omitempty"`
	Clipboard      *bool              `mapstructure:"clipboard" yaml:"clipboard,omitempty"`
	Tokens         TokenConfiguration `mapstructure:"tokens" yaml:"tokens"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled" yaml:"enabled,omitempty"`
	Model   string `mapstructure:"model" yaml:"model,omitempty"`
}

// ForgeConfiguration points the fetcher at a GitHub-compatible API.
type ForgeConfiguration struct {
	APIURL  string        `mapstructure:"api_url" yaml:"api_url,omitempty"`
	Host    string        `mapstructure:"host" yaml:"host,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
}

// ServeConfiguration defines defaults for the HTTP export service.
type ServeConfiguration struct {
	Address string `mapstructure:"address" yaml:"address,omitempty"`
}

// LogConfiguration selects the logging level.
type LogConfiguration struct {
	Level string `mapstructure:"level" yaml:"level,omitempty"`
}

// LoadApplicationConfiguration loads configuration from the global file, then the local or explicit file.
// Local values override global ones field by field.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	homeDirectory := options.HomeDirectory
	if homeDirectory == "" {
		if resolvedHome, err := os.UserHomeDir(); err == nil {
			homeDirectory = resolvedHome
		}
	}
	if homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, GlobalConfigDirectoryName, GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath, false)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, explicit := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	localConfig, loadErr := loadConfigurationFromPath(localPath, explicit)
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)
	merged.Export.Exclude = utils.DeduplicatePatterns(merged.Export.Exclude)

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, bool) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, true
		}
		return filepath.Join(workingDirectory, explicitPath), true
	}
	return filepath.Join(workingDirectory, LocalConfigFileName), false
}

// loadConfigurationFromPath reads path. A missing file is an error only when it was named explicitly.
func loadConfigurationFromPath(path string, required bool) (ApplicationConfiguration, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) && !required {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Export = result.Export.merge(override.Export)
	result.Forge = result.Forge.merge(override.Forge)
	if override.Serve.Address != "" {
		result.Serve.Address = override.Serve.Address
	}
	if override.Log.Level != "" {
		result.Log.Level = override.Log.Level
	}
	return result
}

func (config ExportConfiguration) merge(override ExportConfiguration) ExportConfiguration {
	result := config
	if override.Branch != "" {
		result.Branch = override.Branch
	}
	if len(override.Exclude) > 0 {
		result.Exclude = append([]string{}, utils.DeduplicatePatterns(override.Exclude)...)
	}
	if override.Workers != nil {
		result.Workers = cloneInt(override.Workers)
	}
	if override.AllowTruncated != nil {
		result.AllowTruncated = cloneBool(override.AllowTruncated)
	}
	if override.Output != "" {
		result.Output = override.Output
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

func (config ForgeConfiguration) merge(override ForgeConfiguration) ForgeConfiguration {
	result := config
	if override.APIURL != "" {
		result.APIURL = override.APIURL
	}
	if override.Host != "" {
		result.Host = override.Host
	}
	if override.Timeout > 0 {
		result.Timeout = override.Timeout
	}
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
