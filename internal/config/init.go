package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// InitTarget identifies where configuration should be initialized.
type InitTarget string

const (
	// InitTargetLocal writes configuration into the working directory.
	InitTargetLocal InitTarget = "local"
	// InitTargetGlobal writes configuration into the global configuration directory.
	InitTargetGlobal InitTarget = "global"

	defaultBranch       = "main"
	defaultWorkers      = 1
	defaultTokenModel   = "gpt-4o"
	defaultAPIURL       = "https://api.github.com"
	defaultForgeHost    = "github.com"
	defaultForgeTimeout = 30 * time.Second
	defaultServeAddress = "127.0.0.1:8080"
	defaultLogLevel     = "info"
	yamlIndentation     = 2
)

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	Target           InitTarget
	Force            bool
	WorkingDirectory string
	HomeDirectory    string
}

// DefaultConfiguration returns the values written by InitializeConfiguration.
func DefaultConfiguration() ApplicationConfiguration {
	workers := defaultWorkers
	allowTruncated := false
	clipboard := false
	tokensEnabled := false
	return ApplicationConfiguration{
		Export: ExportConfiguration{
			Branch:         defaultBranch,
			Exclude:        []string{},
			Workers:        &workers,
			AllowTruncated: &allowTruncated,
			Clipboard:      &clipboard,
			Tokens:         TokenConfiguration{Enabled: &tokensEnabled, Model: defaultTokenModel},
		},
		Forge: ForgeConfiguration{APIURL: defaultAPIURL, Host: defaultForgeHost, Timeout: defaultForgeTimeout},
		Serve: ServeConfiguration{Address: defaultServeAddress},
		Log:   LogConfiguration{Level: defaultLogLevel},
	}
}

// InitializeConfiguration writes the default configuration to the requested target and returns its path.
func InitializeConfiguration(options InitOptions) (string, error) {
	target := options.Target
	if target == "" {
		target = InitTargetLocal
	}
	var destinationPath string
	switch target {
	case InitTargetLocal:
		workingDirectory := options.WorkingDirectory
		if workingDirectory == "" {
			current, err := os.Getwd()
			if err != nil {
				return "", fmt.Errorf("determine working directory for configuration: %w", err)
			}
			workingDirectory = current
		}
		destinationPath = filepath.Join(workingDirectory, LocalConfigFileName)
	case InitTargetGlobal:
		homeDirectory := options.HomeDirectory
		if homeDirectory == "" {
			resolvedHome, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("resolve home directory for configuration: %w", err)
			}
			homeDirectory = resolvedHome
		}
		configurationDirectory := filepath.Join(homeDirectory, GlobalConfigDirectoryName)
		if err := os.MkdirAll(configurationDirectory, 0o755); err != nil {
			return "", fmt.Errorf("create configuration directory %s: %w", configurationDirectory, err)
		}
		destinationPath = filepath.Join(configurationDirectory, GlobalConfigFileName)
	default:
		return "", fmt.Errorf("unsupported init target %q", target)
	}

	if _, err := os.Stat(destinationPath); err == nil {
		if !options.Force {
			return "", fmt.Errorf("configuration file already exists at %s", destinationPath)
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("inspect configuration path %s: %w", destinationPath, err)
	}

	content, encodeErr := encodeConfiguration(DefaultConfiguration())
	if encodeErr != nil {
		return "", encodeErr
	}
	if err := os.WriteFile(destinationPath, content, 0o600); err != nil {
		return "", fmt.Errorf("write configuration to %s: %w", destinationPath, err)
	}
	return destinationPath, nil
}

func encodeConfiguration(configuration ApplicationConfiguration) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(yamlIndentation)
	if err := encoder.Encode(configuration); err != nil {
		return nil, fmt.Errorf("encode default configuration: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encode default configuration: %w", err)
	}
	return buffer.Bytes(), nil
}
