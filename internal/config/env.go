package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// TokenEnvironmentVariable holds the forge credential when no flag supplies one.
	TokenEnvironmentVariable = "GITHUB_TOKEN"
	// EnvironmentFileName is loaded from the working directory before the environment is read.
	EnvironmentFileName = ".env"
)

// LoadEnvironmentFile loads variables from the .env file in workingDirectory without overriding
// variables already set. A missing file is not an error.
func LoadEnvironmentFile(workingDirectory string) error {
	environmentPath := filepath.Join(workingDirectory, EnvironmentFileName)
	if loadErr := godotenv.Load(environmentPath); loadErr != nil {
		if errors.Is(loadErr, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load environment file %s: %w", environmentPath, loadErr)
	}
	return nil
}

// ResolveToken returns the first non-blank credential among explicit and GITHUB_TOKEN.
func ResolveToken(explicit string) string {
	if trimmed := strings.TrimSpace(explicit); trimmed != "" {
		return trimmed
	}
	return strings.TrimSpace(os.Getenv(TokenEnvironmentVariable))
}
