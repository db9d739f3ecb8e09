package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// dbCredentials mirrors the deploy-side credentials file. Only the
// connection string is read; other keys are ignored.
type dbCredentials struct {
	SQLURL string `yaml:"sql_url"`
}

// ReadDBCredentials extracts the sql_url connection string from a YAML
// credentials file. Used when DATABASE_URL is not set directly.
func ReadDBCredentials(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read db credentials file: %w", err)
	}

	var creds dbCredentials
	if err := yaml.Unmarshal(raw, &creds); err != nil {
		return "", fmt.Errorf("parse db credentials file %s: %w", path, err)
	}

	url := strings.TrimSpace(creds.SQLURL)
	if url == "" {
		return "", fmt.Errorf("db credentials file %s: sql_url is missing", path)
	}

	return url, nil
}
