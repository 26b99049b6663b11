// Package yaml provides YAML-based credentials parsing.
package yaml

import (
	"errors"
	"fmt"
	"os"

	"github.com/ochairo/mediaexclude/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlCredentials represents the raw YAML structure of an auth file
type yamlCredentials struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	// Passwd is accepted from older auth files
	Passwd string `yaml:"passwd"`
}

// CredentialsParser parses YAML auth files
type CredentialsParser struct{}

// NewCredentialsParser creates a new YAML credentials parser
func NewCredentialsParser() *CredentialsParser {
	return &CredentialsParser{}
}

// ParseFile parses a YAML auth file into Credentials
func (p *CredentialsParser) ParseFile(filePath string) (*entities.Credentials, error) {
	//nolint:gosec // G304: filePath is the operator-provided auth file
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses YAML bytes into Credentials. yaml.v3 only decodes data,
// so tags cannot construct arbitrary objects.
func (p *CredentialsParser) Parse(data []byte) (*entities.Credentials, error) {
	var raw yamlCredentials
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if raw.User == "" {
		return nil, errors.New("auth file must have a user")
	}

	password := raw.Password
	if password == "" {
		password = raw.Passwd
	}

	return &entities.Credentials{
		User:     raw.User,
		Password: password,
	}, nil
}
