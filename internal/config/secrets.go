package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Secrets sensitive configuration loaded from .secrets file
type Secrets struct {
	values map[string]string
}

// NewSecrets creates a new Secrets instance
func NewSecrets() *Secrets {
	return &Secrets{
		values: make(map[string]string),
	}
}

// SecretsPath returns the secrets file path
func SecretsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".secrets"), nil
}

// LoadSecrets loads secrets from the .secrets dotenv file.
// A missing file yields empty secrets.
func LoadSecrets() (*Secrets, error) {
	secrets := NewSecrets()

	secretsPath, err := SecretsPath()
	if err != nil {
		return secrets, nil
	}

	if _, err := os.Stat(secretsPath); os.IsNotExist(err) {
		return secrets, nil
	}

	values, err := godotenv.Read(secretsPath)
	if err != nil {
		return secrets, fmt.Errorf("failed to parse secrets file: %w", err)
	}
	secrets.values = values
	return secrets, nil
}

// Get returns the value for a key
func (s *Secrets) Get(key string) string {
	if s == nil || s.values == nil {
		return ""
	}
	return s.values[key]
}

// GetOrDefault returns the value for a key, or the default value if not found
func (s *Secrets) GetOrDefault(key, defaultValue string) string {
	if s == nil || s.values == nil {
		return defaultValue
	}
	if value, ok := s.values[key]; ok && value != "" {
		return value
	}
	return defaultValue
}

// Has checks if a key exists
func (s *Secrets) Has(key string) bool {
	if s == nil || s.values == nil {
		return false
	}
	_, ok := s.values[key]
	return ok
}

// GetOpenAIAPIKey returns the chat completion API key from secrets
func (s *Secrets) GetOpenAIAPIKey() string {
	return s.Get("OPENAI_API_KEY")
}
