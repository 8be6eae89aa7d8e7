package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSystemPrompt is the instruction sent with every question
const DefaultSystemPrompt = "You are a helpful business data assistant. Always answer with clear, friendly explanations, including available results or tools where needed."

// PromptConfig prompt configuration structure
type PromptConfig struct {
	Language string                     `yaml:"language"`
	Prompts  map[string]LanguagePrompts `yaml:"prompts"`
}

// LanguagePrompts prompts for a specific language
type LanguagePrompts struct {
	System   string   `yaml:"system"`
	Examples []string `yaml:"examples"`
}

// DefaultPromptConfig returns default prompt configuration
func DefaultPromptConfig() *PromptConfig {
	return &PromptConfig{
		Language: "en",
		Prompts: map[string]LanguagePrompts{
			"en": {
				System: DefaultSystemPrompt,
				Examples: []string{
					"Show me 5 customer names",
					"What are the top 3 products?",
					"What are the total sales in East?",
					"What's the average price?",
					"I need help with my order",
				},
			},
			"zh": {
				System: "你是一名乐于助人的业务数据助手。请始终给出清晰友好的解释，并在需要时给出可用的结果或工具。",
				Examples: []string{
					"列出 5 个客户名称",
					"平均价格是多少？",
				},
			},
		},
	}
}

// PromptConfigPath returns the prompt config file path
func PromptConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prompt.yaml"), nil
}

// LoadPromptConfig loads prompt configuration from file
func LoadPromptConfig() (*PromptConfig, error) {
	configPath, err := PromptConfigPath()
	if err != nil {
		return DefaultPromptConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultPromptConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt config: %w", err)
	}

	cfg := DefaultPromptConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse prompt config: %w", err)
	}

	return cfg, nil
}

// GetPrompts returns prompts for the configured language
func (p *PromptConfig) GetPrompts() LanguagePrompts {
	if prompts, ok := p.Prompts[p.Language]; ok {
		return prompts
	}
	// Fall back to English if configured language not found
	if prompts, ok := p.Prompts["en"]; ok {
		return prompts
	}
	return LanguagePrompts{}
}

// GetSystemPrompt returns the system prompt for the configured language
func (p *PromptConfig) GetSystemPrompt() string {
	if system := p.GetPrompts().System; system != "" {
		return system
	}
	return DefaultSystemPrompt
}

// GetExamples returns sample questions for the configured language
func (p *PromptConfig) GetExamples() []string {
	return p.GetPrompts().Examples
}
