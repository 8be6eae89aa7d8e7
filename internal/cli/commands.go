package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/hession/datamate/internal/config"
	"github.com/hession/datamate/internal/format"
	"github.com/hession/datamate/internal/store"
	"github.com/hession/datamate/internal/tools"
)

const sampleCellWidth = 24

// CommandSuggestion command suggestion (used for auto-completion)
type CommandSuggestion struct {
	Text        string
	Description string
}

// GetCommandSuggestions returns the built-in commands
func GetCommandSuggestions() []CommandSuggestion {
	return []CommandSuggestion{
		{Text: "/help", Description: "Show help"},
		{Text: "/summary", Description: "Show the dataset summary"},
		{Text: "/tools", Description: "List available tools"},
		{Text: "/config", Description: "Show current configuration"},
		{Text: "/exit", Description: "Exit program"},
	}
}

// Commands handles REPL slash commands
type Commands struct {
	store    store.Store
	registry *tools.Registry
	cfg      *config.Config
}

// NewCommands creates a command handler
func NewCommands(st store.Store, reg *tools.Registry, cfg *config.Config) *Commands {
	return &Commands{store: st, registry: reg, cfg: cfg}
}

// HandleCommand runs a slash command. It returns false when the REPL should
// exit, and the text to print.
func (c *Commands) HandleCommand(ctx context.Context, cmd string) (bool, string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, ""
	}

	switch strings.ToLower(parts[0]) {
	case "/help":
		return true, helpText()

	case "/exit", "/quit", "/q":
		return false, "Goodbye!"

	case "/summary":
		summary, err := store.Summarize(ctx, c.store)
		if err != nil {
			return true, fmt.Sprintf("❌ Failed to load summary: %v", err)
		}
		return true, RenderSummary(summary)

	case "/tools":
		return true, RenderTools(c.registry.List())

	case "/config":
		if c.cfg == nil {
			return true, "No configuration loaded"
		}
		return true, c.cfg.String()

	default:
		return true, fmt.Sprintf("❓ Unknown command: %s\nType /help for available commands", cmd)
	}
}

// RenderSummary formats the dashboard summary as plain text
func RenderSummary(s *store.Summary) string {
	var sb strings.Builder

	sb.WriteString("📊 Dataset summary\n")
	sb.WriteString(fmt.Sprintf("  Rows:    %d\n", s.Rows))
	sb.WriteString(fmt.Sprintf("  Columns: %s\n", strings.Join(s.Columns, ", ")))

	if s.TotalSales.Valid {
		sb.WriteString(fmt.Sprintf("  Total sales: %s\n", format.Currency(s.TotalSales.Decimal)))
	}

	if len(s.SalesByRegion) > 0 {
		sb.WriteString("\n  Sales by region:\n")
		for _, r := range s.SalesByRegion {
			sb.WriteString(fmt.Sprintf("    %-12s %s\n", r.Region, format.Currency(r.Total)))
		}
	}

	if len(s.Sample) > 0 {
		sb.WriteString(fmt.Sprintf("\n  First %d rows:\n", len(s.Sample)))
		sb.WriteString("    " + strings.Join(s.Columns, " | ") + "\n")
		for _, row := range s.Sample {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = truncateForDisplay(store.Text(v), sampleCellWidth)
			}
			sb.WriteString("    " + strings.Join(cells, " | ") + "\n")
		}
	}

	return sb.String()
}

// RenderTools lists tool descriptors with their parameters
func RenderTools(descs []tools.Descriptor) string {
	var sb strings.Builder
	sb.WriteString("🔧 Available tools\n")
	for _, d := range descs {
		sb.WriteString(fmt.Sprintf("  • %s - %s\n", d.Name, truncateForDisplay(d.Description, 80)))
		for _, p := range d.Parameters {
			required := ""
			if p.Required {
				required = ", required"
			}
			sb.WriteString(fmt.Sprintf("      %s (%s%s)\n", p.Name, p.Type, required))
		}
	}
	return sb.String()
}

// completer suggests commands after "/" and example questions otherwise
type completer struct {
	commands []prompt.Suggest
	examples []prompt.Suggest
}

func newCompleter(examples []string) *completer {
	c := &completer{}
	for _, s := range GetCommandSuggestions() {
		c.commands = append(c.commands, prompt.Suggest{Text: s.Text, Description: s.Description})
	}
	for _, e := range examples {
		c.examples = append(c.examples, prompt.Suggest{Text: e})
	}
	return c
}

// Complete implements prompt.Completer
func (c *completer) Complete(d prompt.Document) []prompt.Suggest {
	text := d.TextBeforeCursor()
	if text == "" {
		return nil
	}
	if strings.HasPrefix(text, "/") {
		return prompt.FilterHasPrefix(c.commands, text, true)
	}
	return prompt.FilterFuzzy(c.examples, text, true)
}

// truncateForDisplay flattens text to one line and cuts it at maxLen
func truncateForDisplay(text string, maxLen int) string {
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.TrimSpace(text)
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}

func helpText() string {
	return `
📚 DataMate Help

Built-in Commands:
  /help     - Show this help message
  /summary  - Show row count, columns, totals and sample rows
  /tools    - List the data tools the assistant can use
  /config   - Show current configuration
  /exit     - Exit program

Input Tips:
  • Press Tab to cycle suggestions
  • Use Up/Down arrow keys to browse history
  • Press Ctrl+D on an empty line to quit

Examples:
  "Show me 5 customer names"
  "What are the top 3 products?"
  "What are the total sales in East?"
  "What's the average price?"
  "I need help with my order"
`
}
