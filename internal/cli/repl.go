package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/hession/datamate/internal/agent"
	"github.com/hession/datamate/internal/tools"
)

const (
	Version = "0.1.0"

	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// Asker answers one question
type Asker interface {
	Ask(ctx context.Context, query string) *agent.Turn
}

// Session one interactive REPL session
type Session struct {
	ctx      context.Context
	asker    Asker
	commands *Commands
	examples []string
	out      io.Writer
	exiting  bool
}

// NewSession creates a REPL session writing to out
func NewSession(ctx context.Context, asker Asker, commands *Commands, examples []string, out io.Writer) *Session {
	if out == nil {
		out = os.Stdout
	}
	return &Session{
		ctx:      ctx,
		asker:    asker,
		commands: commands,
		examples: examples,
		out:      out,
	}
}

// Run starts the interactive prompt and blocks until the user exits
func (s *Session) Run() {
	printWelcome(s.out)

	comp := newCompleter(s.examples)
	p := prompt.New(
		s.Execute,
		comp.Complete,
		prompt.OptionTitle("datamate"),
		prompt.OptionPrefix("You: "),
		prompt.OptionPrefixTextColor(prompt.Green),
		prompt.OptionMaxSuggestion(8),
		prompt.OptionSetExitCheckerOnInput(s.exitChecker),
	)
	p.Run()
}

// Execute handles one submitted line
func (s *Session) Execute(line string) {
	input := strings.TrimSpace(line)
	if input == "" {
		return
	}

	if strings.HasPrefix(input, "/") {
		keepGoing, output := s.commands.HandleCommand(s.ctx, input)
		if output != "" {
			fmt.Fprintln(s.out, output)
		}
		s.exiting = !keepGoing
		return
	}

	if err := s.ctx.Err(); err != nil {
		fmt.Fprintf(s.out, "%s❌ Error: %v%s\n", colorRed, err, colorReset)
		return
	}

	turn := s.asker.Ask(s.ctx, input)
	fmt.Fprintf(s.out, "\n%sDataMate: %s%s\n\n", colorBlue, colorReset, turn.Reply)
}

// Exiting reports whether /exit was issued
func (s *Session) Exiting() bool {
	return s.exiting
}

func (s *Session) exitChecker(_ string, breakline bool) bool {
	return breakline && s.exiting
}

// ReadAPIKey asks for the API key when none is configured. The key is kept
// for this process only.
func ReadAPIKey(out io.Writer) (string, error) {
	fmt.Fprintf(out, "%s⚠️  API Key not configured%s\n\n", colorYellow, colorReset)

	apiKey := strings.TrimSpace(prompt.Input(
		"Please enter your OpenAI API Key: ",
		func(prompt.Document) []prompt.Suggest { return nil },
	))
	if apiKey == "" {
		return "", fmt.Errorf("API Key cannot be empty")
	}

	fmt.Fprintf(out, "%sTo skip this step, set OPENAI_API_KEY or add it to config/.secrets%s\n\n", colorGray, colorReset)
	return apiKey, nil
}

// printWelcome prints welcome message
func printWelcome(out io.Writer) {
	fmt.Fprintf(out, "\n%s📈 DataMate v%s%s - Your Business Data Assistant\n", colorCyan, Version, colorReset)
	fmt.Fprintf(out, "%sType /help for help, /exit to quit%s\n\n", colorGray, colorReset)
}

// ToolCallOutput prints which tool answered a question
func ToolCallOutput(out io.Writer) func(name string, args tools.Args, reply string, err error) {
	return func(name string, args tools.Args, reply string, err error) {
		fmt.Fprintf(out, "\n%s🔧 Calling tool: %s%s\n", colorYellow, name, colorReset)

		if args != nil {
			fmt.Fprintf(out, "%s   Args: %+v%s\n", colorGray, args, colorReset)
		}

		if err != nil {
			fmt.Fprintf(out, "%s   Status: ❌ Failed - %v%s\n", colorRed, err, colorReset)
		} else {
			fmt.Fprintf(out, "%s   Status: ✅ Done (%s)%s\n", colorGreen, truncateForDisplay(reply, 60), colorReset)
		}
	}
}
