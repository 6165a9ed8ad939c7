package scpi

import "strings"

// Command represents a single SCPI command. It is an immutable value type;
// create instances with NewCommand.
//
// A command whose text ends with '?' is a query and expects exactly one
// response line from the instrument. All other commands are set commands
// with no response.
type Command struct {
	text string
}

// NewCommand creates a Command from the given text.
// Leading and trailing whitespace (including any stray line terminator) is
// trimmed. It returns ErrEmptyCommand if nothing remains after trimming.
func NewCommand(text string) (Command, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Command{}, ErrEmptyCommand
	}

	return Command{text: text}, nil
}

// ParseCommands creates a Command list from the given lines, preserving
// order. Blank lines are skipped. It returns ErrNoCommands if no command
// remains.
func ParseCommands(lines []string) ([]Command, error) {
	cmds := make([]Command, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, err := NewCommand(line)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}

	if len(cmds) == 0 {
		return nil, ErrNoCommands
	}

	return cmds, nil
}

// Text returns the command text without line terminator.
func (c Command) Text() string { return c.text }

// IsQuery reports whether the command is a query, i.e. its text ends with '?'.
func (c Command) IsQuery() bool { return strings.HasSuffix(c.text, "?") }

// IsZero reports whether the command is the zero value, such as the command
// of a terminal run marker.
func (c Command) IsZero() bool { return c.text == "" }

// String returns the command text.
func (c Command) String() string { return c.text }
