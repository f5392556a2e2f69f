package command

import (
	"fmt"
	"strings"

	"github.com/helixml/shardrun/domain/shard"
)

// ShardCommand is the rendered command line for one shard.
type ShardCommand struct {
	rng    shard.Range
	output string
	text   string
}

// NewShardCommand creates a ShardCommand.
func NewShardCommand(r shard.Range, output, text string) ShardCommand {
	return ShardCommand{rng: r, output: output, text: text}
}

// Range returns the shard range the command processes.
func (c ShardCommand) Range() shard.Range { return c.rng }

// Output returns the shard-local output path.
func (c ShardCommand) Output() string { return c.output }

// Text returns the command line.
func (c ShardCommand) Text() string { return c.text }

// Compose renders one command per range, in ascending shard order. The ranges
// must form a valid plan over ctx.TotalItems().
func Compose(t Template, ranges []shard.Range, ctx Context) ([]ShardCommand, error) {
	if err := shard.Validate(ranges, ctx.totalItems); err != nil {
		return nil, fmt.Errorf("compose commands: %w", err)
	}

	commands := make([]ShardCommand, len(ranges))
	for i, r := range ranges {
		cmd, err := t.Render(r, len(ranges), ctx)
		if err != nil {
			return nil, err
		}
		commands[i] = cmd
	}
	return commands, nil
}

// Join concatenates the command lines with Delimiter.
func Join(commands []ShardCommand) string {
	texts := make([]string, len(commands))
	for i, c := range commands {
		texts[i] = c.text
	}
	return strings.Join(texts, Delimiter)
}

// Split is the inverse of Join.
func Split(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, Delimiter)
}
