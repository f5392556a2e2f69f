// Package command renders per-shard command lines and joins them into a
// single composite invocation for the cluster launcher.
package command

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"strings"
	"text/template"
	"unicode"

	"github.com/helixml/shardrun/domain/shard"
)

// Delimiter separates shard commands in a composite invocation.
const Delimiter = " -- "

// DefaultOutputPattern names each shard's output file after its index.
const DefaultOutputPattern = "{{.OutputDir}}/{{.Index}}.jsonl"

// Errors returned while rendering templates.
var (
	ErrEmptyTemplate      = errors.New("command template is empty")
	ErrDelimiterInCommand = errors.New("rendered command contains the shard delimiter")
	ErrEmptyCommand       = errors.New("rendered command is empty")
	ErrInvalidTemplate    = errors.New("invalid command template")
	ErrRenderFailed       = errors.New("render command template")
)

// Vars are the values available to command and output templates.
type Vars struct {
	Index      int
	Ordinal    int
	Start      int
	End        int
	Count      int
	NumShards  int
	TotalItems int
	RunID      string
	OutputDir  string
	Output     string
	Params     map[string]string
}

// Context carries the run-wide values shared by every shard.
type Context struct {
	runID      string
	outputDir  string
	totalItems int
	params     map[string]string
}

// NewContext creates a Context.
func NewContext(runID, outputDir string, totalItems int, params map[string]string) Context {
	return Context{
		runID:      runID,
		outputDir:  strings.TrimRight(outputDir, "/"),
		totalItems: totalItems,
		params:     copyParams(params),
	}
}

// RunID returns the run identifier.
func (c Context) RunID() string { return c.runID }

// OutputDir returns the run output directory.
func (c Context) OutputDir() string { return c.outputDir }

// TotalItems returns the total item count.
func (c Context) TotalItems() int { return c.totalItems }

// Params returns a copy of the template parameters.
func (c Context) Params() map[string]string { return copyParams(c.params) }

// Template renders one command line per shard.
type Template struct {
	text    string
	command *template.Template
	output  *template.Template
}

// NewTemplate parses a command template and an output path pattern. An empty
// pattern falls back to DefaultOutputPattern.
func NewTemplate(text, outputPattern string) (Template, error) {
	text = normalize(text)
	if text == "" {
		return Template{}, ErrEmptyTemplate
	}
	if outputPattern == "" {
		outputPattern = DefaultOutputPattern
	}

	cmd, err := template.New("command").Option("missingkey=error").Parse(text)
	if err != nil {
		return Template{}, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}
	out, err := template.New("output").Option("missingkey=error").Parse(normalize(outputPattern))
	if err != nil {
		return Template{}, fmt.Errorf("%w: output pattern: %w", ErrInvalidTemplate, err)
	}

	return Template{text: text, command: cmd, output: out}, nil
}

// Text returns the normalised template source.
func (t Template) Text() string { return t.text }

// Render produces the command for a single shard.
func (t Template) Render(r shard.Range, numShards int, ctx Context) (ShardCommand, error) {
	vars := Vars{
		Index:      r.Index(),
		Ordinal:    r.Index() + 1,
		Start:      r.Start(),
		End:        r.End(),
		Count:      r.Len(),
		NumShards:  numShards,
		TotalItems: ctx.totalItems,
		RunID:      ctx.runID,
		OutputDir:  ctx.outputDir,
		Params:     ctx.params,
	}

	output, err := execute(t.output, vars)
	if err != nil {
		return ShardCommand{}, fmt.Errorf("%w: %s output: %w", ErrRenderFailed, r, err)
	}
	vars.Output = output

	text, err := execute(t.command, vars)
	if err != nil {
		return ShardCommand{}, fmt.Errorf("%w: %s: %w", ErrRenderFailed, r, err)
	}
	text = normalize(text)
	if text == "" {
		return ShardCommand{}, fmt.Errorf("%w: %s", ErrEmptyCommand, r)
	}
	if strings.Contains(" "+text+" ", Delimiter) {
		return ShardCommand{}, fmt.Errorf("%w: %s", ErrDelimiterInCommand, r)
	}

	return NewShardCommand(r, output, text), nil
}

// ExpandRunPath renders a run-wide path such as an output directory. Only
// .RunID and .Params are available; shard variables render as zero.
func ExpandRunPath(pattern, runID string, params map[string]string) (string, error) {
	t, err := template.New("path").Option("missingkey=error").Parse(pattern)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}
	out, err := execute(t, Vars{RunID: runID, Params: copyParams(params)})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}
	return strings.TrimSpace(out), nil
}

func execute(t *template.Template, vars Vars) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// normalize folds a possibly multi-line command onto one line. Backslash
// line continuations and whitespace runs become single spaces; text inside
// single or double quotes is kept as written.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\\\r\n", " ")
	text = strings.ReplaceAll(text, "\\\n", " ")

	var b strings.Builder
	var quote rune
	space, escaped := false, false
	for _, r := range text {
		switch {
		case escaped:
			escaped = false
		case quote != 0:
			if r == quote {
				quote = 0
			} else if r == '\\' && quote == '"' {
				escaped = true
			}
		case unicode.IsSpace(r):
			space = b.Len() > 0
			continue
		case r == '\'' || r == '"':
			quote = r
		case r == '\\':
			escaped = true
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func copyParams(params map[string]string) map[string]string {
	result := make(map[string]string, len(params))
	maps.Copy(result, params)
	return result
}
