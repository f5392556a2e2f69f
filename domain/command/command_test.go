package command

import (
	"fmt"
	"strings"
	"testing"

	"github.com/helixml/shardrun/domain/shard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const generationTemplate = `python generation.py \
	--dataset_start_idx {{.Start}} \
	--dataset_end_idx {{.End}} \
	--save_filename {{.Output}}`

func TestCompose_RendersOneCommandPerShardInOrder(t *testing.T) {
	tmpl, err := NewTemplate(generationTemplate, "")
	require.NoError(t, err)

	ranges, err := shard.Plan(105, 10)
	require.NoError(t, err)

	ctx := NewContext("run1", "/output/shards/run1/", 105, nil)
	commands, err := Compose(tmpl, ranges, ctx)
	require.NoError(t, err)
	require.Len(t, commands, 10)

	assert.Equal(t,
		"python generation.py --dataset_start_idx 0 --dataset_end_idx 10 --save_filename /output/shards/run1/0.jsonl",
		commands[0].Text(),
	)
	assert.Equal(t,
		"python generation.py --dataset_start_idx 90 --dataset_end_idx 105 --save_filename /output/shards/run1/9.jsonl",
		commands[9].Text(),
	)
	for i, c := range commands {
		assert.Equal(t, i, c.Range().Index())
		assert.Equal(t, fmt.Sprintf("/output/shards/run1/%d.jsonl", i), c.Output())
	}
}

func TestJoin_UsesDelimiterBetweenShards(t *testing.T) {
	tmpl, err := NewTemplate("score --start {{.Start}} --end {{.End}}", "")
	require.NoError(t, err)

	ranges, err := shard.Plan(100000, 100)
	require.NoError(t, err)

	commands, err := Compose(tmpl, ranges, NewContext("r", "/out", 100000, nil))
	require.NoError(t, err)

	joined := Join(commands)
	assert.Equal(t, 99, strings.Count(joined, Delimiter))
	assert.True(t, strings.HasPrefix(joined, "score --start 0 --end 1000 -- score --start 1000 --end 2000"))
	assert.True(t, strings.HasSuffix(joined, "score --start 99000 --end 100000"))

	parts := Split(joined)
	require.Len(t, parts, 100)
	for i, part := range parts {
		assert.Equal(t, commands[i].Text(), part)
	}
}

func TestJoin_SingleShardHasNoDelimiter(t *testing.T) {
	tmpl, err := NewTemplate("train --items {{.Count}}", "")
	require.NoError(t, err)

	ranges, err := shard.Plan(50, 1)
	require.NoError(t, err)

	commands, err := Compose(tmpl, ranges, NewContext("r", "/out", 50, nil))
	require.NoError(t, err)

	assert.Equal(t, "train --items 50", Join(commands))
}

func TestRender_TemplateVariables(t *testing.T) {
	tmpl, err := NewTemplate(
		"run {{.RunID}} {{.Index}} {{.Ordinal}}/{{.NumShards}} {{.Count}} of {{.TotalItems}} model={{.Params.model}} out={{.Output}}",
		"{{.OutputDir}}/scores_{{.Index}}.jsonl",
	)
	require.NoError(t, err)

	ctx := NewContext("abc", "/data", 30, map[string]string{"model": "tulu"})
	cmd, err := tmpl.Render(shard.NewRange(2, 20, 30), 3, ctx)
	require.NoError(t, err)

	assert.Equal(t, "run abc 2 3/3 10 of 30 model=tulu out=/data/scores_2.jsonl", cmd.Text())
	assert.Equal(t, "/data/scores_2.jsonl", cmd.Output())
}

func TestRender_MissingParamFails(t *testing.T) {
	tmpl, err := NewTemplate("run {{.Params.missing}}", "")
	require.NoError(t, err)

	_, err = tmpl.Render(shard.NewRange(0, 0, 1), 1, NewContext("r", "/o", 1, nil))
	assert.ErrorIs(t, err, ErrRenderFailed)
}

func TestRender_RejectsDelimiterInCommand(t *testing.T) {
	tmpl, err := NewTemplate("launch -- {{.Start}}", "")
	require.NoError(t, err)

	_, err = tmpl.Render(shard.NewRange(0, 0, 1), 1, NewContext("r", "/o", 1, nil))
	assert.ErrorIs(t, err, ErrDelimiterInCommand)
}

func TestCompose_RejectsEmptyShardCommand(t *testing.T) {
	tmpl, err := NewTemplate("{{if eq .Index 1}}{{else}}run {{.Start}} {{.End}}{{end}}", "")
	require.NoError(t, err)

	ranges, err := shard.Plan(9, 3)
	require.NoError(t, err)

	commands, err := Compose(tmpl, ranges, NewContext("r", "/o", 9, nil))
	assert.ErrorIs(t, err, ErrEmptyCommand)
	assert.Nil(t, commands)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"continuations", "python gen.py \\\n\t--start 0 \\\r\n  --end 5", "python gen.py --start 0 --end 5"},
		{"bare newlines", "a\nb\n\nc", "a b c"},
		{"trims", "  run  \t", "run"},
		{"double quotes keep spacing", `echo "a   b"   c`, `echo "a   b" c`},
		{"single quotes keep spacing", "echo 'x \t y'", "echo 'x \t y'"},
		{"escaped quote inside double quotes", `echo "say \"hi  there\""  done`, `echo "say \"hi  there\"" done`},
		{"escaped space", `ls a\  b`, `ls a\  b`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize(tt.in))
		})
	}
}

func TestRender_KeepsQuotedWhitespace(t *testing.T) {
	tmpl, err := NewTemplate(`echo "a   b" {{.Start}}`, "")
	require.NoError(t, err)

	cmd, err := tmpl.Render(shard.NewRange(0, 0, 1), 1, NewContext("r", "/o", 1, nil))
	require.NoError(t, err)
	assert.Equal(t, `echo "a   b" 0`, cmd.Text())
}

func TestNewTemplate_Errors(t *testing.T) {
	_, err := NewTemplate("   \n  ", "")
	assert.ErrorIs(t, err, ErrEmptyTemplate)

	_, err = NewTemplate("run {{.Start", "")
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	_, err = NewTemplate("run", "{{.Index")
	assert.ErrorIs(t, err, ErrInvalidTemplate)
}

func TestCompose_RejectsInvalidPlan(t *testing.T) {
	tmpl, err := NewTemplate("run {{.Start}}", "")
	require.NoError(t, err)

	ranges := []shard.Range{shard.NewRange(0, 0, 5), shard.NewRange(1, 6, 10)}
	_, err = Compose(tmpl, ranges, NewContext("r", "/o", 10, nil))
	assert.ErrorIs(t, err, shard.ErrInvalidArgument)
}

func TestSplit_Empty(t *testing.T) {
	assert.Nil(t, Split(""))
}

func TestContext_ParamsAreCopied(t *testing.T) {
	params := map[string]string{"a": "1"}
	ctx := NewContext("r", "/o", 1, params)
	params["a"] = "2"

	got := ctx.Params()
	assert.Equal(t, "1", got["a"])
	got["a"] = "3"
	assert.Equal(t, "1", ctx.Params()["a"])
}

func TestExpandRunPath(t *testing.T) {
	got, err := ExpandRunPath("/output/shards/{{.RunID}}/{{.Params.model}}", "rs_1234", map[string]string{"model": "tulu"})
	require.NoError(t, err)
	assert.Equal(t, "/output/shards/rs_1234/tulu", got)

	_, err = ExpandRunPath("{{.Params.missing}}", "r", nil)
	assert.ErrorIs(t, err, ErrRenderFailed)

	_, err = ExpandRunPath("{{.RunID", "r", nil)
	assert.ErrorIs(t, err, ErrInvalidTemplate)
}
