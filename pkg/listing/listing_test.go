package listing

import (
	"testing"

	"github.com/speakeasy-api/jaxrsflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var code = []jaxrsflow.Instruction{
	jaxrsflow.Load(1, jaxrsflow.Boolean),
	jaxrsflow.Branch("IFEQ", 1, 4),
	jaxrsflow.Push("a", jaxrsflow.String),
	jaxrsflow.Return(),
	jaxrsflow.Push("b", jaxrsflow.String),
	jaxrsflow.Return(),
	jaxrsflow.ExceptionHandler(),
	jaxrsflow.Throw(),
}

func TestStackDepths(t *testing.T) {
	assert.Equal(t, []int{1, 0, 1, 0, 1, 0, 1, 0}, StackDepths(code))

	unreachable := []jaxrsflow.Instruction{
		jaxrsflow.ReturnVoid(),
		jaxrsflow.Push(1, jaxrsflow.Int),
	}
	assert.Equal(t, []int{0, -1}, StackDepths(unreachable))
	assert.Empty(t, StackDepths(nil))
}

func TestFormat(t *testing.T) {
	out, err := Format(code[:4], Config{Columns: []string{"Index", "instruction", "DEPTH", "targets"}})
	require.NoError(t, err)

	want := "" +
		"#  INSTRUCTION                  DEPTH  TARGETS\n" +
		"0  load 1 Z                         1\n" +
		"1  branch IFEQ [4]                  0  4\n" +
		"2  push \"a\" Ljava/lang/String;      1\n" +
		"3  return                           0\n"
	assert.Equal(t, want, out)
}

func TestFormatNoHeader(t *testing.T) {
	out, err := Format(code[6:], Config{Columns: []string{"pops", "pushes"}, NoHeader: true})
	require.NoError(t, err)
	assert.Equal(t, "0  1\n1  0\n", out)
}

func TestValidateConfig(t *testing.T) {
	cfg, err := ValidateConfig(Config{})
	require.NoError(t, err)
	assert.Equal(t, validColumns, cfg.Columns)

	_, err = ValidateConfig(Config{Columns: []string{"opcode"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"opcode"`)
}
