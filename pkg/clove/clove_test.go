package clove

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckReturnsTruthyResult(t *testing.T) {
	root, err := FromJSON([]byte(`{"items":[{"p":50},{"p":150}]}`))
	require.NoError(t, err)
	ok, diag := Check(`$[items].any(x => x[p] > 100)`, root, nil)
	assert.True(t, ok)
	assert.Empty(t, diag)
}

func TestCheckReturnsDiagnosticOnParseError(t *testing.T) {
	root, _ := FromJSON([]byte(`{}`))
	ok, diag := Check(`!($) | $[a]`, root, nil)
	assert.False(t, ok)
	assert.NotEmpty(t, diag)
}

func TestCheckReturnsDiagnosticOnEvalError(t *testing.T) {
	root, _ := FromJSON([]byte(`{"n":5}`))
	ok, diag := Check(`$[n].sum()`, root, nil)
	assert.False(t, ok)
	assert.NotEmpty(t, diag)
}

func TestRunnerLoadAndCallUdf(t *testing.T) {
	r := NewRunner()
	require.NoError(t, r.LoadUdf("big", 1, `@1[p] > 100`))

	root, err := FromJSON([]byte(`{"items":[{"p":50},{"p":200}]}`))
	require.NoError(t, err)
	out, err := r.Run(`$[items].any(&big[@])`, root)
	require.NoError(t, err)
	assert.True(t, out.AsBool())
}

func TestRunnerLoadUdfRejectsMultiStageBody(t *testing.T) {
	r := NewRunner()
	err := r.LoadUdf("bad", 1, `$ | @1`)
	require.Error(t, err)
}

func TestRunnerRunJSONRoundtrip(t *testing.T) {
	r := NewRunner()
	out, err := r.RunJSON(`$[items].sum()`, []byte(`{"items":[1,2,3]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `6`, string(out))
}

func TestRunnerEnvVarLookup(t *testing.T) {
	r := NewRunner()
	r.EnvVar = func(name string) (string, bool) {
		if name == "TOKEN" {
			return "secret", true
		}
		return "", false
	}
	root, _ := FromJSON([]byte(`{}`))
	out, err := r.Run(`$TOKEN`, root)
	require.NoError(t, err)
	assert.Equal(t, "secret", out.AsStr())
}
