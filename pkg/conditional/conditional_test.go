package conditional_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netwait/netwait/pkg/conditional"
	"github.com/netwait/netwait/pkg/wait"
)

func mustCompile(t *testing.T, text string) *conditional.Conditional {
	t.Helper()
	c, err := conditional.Compile(text)
	require.NoError(t, err)
	return c
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "missing value", text: "result[0] contains"},
		{name: "bad key", text: "output[0] contains up"},
		{name: "key without index", text: "result contains up"},
		{name: "unknown operator", text: "result[0] resembles up"},
		{name: "ordering needs number", text: "result[0] gt banana"},
		{name: "bad regex", text: "result[0] matches [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := conditional.Compile(tt.text)
			require.Error(t, err)
			var compileErr *conditional.CompileError
			require.ErrorAs(t, err, &compileErr)
			assert.Equal(t, tt.text, compileErr.Text, "the offending text travels with the error")
		})
	}
}

func TestStringReturnsOriginalText(t *testing.T) {
	text := `result[0] contains "Version 9.1"`
	assert.Equal(t, text, mustCompile(t, text).String())
}

func TestContains(t *testing.T) {
	c := mustCompile(t, "result[0] contains 'Version'")

	assert.True(t, c.Evaluate([]wait.Response{wait.Text("Cisco ASA Version 9.1")}))
	assert.False(t, c.Evaluate([]wait.Response{wait.Text("booting")}))
}

func TestQuotedValueKeepsSpaces(t *testing.T) {
	c := mustCompile(t, `result[0] contains "packet loss"`)

	assert.True(t, c.Evaluate([]wait.Response{wait.Text("0% packet loss")}))
	assert.False(t, c.Evaluate([]wait.Response{wait.Text("packet\nloss")}))
}

func TestIndexSelectsResponse(t *testing.T) {
	batch := []wait.Response{wait.Text("alpha"), wait.Text("beta")}

	assert.True(t, mustCompile(t, "result[1] contains beta").Evaluate(batch))
	assert.False(t, mustCompile(t, "result[0] contains beta").Evaluate(batch))
}

func TestIndexOutOfRangeIsFalse(t *testing.T) {
	c := mustCompile(t, "result[3] contains up")
	assert.False(t, c.Evaluate([]wait.Response{wait.Text("up")}))
	assert.False(t, c.Evaluate(nil))
}

func TestEquality(t *testing.T) {
	t.Run("string equality", func(t *testing.T) {
		c := mustCompile(t, "result[0] eq up")
		assert.True(t, c.Evaluate([]wait.Response{wait.Text("up")}))
		assert.False(t, c.Evaluate([]wait.Response{wait.Text("down")}))
	})

	t.Run("numeric equality ignores formatting", func(t *testing.T) {
		c := mustCompile(t, "result[0] == 5")
		assert.True(t, c.Evaluate([]wait.Response{wait.Text("5.0")}))
	})

	t.Run("inequality", func(t *testing.T) {
		c := mustCompile(t, "result[0] != down")
		assert.True(t, c.Evaluate([]wait.Response{wait.Text("up")}))
		assert.False(t, c.Evaluate([]wait.Response{wait.Text("down")}))
	})
}

func TestOrderingOperators(t *testing.T) {
	batch := func(s string) []wait.Response { return []wait.Response{wait.Text(s)} }

	tests := []struct {
		text string
		got  string
		want bool
	}{
		{text: "result[0] gt 10", got: "11", want: true},
		{text: "result[0] gt 10", got: "10", want: false},
		{text: "result[0] ge 10", got: "10", want: true},
		{text: "result[0] lt 10", got: "9", want: true},
		{text: "result[0] le 10", got: "10", want: true},
		{text: "result[0] > 2", got: "3", want: true},
		{text: "result[0] <= 2", got: "3", want: false},
		// A non-numeric response is not yet comparable.
		{text: "result[0] gt 10", got: "loading", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.got, func(t *testing.T) {
			assert.Equal(t, tt.want, mustCompile(t, tt.text).Evaluate(batch(tt.got)))
		})
	}
}

func TestMatches(t *testing.T) {
	c := mustCompile(t, `result[0] matches "uptime is [0-9]+ days"`)

	assert.True(t, c.Evaluate([]wait.Response{wait.Text("router uptime is 42 days")}))
	assert.False(t, c.Evaluate([]wait.Response{wait.Text("router uptime is unknown")}))
}

func TestJSONPath(t *testing.T) {
	body := `{"interfaces":[{"name":"eth0","status":"up"},{"name":"eth1","status":"down"}]}`
	batch := []wait.Response{wait.Text(body)}

	assert.True(t, mustCompile(t, "result[0].interfaces.0.status eq up").Evaluate(batch))
	assert.False(t, mustCompile(t, "result[0].interfaces.1.status eq up").Evaluate(batch))

	t.Run("missing path is false", func(t *testing.T) {
		assert.False(t, mustCompile(t, "result[0].missing.field eq up").Evaluate(batch))
	})

	t.Run("numeric comparison through path", func(t *testing.T) {
		count := []wait.Response{wait.Text(`{"neighbors": 3}`)}
		assert.True(t, mustCompile(t, "result[0].neighbors ge 2").Evaluate(count))
		assert.False(t, mustCompile(t, "result[0].neighbors ge 4").Evaluate(count))
	})
}

func TestStructuredResponse(t *testing.T) {
	c := mustCompile(t, "result[0] contains 'state: up'")
	batch := []wait.Response{wait.Structured([]string{"Interface eth0", "state: up"})}
	assert.True(t, c.Evaluate(batch))
}
