package keyscript

import (
	"testing"
	"time"

	"github.com/neuroplastio/keybridge/internal/combo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestStatements(t *testing.T) {
	type testCase struct {
		input    string
		expected Statement
	}

	testCases := []testCase{
		{
			input: `+Ctrl +A`,
			expected: Statement{
				Keys: []KeyStatement{
					{Action: "+", Key: KeyRef{Name: ptr("Ctrl")}},
					{Action: "+", Key: KeyRef{Name: ptr("A")}},
				},
			},
		},
		{
			input: `-7`,
			expected: Statement{
				Keys: []KeyStatement{
					{Action: "-", Key: KeyRef{Name: ptr("7")}},
				},
			},
		},
		{
			input: `+#192 -"-"`,
			expected: Statement{
				Keys: []KeyStatement{
					{Action: "+", Key: KeyRef{Raw: ptr(192)}},
					{Action: "-", Key: KeyRef{Name: ptr("-")}},
				},
			},
		},
		{
			input: `wait 350ms`,
			expected: Statement{
				Wait: ptr(Duration(350 * time.Millisecond)),
			},
		},
		{
			input: `click right 10 20`,
			expected: Statement{
				Click: &ClickStatement{Button: "right", X: 10, Y: 20},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			stmt, err := ParseStatement(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, stmt)
		})
	}
}

func TestParse(t *testing.T) {
	script, err := ParseString(`
// open palette
+Ctrl +Shift +P
-P
wait 1s

+"\\" -Ctrl
click middle 5 6
`)
	require.NoError(t, err)
	require.Len(t, script.Steps, 8)

	assert.Equal(t, 3, script.Steps[0].Line)
	assert.Equal(t, &KeyStep{Down: true, Key: combo.Modifier(combo.Ctrl)}, script.Steps[0].Key)
	assert.Equal(t, "+P", script.Steps[2].Key.String())
	assert.Equal(t, "-P", script.Steps[3].Key.String())
	assert.Equal(t, time.Second, script.Steps[4].Wait)
	assert.Equal(t, combo.Symbol('\\'), script.Steps[5].Key.Key)
	assert.Equal(t, 7, script.Steps[6].Line)
	assert.Equal(t, &ClickStep{Button: ButtonMiddle, X: 5, Y: 6}, script.Steps[7].Click)
}

func TestParseErrors(t *testing.T) {
	for input, line := range map[string]string{
		"+Ctrl\n+F1":     "line 2",
		"click back 1 2": "line 1",
		"\n\nwait soon":  "line 3",
		"+#70000":        "line 1",
		"Ctrl":           "line 1",
	} {
		_, err := ParseString(input)
		require.Error(t, err, input)
		assert.Contains(t, err.Error(), line, input)
	}
}

func TestRawStepString(t *testing.T) {
	script, err := ParseString("+#192")
	require.NoError(t, err)
	require.Len(t, script.Steps, 1)
	assert.Equal(t, "+#192", script.Steps[0].Key.String())
	assert.Equal(t, uint16(192), *script.Steps[0].Key.Raw)
}
