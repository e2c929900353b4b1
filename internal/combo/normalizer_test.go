package combo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestNormalizer() (*Normalizer, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	return NewNormalizer(clock.Now), clock
}

func mustKey(t *testing.T, name string) Key {
	t.Helper()
	key, err := ParseKey(name)
	require.NoError(t, err)
	return key
}

func TestKeyDownCombos(t *testing.T) {
	type testCase struct {
		name     string
		downs    []string
		expected []string
	}

	testCases := []testCase{
		{
			name:     "ctrl shift letter",
			downs:    []string{"Ctrl", "Shift", "A"},
			expected: []string{"Ctrl + Shift", "Ctrl + Shift + A"},
		},
		{
			name:     "modifier order is fixed",
			downs:    []string{"A", "Shift", "Cmd", "Alt", "Ctrl"},
			expected: []string{"Shift + Cmd + A", "Shift + Alt + Cmd + A", "Ctrl + Shift + Alt + Cmd + A"},
		},
		{
			name:     "keys are sorted",
			downs:    []string{"Ctrl", "K", "B", "3"},
			expected: []string{"Ctrl + K", "Ctrl + B + K", "Ctrl + 3 + B + K"},
		},
		{
			name:     "shift alone never qualifies",
			downs:    []string{"Shift", "A", "B"},
			expected: nil,
		},
		{
			name:     "lone ctrl",
			downs:    []string{"Ctrl"},
			expected: nil,
		},
		{
			name:     "backtick",
			downs:    []string{"Ctrl", "`"},
			expected: []string{"Ctrl + `"},
		},
		{
			name:     "two real modifiers",
			downs:    []string{"Ctrl", "Alt"},
			expected: []string{"Ctrl + Alt"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n, clock := newTestNormalizer()
			var got []string
			for _, name := range tc.downs {
				clock.Advance(time.Second)
				if e, ok := n.KeyDown(mustKey(t, name)); ok {
					got = append(got, e.Combo)
				}
			}
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestEmissionTimestamp(t *testing.T) {
	n, clock := newTestNormalizer()
	clock.Advance(250 * time.Millisecond)

	n.KeyDown(mustKey(t, "Ctrl"))
	e, ok := n.KeyDown(mustKey(t, "P"))
	require.True(t, ok)
	assert.Equal(t, clock.Now(), e.Time)
	assert.InDelta(t, 1_700_000_000.25, e.Seconds(), 1e-6)
}

func TestDebounce(t *testing.T) {
	n, clock := newTestNormalizer()
	ctrl, c := mustKey(t, "Ctrl"), mustKey(t, "C")

	n.KeyDown(ctrl)
	_, ok := n.KeyDown(c)
	require.True(t, ok, "first occurrence is emitted")

	clock.Advance(100 * time.Millisecond)
	_, ok = n.KeyDown(c)
	assert.False(t, ok, "autorepeat inside the window is suppressed")

	clock.Advance(250 * time.Millisecond)
	_, ok = n.KeyDown(c)
	assert.True(t, ok, "window measured from the first emission")

	clock.Advance(349 * time.Millisecond)
	_, ok = n.KeyDown(c)
	assert.False(t, ok)
}

func TestDebounceOnlyMatchesSameCombo(t *testing.T) {
	n, clock := newTestNormalizer()
	n.KeyDown(mustKey(t, "Ctrl"))

	_, ok := n.KeyDown(mustKey(t, "C"))
	require.True(t, ok)

	clock.Advance(10 * time.Millisecond)
	n.KeyUp(mustKey(t, "C"))
	e, ok := n.KeyDown(mustKey(t, "V"))
	require.True(t, ok)
	assert.Equal(t, "Ctrl + V", e.Combo)
}

func TestReleaseAndRepressInsideWindowIsSuppressed(t *testing.T) {
	n, clock := newTestNormalizer()
	a := mustKey(t, "A")

	n.KeyDown(mustKey(t, "Ctrl"))
	n.KeyDown(mustKey(t, "Shift"))
	e, ok := n.KeyDown(a)
	require.True(t, ok)
	assert.Equal(t, "Ctrl + Shift + A", e.Combo)

	clock.Advance(200 * time.Millisecond)
	n.KeyUp(a)
	_, ok = n.KeyDown(a)
	assert.False(t, ok)
}

func TestKeyUpRemovesKey(t *testing.T) {
	n, clock := newTestNormalizer()
	n.KeyDown(mustKey(t, "Ctrl"))
	n.KeyDown(mustKey(t, "A"))
	n.KeyUp(mustKey(t, "A"))
	assert.Equal(t, []string{"Ctrl"}, n.Pressed())

	clock.Advance(time.Second)
	e, ok := n.KeyDown(mustKey(t, "B"))
	require.True(t, ok)
	assert.Equal(t, "Ctrl + B", e.Combo)
}

func TestKeyUpDoesNotTouchDebounce(t *testing.T) {
	n, clock := newTestNormalizer()
	ctrl, s := mustKey(t, "Ctrl"), mustKey(t, "S")

	n.KeyDown(ctrl)
	_, ok := n.KeyDown(s)
	require.True(t, ok)

	n.KeyUp(s)
	n.KeyUp(ctrl)
	clock.Advance(100 * time.Millisecond)
	n.KeyDown(ctrl)
	_, ok = n.KeyDown(s)
	assert.False(t, ok)
}

func TestUnrecognizedKeysAreIgnored(t *testing.T) {
	n, _ := newTestNormalizer()
	_, ok := n.KeyDown(Unrecognized)
	assert.False(t, ok)
	n.KeyUp(Unrecognized)
	assert.Empty(t, n.Pressed())

	n.KeyDown(mustKey(t, "Ctrl"))
	_, ok = n.KeyDown(Unrecognized)
	assert.False(t, ok)
	assert.Equal(t, []string{"Ctrl"}, n.Pressed())
}

func TestParseKey(t *testing.T) {
	for _, name := range []string{"Ctrl", "Shift", "Alt", "Cmd"} {
		key := mustKey(t, name)
		assert.Equal(t, KindModifier, key.Kind)
	}
	assert.Equal(t, Key{Kind: KindLetter, Name: "Q"}, mustKey(t, "q"))
	assert.Equal(t, Key{Kind: KindDigit, Name: "0"}, mustKey(t, "0"))
	for _, r := range Symbols {
		assert.Equal(t, KindSymbol, mustKey(t, string(r)).Kind)
	}

	for _, bad := range []string{"", "F1", "ctrl", "!", "AB"} {
		_, err := ParseKey(bad)
		assert.Error(t, err, bad)
	}
}
