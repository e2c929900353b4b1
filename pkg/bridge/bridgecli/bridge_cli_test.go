package bridgecli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/neuroplastio/keybridge/internal/emitsvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(configDir)
	out := &bytes.Buffer{}
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeScript(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.keys")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestReplay(t *testing.T) {
	dir := t.TempDir()
	clicksFile := filepath.Join(dir, "clicks.json")
	script := writeScript(t, "+Ctrl +S\n-S\nclick left 12 34\n")

	out, err := execute(t, dir, "replay", script, "--clicks-file", clicksFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, emitsvc.ReadyLine, lines[0])
	assert.Contains(t, lines[1], `"combo":"Ctrl + S"`)
	assert.Contains(t, lines[2], `"x":12,"y":34,"button":"Button.left"`)

	data, err := os.ReadFile(clicksFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"button": "Button.left"`)
}

func TestReplayKeysMode(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, "+Alt +1\nclick left 1 1\n")

	out, err := execute(t, dir, "replay", script, "--mode", "keys", "--clicks-file", filepath.Join(dir, "clicks.json"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], `"combo":"Alt + 1"`)

	_, err = execute(t, dir, "replay", script, "--mode", "sometimes")
	assert.ErrorContains(t, err, "unknown mode")
}

func TestReplayWithKeymap(t *testing.T) {
	dir := t.TempDir()
	// 29 and 31 are left ctrl and s in evdev codes
	script := writeScript(t, "+#29 +#31\n")

	out, err := execute(t, dir, "replay", script, "--keymap", "evdev", "--mode", "keys")
	require.NoError(t, err)
	assert.Contains(t, out, `"combo":"Ctrl + S"`)
}

func TestJournalExport(t *testing.T) {
	dir := t.TempDir()
	journalDir := filepath.Join(dir, "journal")
	script := writeScript(t, "+Cmd +Z\nwait 10ms\nclick right 5 5\n")

	live, err := execute(t, dir, "replay", script, "--journal", "--journal-dir", journalDir, "--clicks-file", filepath.Join(dir, "clicks.json"))
	require.NoError(t, err)

	out, err := execute(t, dir, "journal", "export", "--journal-dir", journalDir)
	require.NoError(t, err)
	assert.Equal(t, strings.SplitN(live, "\n", 2)[1], out)

	out, err = execute(t, dir, "journal", "export", "--journal-dir", journalDir, "--until", "1000")
	require.NoError(t, err)
	assert.Empty(t, out)

	until := time.Now().Add(time.Hour).Format(time.RFC3339)
	out, err = execute(t, dir, "journal", "clicks", "--journal-dir", journalDir, "--until", until)
	require.NoError(t, err)
	assert.Contains(t, out, `"button": "Button.right"`)

	_, err = execute(t, dir, "journal", "export", "--journal-dir", journalDir, "--since", "yesterday")
	assert.ErrorContains(t, err, "invalid --since")
}

func TestKeymapCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, dir, "keymap")
	require.NoError(t, err)
	assert.Equal(t, "vk\nevdev\nuiohook\nhid\n", out)

	out, err = execute(t, dir, "keymap", "VK")
	require.NoError(t, err)
	assert.Contains(t, out, "CODE")
	assert.Regexp(t, `(?m)^65\s+0x41\s+letter\s+A$`, out)

	_, err = execute(t, dir, "keymap", "dvorak")
	assert.Error(t, err)
}

func TestConfigFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keybridge.yml"), []byte("backend: evdev\nlog:\n  level: debug\nevdev:\n  grab: true\n"), 0o644))

	out, err := execute(t, dir, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: evdev")
	assert.Contains(t, out, "level: debug")
	assert.Contains(t, out, "grab: true")

	out, err = execute(t, dir, "config", "--backend", "hid", "--log-level", "warn")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: hid")
	assert.Contains(t, out, "level: warn")

	_, err = execute(t, dir, "config", "--log-level", "chatty")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, dir, "config", "init", "--backend", "evdev")
	require.NoError(t, err)
	path := filepath.Join(dir, "keybridge.yml")
	assert.Equal(t, path+"\n", out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: evdev")

	_, err = execute(t, dir, "config", "init")
	assert.ErrorContains(t, err, "already exists")
}

func TestParseTime(t *testing.T) {
	at, err := parseTime("1700000000.5")
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1700000000, 500_000_000), at)

	at, err = parseTime("2024-03-01T12:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), at.UTC())

	at, err = parseTime("")
	require.NoError(t, err)
	assert.True(t, at.IsZero())
}

func TestHelpListsBackends(t *testing.T) {
	out, err := execute(t, t.TempDir(), "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "input backend (evdev, gohook, hid, script)")
}
