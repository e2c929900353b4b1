package emitsvc

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/neuroplastio/keybridge/internal/combo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEmitComboLine(t *testing.T) {
	out := &bytes.Buffer{}
	e := New(zap.NewNop(), out)

	at := time.Unix(1_700_000_000, 125_000_000)
	err := e.Emit(Record{Combo: ptrTo(NewComboRecord(combo.Emission{Combo: "Ctrl + Shift + A", Time: at}))})
	require.NoError(t, err)

	assert.Equal(t, `{"type":"keycombo","combo":"Ctrl + Shift + A","ts":1700000000.125}`+"\n", out.String())
	assert.Equal(t, Stats{Combos: 1}, e.Stats())
}

func TestEmitDoesNotEscapeSymbols(t *testing.T) {
	out := &bytes.Buffer{}
	e := New(zap.NewNop(), out)
	require.NoError(t, e.Emit(Record{Combo: &ComboRecord{Type: TypeKeyCombo, Combo: "Ctrl + ` + <", TS: 1}}))
	assert.Contains(t, out.String(), `"combo":"Ctrl + `+"`"+` + <"`)
}

func TestEmitClickLine(t *testing.T) {
	out := &bytes.Buffer{}
	e := New(zap.NewNop(), out)

	rec := NewClickRecord(640, 360, "left", time.UnixMilli(1_700_000_000_123))
	require.NoError(t, e.Emit(Record{Click: &rec}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, map[string]any{
		"x":      float64(640),
		"y":      float64(360),
		"button": "Button.left",
		"timeMs": float64(1_700_000_000_123),
	}, decoded)
	assert.Equal(t, Stats{Clicks: 1}, e.Stats())
}

func TestReadyOnce(t *testing.T) {
	out := &bytes.Buffer{}
	e := New(zap.NewNop(), out)
	require.NoError(t, e.Ready())
	require.NoError(t, e.Ready())
	require.NoError(t, e.Emit(Record{Combo: &ComboRecord{Type: TypeKeyCombo, Combo: "Ctrl + C", TS: 2}}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, ReadyLine, lines[0])
}

type brokenWriter struct{}

func (brokenWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestEmitWriteFailureIsReturned(t *testing.T) {
	e := New(zap.NewNop(), brokenWriter{})
	err := e.Emit(Record{Combo: &ComboRecord{Type: TypeKeyCombo, Combo: "Ctrl + C", TS: 2}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
	assert.Equal(t, Stats{}, e.Stats())

	assert.Error(t, New(zap.NewNop(), brokenWriter{}).Ready())
}

func TestRecordRoundTrip(t *testing.T) {
	click := NewClickRecord(1, 2, "side", time.UnixMilli(5))
	assert.Equal(t, "Button.unknown", click.Button)

	for _, rec := range []Record{
		{Combo: &ComboRecord{Type: TypeKeyCombo, Combo: "Alt + 1", TS: 1700000000.5}},
		{Click: &click},
	} {
		data, err := json.Marshal(rec)
		require.NoError(t, err)
		var decoded Record
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, rec, decoded)
		assert.Equal(t, rec.Time(), decoded.Time())
	}

	_, err := json.Marshal(Record{})
	assert.Error(t, err)
}

func ptrTo[T any](v T) *T {
	return &v
}
