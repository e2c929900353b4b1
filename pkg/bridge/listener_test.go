package bridge

import (
	"bytes"
	"testing"
	"time"

	"github.com/neuroplastio/keybridge/internal/emitsvc"
	"github.com/neuroplastio/keybridge/internal/inputsvc"
	"github.com/neuroplastio/keybridge/internal/keymap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestListenerTracksPressedKeys(t *testing.T) {
	now := func() time.Time { return time.Unix(1700000000, 0) }
	out := &bytes.Buffer{}
	var published []emitsvc.Record
	l := NewListener(zap.NewNop(), ModeAll, keymap.Evdev, now, emitsvc.New(zap.NewNop(), out), func(rec emitsvc.Record) {
		published = append(published, rec)
	})

	require.NoError(t, l.OnKeyDown(29)) // left ctrl
	require.NoError(t, l.OnKeyDown(1))  // esc, unrecognized
	require.NoError(t, l.OnKeyDown(97)) // right ctrl
	require.NoError(t, l.OnKeyDown(46)) // c
	assert.Equal(t, []string{"Ctrl", "C"}, l.Pressed())

	require.NoError(t, l.OnKeyUp(97))
	assert.Equal(t, []string{"C"}, l.Pressed())

	require.NoError(t, l.OnClick(inputsvc.Click{X: 3, Y: 4, Button: "left", Time: now()}))

	require.Len(t, published, 2)
	assert.Equal(t, "Ctrl + C", published[0].Combo.Combo)
	assert.Equal(t, emitsvc.TypeClick, published[1].Kind())
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("\n")))
}

func TestListenerReadyOnlyForKeys(t *testing.T) {
	out := &bytes.Buffer{}
	l := NewListener(zap.NewNop(), ModeClicks, keymap.VK, time.Now, emitsvc.New(zap.NewNop(), out), nil)
	require.NoError(t, l.OnReady())
	require.NoError(t, l.OnKeyDown(0xA2))
	require.NoError(t, l.OnKeyDown('A'))
	assert.Empty(t, out.String())

	l = NewListener(zap.NewNop(), ModeKeys, keymap.VK, time.Now, emitsvc.New(zap.NewNop(), out), nil)
	require.NoError(t, l.OnReady())
	require.NoError(t, l.OnReady())
	assert.Equal(t, emitsvc.ReadyLine+"\n", out.String())
}
