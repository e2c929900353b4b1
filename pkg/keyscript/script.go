// Package keyscript parses replay scripts of key and mouse events.
//
// A script is line oriented:
//
//	// comment
//	+Ctrl +Shift +A
//	-A
//	+"-"
//	+#192
//	wait 400ms
//	click left 100 200
//
// "+" presses a key and "-" releases it. Keys are named canonically (Ctrl,
// Shift, Alt, Cmd, A-Z, 0-9 and punctuation, quoted when it would clash with
// the syntax) or by a raw code in the replaying source's keymap.
package keyscript

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/neuroplastio/keybridge/internal/combo"
)

const (
	ButtonLeft   = "left"
	ButtonRight  = "right"
	ButtonMiddle = "middle"
)

// Step is a single action of a script.
type Step struct {
	Line int

	Wait  time.Duration
	Key   *KeyStep
	Click *ClickStep
}

type KeyStep struct {
	Down bool
	// Key is set for named keys, Raw for "#code" references.
	Key combo.Key
	Raw *uint16
}

func (k KeyStep) String() string {
	prefix := "-"
	if k.Down {
		prefix = "+"
	}
	if k.Raw != nil {
		return fmt.Sprintf("%s#%d", prefix, *k.Raw)
	}
	return prefix + k.Key.Name
}

type ClickStep struct {
	Button string
	X      int
	Y      int
}

type Script struct {
	Steps []Step
}

func ParseString(s string) (Script, error) {
	return Parse(strings.NewReader(s))
}

func Parse(r io.Reader) (Script, error) {
	var script Script
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "//") {
			continue
		}
		stmt, err := ParseStatement(text)
		if err != nil {
			return Script{}, fmt.Errorf("line %d: %w", line, err)
		}
		steps, err := compile(line, stmt)
		if err != nil {
			return Script{}, fmt.Errorf("line %d: %w", line, err)
		}
		script.Steps = append(script.Steps, steps...)
	}
	if err := scanner.Err(); err != nil {
		return Script{}, fmt.Errorf("failed to read script: %w", err)
	}
	return script, nil
}

func compile(line int, stmt Statement) ([]Step, error) {
	switch {
	case stmt.Wait != nil:
		return []Step{{Line: line, Wait: time.Duration(*stmt.Wait)}}, nil
	case stmt.Click != nil:
		switch stmt.Click.Button {
		case ButtonLeft, ButtonRight, ButtonMiddle:
		default:
			return nil, fmt.Errorf("unknown mouse button %q", stmt.Click.Button)
		}
		return []Step{{Line: line, Click: &ClickStep{
			Button: stmt.Click.Button,
			X:      stmt.Click.X,
			Y:      stmt.Click.Y,
		}}}, nil
	}

	steps := make([]Step, 0, len(stmt.Keys))
	for _, ks := range stmt.Keys {
		step := &KeyStep{Down: ks.Action == "+"}
		switch {
		case ks.Key.Raw != nil:
			if *ks.Key.Raw < 0 || *ks.Key.Raw > 0xFFFF {
				return nil, fmt.Errorf("raw code out of range: %d", *ks.Key.Raw)
			}
			raw := uint16(*ks.Key.Raw)
			step.Raw = &raw
		case ks.Key.Name != nil:
			key, err := combo.ParseKey(*ks.Key.Name)
			if err != nil {
				return nil, err
			}
			step.Key = key
		}
		steps = append(steps, Step{Line: line, Key: step})
	}
	return steps, nil
}
