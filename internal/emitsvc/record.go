package emitsvc

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/neuroplastio/keybridge/internal/combo"
)

const (
	TypeKeyCombo = "keycombo"
	// TypeClick is the bus topic and journal kind of clicks. Click records
	// carry no type field on the wire.
	TypeClick = "click"
)

// ComboRecord is the wire form of a combo emission.
type ComboRecord struct {
	Type  string  `json:"type"`
	Combo string  `json:"combo"`
	TS    float64 `json:"ts"`
}

func NewComboRecord(e combo.Emission) ComboRecord {
	return ComboRecord{
		Type:  TypeKeyCombo,
		Combo: e.Combo,
		TS:    e.Seconds(),
	}
}

// ClickRecord is the wire form of a mouse button press. Button names follow
// the "Button.left" convention hosts already parse.
type ClickRecord struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Button string `json:"button"`
	TimeMs int64  `json:"timeMs"`
}

func NewClickRecord(x, y int, button string, at time.Time) ClickRecord {
	return ClickRecord{
		X:      x,
		Y:      y,
		Button: ButtonName(button),
		TimeMs: at.UnixMilli(),
	}
}

func ButtonName(button string) string {
	switch button {
	case "left", "right", "middle":
		return "Button." + button
	default:
		return "Button.unknown"
	}
}

// Record is either a combo or a click.
type Record struct {
	Combo *ComboRecord
	Click *ClickRecord
}

func (r Record) Time() time.Time {
	switch {
	case r.Combo != nil:
		return time.Unix(0, int64(r.Combo.TS*float64(time.Second)))
	case r.Click != nil:
		return time.UnixMilli(r.Click.TimeMs)
	}
	return time.Time{}
}

func (r Record) Kind() string {
	if r.Click != nil {
		return TypeClick
	}
	return TypeKeyCombo
}

func (r Record) MarshalJSON() ([]byte, error) {
	switch {
	case r.Combo != nil:
		return json.Marshal(r.Combo)
	case r.Click != nil:
		return json.Marshal(r.Click)
	}
	return nil, errors.New("empty record")
}

// UnmarshalJSON tells records apart by the "type" field; clicks have none.
func (r *Record) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Type == TypeKeyCombo {
		var rec ComboRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		*r = Record{Combo: &rec}
		return nil
	}
	var rec ClickRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*r = Record{Click: &rec}
	return nil
}
