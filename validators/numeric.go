package validators

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
)

// Numeric is a loosely typed number read from JSON or form input. It accepts
// JSON numbers and numeric strings; anything else is kept so that the
// validator, not the binder, reports it as a field error.
type Numeric struct {
	Value float64
	Raw   string
	Set   bool
	Valid bool
}

// NewNumeric returns a set, valid Numeric.
func NewNumeric(v float64) Numeric {
	return Numeric{Value: v, Raw: strconv.FormatFloat(v, 'f', -1, 64), Set: true, Valid: true}
}

func (n *Numeric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Numeric{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return n.UnmarshalParam(s)
	}

	n.parse(string(data))
	return nil
}

// UnmarshalParam implements echo.BindUnmarshaler for form and query values.
func (n *Numeric) UnmarshalParam(param string) error {
	param = strings.TrimSpace(param)
	if param == "" {
		*n = Numeric{}
		return nil
	}
	n.parse(param)
	return nil
}

func (n Numeric) MarshalJSON() ([]byte, error) {
	if !n.Set || !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (n *Numeric) parse(raw string) {
	*n = Numeric{Raw: raw, Set: true}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return
	}
	n.Value = f
	n.Valid = true
}

// Uint truncates the value to an unsigned id; invalid or negative values yield 0.
func (n Numeric) Uint() uint {
	if !n.Valid || n.Value < 0 {
		return 0
	}
	return uint(n.Value)
}

// numericValue exposes a Numeric to validator tags: nil when absent, the raw
// text when it does not parse, the float otherwise.
func numericValue(field reflect.Value) interface{} {
	n, ok := field.Interface().(Numeric)
	if !ok || !n.Set {
		return nil
	}
	if !n.Valid {
		return n.Raw
	}
	return n.Value
}
