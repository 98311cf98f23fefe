package content

import (
	"encoding/json"
	"fmt"
)

// StringOrNamed is one entry of a source list that holds either bare strings
// or objects such as {"id": 6, "name": "PC"}.
type StringOrNamed struct {
	Value string
	Named bool
}

// decodeStringOrNamed reads a decoded JSON value as a StringOrNamed entry,
// pulling prop out of objects. It reports false for any other shape.
func decodeStringOrNamed(v any, prop string) (StringOrNamed, bool) {
	switch e := v.(type) {
	case string:
		return StringOrNamed{Value: e}, true
	case map[string]any:
		if prop == "" {
			return StringOrNamed{}, false
		}
		s, ok := e[prop].(string)
		if !ok {
			return StringOrNamed{}, false
		}
		return StringOrNamed{Value: s, Named: true}, true
	default:
		return StringOrNamed{}, false
	}
}

// NameList is a list of display names. Decoding accepts strings or
// objects with a "name" field so older snapshots keep loading.
type NameList []string

// UnmarshalJSON implements json.Unmarshaler.
func (n *NameList) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("name list: %w", err)
	}
	if raw == nil {
		*n = nil
		return nil
	}

	out := make(NameList, 0, len(raw))
	for _, v := range raw {
		if e, ok := decodeStringOrNamed(v, "name"); ok && e.Value != "" {
			out = append(out, e.Value)
		}
	}
	*n = out
	return nil
}
