package format

import (
	"bytes"
	"encoding/json"
)

type field struct {
	key   string
	value any
}

// orderedFields marshals as a JSON object with keys in slice order.
type orderedFields []field

func (f orderedFields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item.key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(item.value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// appendFields merges extra keys into an already marshalled, non-empty object.
func appendFields(object []byte, extra orderedFields) ([]byte, error) {
	tail, err := extra.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return object, nil
	}

	merged := make([]byte, 0, len(object)+len(tail))
	merged = append(merged, object[:len(object)-1]...)
	merged = append(merged, ',')
	merged = append(merged, tail[1:]...)

	return merged, nil
}
