package telemetry

import (
	"encoding/json"

	"github.com/joeycumines/go-utilpkg/jsonenc"
)

// EncodeItem renders item as a single JSON line. AxialForce and
// TangentForce payloads, both fixed-size double vectors, are hand-encoded
// with jsonenc.AppendFloat64 to avoid encoding/json's reflection-heavy
// path over a 72/6-element array on every tick; every other item falls
// through to ordinary struct marshaling.
func EncodeItem(item Item) ([]byte, error) {
	var data json.RawMessage
	var err error

	switch v := item.Data.(type) {
	case AxialForce:
		data = encodeFloatVector("lutGravity", v.LutGravity[:])
	case TangentForce:
		data = encodeFloatVector("measured", v.Measured[:])
	default:
		data, err = json.Marshal(item.Data)
		if err != nil {
			return nil, err
		}
	}

	out := struct {
		Name      string          `json:"name"`
		Timestamp string          `json:"timestamp"`
		Data      json.RawMessage `json:"data"`
	}{
		Name:      item.Name,
		Timestamp: item.Timestamp.UTC().Format("2006-01-02T15:04:05.000000000Z"),
		Data:      data,
	}
	return json.Marshal(out)
}

func encodeFloatVector(field string, vals []float64) []byte {
	buf := make([]byte, 0, len(vals)*20+len(field)+8)
	buf = append(buf, '{', '"')
	buf = append(buf, field...)
	buf = append(buf, '"', ':', '[')
	for i, v := range vals {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = jsonenc.AppendFloat64(buf, v)
	}
	buf = append(buf, ']', '}')
	return buf
}
