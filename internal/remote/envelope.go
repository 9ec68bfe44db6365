package remote

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/alexanderramin/weekgrid/internal/domain"
	"github.com/alexanderramin/weekgrid/internal/normalize"
)

// Envelope is the remote per-user document. The full state travels as a
// JSON string in Payload. UpdatedAt is stamped by the service on write.
//
// Documents written before the payload field existed hold the state at
// the top level; those decode with Legacy set instead of Payload.
type Envelope struct {
	Payload      string
	LastModified int64
	UpdatedAt    int64
	DeviceID     string
	Legacy       normalize.Raw
}

type wireEnvelope struct {
	Payload      string `json:"payload"`
	LastModified int64  `json:"lastModified"`
	UpdatedAt    int64  `json:"updatedAt,omitempty"`
	DeviceID     string `json:"deviceId,omitempty"`
}

// Encode wraps a serializable state for upload.
func Encode(s domain.SerializableState, deviceID string) (Envelope, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return Envelope{}, fmt.Errorf("encoding payload: %w", err)
	}
	return Envelope{Payload: string(data), LastModified: s.LastModified, DeviceID: deviceID}, nil
}

// State decodes the carried state and its lastModified. The timestamp is
// read from the state itself, 0 when absent.
func (e Envelope) State() (normalize.Raw, int64, error) {
	if e.Legacy != nil {
		return e.Legacy, millis(e.Legacy[domain.FieldLastModified]), nil
	}
	var raw normalize.Raw
	if err := json.Unmarshal([]byte(e.Payload), &raw); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		raw = normalize.Raw{}
	}
	return raw, millis(raw[domain.FieldLastModified]), nil
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Legacy != nil {
		out := make(map[string]json.RawMessage, len(e.Legacy)+1)
		for k, v := range e.Legacy {
			out[k] = v
		}
		if e.UpdatedAt != 0 {
			out["updatedAt"] = json.RawMessage(fmt.Sprint(e.UpdatedAt))
		}
		return json.Marshal(out)
	}
	return json.Marshal(wireEnvelope{
		Payload:      e.Payload,
		LastModified: e.LastModified,
		UpdatedAt:    e.UpdatedAt,
		DeviceID:     e.DeviceID,
	})
}

func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("%w: document is null", ErrMalformed)
	}

	*e = Envelope{
		LastModified: millis(raw["lastModified"]),
		UpdatedAt:    millis(raw["updatedAt"]),
	}
	_ = json.Unmarshal(raw["deviceId"], &e.DeviceID)

	if p, ok := raw["payload"]; ok && json.Unmarshal(p, &e.Payload) == nil {
		return nil
	}
	delete(raw, "updatedAt")
	delete(raw, "deviceId")
	e.Payload = ""
	e.Legacy = normalize.Raw(raw)
	return nil
}

// millis reads a non-negative JSON number, 0 for anything else.
func millis(v json.RawMessage) int64 {
	var f float64
	if len(v) == 0 || json.Unmarshal(v, &f) != nil || f < 0 || f > math.MaxInt64 {
		return 0
	}
	return int64(f)
}
