package transfer

import (
	"encoding/json"
	"fmt"
)

// Control message kinds. Control messages travel as text frames so the
// receiving side can split them from binary chunks by frame type alone,
// and as JSON so a browser peer speaks the same protocol.
const (
	KindMeta   = "meta"
	KindUnlock = "unlock"
	KindDone   = "done"
)

// Meta announces the file before any bytes flow. PasswordHash is a
// SHA-256 hex digest when the sender set a password, empty otherwise;
// the plaintext never crosses the channel.
type Meta struct {
	Kind         string `json:"kind"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	Type         string `json:"type"`
	PasswordHash string `json:"pw,omitempty"`
}

// Unlock is the receiver's verdict on the password gate.
type Unlock struct {
	Kind string `json:"kind"`
	OK   bool   `json:"ok"`
}

// Done marks the end of the chunk stream.
type Done struct {
	Kind string `json:"kind"`
}

func NewMeta(name string, size int64, mimeType, passwordHash string) Meta {
	return Meta{Kind: KindMeta, Name: name, Size: size, Type: mimeType, PasswordHash: passwordHash}
}

func NewUnlock(ok bool) Unlock {
	return Unlock{Kind: KindUnlock, OK: ok}
}

func NewDone() Done {
	return Done{Kind: KindDone}
}

// encodeControl renders a control message for a text frame.
func encodeControl(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseControl decodes a text frame into one of *Meta, *Unlock or
// *Done.
func ParseControl(data []byte) (any, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse control message: %w", err)
	}

	switch probe.Kind {
	case KindMeta:
		var m Meta
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse meta: %w", err)
		}
		return &m, nil
	case KindUnlock:
		var u Unlock
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, fmt.Errorf("parse unlock: %w", err)
		}
		return &u, nil
	case KindDone:
		return &Done{Kind: KindDone}, nil
	default:
		return nil, fmt.Errorf("unknown control kind %q", probe.Kind)
	}
}
