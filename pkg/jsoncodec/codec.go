// Package jsoncodec is a connect codec that carries plain Go structs as JSON.
// It lets handlers skip protobuf code generation while keeping the Connect
// protocol, interceptors and error model.
package jsoncodec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// Name matches connect's built-in JSON codec name so the content type stays
// application/json (or application/connect+json for streams).
const Name = "json"

type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string { return Name }

func (Codec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("jsoncodec: marshal %T: %w", msg, err)
	}
	return data, nil
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(msg); err != nil {
		return fmt.Errorf("jsoncodec: unmarshal %T: %w", msg, err)
	}
	return nil
}

// Option is the handler and client option that installs the codec.
func Option() connect.Option {
	return connect.WithCodec(Codec{})
}
