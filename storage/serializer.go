package storage

import (
	"errors"

	jsoniter "github.com/json-iterator/go"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes event payloads for the bus.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

var stdJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONCodec implements Codec using a std-compatible json-iterator config.
type JSONCodec struct{}

// Marshal serializes a value to JSON.
func (JSONCodec) Marshal(v any) ([]byte, error) {
	return stdJSON.Marshal(v)
}

// Unmarshal deserializes a value from JSON.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	return stdJSON.Unmarshal(data, v)
}

// Name returns "json".
func (JSONCodec) Name() string { return "json" }

// MsgpackCodec implements Codec using msgpack.
type MsgpackCodec struct{}

// Marshal serializes a value to msgpack.
func (MsgpackCodec) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal deserializes a value from msgpack.
func (MsgpackCodec) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

// Name returns "msgpack".
func (MsgpackCodec) Name() string { return "msgpack" }

// ErrUnsupportedFormat is returned by GetCodec for unknown formats.
var ErrUnsupportedFormat = errors.New("unsupported serialization format")

// GetCodec returns a codec for the given format ("json" or "msgpack").
func GetCodec(format string) (Codec, error) {
	switch format {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	default:
		return nil, errors.Join(ErrUnsupportedFormat, errors.New(format))
	}
}
