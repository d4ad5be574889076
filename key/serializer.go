package key

import "github.com/vmihailenco/msgpack/v5"

// Serializer converts a value to and from the bytes stored in the shared
// tier. Implementations are selected per use case via Descriptor.Serializer
// and must be safe for concurrent use.
type Serializer interface {
	Serialize(value any) ([]byte, error)
	Deserialize(data []byte) (any, error)
}

// DefaultSerializer is the package-wide default: a general-purpose binary
// object serializer backed by msgpack, grounded on the shared-tier encoding
// used throughout the agentuity-go-common cache package. It round-trips
// any msgpack-encodable Go value, including maps, slices, and structs with
// exported fields.
var DefaultSerializer Serializer = msgpackSerializer{}

type msgpackSerializer struct{}

func (msgpackSerializer) Serialize(value any) ([]byte, error) {
	return msgpack.Marshal(value)
}

func (msgpackSerializer) Deserialize(data []byte) (any, error) {
	var v any
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
