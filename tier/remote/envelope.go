package remote

import "github.com/vmihailenco/msgpack/v5"

// envelope wraps a serialized value with the millisecond timestamp it was
// written at, so a later read can compare it against a watermark for
// (key_type, id) and decide whether the value predates an invalidation.
// Only used for envelope keys whose descriptor has TrackForInvalidation set;
// untracked writes store the serialized payload bare.
type envelope struct {
	Payload   []byte `msgpack:"p"`
	CreatedAt int64  `msgpack:"c"` // milliseconds since epoch
}

func encodeEnvelope(e envelope) ([]byte, error) {
	return msgpack.Marshal(e)
}

func decodeEnvelope(data []byte) (envelope, error) {
	var e envelope
	err := msgpack.Unmarshal(data, &e)
	return e, err
}
