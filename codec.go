package bridge

import (
	"github.com/pkg/errors"

	"github.com/Zereker/vrbridge/messages"
)

// Codec is the payload serializer used inside frames. The framing layer
// treats it as opaque: it only needs the encoded size up front and the
// ability to encode into, and decode from, a caller-owned byte range.
type Codec interface {
	// Size returns the exact number of bytes MarshalTo will write for env.
	Size(env *messages.Envelope) int
	// MarshalTo encodes env into dst, which is at least Size(env) bytes
	// long, and returns the number of bytes written.
	MarshalTo(dst []byte, env *messages.Envelope) (int, error)
	// Unmarshal decodes one envelope from src. src is only valid for the
	// duration of the call.
	Unmarshal(src []byte) (*messages.Envelope, error)
}

// ProtobufCodec encodes envelopes with the protobuf wire format.
type ProtobufCodec struct{}

func (ProtobufCodec) Size(env *messages.Envelope) int {
	return env.Size()
}

func (ProtobufCodec) MarshalTo(dst []byte, env *messages.Envelope) (int, error) {
	size := env.Size()
	if size > len(dst) {
		return 0, errors.Errorf("need %d bytes, have %d", size, len(dst))
	}
	out := env.MarshalAppend(dst[:0:size])
	if len(out) != size {
		return 0, errors.Errorf("failed to serialize: wrote %d bytes, expected %d", len(out), size)
	}
	return size, nil
}

func (ProtobufCodec) Unmarshal(src []byte) (*messages.Envelope, error) {
	env, err := messages.Unmarshal(src)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse")
	}
	return env, nil
}
