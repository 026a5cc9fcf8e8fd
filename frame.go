package bridge

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/Zereker/vrbridge/messages"
)

// HeaderSize is the length of the frame header on every platform.
const HeaderSize = 4

// WriteHeader writes the header for a payloadSize-byte message at the start
// of buf and returns the offset of the payload. The header value is the total
// frame length, header included. buf is not modified when the frame would
// not fit in it.
func WriteHeader(buf []byte, payloadSize int) (int, error) {
	if payloadSize < 0 {
		return 0, errors.Wrapf(ErrEmptyMessage, "negative payload size %d", payloadSize)
	}
	total := payloadSize + HeaderSize
	if total > len(buf) || uint64(total) > uint64(^uint32(0)) {
		return 0, errors.Wrapf(ErrFrameTooLarge, "frame of %d bytes exceeds buffer of %d", total, len(buf))
	}
	binary.LittleEndian.PutUint32(buf[:HeaderSize], uint32(total))
	return HeaderSize, nil
}

// ReadHeader decodes the header at the start of buf, of which available
// bytes are valid. It returns the payload offset and size. The payload size
// is not checked against any capacity.
func ReadHeader(buf []byte, available int) (offset, payloadSize int, err error) {
	if available < HeaderSize || len(buf) < HeaderSize {
		return 0, 0, errors.Wrapf(ErrShortHeader, "got %d bytes", available)
	}
	total := binary.LittleEndian.Uint32(buf[:HeaderSize])
	if total < HeaderSize {
		return 0, 0, errors.Wrapf(ErrMalformedHeader, "header length %d", total)
	}
	return HeaderSize, int(total - HeaderSize), nil
}

// encodeFrame writes the frame for env at the start of buf and returns its
// total length. Nothing is written when the frame is empty or too large.
func encodeFrame(buf []byte, codec Codec, env *messages.Envelope, op string) (int, error) {
	size := codec.Size(env)
	if size <= 0 {
		return 0, protocolError(op, ErrEmptyMessage)
	}

	offset, err := WriteHeader(buf, size)
	if err != nil {
		return 0, protocolError(op, errors.Wrap(err, "failed to write header"))
	}

	written, err := codec.MarshalTo(buf[offset:offset+size], env)
	if err != nil {
		return 0, encodingError(op, err)
	}
	if written != size {
		return 0, encodingError(op, errors.Errorf("codec wrote %d bytes, announced %d", written, size))
	}

	total := offset + written
	if total > len(buf) {
		return 0, protocolError(op, ErrFrameTooLarge)
	}
	return total, nil
}

// checkPayloadSize validates a decoded payload size before it is read.
func checkPayloadSize(size, max int, op string) error {
	if size <= 0 {
		return protocolError(op, ErrEmptyMessage)
	}
	if size > max {
		return protocolError(op, errors.Wrapf(ErrFrameTooLarge, "payload of %d bytes exceeds %d", size, max))
	}
	return nil
}
