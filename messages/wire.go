package messages

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Envelope oneof field numbers.
const (
	fieldPosition      protowire.Number = 1
	fieldUserAction    protowire.Number = 2
	fieldTrackerAdded  protowire.Number = 3
	fieldTrackerStatus protowire.Number = 4
)

// Size returns the number of bytes MarshalAppend will produce.
func (e *Envelope) Size() int {
	if e == nil {
		return 0
	}
	switch p := e.Payload.(type) {
	case *Position:
		return sizeMessage(fieldPosition, p.size())
	case *UserAction:
		return sizeMessage(fieldUserAction, p.size())
	case *TrackerAdded:
		return sizeMessage(fieldTrackerAdded, p.size())
	case *TrackerStatus:
		return sizeMessage(fieldTrackerStatus, p.size())
	}
	return 0
}

// MarshalAppend appends the wire encoding of e to b.
func (e *Envelope) MarshalAppend(b []byte) []byte {
	if e == nil {
		return b
	}
	switch p := e.Payload.(type) {
	case *Position:
		b = appendMessageHeader(b, fieldPosition, p.size())
		return p.appendTo(b)
	case *UserAction:
		b = appendMessageHeader(b, fieldUserAction, p.size())
		return p.appendTo(b)
	case *TrackerAdded:
		b = appendMessageHeader(b, fieldTrackerAdded, p.size())
		return p.appendTo(b)
	case *TrackerStatus:
		b = appendMessageHeader(b, fieldTrackerStatus, p.size())
		return p.appendTo(b)
	}
	return b
}

// Marshal returns the wire encoding of e.
func (e *Envelope) Marshal() []byte {
	return e.MarshalAppend(make([]byte, 0, e.Size()))
}

// Unmarshal decodes an Envelope. When several oneof fields are present the
// last one wins.
func Unmarshal(b []byte) (*Envelope, error) {
	e := &Envelope{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType {
			return skip(num, typ, b)
		}
		var p interface {
			Payload
			unmarshal([]byte) error
		}
		switch num {
		case fieldPosition:
			p = &Position{}
		case fieldUserAction:
			p = &UserAction{}
		case fieldTrackerAdded:
			p = &TrackerAdded{}
		case fieldTrackerStatus:
			p = &TrackerStatus{}
		default:
			return skip(num, typ, b)
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		if err := p.unmarshal(v); err != nil {
			return 0, err
		}
		e.Payload = p
		return n, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode envelope")
	}
	return e, nil
}

// Position fields.
const (
	fieldPosTrackerID  protowire.Number = 1
	fieldPosX          protowire.Number = 2
	fieldPosY          protowire.Number = 3
	fieldPosZ          protowire.Number = 4
	fieldPosQx         protowire.Number = 5
	fieldPosQy         protowire.Number = 6
	fieldPosQz         protowire.Number = 7
	fieldPosQw         protowire.Number = 8
	fieldPosDataSource protowire.Number = 9
)

// x, y and z are proto3 optional and always set by the driver, so they are
// always emitted.
func (p *Position) size() int {
	n := sizeVarint(fieldPosTrackerID, int64(p.TrackerID))
	n += 3 * (protowire.SizeTag(fieldPosX) + protowire.SizeFixed32())
	n += sizeFloat(fieldPosQx, p.Qx) + sizeFloat(fieldPosQy, p.Qy)
	n += sizeFloat(fieldPosQz, p.Qz) + sizeFloat(fieldPosQw, p.Qw)
	n += sizeVarint(fieldPosDataSource, int64(p.DataSource))
	return n
}

func (p *Position) appendTo(b []byte) []byte {
	b = appendVarint(b, fieldPosTrackerID, int64(p.TrackerID))
	b = appendFixedFloat(b, fieldPosX, p.X)
	b = appendFixedFloat(b, fieldPosY, p.Y)
	b = appendFixedFloat(b, fieldPosZ, p.Z)
	b = appendFloat(b, fieldPosQx, p.Qx)
	b = appendFloat(b, fieldPosQy, p.Qy)
	b = appendFloat(b, fieldPosQz, p.Qz)
	b = appendFloat(b, fieldPosQw, p.Qw)
	return appendVarint(b, fieldPosDataSource, int64(p.DataSource))
}

func (p *Position) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldPosTrackerID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			p.TrackerID = int32(v)
			return n, nil
		case num == fieldPosDataSource && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			p.DataSource = DataSource(v)
			return n, nil
		case num >= fieldPosX && num <= fieldPosQw && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			f := math.Float32frombits(v)
			switch num {
			case fieldPosX:
				p.X = f
			case fieldPosY:
				p.Y = f
			case fieldPosZ:
				p.Z = f
			case fieldPosQx:
				p.Qx = f
			case fieldPosQy:
				p.Qy = f
			case fieldPosQz:
				p.Qz = f
			case fieldPosQw:
				p.Qw = f
			}
			return n, nil
		}
		return skip(num, typ, b)
	})
}

// UserAction fields.
const (
	fieldActionName      protowire.Number = 1
	fieldActionArguments protowire.Number = 2
)

func (a *UserAction) size() int {
	return sizeString(fieldActionName, a.Name) + sizeStringMap(fieldActionArguments, a.Arguments)
}

func (a *UserAction) appendTo(b []byte) []byte {
	b = appendString(b, fieldActionName, a.Name)
	return appendStringMap(b, fieldActionArguments, a.Arguments)
}

func (a *UserAction) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType {
			return skip(num, typ, b)
		}
		switch num {
		case fieldActionName:
			v, n := protowire.ConsumeString(b)
			a.Name = v
			return n, nil
		case fieldActionArguments:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			key, value, err := unmarshalMapEntry(v)
			if err != nil {
				return 0, err
			}
			if a.Arguments == nil {
				a.Arguments = make(map[string]string)
			}
			a.Arguments[key] = value
			return n, nil
		}
		return skip(num, typ, b)
	})
}

// TrackerAdded fields.
const (
	fieldAddedTrackerID protowire.Number = 1
	fieldAddedSerial    protowire.Number = 2
	fieldAddedName      protowire.Number = 3
	fieldAddedRole      protowire.Number = 4
)

func (t *TrackerAdded) size() int {
	return sizeVarint(fieldAddedTrackerID, int64(t.TrackerID)) +
		sizeString(fieldAddedSerial, t.TrackerSerial) +
		sizeString(fieldAddedName, t.TrackerName) +
		sizeVarint(fieldAddedRole, int64(t.TrackerRole))
}

func (t *TrackerAdded) appendTo(b []byte) []byte {
	b = appendVarint(b, fieldAddedTrackerID, int64(t.TrackerID))
	b = appendString(b, fieldAddedSerial, t.TrackerSerial)
	b = appendString(b, fieldAddedName, t.TrackerName)
	return appendVarint(b, fieldAddedRole, int64(t.TrackerRole))
}

func (t *TrackerAdded) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldAddedTrackerID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			t.TrackerID = int32(v)
			return n, nil
		case num == fieldAddedRole && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			t.TrackerRole = TrackerRole(v)
			return n, nil
		case num == fieldAddedSerial && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			t.TrackerSerial = v
			return n, nil
		case num == fieldAddedName && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			t.TrackerName = v
			return n, nil
		}
		return skip(num, typ, b)
	})
}

// TrackerStatus fields. Field 3 (extra) is not modelled and is skipped.
const (
	fieldStatusTrackerID  protowire.Number = 1
	fieldStatusStatus     protowire.Number = 2
	fieldStatusConfidence protowire.Number = 4
)

// confidence is proto3 optional and always emitted.
func (s *TrackerStatus) size() int {
	return sizeVarint(fieldStatusTrackerID, int64(s.TrackerID)) +
		sizeVarint(fieldStatusStatus, int64(s.Status)) +
		protowire.SizeTag(fieldStatusConfidence) + protowire.SizeVarint(uint64(int64(s.Confidence)))
}

func (s *TrackerStatus) appendTo(b []byte) []byte {
	b = appendVarint(b, fieldStatusTrackerID, int64(s.TrackerID))
	b = appendVarint(b, fieldStatusStatus, int64(s.Status))
	b = protowire.AppendTag(b, fieldStatusConfidence, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(int64(s.Confidence)))
}

func (s *TrackerStatus) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.VarintType {
			return skip(num, typ, b)
		}
		switch num {
		case fieldStatusTrackerID:
			v, n := protowire.ConsumeVarint(b)
			s.TrackerID = int32(v)
			return n, nil
		case fieldStatusStatus:
			v, n := protowire.ConsumeVarint(b)
			s.Status = Status(v)
			return n, nil
		case fieldStatusConfidence:
			v, n := protowire.ConsumeVarint(b)
			s.Confidence = Confidence(v)
			return n, nil
		}
		return skip(num, typ, b)
	})
}

// walk iterates over the fields of one message. fn consumes the field value
// starting at b and returns the number of bytes used; a negative count is a
// protowire parse error code.
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		n, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}

func skip(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	return protowire.ConsumeFieldValue(num, typ, b), nil
}

func sizeMessage(num protowire.Number, n int) int {
	return protowire.SizeTag(num) + protowire.SizeBytes(n)
}

func appendMessageHeader(b []byte, num protowire.Number, n int) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendVarint(b, uint64(n))
}

// int32 and enum values are sign-extended to 64 bits on the wire.
func sizeVarint(num protowire.Number, v int64) int {
	if v == 0 {
		return 0
	}
	return protowire.SizeTag(num) + protowire.SizeVarint(uint64(v))
}

func appendVarint(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

// Zero is detected on the bit pattern so that -0 survives a round trip.
func sizeFloat(num protowire.Number, v float32) int {
	if math.Float32bits(v) == 0 {
		return 0
	}
	return protowire.SizeTag(num) + protowire.SizeFixed32()
}

func appendFloat(b []byte, num protowire.Number, v float32) []byte {
	if math.Float32bits(v) == 0 {
		return b
	}
	return appendFixedFloat(b, num, v)
}

func appendFixedFloat(b []byte, num protowire.Number, v float32) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(v))
}

func sizeString(num protowire.Number, s string) int {
	if s == "" {
		return 0
	}
	return protowire.SizeTag(num) + protowire.SizeBytes(len(s))
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// Map entries carry the key as field 1 and the value as field 2. Both are
// always written.
func mapEntrySize(key, value string) int {
	return protowire.SizeTag(1) + protowire.SizeBytes(len(key)) +
		protowire.SizeTag(2) + protowire.SizeBytes(len(value))
}

func sizeStringMap(num protowire.Number, m map[string]string) int {
	n := 0
	for k, v := range m {
		n += sizeMessage(num, mapEntrySize(k, v))
	}
	return n
}

func appendStringMap(b []byte, num protowire.Number, m map[string]string) []byte {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := m[k]
		b = appendMessageHeader(b, num, mapEntrySize(k, v))
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, k)
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, v)
	}
	return b
}

func unmarshalMapEntry(b []byte) (key, value string, err error) {
	err = walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType || (num != 1 && num != 2) {
			return skip(num, typ, b)
		}
		v, n := protowire.ConsumeString(b)
		if num == 1 {
			key = v
		} else {
			value = v
		}
		return n, nil
	})
	return key, value, err
}
