// Package stream broadcasts flock poses to websocket clients.
//
// Each tick is sent as one binary message in protobuf wire format:
//
//	field 1 (varint)  tick
//	field 2 (bytes)   packed little-endian float32 triples x, y, heading
//
// There is no generated code; field numbers are declared here and the frame
// is written and read with protowire directly.
package stream

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/Garsondee/Flock-Sense/internal/flock"
)

const (
	fieldTick  protowire.Number = 1
	fieldPoses protowire.Number = 2

	poseBytes = 3 * 4
)

// ErrMalformedFrame is returned by DecodeFrame for input that is not a frame.
var ErrMalformedFrame = errors.New("malformed frame")

// AppendFrame appends the wire encoding of f to b.
func AppendFrame(b []byte, f flock.Frame) []byte {
	b = protowire.AppendTag(b, fieldTick, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(f.Tick))

	b = protowire.AppendTag(b, fieldPoses, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(len(f.Poses)*poseBytes))
	for _, p := range f.Poses {
		b = protowire.AppendFixed32(b, math.Float32bits(float32(p.X)))
		b = protowire.AppendFixed32(b, math.Float32bits(float32(p.Y)))
		b = protowire.AppendFixed32(b, math.Float32bits(float32(p.Heading)))
	}
	return b
}

// EncodeFrame returns the wire encoding of f.
func EncodeFrame(f flock.Frame) []byte {
	return AppendFrame(make([]byte, 0, 16+len(f.Poses)*poseBytes), f)
}

// DecodeFrame parses a frame written by AppendFrame. Unknown fields are skipped.
func DecodeFrame(b []byte) (flock.Frame, error) {
	var f flock.Frame
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return f, fmt.Errorf("%w: tag: %v", ErrMalformedFrame, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldTick && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return f, fmt.Errorf("%w: tick: %v", ErrMalformedFrame, protowire.ParseError(n))
			}
			f.Tick = int(v)
			b = b[n:]

		case num == fieldPoses && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return f, fmt.Errorf("%w: poses: %v", ErrMalformedFrame, protowire.ParseError(n))
			}
			poses, err := decodePoses(raw)
			if err != nil {
				return f, err
			}
			f.Poses = append(f.Poses, poses...)
			b = b[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return f, fmt.Errorf("%w: field %d: %v", ErrMalformedFrame, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return f, nil
}

func decodePoses(raw []byte) ([]flock.Pose, error) {
	if len(raw)%poseBytes != 0 {
		return nil, fmt.Errorf("%w: pose block of %d bytes", ErrMalformedFrame, len(raw))
	}
	poses := make([]flock.Pose, 0, len(raw)/poseBytes)
	var v [3]float64
	for len(raw) > 0 {
		for k := range v {
			bits, n := protowire.ConsumeFixed32(raw)
			if n < 0 {
				return nil, fmt.Errorf("%w: pose: %v", ErrMalformedFrame, protowire.ParseError(n))
			}
			v[k] = float64(math.Float32frombits(bits))
			raw = raw[n:]
		}
		poses = append(poses, flock.Pose{X: v[0], Y: v[1], Heading: v[2]})
	}
	return poses, nil
}
