package concentration

import "fmt"

const encodedLen = 2*Size*Size + 1

// [Logic] implements [encoding.BinaryMarshaler], which lets it travel inside
// gob-encoded game state.
func (l *Logic) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, encodedLen)
	for y := range Size {
		for x := range Size {
			buf = append(buf, byte(l.pattern[y][x]))
		}
	}
	for y := range Size {
		for x := range Size {
			var b byte
			if l.played[y][x] {
				b = 1
			}
			buf = append(buf, b)
		}
	}
	return append(buf, byte(l.totalPairs)), nil
}

func (l *Logic) UnmarshalBinary(data []byte) error {
	if len(data) != encodedLen {
		return fmt.Errorf("%w: length %d, want %d", ErrMalformed, len(data), encodedLen)
	}
	var decoded Logic
	for i := range Size * Size {
		shape := Shape(data[i])
		if !shape.Valid() {
			return fmt.Errorf("%w: shape %d at %d", ErrMalformed, data[i], i)
		}
		decoded.pattern[i/Size][i%Size] = shape

		switch data[Size*Size+i] {
		case 0:
		case 1:
			decoded.played[i/Size][i%Size] = true
		default:
			return fmt.Errorf("%w: played flag %d at %d", ErrMalformed, data[Size*Size+i], i)
		}
	}
	decoded.totalPairs = int(data[encodedLen-1])
	if decoded.totalPairs > MaxPairs {
		return fmt.Errorf("%w: %d pairs", ErrMalformed, decoded.totalPairs)
	}
	*l = decoded
	return nil
}
