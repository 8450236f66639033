package concentration

import (
	"encoding/json"
	"fmt"
)

// Shape is the figure hidden under a cell.
type Shape int8

const (
	Empty Shape = iota
	Octagon
	Triangle
	Diamond
	Rectangle
	Oval
	Circle
)

// ShapeKinds is the number of non-empty shapes.
const ShapeKinds = 6

var shapeNames = [...]string{
	Empty:     "empty",
	Octagon:   "octagon",
	Triangle:  "triangle",
	Diamond:   "diamond",
	Rectangle: "rectangle",
	Oval:      "oval",
	Circle:    "circle",
}

func (s Shape) Valid() bool {
	return Empty <= s && s <= Circle
}

func (s Shape) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Shape(%d)", int8(s))
	}
	return shapeNames[s]
}

// [Shape] implements [json.Marshaler]
func (s Shape) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidShape, int8(s))
	}
	return json.Marshal(s.String())
}

func (s *Shape) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseShape(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParseShape(name string) (Shape, error) {
	for i, n := range shapeNames {
		if n == name {
			return Shape(i), nil
		}
	}
	return Empty, fmt.Errorf("%w: %q", ErrInvalidShape, name)
}
