package concentration

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

const (
	// Size is the number of rows and columns of the board.
	Size = 5
	// MaxPairs is the largest number of pairs a board can hold.
	MaxPairs = (Size * Size) / 2
)

// Logic holds the board pattern and which cells are face up. The zero value
// is an empty board with no pairs.
type Logic struct {
	pattern    [Size][Size]Shape
	played     [Size][Size]bool
	totalPairs int
}

func NewLogic() *Logic {
	return &Logic{}
}

func validPoint(x, y int) bool {
	return 0 <= x && x < Size && 0 <= y && y < Size
}

func checkPoint(x, y int) error {
	if !validPoint(x, y) {
		return fmt.Errorf("%w: (%d, %d)", ErrOutOfRange, x, y)
	}
	return nil
}

// TotalPairs returns the number of pairs placed by the last [Logic.RandomCreate].
func (l *Logic) TotalPairs() int {
	return l.totalPairs
}

func (l *Logic) Shape(x, y int) (Shape, error) {
	if err := checkPoint(x, y); err != nil {
		return Empty, err
	}
	return l.pattern[y][x], nil
}

func (l *Logic) SetShape(x, y int, shape Shape) error {
	if err := checkPoint(x, y); err != nil {
		return err
	}
	if !shape.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidShape, int8(shape))
	}
	l.pattern[y][x] = shape
	return nil
}

// Playable reports whether the cell at (x, y) is face down.
func (l *Logic) Playable(x, y int) (bool, error) {
	if err := checkPoint(x, y); err != nil {
		return false, err
	}
	return !l.played[y][x], nil
}

// SetPlayed marks the cell at (x, y) unplayable (true) or playable (false).
func (l *Logic) SetPlayed(x, y int, state bool) error {
	if err := checkPoint(x, y); err != nil {
		return err
	}
	l.played[y][x] = state
	return nil
}

// Compare reports whether the cell at (x, y) holds guess.
func (l *Logic) Compare(x, y int, guess Shape) (bool, error) {
	if err := checkPoint(x, y); err != nil {
		return false, err
	}
	return l.pattern[y][x] == guess, nil
}

// Done reports whether matched equals the number of pairs on the board.
func (l *Logic) Done(matched int) (bool, error) {
	if matched < 0 {
		return false, fmt.Errorf("%w (matched = %d)", ErrNegativeMatch, matched)
	}
	if matched > l.totalPairs {
		return false, fmt.Errorf(
			"%w (matched = %d, total = %d)", ErrTooManyMatched, matched, l.totalPairs,
		)
	}
	return matched == l.totalPairs, nil
}

// Reset clears the pattern, the played grid and the pair count.
func (l *Logic) Reset() {
	*l = Logic{}
}

func (l *Logic) emptyCells() (n int) {
	for y := range Size {
		for x := range Size {
			if l.pattern[y][x] == Empty {
				n++
			}
		}
	}
	return
}

// RandomCreate places n pairs of shapes on empty cells. Each cell of a pair is
// picked uniformly among the empty cells by rejection sampling. Shapes are
// drawn from a shuffled bag of all kinds which is refilled once exhausted, so
// up to [ShapeKinds] pairs never share a shape.
func (l *Logic) RandomCreate(n int, r *rand.Rand) error {
	if n < 1 || n > MaxPairs {
		return fmt.Errorf("%w (n = %d)", ErrInvalidPairs, n)
	}
	if free := l.emptyCells(); free < 2*n {
		return fmt.Errorf("%w (pairs = %d, empty = %d)", ErrNoRoom, n, free)
	}
	l.totalPairs = n

	var bag []Shape
	for range n {
		if len(bag) == 0 {
			bag = []Shape{Octagon, Triangle, Diamond, Rectangle, Oval, Circle}
			r.Shuffle(len(bag), func(i, j int) { bag[i], bag[j] = bag[j], bag[i] })
		}
		shape := bag[len(bag)-1]
		bag = bag[:len(bag)-1]

		for range 2 {
			for {
				x, y := r.IntN(Size), r.IntN(Size)
				if l.pattern[y][x] == Empty {
					l.pattern[y][x] = shape
					break
				}
			}
		}
	}
	return nil
}

// PatternString renders the shape grid as rows of shape numbers.
func (l *Logic) PatternString() string {
	var b strings.Builder
	for y := range Size {
		for x := range Size {
			fmt.Fprintf(&b, "%d ", l.pattern[y][x])
		}
		b.WriteString("\n")
	}
	return b.String()
}

// PlayedString renders the played grid, 1 for face up and 0 for face down.
func (l *Logic) PlayedString() string {
	var b strings.Builder
	for y := range Size {
		for x := range Size {
			if l.played[y][x] {
				b.WriteString("1 ")
			} else {
				b.WriteString("0 ")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
