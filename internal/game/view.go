package game

import (
	"encoding/json"
	"fmt"

	"github.com/vancomm/concentration/internal/concentration"
)

type CellState int8

const (
	Hidden CellState = iota
	FaceUp
	Matched
	// Voided marks an empty cell that was picked.
	Voided
)

var cellStateNames = [...]string{
	Hidden:  "hidden",
	FaceUp:  "face_up",
	Matched: "matched",
	Voided:  "void",
}

func (c CellState) String() string {
	if c < Hidden || c > Voided {
		return fmt.Sprintf("CellState(%d)", int8(c))
	}
	return cellStateNames[c]
}

// [CellState] implements [json.Marshaler]
func (c CellState) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *CellState) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range cellStateNames {
		if n == name {
			*c = CellState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown cell state %q", name)
}

type Cell struct {
	State CellState           `json:"state"`
	Shape concentration.Shape `json:"shape"`
}

// View is what a player is allowed to see of a [State]. Shapes of face-down
// cells are never included.
type View struct {
	Cells      [concentration.Size][concentration.Size]Cell `json:"cells"`
	Phase      string                                       `json:"phase"`
	Score      int                                          `json:"score"`
	Remaining  int                                          `json:"remaining"`
	TotalPairs int                                          `json:"total_pairs"`
	Seconds    int                                          `json:"seconds"`
	Won        bool                                         `json:"won"`
	Over       bool                                         `json:"over"`
	Forfeited  bool                                         `json:"forfeited"`
}

func (s *State) isPick(x, y int) bool {
	for _, p := range s.Picks {
		if p.X == x && p.Y == y {
			return true
		}
	}
	return false
}

// CellAt classifies the cell at (x, y) for display.
func (s *State) CellAt(x, y int) (Cell, error) {
	playable, err := s.Logic.Playable(x, y)
	if err != nil {
		return Cell{}, err
	}
	shape, err := s.Logic.Shape(x, y)
	if err != nil {
		return Cell{}, err
	}
	switch {
	case playable:
		return Cell{State: Hidden}, nil
	case shape == concentration.Empty:
		return Cell{State: Voided}, nil
	case s.isPick(x, y):
		return Cell{State: FaceUp, Shape: shape}, nil
	default:
		return Cell{State: Matched, Shape: shape}, nil
	}
}

func (s *State) View() View {
	v := View{
		Phase:      s.Phase.String(),
		Score:      s.Matched,
		Remaining:  s.Remaining(),
		TotalPairs: s.TotalPairs(),
		Seconds:    int(s.Elapsed.Seconds()),
		Won:        s.Won,
		Over:       s.Over(),
		Forfeited:  s.Forfeited,
	}
	for y := range concentration.Size {
		for x := range concentration.Size {
			// in range by construction
			v.Cells[y][x], _ = s.CellAt(x, y)
		}
	}
	return v
}
