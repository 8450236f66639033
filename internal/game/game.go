package game

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vancomm/concentration/internal/concentration"
)

const (
	// RevealDelay is how long two picked cells stay face up.
	RevealDelay  = 500 * time.Millisecond
	DefaultPairs = concentration.MaxPairs
)

var Log = logrus.New()

var (
	ErrBusy     = errors.New("two cells are already showing")
	ErrGameOver = errors.New("game is over")
)

type Phase int8

const (
	// Picking means no cell or one cell of the turn is face up.
	Picking Phase = iota
	// Showing means two cells are face up and waiting for [State.Resolve].
	Showing
	Over
)

func (p Phase) String() string {
	switch p {
	case Picking:
		return "picking"
	case Showing:
		return "showing"
	case Over:
		return "over"
	default:
		return fmt.Sprintf("Phase(%d)", int8(p))
	}
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Outcome tells a driver what a pick did.
type Outcome int8

const (
	Ignored Outcome = iota
	Void
	First
	Second
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Void:
		return "void"
	case First:
		return "first"
	case Second:
		return "second"
	default:
		return fmt.Sprintf("Outcome(%d)", int8(o))
	}
}

// State is one game of Concentration: the board plus the turn in progress.
type State struct {
	Logic     concentration.Logic
	Phase     Phase
	Matched   int
	Picks     []Point
	Match     bool
	Won       bool
	Forfeited bool
	Elapsed   time.Duration
}

// NewState starts a game with the given number of pairs.
func NewState(pairs int, r *rand.Rand) (*State, error) {
	s := &State{}
	if err := s.Restart(pairs, r); err != nil {
		return nil, err
	}
	return s, nil
}

// Restart clears the board and counters and deals a fresh pattern.
func (s *State) Restart(pairs int, r *rand.Rand) error {
	var logic concentration.Logic
	if err := logic.RandomCreate(pairs, r); err != nil {
		return err
	}
	*s = State{Logic: logic}
	Log.WithField("pairs", pairs).Debugf("new board\n%s", logic.PatternString())
	return nil
}

func (s *State) TotalPairs() int {
	return s.Logic.TotalPairs()
}

func (s *State) Remaining() int {
	return s.Logic.TotalPairs() - s.Matched
}

// Pick reveals the cell at (x, y).
func (s *State) Pick(x, y int) (Outcome, error) {
	playable, err := s.Logic.Playable(x, y)
	if err != nil {
		return Ignored, err
	}
	switch s.Phase {
	case Over:
		return Ignored, ErrGameOver
	case Showing:
		return Ignored, ErrBusy
	}
	if !playable {
		return Ignored, nil
	}
	if err := s.Logic.SetPlayed(x, y, true); err != nil {
		return Ignored, err
	}
	shape, err := s.Logic.Shape(x, y)
	if err != nil {
		return Ignored, err
	}
	if shape == concentration.Empty {
		return Void, nil
	}

	if len(s.Picks) == 0 {
		s.Picks = append(s.Picks, Point{x, y})
		return First, nil
	}

	first := s.Picks[0]
	firstShape, err := s.Logic.Shape(first.X, first.Y)
	if err != nil {
		return Ignored, err
	}
	s.Picks = append(s.Picks, Point{x, y})
	s.Match, err = s.Logic.Compare(x, y, firstShape)
	if err != nil {
		return Ignored, err
	}
	s.Phase = Showing
	Log.WithFields(logrus.Fields{
		"first":  first,
		"second": Point{x, y},
		"match":  s.Match,
	}).Debug("pair picked")
	return Second, nil
}

// Resolve ends the showing phase: a matching pair stays face up, a mismatched
// one is turned back down. It is a no-op in any other phase.
func (s *State) Resolve() error {
	if s.Phase != Showing {
		return nil
	}
	if s.Match {
		s.Matched++
	} else {
		for _, p := range s.Picks {
			if err := s.Logic.SetPlayed(p.X, p.Y, false); err != nil {
				return err
			}
		}
	}
	s.Picks = s.Picks[:0]
	s.Match = false
	s.Phase = Picking

	done, err := s.Logic.Done(s.Matched)
	if err != nil {
		return err
	}
	if done {
		s.Phase = Over
		s.Won = true
		Log.WithField("elapsed", s.Elapsed).Debug("game won")
	}
	return nil
}

// Tick advances the play clock unless the game is over.
func (s *State) Tick(d time.Duration) {
	if s.Phase != Over {
		s.Elapsed += d
	}
}

func (s *State) Forfeit() {
	if s.Phase == Over {
		return
	}
	s.Phase = Over
	s.Forfeited = true
}

func (s *State) Over() bool {
	return s.Phase == Over
}

func DecodeState(buf []byte) (*State, error) {
	var s State
	if err := gob.NewDecoder(bytes.NewBuffer(buf)).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *State) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
