package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var ErrBadCommand = errors.New("bad command")

// Maps known commands to number of arguments
var commandNargs = map[string]int{
	"g": 0,
	"p": 2,
	"r": 0,
}

func parseXY(twoStrings []string) (x int, y int, err error) {
	if x, err = strconv.Atoi(twoStrings[0]); err != nil {
		err = fmt.Errorf("%w: first argument must be an int", ErrBadCommand)
		return
	}
	if y, err = strconv.Atoi(twoStrings[1]); err != nil {
		err = fmt.Errorf("%w: second argument must be an int", ErrBadCommand)
		return
	}
	return
}

// Execute interprets a single text command:
//
//	g     // no-op, fetch state
//	p x y // pick the cell at x:y
//	r     // resolve two face-up cells
//
// A pick issued while two cells are showing resolves them first, so
// scripted clients do not have to wait out [RevealDelay].
func (s *State) Execute(c string) error {
	parts := strings.Fields(c)
	if len(parts) == 0 {
		return fmt.Errorf("%w: empty command", ErrBadCommand)
	}
	nargs, ok := commandNargs[parts[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", ErrBadCommand, parts[0])
	}
	if nargs != len(parts)-1 {
		return fmt.Errorf("%w: %q takes %d arguments", ErrBadCommand, parts[0], nargs)
	}
	switch parts[0] {
	case "p":
		x, y, err := parseXY(parts[1:])
		if err != nil {
			return err
		}
		return s.PickResolving(x, y)
	case "r":
		return s.Resolve()
	}
	return nil
}

// PickResolving resolves a pending pair, if any, and picks (x, y).
func (s *State) PickResolving(x, y int) error {
	if err := s.Resolve(); err != nil {
		return err
	}
	out, err := s.Pick(x, y)
	if err != nil {
		return err
	}
	Log.WithFields(logrus.Fields{"x": x, "y": y, "outcome": out}).Debug("pick")
	return nil
}
