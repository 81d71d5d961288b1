package motion

import (
	"context"

	"github.com/gwillem/pastabot/pkg/robot"
)

// scripted reports settled states from a script, one entry per poll.
// The last entry repeats once the script is exhausted.
type scripted struct {
	name   string
	script []bool
	polls  int
	err    error
	moves  []robot.Move
	resets int
	pos    int
}

func (f *scripted) Name() string    { return f.name }
func (f *scripted) Connected() bool { return true }

func (f *scripted) MoveToAbs(ctx context.Context, m robot.Move) error {
	f.moves = append(f.moves, m)
	f.pos = m.Position
	return nil
}

func (f *scripted) Settled(ctx context.Context) (bool, error) {
	i := f.polls
	f.polls++
	if f.err != nil {
		return false, f.err
	}
	if len(f.script) == 0 {
		return true, nil
	}
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	return f.script[i], nil
}

func (f *scripted) Position(ctx context.Context) (int, error) { return f.pos, nil }

func (f *scripted) ResetAndStop(ctx context.Context) error {
	f.resets++
	return nil
}

func newBody(left, right robot.Actuator) *robot.Body {
	return robot.NewBody(map[robot.Role]robot.Actuator{
		robot.Left:  left,
		robot.Right: right,
	})
}
