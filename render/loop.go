package render

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Canvas is the drawing surface the loop renders to.
type Canvas interface {
	ClearBuffer()
	DrawLine(x0, y0, x1, y1 int)
	DrawStr(x, y int, s string) int
	SendBuffer() error
}

// Pacing selects how the loop waits between frames.
type Pacing int

const (
	// PacingFixed sleeps FrameDelay after every frame, whatever the frame
	// took to render.
	PacingFixed Pacing = iota
	// PacingAdaptive sleeps what is left of FrameDelay after rendering.
	PacingAdaptive
)

// ParsePacing parses "fixed" or "adaptive".
func ParsePacing(s string) (Pacing, error) {
	switch s {
	case "", "fixed":
		return PacingFixed, nil
	case "adaptive":
		return PacingAdaptive, nil
	}
	return 0, fmt.Errorf("render: unknown pacing %q", s)
}

func (p Pacing) String() string {
	if p == PacingAdaptive {
		return "adaptive"
	}
	return "fixed"
}

// Opts is the configuration of a Loop.
type Opts struct {
	// Overlay text, drawn with its baseline at (TextX, TextY). Empty
	// disables it.
	Text         string
	TextX, TextY int

	// Angle increments per frame, in radians
	StepX, StepY float64

	FrameDelay time.Duration
	Pacing     Pacing
}

// DefaultOpts targets about 60 frames per second.
var DefaultOpts = Opts{
	Text:       "Hello World!",
	TextX:      0,
	TextY:      10,
	StepX:      0.05,
	StepY:      0.08,
	FrameDelay: 16 * time.Millisecond,
	Pacing:     PacingFixed,
}

const statsEvery = 600

// Loop renders the rotating cube frame after frame.
//
// A Loop is driven by a single goroutine; only Stop may be called
// concurrently.
type Loop struct {
	c    Canvas
	opts Opts
	rot  Rotation

	running atomic.Bool
	sleep   func(time.Duration)
	now     func() time.Time

	frames   uint64
	failures uint64
	failing  bool

	statsFrom time.Time
}

// New returns a loop drawing on c. opts can be nil to use DefaultOpts.
func New(c Canvas, opts *Opts) *Loop {
	if opts == nil {
		opts = &DefaultOpts
	}
	l := &Loop{
		c:     c,
		opts:  *opts,
		sleep: time.Sleep,
		now:   time.Now,
	}
	l.running.Store(true)
	return l
}

// Run renders paced frames until Stop is called.
func (l *Loop) Run() {
	logrus.Infof("Render loop started, %v per frame, %v pacing", l.opts.FrameDelay, l.opts.Pacing)
	l.statsFrom = l.now()
	for l.running.Load() {
		l.paced()
	}
	logrus.Infof("Render loop stopped after %d frames", l.frames)
}

// RunFrames renders up to n paced frames, fewer if Stop is called.
func (l *Loop) RunFrames(n int) {
	for i := 0; i < n && l.running.Load(); i++ {
		l.paced()
	}
}

// Stop makes Run return after the current frame.
func (l *Loop) Stop() {
	l.running.Store(false)
}

func (l *Loop) paced() {
	start := l.now()
	l.Step()
	l.pace(start)
	if l.frames%statsEvery == 0 && logrus.IsLevelEnabled(logrus.DebugLevel) {
		now := l.now()
		if el := now.Sub(l.statsFrom); el > 0 {
			logrus.Debugf("Render loop: %.1f fps, %d flush failures", float64(statsEvery)/el.Seconds(), l.failures)
		}
		l.statsFrom = now
	}
}

// Step renders one frame without pacing and advances the rotation.
//
// The flush error is returned for information only; the next frame is
// rendered the same way regardless.
func (l *Loop) Step() error {
	l.c.ClearBuffer()

	pts := l.rot.Project()
	for _, e := range cubeEdges {
		a, b := pts[e[0]], pts[e[1]]
		l.c.DrawLine(int(a.X), int(a.Y), int(b.X), int(b.Y))
	}
	if l.opts.Text != "" {
		l.c.DrawStr(l.opts.TextX, l.opts.TextY, l.opts.Text)
	}

	err := l.c.SendBuffer()
	l.rot.Advance(l.opts.StepX, l.opts.StepY)
	l.frames++

	if err != nil {
		l.failures++
		if !l.failing {
			logrus.Warnf("Frame %d: flush failed: %v", l.frames, err)
		}
	} else if l.failing {
		logrus.Infof("Frame %d: flush recovered", l.frames)
	}
	l.failing = err != nil
	return err
}

// pace waits before the next frame.
func (l *Loop) pace(start time.Time) {
	d := l.opts.FrameDelay
	if l.opts.Pacing == PacingAdaptive {
		d -= l.now().Sub(start)
	}
	if d > 0 {
		l.sleep(d)
	}
}

// Rotation returns the angles the next frame will use.
func (l *Loop) Rotation() Rotation {
	return l.rot
}

// Frames returns the number of rendered frames.
func (l *Loop) Frames() uint64 {
	return l.frames
}

// Failures returns the number of frames whose flush failed.
func (l *Loop) Failures() uint64 {
	return l.failures
}
