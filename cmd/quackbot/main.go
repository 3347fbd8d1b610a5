// Command quackbot joins a room and steers its player around a circle. It
// runs the same prediction loop a graphical client would.
package main

import (
	"context"
	"log"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/hako/durafmt"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"quack/client"
	"quack/game"
	"quack/protocol"
)

func main() {
	app := &cli.App{
		Name:  "quackbot",
		Usage: "headless player for load and smoke testing",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: "http://localhost:2567", Usage: "server base url"},
			&cli.StringFlag{Name: "room", Usage: "room code to join or create"},
			&cli.StringFlag{Name: "nickname", Value: "bot"},
			&cli.StringFlag{Name: "codec", Value: "json", Usage: "json or msgpack"},
			&cli.BoolFlag{Name: "start", Usage: "start the match once joined"},
			&cli.Float64Flag{Name: "radius", Value: 250, Usage: "radius of the steering circle"},
			&cli.DurationFlag{Name: "duration", Value: 30 * time.Second, Usage: "how long to play, 0 for ever"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type logListener struct {
	logger *log.Logger
	drv    *client.Driver
}

func (l *logListener) PhaseChanged(from, to string) {
	l.logger.Printf("phase %s -> %s", from, to)
	// Only steer while a match is on.
	l.drv.Movement.SetActive(to == string(game.PhasePlaying))
}

func (l *logListener) PlayersUpdated(players []protocol.PlayerState) {
	l.logger.Printf("%d players in room", len(players))
}

func (l *logListener) GameOptionsUpdated(opts protocol.GameOptions) {
	l.logger.Printf("options: %d colors, %d ducks each", len(opts.Colors), opts.DucksCount)
}

func (l *logListener) MatchTimeUpdated(startedAt int64, finalTime float64) {
	if finalTime > 0 && startedAt == 0 {
		d := time.Duration(finalTime * float64(time.Second))
		l.logger.Printf("match finished in %s", durafmt.Parse(d).LimitFirstN(2))
	}
}

func run(c *cli.Context) error {
	logger := log.New(os.Stderr, "quackbot ", log.LstdFlags)
	codec, err := protocol.CodecByName(c.String("codec"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()
	if d := c.Duration("duration"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	b, err := client.Connect(dialCtx, client.DialOptions{
		BaseURL:  c.String("server"),
		Nickname: c.String("nickname"),
		RoomCode: c.String("room"),
		Codec:    codec,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer b.Close()
	w := b.Welcome()
	logger.Printf("joined room %s as %s", w.RoomCode, w.SessionID)

	tuning := client.DefaultTuning()
	l := &logListener{logger: logger}
	drv := client.NewDriver(b.SelfID(), b.Events(), b, tuning, l)
	l.drv = drv

	if c.Bool("start") {
		if err := b.SetPhase(string(game.PhasePlaying)); err != nil {
			return err
		}
	}

	return play(ctx, drv, tuning, c.Float64("radius"))
}

// play runs the frame loop, moving the pointer around a circle in the
// middle of the world before each frame.
func play(ctx context.Context, drv *client.Driver, t client.Tuning, radius float64) error {
	interval := time.Second / time.Duration(t.TickHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	center := game.Vec{X: t.Width / 2, Y: t.Height / 2}
	angle := 0.0
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			angle += 2 * math.Pi / float64(4*t.TickHz)
			drv.Movement.PointerAt(center.Add(game.Vec{X: math.Cos(angle), Y: math.Sin(angle)}.Scale(radius)))
			if _, err := drv.Frame(now.Sub(last)); err != nil {
				if errors.Is(err, client.ErrClosed) {
					return nil
				}
				return err
			}
			last = now
		}
	}
}
