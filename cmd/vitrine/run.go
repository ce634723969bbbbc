package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/taigrr/vitrine/pkg/config"
	"github.com/taigrr/vitrine/pkg/models"
	"github.com/taigrr/vitrine/pkg/remote"
	"github.com/taigrr/vitrine/pkg/viewer"
	"github.com/taigrr/vitrine/pkg/watch"
)

const (
	mouseOn  = "\x1b[?1003h\x1b[?1006h" // any-event tracking, SGR encoding
	mouseOff = "\x1b[?1003l\x1b[?1006l"
)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          "vitrine",
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
}

// openLog returns the log destination: path when set, otherwise fallback.
func openLog(path string, fallback io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return fallback, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open log file")
	}
	return f, f.Close, nil
}

// session bundles what both commands build from the config.
type session struct {
	viewer   *viewer.Viewer
	registry *models.Registry
	log      *log.Logger
	logOut   io.Writer
	close    func() error
}

func newSession(cfg config.Config, logFallback io.Writer, tune func(*viewer.Options)) (*session, error) {
	logOut, closeLog, err := openLog(cfg.Log.File, logFallback)
	if err != nil {
		return nil, err
	}
	logger := newLogger(logOut, cfg.LogLevel())

	opts, err := cfg.ViewerOptions()
	if err != nil {
		closeLog()
		return nil, err
	}
	opts.Logger = logger
	opts.Registry = models.DefaultRegistry(opts.MaxTextureSize)
	if tune != nil {
		tune(&opts)
	}

	v := viewer.New(opts)
	return &session{
		viewer:   v,
		registry: opts.Registry,
		log:      logger,
		logOut:   logOut,
		close: func() error {
			v.Close()
			return closeLog()
		},
	}, nil
}

func runInteractive(ctx context.Context, cfg config.Config, model string) error {
	if model == "" && !cfg.Remote.Enabled {
		return errors.New("a model path is required unless the control server is enabled (--remote)")
	}

	// The terminal is in the alt screen, so logs only go to a file.
	s, err := newSession(cfg, io.Discard, nil)
	if err != nil {
		return err
	}
	defer s.close()

	term := uv.DefaultTerminal()
	cols, rows, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(cols, rows)
	fmt.Fprint(os.Stdout, mouseOn)

	restored := false
	restore := func() {
		if restored {
			return
		}
		restored = true
		fmt.Fprint(os.Stdout, mouseOff)
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer restore()

	a := newApp(s.viewer, term, cols, rows, cfg.DrawOptions())
	a.overlay = os.Stdout
	a.erase = func() { term.Erase() }
	a.resizeTerm = func(cols, rows int) { term.Resize(cols, rows) }

	events, unsubscribe := s.viewer.Subscribe()
	defer unsubscribe()
	if model != "" {
		a.hud.Loading(model)
		s.viewer.LoadModel(model)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Quitting the viewer ends the session.
		defer cancel()
		return a.loop(ctx, term.Events(), events, cfg.Render.FPS)
	})
	if cfg.Remote.Enabled {
		srv := remote.New(s.viewer, s.registry, s.log, s.logOut)
		g.Go(func() error { return srv.Serve(ctx, cfg.Remote.Listen) })
	}
	if cfg.Watch.Enabled {
		w := watch.New(s.viewer, time.Duration(cfg.Watch.Debounce)*time.Millisecond, s.log)
		g.Go(func() error { return w.Run(ctx, model) })
	}

	err = g.Wait()
	restore()
	return err
}
