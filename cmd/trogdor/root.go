package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nathoo/trogdor/cli"
	"github.com/nathoo/trogdor/config"
	"github.com/nathoo/trogdor/engine"
	"github.com/nathoo/trogdor/engine/metrics"
	"github.com/nathoo/trogdor/engine/script"
	"github.com/nathoo/trogdor/engine/timer"
	"github.com/nathoo/trogdor/engine/world"
	"github.com/nathoo/trogdor/loader"
	"github.com/nathoo/trogdor/tui"
)

// scriptCallTimeout bounds a single Lua handler call.
const scriptCallTimeout = 250 * time.Millisecond

type options struct {
	configFile string
	envFile    string
	script     string
	trace      bool
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var o options

	cmd := &cobra.Command{
		Use:   "trogdor [game-dir]",
		Short: "Play a trogdor text adventure.",
		Long: `Trogdor loads a game directory of Lua definition files, starts the ` +
			`game clock and lets you play in a terminal UI or, with --plain or ` +
			`--script, on plain standard input and output.`,
		Args:         cobra.MaximumNArgs(1),
		Version:      fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				v.Set("game.dir", args[0])
			}
			return run(cmd, v, o)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&o.configFile, "config", "", "YAML configuration file")
	fl.StringVar(&o.envFile, "env-file", ".env", "file of TROGDOR_* variables to load if present")
	fl.StringVar(&o.script, "script", "", "read commands from a file instead of the terminal (implies --plain)")
	fl.BoolVar(&o.trace, "trace", false, "print the outcome of every command")
	fl.Bool("plain", false, "use the line-oriented interface")
	fl.String("player", "", "name of your character")
	mustBind(v, "ui.plain", cmd, "plain")
	mustBind(v, "game.player", cmd, "player")

	return cmd
}

func mustBind(v *viper.Viper, key string, cmd *cobra.Command, flag string) {
	if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func run(cmd *cobra.Command, v *viper.Viper, o options) error {
	cfg, err := config.Load(v, config.Options{File: o.configFile, EnvFile: o.envFile})
	if err != nil {
		return err
	}
	useTUI := o.script == "" && !cfg.UI.Plain && isTerminal()
	var logger *zap.Logger
	if useTUI {
		home, _ := os.UserHomeDir()
		logger = tuiLogger(cfg.Logging, home)
	} else if logger, err = cfg.Logging.Logger(); err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	loaded, g, rt, err := setup(cfg, logger, metrics.New(reg))
	if err != nil {
		return err
	}
	defer rt.Close()
	player := loaded.NewPlayer(cfg.Game.Player)
	if err := g.AddPlayer(player, loaded.StartRoom()); err != nil {
		return err
	}
	logger.Info("game loaded",
		zap.String("title", loaded.Title),
		zap.String("dir", cfg.Game.Dir),
		zap.Int("entities", loaded.World.Len()),
		zap.Int("bindings", len(loaded.Bindings)),
		zap.Int("guards", len(loaded.Guards)),
		zap.Duration("period", cfg.Timer.Period),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error { return g.Run(ctx) })

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		eg.Go(func() error {
			logger.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		eg.Go(func() error {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	eg.Go(func() error {
		// The game ends when the player leaves, whichever front end they use.
		defer cancel()
		return play(ctx, cmd, useTUI, o, loaded, g, player)
	})

	return eg.Wait()
}

// setup loads the game directory and its scripts and builds the engine
// around the resulting world. The player is not added yet. The caller owns
// the returned script runtime.
func setup(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*loader.Game, *engine.Game, *script.Lua, error) {
	seed := cfg.Game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	loaded, err := loader.Load(cfg.Game.Dir,
		loader.WithLogger(logger.Named("loader")),
		loader.WithRNG(world.NewRNG(seed)),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading game: %w", err)
	}

	rt := script.NewLua(
		script.WithLogger(logger.Named("script")),
		script.WithCallTimeout(scriptCallTimeout),
	)
	fail := func(err error) (*loader.Game, *engine.Game, *script.Lua, error) {
		rt.Close()
		return nil, nil, nil, err
	}
	if err := loader.LoadScripts(cfg.Game.Dir, rt); err != nil {
		return fail(err)
	}
	if err := loader.CheckBindings(loaded, rt); err != nil {
		return fail(err)
	}

	policy, err := cfg.Policy()
	if err != nil {
		return fail(err)
	}
	g := engine.New(loaded.World,
		engine.WithLogger(logger),
		engine.WithPolicy(policy),
		engine.WithMetrics(m),
		engine.WithTimerOptions(timer.WithPeriod(cfg.Timer.Period)),
		engine.WithRuntime(rt),
	)
	for _, b := range loaded.Bindings {
		if err := g.Bind(b.Entity, b.Event, b.Function); err != nil {
			return fail(fmt.Errorf("binding %s to %s: %w", b.Function, b.Event, err))
		}
	}
	for _, gd := range loaded.Guards {
		if err := g.Guard(gd.Entity, gd.Event, gd.When, gd.Message); err != nil {
			return fail(fmt.Errorf("guarding %s: %w", gd.Event, err))
		}
	}
	return loaded, g, rt, nil
}

// play runs the chosen front end until the player quits or ctx is done.
func play(ctx context.Context, cmd *cobra.Command, useTUI bool, o options,
	loaded *loader.Game, g *engine.Game, player *world.Player) error {

	if useTUI {
		s := cli.NewSession(g, player)
		s.Trace = o.trace
		return tui.Run(ctx, s, tui.Header{
			Title:   loaded.Title,
			Version: loaded.Version,
			Author:  loaded.Author,
			Intro:   loaded.Intro,
		})
	}

	out := cmd.OutOrStdout()
	c := cli.New(g, player, loaded.Intro)
	c.Out = out
	c.Trace = o.trace
	if o.script != "" {
		f, err := os.Open(o.script)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		c.In = f
		c.EchoInput = true
	}
	printHeader(out, loaded)
	return c.Run(ctx)
}

// tuiLogger builds the logger used while the terminal UI owns the screen.
// It writes to the configured file, or to ~/.trogdor/trogdor.log, and
// discards everything when neither can be opened.
func tuiLogger(c config.LoggingConfig, home string) *zap.Logger {
	if c.File == "" {
		if home == "" {
			return zap.NewNop()
		}
		dir := filepath.Join(home, ".trogdor")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return zap.NewNop()
		}
		c.File = filepath.Join(dir, "trogdor.log")
	}
	l, err := c.Logger()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func printHeader(w io.Writer, g *loader.Game) {
	line := g.Title
	if g.Version != "" {
		line += " v" + g.Version
	}
	if g.Author != "" {
		line += " by " + g.Author
	}
	fmt.Fprintf(w, "%s\n\n", line)
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
