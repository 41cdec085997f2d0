package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/gridforge/editor/internal/config"
	"github.com/gridforge/editor/internal/console"
	"github.com/gridforge/editor/internal/data"
	"github.com/gridforge/editor/internal/level"
	"github.com/gridforge/editor/internal/persist"
	"github.com/gridforge/editor/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func printSection(title string) {
	fmt.Printf("\n  \033[36;1m── %s\033[0m\n", title)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printStat(label string, count int) {
	fmt.Printf("  %-24s \033[1m%d\033[0m\n", label, count)
}

func run() error {
	cfgPath := "config/editor.toml"
	if p := os.Getenv("TILEEDITOR_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printSection("data")
	pack, err := data.LoadModelPack(cfg.Data.ModelPack)
	if err != nil {
		return fmt.Errorf("load model pack: %w", err)
	}
	printStat("tile models", pack.Count())

	printSection("levels")
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	sess, err := session.New(cfg, pack, store, os.Stdout, log)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	defer sess.Close()
	printStat("script commands", len(sess.Scripts.Commands()))
	printOK(fmt.Sprintf("editor ready (frame: %s), type help", cfg.Loop.FrameRate))
	fmt.Println()

	in, err := consoleInput(cfg.Loop.ConsoleFile)
	if err != nil {
		return err
	}
	defer in.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pumpConsole(gctx, in, sess) })
	g.Go(func() error { return frameLoop(gctx, sess, cfg.Loop.FrameRate, log) })
	if err := g.Wait(); err != nil && !errors.Is(err, console.ErrQuit) {
		return err
	}
	return nil
}

// openStore picks the level store named by the config.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (level.Store, func(), error) {
	if cfg.Levels.Store != "postgres" {
		if err := os.MkdirAll(cfg.Levels.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("levels dir: %w", err)
		}
		printOK(fmt.Sprintf("file store %s", cfg.Levels.Dir))
		return level.NewFileStore(cfg.Levels.Dir), func() {}, nil
	}

	dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	db, err := persist.NewDB(dbCtx, cfg.Database, log.Named("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	if err := persist.RunMigrations(dbCtx, db.Pool); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	printOK("postgres store, migrations applied")
	return persist.NewLevelRepo(db, log.Named("levels")), db.Close, nil
}

func consoleInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("console file: %w", err)
	}
	return f, nil
}

// pumpConsole forwards input lines to the session. End of input quits.
func pumpConsole(ctx context.Context, in io.Reader, sess *session.Session) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				line = "quit"
			}
			if err := sess.Submit(ctx, line); err != nil {
				return nil
			}
			if !ok {
				return nil
			}
		}
	}
}

func frameLoop(ctx context.Context, sess *session.Session, rate time.Duration, log *zap.Logger) error {
	ticker := time.NewTicker(rate)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down", zap.Int("frames", sess.Frames()))
			return nil
		case now := <-ticker.C:
			err := sess.Frame(now.Sub(last))
			last = now
			if errors.Is(err, console.ErrQuit) {
				log.Info("quit requested", zap.Int("frames", sess.Frames()))
				return console.ErrQuit
			}
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
