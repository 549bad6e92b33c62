package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/survivordash/dash/internal/api"
	"github.com/survivordash/dash/internal/app"
	"github.com/survivordash/dash/internal/auth"
	"github.com/survivordash/dash/internal/checkpoint"
	"github.com/survivordash/dash/internal/config"
	"github.com/survivordash/dash/internal/data"
	"github.com/survivordash/dash/internal/logging"
	"github.com/survivordash/dash/internal/scripting"
	"go.uber.org/zap"
)

// flushGrace bounds how long shutdown waits for the session end and other
// outstanding requests.
const flushGrace = 3 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path("config/dash.toml"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Tuning tables
	tuning, err := data.LoadTuning(cfg.Game.TuningPath)
	if err != nil {
		return fmt.Errorf("load tuning: %w", err)
	}
	log.Info("數值表已載入",
		zap.Int("enemy_types", len(tuning.Enemy.Types)),
		zap.Int("power_up_types", len(tuning.PowerUp.Types)))

	// 4. Backend client and local stores
	opts := app.Options{
		Config: cfg,
		Tuning: tuning,
		Log:    log,
	}
	var client *api.Client
	if !cfg.Game.Offline {
		client = api.NewClient(cfg.API, log.Named("api"))
		defer client.Close()
		opts.API = client
		log.Info("後端", zap.String("base_url", cfg.API.BaseURL), zap.Int("workers", cfg.API.Workers))
	} else {
		log.Info("離線模式")
	}

	vault, err := auth.NewVault(cfg.Auth.TokenPath, cfg.Auth.VaultSecret)
	switch {
	case errors.Is(err, auth.ErrNoSecret):
		log.Info("未設定憑證密鑰，登入憑證不會保存")
	case err != nil:
		return fmt.Errorf("token vault: %w", err)
	default:
		opts.Tokens = vault
	}

	if cfg.Checkpoint.Path != "" {
		opts.Checkpoints = checkpoint.NewStore(cfg.Checkpoint.Path)
	}

	// 5. Lua autopilot
	engine, err := scripting.NewEngine(cfg.Game.ScriptsDir, log.Named("lua"))
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer engine.Close()
	if engine.Has(scripting.SteerFunc) {
		opts.Cursor = scripting.NewAutopilot(engine)
		log.Info("自動駕駛已啟用")
	}

	// 6. Screens
	a := app.New(opts)
	a.Start()
	drv := newDriver(a, cfg, log.Named("driver"))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	var deadline <-chan time.Time
	if cfg.Game.MaxRunTime > 0 {
		timer := time.NewTimer(cfg.Game.MaxRunTime)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(cfg.Game.TickRate)
	defer ticker.Stop()
	log.Info("遊戲迴圈啟動", zap.Duration("tick", cfg.Game.TickRate))

	// Close enqueues the session end; flush it before the deferred client
	// Close cancels the root scope.
	shutdown := func() {
		a.Close()
		if client != nil {
			client.Flush(flushGrace)
		}
	}

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			a.Tick(now.Sub(last))
			last = now
			drv.step()
			if a.Quitting() {
				shutdown()
				log.Info("遊戲結束，離開")
				return nil
			}
		case <-deadline:
			shutdown()
			log.Info("達到最長執行時間")
			return nil
		case sig := <-shutdownCh:
			log.Info("收到關閉信號", zap.String("signal", sig.String()))
			shutdown()
			return nil
		}
	}
}
