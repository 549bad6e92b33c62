package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/survivordash/dash/internal/backend"
	"github.com/survivordash/dash/internal/config"
	"github.com/survivordash/dash/internal/data"
	"github.com/survivordash/dash/internal/logging"
	"github.com/survivordash/dash/internal/persist"
	"go.uber.org/zap"
)

const tokenPurgeInterval = time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	memory := flag.Bool("memory", false, "keep accounts in memory instead of PostgreSQL")
	flag.Parse()

	cfg, err := config.Load(config.Path("config/dash.toml"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store backend.Store
	if *memory || cfg.Backend.DSN == "" {
		store = backend.NewMemoryStore()
		log.Warn("使用記憶體儲存，重啟後資料會遺失")
	} else {
		initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(initCtx, cfg.Backend, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()

		version, err := persist.RunMigrations(initCtx, db.Pool, log)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		log.Info("資料庫遷移完成", zap.Int64("version", version))

		pg := persist.NewPgStore(db)
		go purgeTokens(ctx, pg.Tokens, log)
		store = pg
	}

	api := backend.NewServer(store, cfg.Backend, log.Named("http"))
	if cfg.Backend.SkillsPath != "" {
		skills, err := data.LoadSkills(cfg.Backend.SkillsPath)
		if err != nil {
			return fmt.Errorf("load skills: %w", err)
		}
		api.SetSkills(skills)
		log.Info("技能表已載入", zap.Int("skills", len(skills.Skills)))
	}

	srv := &http.Server{
		Addr:              cfg.Backend.BindAddress,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("後端啟動", zap.String("addr", srv.Addr), zap.Bool("production", cfg.Backend.Production))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("收到關閉信號")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("後端已停止")
	return nil
}

func purgeTokens(ctx context.Context, tokens *persist.TokenRepo, log *zap.Logger) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := tokens.PurgeExpired(ctx, now)
			if err != nil {
				log.Warn("清除過期憑證失敗", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("已清除過期憑證", zap.Int64("count", n))
			}
		}
	}
}
