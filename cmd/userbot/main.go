package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Youmto/SHAREMONEY/internal/bot"
	"github.com/Youmto/SHAREMONEY/internal/config"
	"github.com/Youmto/SHAREMONEY/internal/database"
	"github.com/Youmto/SHAREMONEY/internal/fraud"
	"github.com/Youmto/SHAREMONEY/internal/logger"
	"github.com/Youmto/SHAREMONEY/internal/service"
	"github.com/Youmto/SHAREMONEY/internal/session"
	"github.com/Youmto/SHAREMONEY/internal/storage"
	"github.com/Youmto/SHAREMONEY/internal/worker"
)

func main() {
	cfg := config.LoadConfig()

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Could not create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		zlog.Fatalw("connect to database", "error", err)
	}

	rdb, err := database.ConnectRedis(cfg)
	if err != nil {
		zlog.Fatalw("connect to redis", "error", err)
	}

	media, err := storage.NewClient(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatalw("init media storage", "error", err)
	}

	sessions := session.NewStore(rdb)
	detector := fraud.NewDetector(db, cfg, zlog)

	// The admin process owns outbound lifecycle notifications; nothing in
	// the user flows triggers one.
	users := service.NewUsers(db, cfg, zlog)
	videos := service.NewVideos(db, cfg, zlog, media)
	shares := service.NewShares(db, cfg, zlog, service.NopNotifier{})
	withdrawals := service.NewWithdrawals(db, cfg, zlog, service.NopNotifier{})
	testimonials := service.NewTestimonials(db, zlog)
	helpVideos := service.NewHelpVideos(db, zlog, media)

	sweeper, err := worker.NewExpirySweeper(videos, zlog)
	if err != nil {
		zlog.Fatalw("create expiry sweeper", "error", err)
	}
	if err := sweeper.Start(ctx); err != nil {
		zlog.Fatalw("start expiry sweeper", "error", err)
	}
	defer func() { _ = sweeper.Stop() }()

	userBot, err := bot.NewUserBot(cfg.UserBotToken, bot.UserBotDeps{
		Cfg:          cfg,
		Log:          zlog,
		Sessions:     sessions,
		Users:        users,
		Videos:       videos,
		Shares:       shares,
		Withdrawals:  withdrawals,
		Testimonials: testimonials,
		HelpVideos:   helpVideos,
		Detector:     detector,
		Media:        media,
	})
	if err != nil {
		zlog.Fatalw("create user bot", "error", err)
	}

	zlog.Info("user bot service starting")
	if err := userBot.Start(ctx); err != nil {
		zlog.Fatalw("user bot stopped", "error", err)
	}
}
