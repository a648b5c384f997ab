package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/mymmrac/telego"

	"github.com/Youmto/SHAREMONEY/internal/bot"
	"github.com/Youmto/SHAREMONEY/internal/config"
	"github.com/Youmto/SHAREMONEY/internal/database"
	"github.com/Youmto/SHAREMONEY/internal/fraud"
	"github.com/Youmto/SHAREMONEY/internal/logger"
	"github.com/Youmto/SHAREMONEY/internal/notify"
	"github.com/Youmto/SHAREMONEY/internal/service"
	"github.com/Youmto/SHAREMONEY/internal/session"
	"github.com/Youmto/SHAREMONEY/internal/storage"
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

	// Users talk to the user bot, so notifications and broadcasts go out
	// through a sender built on its token, not the admin bot's.
	userSender, err := telego.NewBot(cfg.UserBotToken)
	if err != nil {
		zlog.Fatalw("create user sender", "error", err)
	}
	notifier := notify.NewTelegramNotifier(userSender, zlog)
	broadcaster := notify.NewBroadcaster(userSender, zlog)

	sessions := session.NewStore(rdb)
	detector := fraud.NewDetector(db, cfg, zlog)
	analyzer := fraud.NewAnalyzer(detector)

	users := service.NewUsers(db, cfg, zlog)
	videos := service.NewVideos(db, cfg, zlog, media)
	shares := service.NewShares(db, cfg, zlog, notifier)
	withdrawals := service.NewWithdrawals(db, cfg, zlog, notifier)
	testimonials := service.NewTestimonials(db, zlog)
	helpVideos := service.NewHelpVideos(db, zlog, media)
	blacklist := service.NewBlacklist(db, zlog)
	stats := service.NewStats(db, cfg)

	adminBot, err := bot.NewAdminBot(cfg.AdminBotToken, bot.AdminBotDeps{
		Cfg:          cfg,
		Log:          zlog,
		Sessions:     sessions,
		Users:        users,
		Videos:       videos,
		Shares:       shares,
		Withdrawals:  withdrawals,
		Testimonials: testimonials,
		HelpVideos:   helpVideos,
		Blacklist:    blacklist,
		Stats:        stats,
		Analyzer:     analyzer,
		Media:        media,
		Broadcaster:  broadcaster,
	})
	if err != nil {
		zlog.Fatalw("create admin bot", "error", err)
	}

	zlog.Info("admin bot service starting")
	if err := adminBot.Start(ctx); err != nil {
		zlog.Fatalw("admin bot stopped", "error", err)
	}
}
