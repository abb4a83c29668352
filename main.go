package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/darve-social/darve-go/access"
	"github.com/darve-social/darve-go/config"
	"github.com/darve-social/darve-go/content"
	"github.com/darve-social/darve-go/db"
	"github.com/darve-social/darve-go/discussionuser"
	"github.com/darve-social/darve-go/filestorage"
	"github.com/darve-social/darve-go/identity"
	"github.com/darve-social/darve-go/ledger"
	"github.com/darve-social/darve-go/logger"
	"github.com/darve-social/darve-go/notify"
	"github.com/darve-social/darve-go/observability"
	"github.com/darve-social/darve-go/redisclient"
	"github.com/darve-social/darve-go/task"
	"github.com/darve-social/darve-go/transport"
	"github.com/darve-social/darve-go/wallet"
	"github.com/darve-social/darve-go/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)

	log.Info().Str("env", cfg.Env).Msg("darve starting")

	gdb, err := db.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	rc, err := redisclient.New(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("redis init failed — continuing without access-decision cache")
	} else if err := rc.Ping(); err != nil {
		log.Warn().Err(err).Msg("redis ping failed")
	} else {
		log.Info().Msg("redis connected")
	}

	users := identity.NewRegistry(gdb)
	graph := access.NewGraph(gdb)
	schema := identity.DefaultAccessControl()
	var accessCache *access.Cache
	if rc != nil {
		accessCache = access.NewCache(rc.Raw(), log, 30*time.Second)
	}
	checker := access.NewChecker(graph, schema, accessCache)

	communities := content.NewCommunityRepo(gdb)
	discussionRepo := content.NewDiscussionRepo(gdb)
	postRepo := content.NewPostRepo(gdb)
	replyRepo := content.NewReplyRepo(gdb)
	likeRepo := content.NewLikeRepo(gdb)
	tags := content.NewTagRepo(gdb)
	unread := discussionuser.NewLedger(gdb)

	discussions := content.NewDiscussionService(discussionRepo, checker, unread)
	posts := content.NewPostService(postRepo, discussionRepo, checker, unread, tags)
	replies := content.NewReplyService(replyRepo, postRepo, discussionRepo, checker)
	likes := content.NewLikeService(likeRepo, postRepo, discussionRepo, checker, users, cfg.MaxLikeCountPerAction)

	auditSink := ledger.NewGormSink(gdb)
	auditPipeline := ledger.NewPipeline(log, auditSink)
	auditPipeline.Start(context.Background())
	walletLock := wallet.NewKeyedMutex()
	walletLedger := wallet.NewLedger(gdb, walletLock).WithAuditRecorder(ledger.NewWalletRecorder(auditPipeline))

	bus := notify.NewBus(log)
	notifyStore := notify.NewStore(gdb)
	notifySvc := notify.NewService(bus, notifyStore)

	taskRequests := task.NewRepo(gdb)
	taskDonors := task.NewDonorRepo(gdb)
	taskParticipants := task.NewParticipantRepo(gdb)
	tasks := task.NewService(gdb, taskRequests, taskDonors, taskParticipants, checker, walletLedger, discussions, posts, communities, notifySvc)

	pagerduty := observability.NewPagerDutyClient(observability.DefaultPagerDutyConfig(), log)

	storage := filestorage.NewRegistry("local")
	storage.Register(filestorage.NewLocalBackend(getEnv("MEDIA_BASE_DIR", "./media"), getEnv("MEDIA_PUBLIC_URL", "http://localhost:8080/media")))
	storageHealthPoller := filestorage.NewHealthPoller(storage, log, 30*time.Second)
	storageHealthPoller.OnStatusChange(func(backend string, healthy bool, status filestorage.HealthStatus) {
		if healthy {
			if err := pagerduty.AlertStorageBackendRecovered(backend); err != nil {
				log.Warn().Err(err).Msg("pagerduty recovery alert failed")
			}
			return
		}
		if err := pagerduty.AlertStorageBackendDown(backend, status.Error); err != nil {
			log.Warn().Err(err).Msg("pagerduty outage alert failed")
		}
	})
	storageHealthPoller.Start()

	for _, migrator := range []interface{ Migrate() error }{
		users, graph, communities, discussionRepo, postRepo, replyRepo, likeRepo, tags,
		unread, walletLedger, notifyStore, taskRequests, taskDonors, taskParticipants,
	} {
		if err := migrator.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("schema migration failed")
		}
	}

	settlementWorker := worker.New(tasks, taskRequests, log, cfg.SettlementSweepInterval)
	settlementWorker.OnSettlementFailure(func(taskID string, consecutiveFailures int, lastErr string) {
		if consecutiveFailures >= 3 {
			if err := pagerduty.AlertSettlementFailures(taskID, consecutiveFailures, lastErr); err != nil {
				log.Warn().Err(err).Msg("pagerduty settlement alert failed")
			}
		}
	})
	settlementWorker.OnSettlementRecovered(func(taskID string) {
		if err := pagerduty.AlertSettlementRecovered(taskID); err != nil {
			log.Warn().Err(err).Msg("pagerduty settlement recovery alert failed")
		}
	})
	settlementWorker.Start()

	app := &transport.App{
		Logger:           log,
		Cfg:              cfg,
		Users:            users,
		Checker:          checker,
		Communities:      communities,
		Discussions:      discussions,
		Posts:            posts,
		Replies:          replies,
		Likes:            likes,
		Tags:             tags,
		Unread:           unread,
		Tasks:            tasks,
		TaskRequests:     taskRequests,
		TaskParticipants: taskParticipants,
		TaskDonors:       taskDonors,
		Wallet:           walletLedger,
		Notify:           notifySvc,
		Bus:              bus,
		Notes:            notifyStore,
		Storage:          storage,
	}
	app.OnInsufficientFundsSpike = func(count int, window string) {
		if err := pagerduty.AlertInsufficientFundsSpike(count, window); err != nil {
			log.Warn().Err(err).Msg("pagerduty insufficient-funds alert failed")
		}
	}

	r := transport.NewRouter(app)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.DefaultTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("darve listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-done
	log.Info().Msg("shutdown signal received")

	settlementWorker.Stop()
	storageHealthPoller.Stop()
	auditPipeline.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GracefulTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		log.Info().Msg("darve stopped gracefully")
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
