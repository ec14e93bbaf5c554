package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lostfound-bot/config"
	"lostfound-bot/controllers"
	"lostfound-bot/dialog"
	"lostfound-bot/matcher"
	"lostfound-bot/media"
	"lostfound-bot/middlewares"
	"lostfound-bot/models"
	"lostfound-bot/routes"
	"lostfound-bot/session"
	"lostfound-bot/store"
	"lostfound-bot/utils"
	"lostfound-bot/verification"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	sessionKeyPrefix = "session:"
	shutdownTimeout  = 10 * time.Second
)

// app holds the wired dependencies of one process.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	now      func() time.Time
	reports  store.Reports
	stories  store.Stories
	sessions *session.Manager
	redis    *redis.Client
	closers  []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, now: time.Now}

	var (
		mongoStore *store.MongoStore
		mem        *store.MemoryStore
	)
	switch cfg.StoreBackend {
	case config.BackendMongo:
		client, db, err := config.ConnectDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Disconnect)
		mongoStore = store.NewMongoStore(db, log)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		a.reports, a.stories = mongoStore, mongoStore
		log.WithField("database", cfg.MongoDatabase).Info("connected to MongoDB")
	default:
		mem = store.NewMemoryStore()
		a.reports, a.stories = mem, mem
		log.Warn("using in-memory store; data is lost on restart")
	}

	if cfg.SessionBackend == config.BackendRedis || cfg.WebhookRateLimit > 0 {
		client, err := config.ConnectRedis(ctx, cfg)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.redis = client
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		log.WithField("address", cfg.RedisAddress).Info("connected to Redis")
	}

	var sessions store.Sessions
	switch cfg.SessionBackend {
	case config.BackendRedis:
		sessions = store.NewRedisSessions(a.redis, sessionKeyPrefix, cfg.SessionMaxAge+cfg.SweepInterval, log)
	case config.BackendMongo:
		sessions = mongoStore
	default:
		if mem == nil {
			mem = store.NewMemoryStore()
		}
		sessions = mem
	}
	a.sessions = session.NewManager(sessions, a.now, log)
	return a, nil
}

func (a *app) engine() *dialog.Engine {
	fetcher := media.NewHTTPFetcher(a.cfg.TwilioAccountSID, a.cfg.TwilioAuthToken, a.cfg.MaxImageBytes, a.cfg.MediaHosts...)
	return dialog.New(dialog.Deps{
		Reports:  a.reports,
		Stories:  a.stories,
		Sessions: a.sessions,
		Matcher:  matcher.New(a.cfg.MatchMode, a.now),
		Verifier: verification.NewEngine(a.reports, a.now),
		Ingestor: media.NewIngestor(fetcher, a.cfg.MediaTimeout),
		Now:      a.now,
		Log:      a.log,
	}, dialog.Options{
		BotName:          a.cfg.BotName,
		ImageIntake:      a.cfg.ImageIntake,
		SearchMode:       a.cfg.SearchMode,
		SearchScope:      a.cfg.SearchScope,
		MaxMatches:       a.cfg.MaxMatches,
		LegacyStatusFlow: a.cfg.LegacyStatusFlow,
	})
}

func (a *app) router() *gin.Engine {
	if a.cfg.GinMode != "" {
		gin.SetMode(a.cfg.GinMode)
	}
	gin.DefaultWriter = utils.GinWriter(a.log)

	r := gin.New()
	r.Use(middlewares.RequestLogger(a.log), gin.Recovery())

	h := routes.Handlers{
		Webhook:     controllers.NewWebhookController(a.engine(), a.log),
		Reports:     controllers.NewReportController(a.reports, a.stories, a.now, a.log),
		AdminSecret: a.cfg.JWTSecret,
		CORSOrigins: a.cfg.CORSOrigins,
		Now:         a.now,
		Log:         a.log,
	}
	if a.cfg.AdminEnabled() {
		admin := models.Admin{Username: a.cfg.AdminUsername, Password: a.cfg.AdminPasswordHash}
		h.Auth = controllers.NewAuthController(admin, a.cfg.JWTSecret, a.now, a.log)
	}
	if a.cfg.SignaturesEnabled() {
		h.Signature = middlewares.TwilioSignature(a.cfg.TwilioAuthToken, a.cfg.WebhookBaseURL, a.log)
	} else {
		a.log.Warn("TWILIO_AUTH_TOKEN is not set; webhook signatures are not checked")
	}
	if a.cfg.WebhookRateLimit > 0 {
		counter := middlewares.RedisHitCounter{Client: a.redis}
		h.RateLimiter = middlewares.WebhookRateLimiter(counter, a.cfg.WebhookRateLimit, a.cfg.WebhookRateWindow, controllers.SlowDown, a.log)
	}
	routes.Register(r, h)
	return r
}

// serve runs the HTTP server and the session sweeper until ctx is done.
func (a *app) serve(ctx context.Context) error {
	if err := a.sessions.StartSweeper(ctx, a.cfg.SweepInterval, a.cfg.SessionMaxAge); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("port", a.cfg.Port).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.WithError(err).Warn("close failed")
		}
	}
	a.closers = nil
}
