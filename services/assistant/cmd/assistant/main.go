package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/vishal-official/Email-Assistant/internal/ratelimit"
	"github.com/vishal-official/Email-Assistant/internal/util"
	"github.com/vishal-official/Email-Assistant/pkg/ai"
	"github.com/vishal-official/Email-Assistant/pkg/domain"
	"github.com/vishal-official/Email-Assistant/services/assistant/internal/app"
	"github.com/vishal-official/Email-Assistant/services/assistant/internal/config"
	"github.com/vishal-official/Email-Assistant/services/assistant/internal/dispatch"
	"github.com/vishal-official/Email-Assistant/services/assistant/internal/fixtures"
	"github.com/vishal-official/Email-Assistant/services/assistant/internal/model"
	"github.com/vishal-official/Email-Assistant/services/assistant/internal/server"
	"github.com/vishal-official/Email-Assistant/services/assistant/internal/store"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	timings, err := cfg.Timings()
	if err != nil {
		log.Fatalf("failed to parse timings: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)
	clock := clockwork.NewRealClock()

	provider := ai.ProviderConfig{
		Provider: cfg.GenerationProvider,
		BaseURL:  cfg.GenerationBaseURL,
		APIKey:   cfg.GenerationAPIKey,
	}
	reasoning, err := ai.NewGenerator(provider, cfg.ReasoningModel)
	if err != nil {
		log.Fatalf("failed to init reasoning model: %v", err)
	}
	fast, err := ai.NewGenerator(provider, cfg.DraftModel)
	if err != nil {
		log.Fatalf("failed to init draft model: %v", err)
	}
	gateway, err := model.New(model.Config{Reasoning: reasoning, Fast: fast, Clock: clock})
	if err != nil {
		log.Fatalf("failed to init model gateway: %v", err)
	}

	mailbox, err := fixtures.Load(cfg.FixturesPath, clock.Now())
	if err != nil {
		log.Fatalf("failed to load fixtures: %v", err)
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		log.Fatalf("failed to init dispatch publisher: %v", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("close dispatch publisher", "err", err)
		}
	}()

	appCore, err := app.New(app.Config{
		Gateway:        gateway,
		Preferences:    store.NewPreferenceStore(domain.DefaultPreferences()),
		Log:            store.NewConversationLog(clock),
		Mailbox:        mailbox,
		Publisher:      publisher,
		Clock:          clock,
		Logger:         logger,
		SendLatency:    timings.SendLatency,
		DeliveredAfter: timings.DeliveredAfter,
		OpenedAfter:    timings.OpenedAfter,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}
	defer appCore.Close()

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}
	var limiter *ratelimit.FixedWindowLimiter
	if cfg.ModelRateLimitPerMinute > 0 {
		limiter, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "assistant:ratelimit:model", cfg.ModelRateLimitPerMinute, time.Minute)
		if err != nil {
			log.Fatalf("failed to init rate limiter: %v", err)
		}
		defer limiter.Close()
	}

	var stages dispatch.StageReader
	if sp, ok := publisher.(*dispatch.StreamPublisher); ok {
		stages = sp
	}

	httpServer, err := server.New(server.Config{
		App:                appCore,
		Dispatches:         stages,
		ModelLimiter:       limiter,
		TrustedProxies:     trusted,
		SurfaceModelErrors: cfg.SurfaceModelErrors,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.ShouldRefreshOnStart() {
		g.Go(func() error {
			if _, err := appCore.RefreshBriefing(gctx); err != nil && gctx.Err() == nil {
				logger.Warn("startup briefing failed", "err", err)
			}
			return nil
		})
	}
	if cfg.DailyBriefing {
		g.Go(func() error {
			err := appCore.RunDailyBriefing(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
	}
}

// newPublisher picks the dispatch event sink: AMQP, then a Redis stream,
// otherwise events are dropped.
func newPublisher(cfg config.FileConfig) (dispatch.Publisher, error) {
	switch {
	case strings.TrimSpace(cfg.AMQPURL) != "":
		return dispatch.NewAMQPPublisher(cfg.AMQPURL, cfg.DispatchExchange)
	case strings.TrimSpace(cfg.DispatchStream) != "":
		return dispatch.NewStreamPublisher(dispatch.StreamConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			Stream:    cfg.DispatchStream,
			StatusTTL: 24 * time.Hour,
			MaxLen:    10000,
		})
	default:
		return dispatch.Nop{}, nil
	}
}
