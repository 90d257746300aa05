package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/racebet-wagering-poc/internal/shared/cache"
	"github.com/radieske/racebet-wagering-poc/internal/shared/config"
	"github.com/radieske/racebet-wagering-poc/internal/shared/db"
	"github.com/radieske/racebet-wagering-poc/internal/shared/kafka"
	"github.com/radieske/racebet-wagering-poc/internal/shared/logger"
	"github.com/radieske/racebet-wagering-poc/internal/shared/metrics"
	"github.com/radieske/racebet-wagering-poc/internal/wager-service/board"
	httpapi "github.com/radieske/racebet-wagering-poc/internal/wager-service/http"
	"github.com/radieske/racebet-wagering-poc/internal/wager-service/producer"
	"github.com/radieske/racebet-wagering-poc/internal/wager-service/repo"
	"github.com/radieske/racebet-wagering-poc/internal/wager-service/settlement"
	"github.com/radieske/racebet-wagering-poc/internal/wager-service/slip"
	"github.com/radieske/racebet-wagering-poc/internal/wager-service/ws"
)

func main() {
	// carrega config
	cfg := config.Load()

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Postgres
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	// Redis
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writer (topic ticket_placed)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicTicketPlaced)
	defer writer.Close()

	// Métricas
	confirms := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "wager_confirm_total", Help: "confirmações por resultado"}, []string{"result"})
	raceCache := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "wager_race_cache_total", Help: "consultas ao cache de páreos"}, []string{"outcome"})
	wsConns := prometheus.NewGauge(prometheus.GaugeOpts{Name: "wager_ws_connections", Help: "clientes WebSocket conectados"})
	wsSent := prometheus.NewCounter(prometheus.CounterOpts{Name: "wager_ws_messages_sent_total", Help: "mensagens WS enviadas"})
	prometheus.MustRegister(confirms, raceCache, wsConns, wsSent)

	// deps
	clock := clockwork.NewRealClock()
	pgRepo := repo.NewPostgres(pg)
	races, err := repo.NewRaceCache(cfg.RaceCacheSize, pgRepo)
	if err != nil {
		log.Fatal("race cache", zap.Error(err))
	}
	races.OnHit = func() { raceCache.WithLabelValues("hit").Inc() }
	races.OnMiss = func() { raceCache.WithLabelValues("miss").Inc() }

	boards := board.NewReader(rdb)
	slips := slip.NewService(slip.NewRedisStore(rdb, cfg.SlipTTL), boards, clock)

	// WebSocket: atualizações de painel e retiradas vindas do board-processor
	hub := ws.NewHub(log, allowOrigin(cfg.CORSOrigins))
	hub.OnConnect = wsConns.Inc
	hub.OnDisconnect = wsConns.Dec
	hub.OnSent = wsSent.Inc
	ws.StartRedisSubscriber(ctx, rdb, hub, log, cfg.RedisBoardChannel, cfg.RedisHorseChannel)

	api := &httpapi.API{
		Log:         log,
		Slips:       slips,
		Boards:      boards,
		Races:       races,
		Promo:       repo.NewPromoCache(pgRepo, cfg.PromoCacheTTL, clock),
		Tickets:     pgRepo,
		Settlement:  settlement.New(cfg.SettlementURL, cfg.SettlementTimeout),
		Publisher:   producer.NewKafkaPublisher(writer, func() int64 { return clock.Now().UnixMilli() }),
		Clock:       clock,
		WS:          http.HandlerFunc(hub.HandleWS),
		CORSOrigins: cfg.CORSOrigins,
		OnConfirm:   func(result string) { confirms.WithLabelValues(result).Inc() },
	}

	// metrics/health
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, log, map[string]metrics.HealthFunc{
		"postgres": pg.PingContext,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})

	// HTTP público
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("wager-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("api server failed", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = apiSrv.Shutdown(shCtx)
	_ = msrv.Shutdown(shCtx)
}

// allowOrigin aplica a mesma lista do CORS ao upgrade do WebSocket
func allowOrigin(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		o := r.Header.Get("Origin")
		if o == "" {
			return true
		}
		for _, allowed := range origins {
			if allowed == "*" || allowed == o {
				return true
			}
		}
		return false
	}
}
