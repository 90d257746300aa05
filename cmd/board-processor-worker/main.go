package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/racebet-wagering-poc/internal/board-processor/cache"
	"github.com/radieske/racebet-wagering-poc/internal/board-processor/consumer"
	"github.com/radieske/racebet-wagering-poc/internal/board-processor/pubsub"
	"github.com/radieske/racebet-wagering-poc/internal/board-processor/repository"
	sharedcache "github.com/radieske/racebet-wagering-poc/internal/shared/cache"
	"github.com/radieske/racebet-wagering-poc/internal/shared/config"
	"github.com/radieske/racebet-wagering-poc/internal/shared/db"
	"github.com/radieske/racebet-wagering-poc/internal/shared/kafka"
	"github.com/radieske/racebet-wagering-poc/internal/shared/logger"
	"github.com/radieske/racebet-wagering-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	rcache := cache.NewRedisCache(redisClient, cfg.BoardTTL)
	repo := repository.NewPostgresRepo(pg)
	broadcaster := pubsub.NewRedisBroadcaster(redisClient)

	// Consumers Kafka (mesmo consumer group, um reader por tópico)
	boardReader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBoardSnapshots, "board-processor")
	defer boardReader.Close()
	horseReader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicHorseStatus, "board-processor")
	defer horseReader.Close()

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "board_proc_messages_consumed_total", Help: "mensagens consumidas"}, []string{"topic"})
	applied := prometheus.NewCounter(prometheus.CounterOpts{Name: "board_proc_snapshots_applied_total", Help: "snapshots gravados no cache"})
	stale := prometheus.NewCounter(prometheus.CounterOpts{Name: "board_proc_snapshots_stale_total", Help: "snapshots descartados por versão"})
	scratches := prometheus.NewCounter(prometheus.CounterOpts{Name: "board_proc_scratches_total", Help: "cavalos retirados"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "board_proc_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, applied, stale, scratches, errorsBy)

	onError := func(stage string) { errorsBy.WithLabelValues(stage).Inc() }

	h := &consumer.Handlers{
		Log:          log,
		Cache:        rcache,
		Repo:         repo,
		Broadcaster:  broadcaster,
		BoardChannel: cfg.RedisBoardChannel,
		HorseChannel: cfg.RedisHorseChannel,
		OnApplied:    func() { applied.Inc() },
		OnStale:      func() { stale.Inc() },
		OnScratched:  func() { scratches.Inc() },
		OnError:      onError,
	}

	procs := []*consumer.Processor{
		{
			Log:        log.With(zap.String("topic", cfg.TopicBoardSnapshots)),
			Reader:     boardReader,
			Handle:     h.Board,
			OnConsumed: func() { consumed.WithLabelValues(cfg.TopicBoardSnapshots).Inc() },
			OnError:    onError,
		},
		{
			Log:        log.With(zap.String("topic", cfg.TopicHorseStatus)),
			Reader:     horseReader,
			Handle:     h.Horse,
			OnConsumed: func() { consumed.WithLabelValues(cfg.TopicHorseStatus).Inc() },
			OnError:    onError,
		},
	}

	// Servidor HTTP para métricas e health check
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, log, map[string]metrics.HealthFunc{
		"pg":    pg.PingContext,
		"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	})

	log.Info("board-processor started")

	var wg sync.WaitGroup
	for _, p := range procs {
		wg.Add(1)
		go func(p *consumer.Processor) {
			defer wg.Done()
			if err := p.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("processor stopped with error", zap.Error(err))
				cancel()
			}
		}(p)
	}
	wg.Wait()

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = msrv.Shutdown(shCtx)

	log.Info("board-processor stopped")
}
