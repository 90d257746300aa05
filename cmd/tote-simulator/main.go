package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/racebet-wagering-poc/internal/shared/config"
	"github.com/radieske/racebet-wagering-poc/internal/shared/kafka"
	"github.com/radieske/racebet-wagering-poc/internal/shared/logger"
	"github.com/radieske/racebet-wagering-poc/internal/shared/metrics"
	totesim "github.com/radieske/racebet-wagering-poc/internal/tote-simulator"
)

var (
	// Métricas Prometheus do simulador
	boardsPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tote_boards_published_total",
		Help: "Snapshots de painel publicados",
	})
	scratchesPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tote_scratches_published_total",
		Help: "Retiradas publicadas",
	})
	settlements = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tote_settlements_total",
		Help: "Pedidos de liquidação por status",
	}, []string{"status"})
	publishErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tote_publish_errors_total",
		Help: "Falhas ao publicar no Kafka",
	})
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(boardsPublished, scratchesPublished, settlements, publishErrors)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	boardWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBoardSnapshots)
	defer boardWriter.Close()
	horseWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicHorseStatus)
	defer horseWriter.Close()

	gen := totesim.NewGenerator(totesim.Card, time.Now().UnixNano(), cfg.ServiceName, nil)

	// Gera e publica painéis a cada 3 segundos; de vez em quando retira um cavalo
	go func() {
		ticker := time.NewTicker(3 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if e, ok := gen.MaybeScratch(5); ok {
				if err := kafka.WriteJSON(ctx, horseWriter, e.RaceID, e); err != nil {
					publishErrors.Inc()
					log.Warn("publish scratch failed", zap.Error(err))
				} else {
					scratchesPublished.Inc()
					log.Info("horse scratched", zap.String("race_id", e.RaceID), zap.Int("horse", e.HorseNumber))
				}
			}
			for _, s := range gen.Boards() {
				if err := kafka.WriteJSON(ctx, boardWriter, s.RaceID, s); err != nil {
					publishErrors.Inc()
					log.Warn("publish board failed", zap.String("race_id", s.RaceID), zap.Error(err))
					continue
				}
				boardsPublished.Inc()
			}
		}
	}()

	// ==== MUX PÚBLICO: /settlement/place
	appMux := http.NewServeMux()
	appMux.Handle("/settlement/place", &totesim.SettlementHandler{
		Log:      log,
		State:    gen,
		OnResult: func(status string) { settlements.WithLabelValues(status).Inc() },
	})

	// ==== MUX DE MÉTRICAS (/healthz, /metrics)
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, log, nil)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           appMux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("tote simulator (public) running",
			zap.String("addr", srv.Addr),
			zap.String("paths", "/settlement/place"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("public server error", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
	_ = msrv.Shutdown(shCtx)
}
