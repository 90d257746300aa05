package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/racebet-wagering-poc/internal/shared/config"
	"github.com/radieske/racebet-wagering-poc/internal/shared/db"
	"github.com/radieske/racebet-wagering-poc/internal/shared/kafka"
	"github.com/radieske/racebet-wagering-poc/internal/shared/logger"
	"github.com/radieske/racebet-wagering-poc/internal/shared/metrics"
	"github.com/radieske/racebet-wagering-poc/internal/ticket-audit/auditor"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Postgres guarda a trilha de auditoria dos bilhetes
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka: consome ticket_placed e, opcionalmente, publica na DLQ
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicTicketPlaced, "ticket-audit")
	defer reader.Close()

	var dlq auditor.MessageWriter
	if cfg.TopicTicketPlacedDLQ != "" {
		w := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicTicketPlacedDLQ)
		defer w.Close()
		dlq = w
	}

	audited := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ticket_audit_total", Help: "bilhetes auditados por resultado"}, []string{"result"})
	deadLettered := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ticket_audit_dlq_total", Help: "mensagens enviadas para a DLQ"}, []string{"reason"})
	prometheus.MustRegister(audited, deadLettered)

	msrv := metrics.StartMetricsServer(cfg.MetricsPort, log, map[string]metrics.HealthFunc{
		"pg": pg.PingContext,
	})

	w := &auditor.Worker{
		Log:       log,
		Reader:    reader,
		Store:     auditor.NewPostgresStore(pg),
		DLQ:       dlq,
		Retries:   3,
		Backoff:   300 * time.Millisecond,
		OnAudited: func(r string) { audited.WithLabelValues(r).Inc() },
		OnDLQ:     func(r string) { deadLettered.WithLabelValues(r).Inc() },
	}

	log.Info("ticket-audit-worker started",
		zap.String("consume", cfg.TopicTicketPlaced),
		zap.String("dlq", cfg.TopicTicketPlacedDLQ),
	)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("worker stopped with error", zap.Error(err))
	}

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = msrv.Shutdown(shCtx)

	log.Info("ticket-audit-worker stopped")
}
