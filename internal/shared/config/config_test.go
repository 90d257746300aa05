package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaultsForWagerService(t *testing.T) {
	t.Setenv("SERVICE_NAME", "wager-service")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("SLIP_TTL", "45m")
	t.Setenv("RACE_CACHE_SIZE", "not-a-number")

	cfg := Load()

	if cfg.HTTPPort != "8083" || cfg.MetricsPort != "9099" {
		t.Errorf("ports = %s/%s", cfg.HTTPPort, cfg.MetricsPort)
	}
	if want := []string{"a:9092", "b:9092"}; !reflect.DeepEqual(cfg.KafkaBrokers, want) {
		t.Errorf("KafkaBrokers = %v, want %v", cfg.KafkaBrokers, want)
	}
	if cfg.SlipTTL != 45*time.Minute {
		t.Errorf("SlipTTL = %v", cfg.SlipTTL)
	}
	if cfg.RaceCacheSize != 512 {
		t.Errorf("RaceCacheSize = %d, want default 512", cfg.RaceCacheSize)
	}
	if cfg.TopicBoardSnapshots != "tote_board_snapshots" {
		t.Errorf("TopicBoardSnapshots = %q", cfg.TopicBoardSnapshots)
	}
}

func TestLoadWorkerHasNoPublicPort(t *testing.T) {
	t.Setenv("SERVICE_NAME", "board-processor-worker")
	cfg := Load()
	if cfg.HTTPPort != "" || cfg.MetricsPort != "9097" {
		t.Errorf("ports = %q/%q", cfg.HTTPPort, cfg.MetricsPort)
	}
}

func TestGetDurationRejectsGarbage(t *testing.T) {
	t.Setenv("X_DUR", "-5s")
	if got := getDuration("X_DUR", time.Second); got != time.Second {
		t.Errorf("getDuration() = %v, want default", got)
	}
}
