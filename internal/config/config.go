// Package config centralizes the server's tunable constants. Every value
// has a sensible default and can be overridden through the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all tunable server settings.
type Config struct {
	Addr       string // listen address
	DBPath     string // sqlite database for match results
	AdminToken string // gates the server-stats query; empty disables it

	MaxRooms        int           // concurrent room cap
	TargetScore     int           // points needed to win a match
	EmptyRoomGrace  time.Duration // destroy rooms with no connected seats after this
	EvictTimeout    time.Duration // reset seats disconnected longer than this
	SweepInterval   time.Duration // health/cleanup sweep period
	StatsInterval   time.Duration // statistics sweep period
	TrickDelay      time.Duration // pause between a resolved trick and the next turn
	DealDelay       time.Duration // pause between a scored deal and the next deal
	TeardownDelay   time.Duration // room lifetime after a match completes
	ShutdownTimeout time.Duration // bound on graceful shutdown
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Addr:            ":8080",
		DBPath:          "omi.db",
		MaxRooms:        500,
		TargetScore:     10,
		EmptyRoomGrace:  2 * time.Minute,
		EvictTimeout:    5 * time.Minute,
		SweepInterval:   30 * time.Second,
		StatsInterval:   5 * time.Minute,
		TrickDelay:      2 * time.Second,
		DealDelay:       3 * time.Second,
		TeardownDelay:   10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// FromEnv returns the default configuration with environment overrides
// applied. Unparseable values are rejected rather than silently ignored.
func FromEnv() (Config, error) {
	cfg := Default()

	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	cfg.AdminToken = os.Getenv("ADMIN_TOKEN")

	var err error
	if cfg.MaxRooms, err = intEnv("MAX_ROOMS", cfg.MaxRooms); err != nil {
		return cfg, err
	}
	if cfg.TargetScore, err = intEnv("TARGET_SCORE", cfg.TargetScore); err != nil {
		return cfg, err
	}
	for _, d := range []struct {
		name string
		dst  *time.Duration
	}{
		{"EMPTY_ROOM_GRACE", &cfg.EmptyRoomGrace},
		{"EVICT_TIMEOUT", &cfg.EvictTimeout},
		{"SWEEP_INTERVAL", &cfg.SweepInterval},
		{"STATS_INTERVAL", &cfg.StatsInterval},
		{"TRICK_DELAY", &cfg.TrickDelay},
		{"DEAL_DELAY", &cfg.DealDelay},
		{"TEARDOWN_DELAY", &cfg.TeardownDelay},
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout},
	} {
		if *d.dst, err = durationEnv(d.name, *d.dst); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func intEnv(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("parse %s: %w", name, err)
	}
	return n, nil
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("parse %s: %w", name, err)
	}
	return d, nil
}
