package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/i474232898/airspace-emissions/internal/chart"
	"github.com/i474232898/airspace-emissions/internal/common"
)

type AppConfig struct {
	// EmissionsAPIURL is the base URL of the upstream emissions API.
	EmissionsAPIURL string
	HTTPTimeout     time.Duration

	// FetchInterval controls how often we poll every airspace.
	FetchInterval time.Duration
	// HistoryWindow is how far back each poll asks the upstream sequence for.
	HistoryWindow time.Duration

	// Airspaces to track, normalised.
	Airspaces []chart.EntityID

	// In-memory store retention.
	StoreMaxHistory int           // max number of readings per airspace (0 = unlimited)
	StoreMaxAge     time.Duration // max age of readings (0 = unlimited)

	// Chart rendering defaults.
	ChartLocation    *time.Location
	ChartDateLayout  string
	ChartUnitDivisor float64 // e.g. 1000 to report kg as tonnes

	LogLevel string
	Port     string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Info("no .env file found or error loading it")
	}
	cfg := &AppConfig{}

	cfg.EmissionsAPIURL = getenvDefault("EMISSIONS_API_URL", "http://127.0.0.1:8000")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	// The upstream stores one total per airspace per hour.
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "1h"); err != nil {
		return nil, err
	}
	if cfg.HistoryWindow, err = getenvDuration("HISTORY_WINDOW", "720h"); err != nil {
		return nil, err
	}

	cfg.Airspaces = common.ParseAirspaces(getenvDefault("AIRSPACES", "berlin,london,madrid,paris"))
	if len(cfg.Airspaces) == 0 {
		return nil, fmt.Errorf("AIRSPACES must name at least one airspace")
	}

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 0)
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "0s"); err != nil {
		return nil, err
	}

	tz := getenvDefault("CHART_TIMEZONE", "Local")
	cfg.ChartLocation, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid CHART_TIMEZONE: %w", err)
	}
	cfg.ChartDateLayout = getenvDefault("CHART_DATE_LAYOUT", chart.DefaultDateLayout)

	divisor := getenvDefault("CHART_UNIT_DIVISOR", "1000")
	cfg.ChartUnitDivisor, err = strconv.ParseFloat(divisor, 64)
	if err != nil || cfg.ChartUnitDivisor <= 0 || math.IsInf(cfg.ChartUnitDivisor, 0) || math.IsNaN(cfg.ChartUnitDivisor) {
		return nil, fmt.Errorf("invalid CHART_UNIT_DIVISOR %q", divisor)
	}

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

// ChartOptions returns the configured chart defaults.
func (c *AppConfig) ChartOptions() chart.Options {
	return chart.Options{
		Location:   c.ChartLocation,
		DateLayout: c.ChartDateLayout,
		Fill:       chart.FillZero,
		Divisor:    c.ChartUnitDivisor,
		Floor:      true,
		Deltas:     true,
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
