package utils

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	port         string
	databasePath string

	location *time.Location

	calendarUpdateInterval   time.Duration
	metricCollectionInterval time.Duration
	layoutCacheSize          int

	staticWebClientDir string
}

func NewConfig() *Config {
	return &Config{
		port: func() string {
			port := os.Getenv("PORT")
			if port == "" {
				port = "8080"
			}
			slog.Debug("env", "PORT", port)
			return port
		}(),

		databasePath: func() string {
			databasePath := os.Getenv("DATABASE_PATH")
			if databasePath == "" {
				slog.Warn("DATABASE_PATH is not set, using ./sqlite.db")
				databasePath = "./sqlite.db"
			}
			slog.Debug("env", "DATABASE_PATH", databasePath)
			return databasePath
		}(),

		location: func() *time.Location {
			timezoneStr := os.Getenv("TIMEZONE")
			var loc *time.Location
			var err error
			switch timezoneStr {
			case "":
				slog.Warn("TIMEZONE is not set, using local timezone", "timezone", time.Local)
				loc = time.Local
			case "UTC":
				slog.Warn("TIMEZONE is set to UTC, using UTC timezone", "timezone", time.UTC)
				loc = time.UTC
			default:
				loc, err = time.LoadLocation(timezoneStr)
				if err != nil {
					slog.Error("invalid timezone", "timezone", timezoneStr, "error", err)
					os.Exit(1)
				}
			}
			slog.Debug("env", "TIMEZONE", timezoneStr)
			return loc
		}(),

		calendarUpdateInterval: func() time.Duration {
			calendarUpdateInterval := os.Getenv("CALENDAR_UPDATE_INTERVAL")
			if calendarUpdateInterval == "" {
				slog.Warn("CALENDAR_UPDATE_INTERVAL is not set")
				calendarUpdateInterval = "1h"
			}
			duration, err := time.ParseDuration(calendarUpdateInterval)
			if err != nil {
				slog.Error("invalid CALENDAR_UPDATE_INTERVAL", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "CALENDAR_UPDATE_INTERVAL", calendarUpdateInterval, "duration", duration)
			return duration
		}(),
		metricCollectionInterval: func() time.Duration {
			metricCollectionInterval := os.Getenv("METRIC_COLLECTION_INTERVAL")
			if metricCollectionInterval == "" {
				slog.Warn("METRIC_COLLECTION_INTERVAL is not set")
				metricCollectionInterval = "15s"
			}
			duration, err := time.ParseDuration(metricCollectionInterval)
			if err != nil {
				slog.Error("invalid METRIC_COLLECTION_INTERVAL", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "METRIC_COLLECTION_INTERVAL", metricCollectionInterval, "duration", duration)
			return duration
		}(),
		layoutCacheSize: func() int {
			layoutCacheSize := os.Getenv("LAYOUT_CACHE_SIZE")
			if layoutCacheSize == "" {
				slog.Warn("LAYOUT_CACHE_SIZE is not set")
				layoutCacheSize = "512"
			}
			size, err := strconv.Atoi(layoutCacheSize)
			if err != nil || size <= 0 {
				slog.Error("invalid LAYOUT_CACHE_SIZE", "value", layoutCacheSize, "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "LAYOUT_CACHE_SIZE", size)
			return size
		}(),

		staticWebClientDir: func() string {
			staticWebClientDir := os.Getenv("STATIC_WEB_CLIENT_DIR")
			if staticWebClientDir == "" {
				slog.Warn("STATIC_WEB_CLIENT_DIR is not set, web client won't be served")
				return ""
			}
			info, err := os.Stat(staticWebClientDir)
			if err != nil {
				slog.Error("can't get info of STATIC_WEB_CLIENT_DIR", "error", err)
				os.Exit(1)
			}
			if !info.IsDir() {
				slog.Error("STATIC_WEB_CLIENT_DIR is not a directory", "error", err)
				os.Exit(1)
			}

			slog.Debug("env", "STATIC_WEB_CLIENT_DIR", staticWebClientDir)
			return filepath.Clean(staticWebClientDir)
		}(),
	}
}

// Get PORT env, default to 8080
func (c *Config) GetPort() string {
	return c.port
}

// Get DATABASE_PATH env, default to ./sqlite.db
func (c *Config) GetDatabasePath() string {
	return c.databasePath
}

// Get TIMEZONE env
func (c *Config) GetLocation() *time.Location {
	return c.location
}

// Get CALENDAR_UPDATE_INTERVAL env, default to 1h
func (c *Config) GetCalendarUpdateInterval() time.Duration {
	return c.calendarUpdateInterval
}

// Get METRIC_COLLECTION_INTERVAL env, default to 15s
func (c *Config) GetMetricCollectionInterval() time.Duration {
	return c.metricCollectionInterval
}

// Get LAYOUT_CACHE_SIZE env, default to 512
func (c *Config) GetLayoutCacheSize() int {
	return c.layoutCacheSize
}

// Get STATIC_WEB_CLIENT_DIR env, blank if not set
func (c *Config) GetStaticWebClientDir() string {
	return c.staticWebClientDir
}
