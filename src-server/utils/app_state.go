package utils

import (
	"database/sql"
	"daygrid/layout"
	"log/slog"
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

type AppState struct {
	Config *Config
	RawDB  *sql.DB
	BunDB  *bun.DB
	When   *when.Parser

	// computed day layouts, keyed by day + view + event set fingerprint;
	// schedulers purge it after rewriting events
	LayoutCache *lru.Cache[string, []layout.EventLayout]

	// latency measurements fanned out to the Prometheus gauges
	MetricChans *Metric

	// main blocks on this one until SIGINT/SIGTERM
	AppCloseSignalChan chan os.Signal

	gracefulShutdownChans   []*chan struct{}
	gracefulShutdownChansMu sync.Mutex
}

func NewAppState() *AppState {
	as := &AppState{}

	// date parser for the quick-add endpoint
	as.When = when.New(nil)
	as.When.Add(en.All...)
	as.When.Add(common.All...)

	// env
	as.Config = NewConfig()

	// database
	var err error
	as.RawDB, err = sql.Open(sqliteshim.ShimName, as.Config.GetDatabasePath()+"?mode=rwc")
	if err != nil {
		slog.Error("cannot open sqlite database", "error", err)
		os.Exit(1)
	}
	as.RawDB.SetMaxIdleConns(8)

	as.BunDB = bun.NewDB(as.RawDB, sqlitedialect.New())
	as.BunDB.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithVerbose(true),
		bundebug.FromEnv("BUNDEBUG"),
	))

	as.LayoutCache, err = lru.New[string, []layout.EventLayout](as.Config.GetLayoutCacheSize())
	if err != nil {
		slog.Error("cannot create layout cache", "error", err)
		os.Exit(1)
	}

	as.MetricChans = NewMetric()
	as.AppCloseSignalChan = make(chan os.Signal, 1)

	return as
}

// Hand out a channel that gets closed when the app is shutting down.
// Long-running goroutines select on it to clean up after themselves.
func (as *AppState) CreateGracefulShutdownChan() *chan struct{} {
	as.gracefulShutdownChansMu.Lock()
	defer as.gracefulShutdownChansMu.Unlock()

	ch := make(chan struct{})
	as.gracefulShutdownChans = append(as.gracefulShutdownChans, &ch)
	return &ch
}

func (as *AppState) GracefulShutdown() {
	as.gracefulShutdownChansMu.Lock()
	defer as.gracefulShutdownChansMu.Unlock()

	for _, ch := range as.gracefulShutdownChans {
		close(*ch)
	}
	as.gracefulShutdownChans = nil

	if err := as.BunDB.Close(); err != nil {
		slog.Warn("can't close database", "error", err)
	}
}
