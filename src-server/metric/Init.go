package metric

import (
	"daygrid/src-server/utils"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func databaseEmptyRead(as *utils.AppState, tickerInterval *time.Duration) {
	databaseEmptyRead := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "daygrid_database_empty_read_microsec",
		Help: "The latency of an empty database read in microseconds",
	})
	good := true
	if err := prometheus.Register(databaseEmptyRead); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register daygrid_database_empty_read_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("daygrid_database_empty_read_microsec metric registered")
		databaseEmptyRead.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(*tickerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(databaseEmptyRead) {
				case true:
					slog.Debug("daygrid_database_empty_read_microsec metric unregistered")
				case false:
					slog.Warn("daygrid_database_empty_read_microsec metric not registered")
				}
				return
			case <-ticker.C:
				latency, err := database(as)
				if err != nil {
					slog.Error("can't get database latency", "error", err)
					continue
				}
				databaseEmptyRead.Set(float64(latency.Microseconds()))
			}
		}
	}()
}

func databaseRead(as *utils.AppState, clearTickerInterval *time.Duration) {
	databaseRead := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "daygrid_database_read_microsec",
		Help: "The latency of a database read in microseconds",
	})
	good := true
	if err := prometheus.Register(databaseRead); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register daygrid_database_read_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("daygrid_database_read_microsec metric registered")
		databaseRead.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(databaseRead) {
				case true:
					slog.Debug("daygrid_database_read_microsec metric unregistered")
				case false:
					slog.Warn("daygrid_database_read_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.DatabaseRead:
				databaseRead.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				databaseRead.Set(0)
			}
		}
	}()
}

func databaseWrite(as *utils.AppState, clearTickerInterval *time.Duration) {
	databaseWrite := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "daygrid_database_write_microsec",
		Help: "The latency of a database write in microseconds",
	})
	good := true
	if err := prometheus.Register(databaseWrite); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register daygrid_database_write_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("daygrid_database_write_microsec metric registered")
		databaseWrite.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(databaseWrite) {
				case true:
					slog.Debug("daygrid_database_write_microsec metric unregistered")
				case false:
					slog.Warn("daygrid_database_write_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.DatabaseWrite:
				databaseWrite.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				databaseWrite.Set(0)
			}
		}
	}()
}

func layoutCompute(as *utils.AppState, clearTickerInterval *time.Duration) {
	layoutCompute := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "daygrid_layout_compute_microsec",
		Help: "The latency of one uncached day layout computation in microseconds",
	})
	good := true
	if err := prometheus.Register(layoutCompute); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register daygrid_layout_compute_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("daygrid_layout_compute_microsec metric registered")
		layoutCompute.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(layoutCompute) {
				case true:
					slog.Debug("daygrid_layout_compute_microsec metric unregistered")
				case false:
					slog.Warn("daygrid_layout_compute_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.LayoutCompute:
				layoutCompute.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				layoutCompute.Set(0)
			}
		}
	}()
}

func httpRequest(as *utils.AppState, clearTickerInterval *time.Duration) {
	httpRequest := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "daygrid_http_request_microsec",
		Help: "The latency of an HTTP request in microseconds",
	})
	good := true
	if err := prometheus.Register(httpRequest); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register daygrid_http_request_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("daygrid_http_request_microsec metric registered")
		httpRequest.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(httpRequest) {
				case true:
					slog.Debug("daygrid_http_request_microsec metric unregistered")
				case false:
					slog.Warn("daygrid_http_request_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.HttpRequest:
				httpRequest.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				httpRequest.Set(0)
			}
		}
	}()
}

func Init(as *utils.AppState) {
	tickerInterval := as.Config.GetMetricCollectionInterval()
	clearTickerInterval := as.Config.GetMetricCollectionInterval() * 2

	databaseEmptyRead(as, &tickerInterval)
	databaseRead(as, &clearTickerInterval)
	databaseWrite(as, &clearTickerInterval)
	layoutCompute(as, &clearTickerInterval)
	httpRequest(as, &clearTickerInterval)
}
