// SPDX-License-Identifier: MIT

package daemon

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const defaultShutdownTimeout = 30 * time.Second

// Deps bundles what the Manager needs to run its servers.
type Deps struct {
	// Logger is the structured logger for lifecycle events.
	Logger zerolog.Logger

	// APIHandler serves the API, export, file and view routes.
	APIHandler http.Handler

	// MetricsHandler serves Prometheus metrics. nil disables the
	// metrics server even when a metrics address is configured.
	MetricsHandler http.Handler

	// ShutdownTimeout bounds graceful shutdown. Zero means the default.
	ShutdownTimeout time.Duration
}

// Validate checks the dependencies before the manager starts.
func (d *Deps) Validate() error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.APIHandler == nil {
		return ErrMissingAPIHandler
	}
	return nil
}

func (d *Deps) shutdownTimeout() time.Duration {
	if d.ShutdownTimeout <= 0 {
		return defaultShutdownTimeout
	}
	return d.ShutdownTimeout
}
