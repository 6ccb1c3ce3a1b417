// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/churchnet/calendar-service/internal/domain"
	"github.com/churchnet/calendar-service/internal/logging"
	"github.com/churchnet/calendar-service/internal/middleware"
)

// setupHTTPServer configures and starts the health-check HTTP server. The
// command surface of the service is NATS; HTTP exists for liveness and
// readiness probes.
func setupHTTPServer(flags flags, readiness func() bool, gracefulCloseWG *sync.WaitGroup) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !readiness() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	var handler http.Handler = mux
	handler = middleware.RequestLoggerMiddleware()(handler)

	var addr string
	if flags.Bind == "*" {
		addr = ":" + flags.Port
	} else {
		addr = flags.Bind + ":" + flags.Port
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 3 * time.Second,
	}
	gracefulCloseWG.Add(1)
	go func() {
		defer gracefulCloseWG.Done()
		slog.With("addr", addr).Debug("starting http server, listening on port " + flags.Port)
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.With(logging.ErrKey, err).Error("http listener error")
			os.Exit(1)
		}
	}()

	return httpServer
}

// allHandlersReady builds a readiness check over the message handlers.
func allHandlersReady(handlers ...domain.MessageHandler) func() bool {
	return func() bool {
		for _, h := range handlers {
			if !h.HandlerReady() {
				return false
			}
		}
		return true
	}
}
