package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	dig_container "github.com/gakuseki/gakuseki/apps/api/di/dig"
	echoapi "github.com/gakuseki/gakuseki/apps/api/echo"
	"github.com/gakuseki/gakuseki/core"
)

func main() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		dbLoggerParam dig_container.DBLoggerParam,
		closer dig_container.StoreCloser,
		shutdown dig_container.Shutdown,
		server echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build), map[string]interface{}{
			"env":     conf.Env,
			"storage": conf.Storage.Driver,
		})

		dbLogger := dbLoggerParam.Logger
		defer func() {
			if err := closer.Close(); err != nil {
				dbLogger.Error("Failed to close", err)
			}
		}()
		defer apiLogger.Info("Application stopped")

		// =========================================================================
		// Start Debug Service
		//
		// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
		// /debug/vars - Added to the default mux by importing the expvar package.

		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Start API Service

		serverErrors := make(chan error, 1)
		go func() {
			apiLogger.Info("API listening", map[string]interface{}{"host": conf.Server.Host})
			serverErrors <- server.Start()
		}()

		// =========================================================================
		// Shutdown

		select {
		case err := <-serverErrors:
			if err != http.ErrServerClosed {
				apiLogger.Error(fmt.Sprintf("server error: %v", err), err)
			}

		case sig := <-shutdown:
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			if err := server.Stop(ctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
			}
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
