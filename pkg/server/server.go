// Package server assembles the gin engine with the recommended middleware
// ordering and runs it with graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/milan604/ops-admin/pkg/logger"
	"github.com/milan604/ops-admin/pkg/server/middleware"
	"github.com/milan604/ops-admin/pkg/version"
)

// NewEngine creates a gin engine with the recommended middleware ordering.
func NewEngine(opts ...EngineOption) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	var opt engineOptions
	for _, o := range opts {
		o(&opt)
	}

	// 1. Request ID
	engine.Use(middleware.RequestID())

	// 2. Access logger
	logMgr := opt.logger
	if logMgr == nil {
		logMgr = logger.MustNewDefault()
	}
	engine.Use(middleware.AccessLogger(logMgr))

	// 3. Request-scoped app logger
	engine.Use(middleware.AppLogger(logMgr))

	// 4. CORS (optional)
	if opt.corsConfig.Enabled {
		engine.Use(middleware.CORS(opt.corsConfig))
	}

	// 5. Prometheus (optional)
	if opt.prometheus {
		prom := middleware.NewPrometheusCollector("/metrics")
		engine.Use(prom.Collect())
		prom.RegisterMetricsEndpoint(engine)
	}

	// 6. Error handler
	engine.Use(middleware.ErrorHandler())

	// 7. User-provided middlewares
	for _, m := range opt.addMiddleware {
		engine.Use(m)
	}

	// 8. Recovery (optional, last)
	if opt.recovery {
		engine.Use(middleware.Recovery(logMgr))
	}

	return engine
}

func resolveAddress(so *startOptions) string {
	addr := so.addr
	if addr == "" && so.cfg != nil {
		host := so.cfg.GetStringD("server.host", "0.0.0.0")
		port := so.cfg.GetStringD("server.port", "8080")
		addr = fmt.Sprintf("%s:%s", host, port)
	}
	if addr == "" {
		addr = ":8080"
	}
	return addr
}

func startHTTPServer(srv *http.Server, so *startOptions) {
	so.logger.InfoF("%s %s listening on %s", version.ServiceName, version.Version, srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		so.logger.ErrorF("ListenAndServe error: %v", err)
	}
}

func startTLSServer(srv *http.Server, so *startOptions) {
	if _, err := os.Stat(so.tlsCertFile); err != nil {
		so.logger.ErrorF("TLS cert file error: %v", err)
		return
	}
	if _, err := os.Stat(so.tlsKeyFile); err != nil {
		so.logger.ErrorF("TLS key file error: %v", err)
		return
	}
	so.logger.InfoF("%s %s listening on %s (TLS)", version.ServiceName, version.Version, srv.Addr)
	if err := srv.ListenAndServeTLS(so.tlsCertFile, so.tlsKeyFile); err != nil && err != http.ErrServerClosed {
		so.logger.ErrorF("ListenAndServeTLS error: %v", err)
	}
}

func handleShutdown(srv *http.Server, so *startOptions) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	so.logger.Info("shutdown initiated")
	ctx, cancel := context.WithTimeout(context.Background(), so.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		so.logger.ErrorF("server shutdown error: %v", err)
		return err
	}
	so.logger.Info("server stopped gracefully")
	return nil
}

// Start runs the HTTP server with graceful shutdown. Blocks until shutdown or error.
func Start(engine *gin.Engine, opts ...StartOption) error {
	so := &startOptions{shutdownTimeout: 15 * time.Second}
	for _, o := range opts {
		o(so)
	}
	if so.logger == nil {
		so.logger = logger.MustNewDefault()
	}

	addr := resolveAddress(so)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		so.logger.ErrorF("cannot listen on %s: %v", addr, err)
		return err
	}
	ln.Close()

	srv := &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if so.tlsCertFile != "" && so.tlsKeyFile != "" {
			startTLSServer(srv, so)
		} else {
			startHTTPServer(srv, so)
		}
	}()

	return handleShutdown(srv, so)
}
