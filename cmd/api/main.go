package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/milan604/ops-admin/internal/account"
	"github.com/milan604/ops-admin/internal/audit"
	"github.com/milan604/ops-admin/internal/authority"
	"github.com/milan604/ops-admin/internal/httpapi"
	"github.com/milan604/ops-admin/internal/store"
	"github.com/milan604/ops-admin/internal/token"
	"github.com/milan604/ops-admin/pkg/config"
	"github.com/milan604/ops-admin/pkg/logger"
	"github.com/milan604/ops-admin/pkg/observability"
	"github.com/milan604/ops-admin/pkg/postgres"
	"github.com/milan604/ops-admin/pkg/server"
	smw "github.com/milan604/ops-admin/pkg/server/middleware"
	"github.com/milan604/ops-admin/pkg/validator"
	"github.com/milan604/ops-admin/pkg/version"
)

func main() {
	pflag.String("config", "", "path to config file")
	pflag.String("server.port", "", "listen port")
	pflag.Parse()

	cfg := config.New(
		config.WithDefaults(map[string]interface{}{
			"server.host":       "0.0.0.0",
			"server.port":       "8080",
			"db.host":           "localhost",
			"db.port":           "5432",
			"db.name":           "ops_admin",
			"db.user":           "ops_admin",
			"db.sslmode":        "disable",
			"jwt.expires_in":    "2h",
			"migrations.path":   "migrations",
			"log.level":         "info",
			"observability.on":  false,
			"audit.kafka.topic": "ops-admin.audit",
		}),
		config.WithConfigNamePaths("config"),
		config.WithEnv("OPS"),
		config.WithPFlags(nil),
		config.WithSensitiveKeys("db.password", "jwt.secret"),
	)
	if path := cfg.GetString("config"); path != "" {
		cfg = config.New(
			config.WithFile(path),
			config.WithEnv("OPS"),
			config.WithPFlags(nil),
			config.WithSensitiveKeys("db.password", "jwt.secret"),
		)
	}

	log, err := logger.New(logger.Options{
		Level:        cfg.GetStringD("log.level", "info"),
		Encoding:     "json",
		EnableCaller: true,
	})
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	log.InfoF("starting %s %s", version.ServiceName, version.Version)

	if err := cfg.ValidateRequired("db.password", "jwt.secret"); err != nil {
		log.ErrorF("config: %v", err)
		os.Exit(1)
	}

	db, err := postgres.New(postgres.Config{
		Host:     cfg.GetString("db.host"),
		Port:     cfg.GetString("db.port"),
		Name:     cfg.GetString("db.name"),
		Username: cfg.GetString("db.user"),
		Password: cfg.GetString("db.password"),
		SSLMode:  cfg.GetString("db.sslmode"),
	}, log)
	if err != nil {
		log.ErrorF("postgres: %v", err)
		os.Exit(1)
	}
	defer db.Close() //nolint:errcheck

	if err := db.MigrateUp(cfg.GetString("migrations.path")); err != nil {
		log.ErrorF("migrations: %v", err)
		os.Exit(1)
	}

	st := store.New(db.Client)
	repos := st.Repos()

	verifier := authority.NewVerifier(authority.DefaultFunctionMap())

	tokens := token.NewService(repos, []byte(cfg.GetString("jwt.secret")), log,
		token.WithTTL(cfg.GetDurationD("jwt.expires_in", 2*time.Hour)),
	)
	accounts := account.NewService(repos, st, verifier, log)

	var auditor audit.Publisher = audit.NopPublisher{}
	if brokers := cfg.GetStringSlice("audit.kafka.brokers"); len(brokers) > 0 {
		kp := audit.NewKafkaPublisher(audit.Config{
			Brokers: brokers,
			Topic:   cfg.GetString("audit.kafka.topic"),
		}, log)
		defer kp.Close() //nolint:errcheck
		auditor = kp
	}

	vi := validator.New()

	engine := server.NewEngine(
		server.WithLogger(log),
		server.WithRecovery(true),
		server.WithCors(smw.DefaultCorsConfig()),
		server.WithPrometheus(true),
	)

	if cfg.GetBool("observability.on") {
		obs, err := observability.New(log, cfg)
		if err != nil {
			log.ErrorF("observability: %v", err)
			os.Exit(1)
		}
		defer obs.Shutdown(context.Background()) //nolint:errcheck
		engine.Use(observability.GinMiddleware(version.ServiceName))
	}

	handler := httpapi.NewHandler(accounts, tokens, vi, auditor, log)
	handler.Register(engine)

	if err := server.Start(engine,
		server.StartWithConfig(cfg),
		server.StartWithLogger(log),
	); err != nil {
		log.ErrorF("server error: %v", err)
		os.Exit(1)
	}
}
