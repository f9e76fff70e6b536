// Copyright 2026 The ClinicStack Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinicstack/clinicstack/internal/appointment"
	"github.com/clinicstack/clinicstack/internal/audit"
	"github.com/clinicstack/clinicstack/internal/branch"
	"github.com/clinicstack/clinicstack/internal/cache"
	"github.com/clinicstack/clinicstack/internal/config"
	"github.com/clinicstack/clinicstack/internal/events"
	"github.com/clinicstack/clinicstack/internal/identity"
	"github.com/clinicstack/clinicstack/internal/observability/logger"
	"github.com/clinicstack/clinicstack/internal/observability/tracing"
	"github.com/clinicstack/clinicstack/internal/patient"
	"github.com/clinicstack/clinicstack/internal/store/postgres"
	transportHTTP "github.com/clinicstack/clinicstack/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting clinicstack record store")

	ctx := context.Background()

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	db, err := postgres.New(ctx, postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	branchRepo := postgres.NewBranchRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)

	// List cache
	var listCache cache.Store = cache.Disabled{}
	if cfg.Cache.Enabled {
		memory := cache.NewMemory(cfg.Cache.TTL)
		defer memory.Stop()
		listCache = memory
	}

	// Event bus
	var publisher events.Publisher = events.NewSlogPublisher()
	if len(cfg.Events.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: cfg.Events.Brokers,
			Topic:   cfg.Events.Topic,
			Timeout: cfg.Events.PublishTimeout,
		})
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		slog.Info("publishing appointment events to kafka",
			logger.String("topic", cfg.Events.Topic))
	}

	// Services
	auditLogger := audit.NewSlogLogger()
	identityService := identity.NewService(userRepo)
	branchService := branch.NewService(branchRepo, listCache, auditLogger)
	patientService := patient.NewService(patientRepo, listCache, auditLogger)
	appointmentService := appointment.NewService(appointmentRepo, publisher, auditLogger)

	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	handler := transportHTTP.NewHandler(
		patientService,
		appointmentService,
		branchService,
		identityService,
		auditLogger,
		transportHTTP.AuthConfig{
			JWTSecret:        []byte(cfg.Auth.JWTSecret),
			DevHeaderEnabled: cfg.Auth.DevHeaderEnabled,
		},
	)
	router := transportHTTP.NewRouter(handler, rateLimiter)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("http server listening", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server failed", logger.Error(err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", logger.Error(err))
	}
}
