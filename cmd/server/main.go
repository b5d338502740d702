package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	attendancehandler "rollcall/internal/attendance/handler"
	attmetrics "rollcall/internal/attendance/metrics"
	attendanceservice "rollcall/internal/attendance/service"
	"rollcall/internal/attendance/store/ledger"
	authhandler "rollcall/internal/auth/handler"
	authservice "rollcall/internal/auth/service"
	"rollcall/internal/auth/store/revocation"
	directoryhandler "rollcall/internal/directory/handler"
	dirmetrics "rollcall/internal/directory/metrics"
	directoryservice "rollcall/internal/directory/service"
	"rollcall/internal/directory/store/candidate"
	"rollcall/internal/directory/store/department"
	"rollcall/internal/directory/store/institution"
	"rollcall/internal/jwttoken"
	"rollcall/internal/platform/config"
	"rollcall/internal/platform/database"
	"rollcall/internal/platform/httpserver"
	"rollcall/internal/platform/logger"
	platformredis "rollcall/internal/platform/redis"
	"rollcall/internal/scope"
	httptransport "rollcall/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()

	var (
		institutions directoryservice.InstitutionStore
		departments  interface {
			directoryservice.DepartmentStore
			scope.DepartmentLister
		}
		candidates interface {
			directoryservice.CandidateStore
			attendanceservice.CandidateStore
		}
		attendanceLedger attendanceservice.Ledger
	)

	if cfg.Database.URL != "" {
		if err := database.RunMigrations(cfg.Database.URL); err != nil {
			log.Error("run migrations", "error", err)
			os.Exit(1)
		}
		db, err := database.Open(cfg.Database.URL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		institutions = institution.NewPostgres(db)
		departments = department.NewPostgres(db)
		candidates = candidate.NewPostgres(db)
		attendanceLedger = ledger.NewPostgres(db)
		log.Info("storage backend", "kind", "postgres")
	} else {
		institutions = institution.NewInMemory()
		departments = department.NewInMemory()
		candidates = candidate.NewInMemory()
		attendanceLedger = ledger.NewInMemory()
		log.Info("storage backend", "kind", "memory")
	}

	var trl authservice.TokenRevocationList = revocation.NewInMemoryTRL()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		trl = revocation.NewRedisTRL(redisClient.Client)
		log.Info("revocation backend", "kind", "redis")
	}

	tokens := jwttoken.NewService(cfg.JWTSigningKey, "rollcall")
	resolver := scope.NewResolver(departments)

	directorySvc := directoryservice.New(institutions, departments, candidates,
		directoryservice.WithMetrics(dirmetrics.New()))
	attendanceSvc := attendanceservice.New(candidates, attendanceLedger, resolver,
		attendanceservice.WithThreshold(cfg.MatchThreshold),
		attendanceservice.WithMetrics(attmetrics.New()))
	authSvc := authservice.New(institutions, departments, candidates, tokens, trl,
		authservice.WithTokenTTL(cfg.TokenTTL))

	health := func(r *http.Request) error {
		if redisClient != nil {
			return redisClient.Health(r.Context())
		}
		return nil
	}

	router := httptransport.NewRouter(log, health,
		authhandler.New(authSvc, tokens, authSvc, log),
		directoryhandler.New(directorySvc, tokens, authSvc, log),
		attendancehandler.New(attendanceSvc, tokens, authSvc, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting rollcall", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
