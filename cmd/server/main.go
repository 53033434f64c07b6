package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	attendancevents "github.com/pastrypal/pastrypal-backend/internal/attendance/events"
	attendancehandler "github.com/pastrypal/pastrypal-backend/internal/attendance/handler"
	attendancerepo "github.com/pastrypal/pastrypal-backend/internal/attendance/repository"
	attendancesvc "github.com/pastrypal/pastrypal-backend/internal/attendance/service"
	"github.com/pastrypal/pastrypal-backend/internal/audit"
	authhandler "github.com/pastrypal/pastrypal-backend/internal/auth/handler"
	"github.com/pastrypal/pastrypal-backend/internal/auth/jwt"
	authrepo "github.com/pastrypal/pastrypal-backend/internal/auth/repository"
	authsvc "github.com/pastrypal/pastrypal-backend/internal/auth/service"
	kioskhandler "github.com/pastrypal/pastrypal-backend/internal/kiosk/handler"
	kioskrepo "github.com/pastrypal/pastrypal-backend/internal/kiosk/repository"
	kiosksvc "github.com/pastrypal/pastrypal-backend/internal/kiosk/service"
	payrollevents "github.com/pastrypal/pastrypal-backend/internal/payroll/events"
	payrollhandler "github.com/pastrypal/pastrypal-backend/internal/payroll/handler"
	payrollrepo "github.com/pastrypal/pastrypal-backend/internal/payroll/repository"
	payrollsvc "github.com/pastrypal/pastrypal-backend/internal/payroll/service"
	staffevents "github.com/pastrypal/pastrypal-backend/internal/staff/events"
	staffhandler "github.com/pastrypal/pastrypal-backend/internal/staff/handler"
	staffrepo "github.com/pastrypal/pastrypal-backend/internal/staff/repository"
	staffsvc "github.com/pastrypal/pastrypal-backend/internal/staff/service"
	"github.com/pastrypal/pastrypal-backend/pkg/actor"
	"github.com/pastrypal/pastrypal-backend/pkg/config"
	"github.com/pastrypal/pastrypal-backend/pkg/database"
	"github.com/pastrypal/pastrypal-backend/pkg/httputil"
	"github.com/pastrypal/pastrypal-backend/pkg/logger"
	"github.com/pastrypal/pastrypal-backend/pkg/messaging"
)

const serviceName = "pastrypal-backend"

func main() {
	cfg, err := config.LoadWithValidation("server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Str("environment", cfg.Server.Environment).Msg("starting server")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	staffEvents, err := staffevents.NewPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create staff event publisher")
	}
	attendanceEvents, err := attendancevents.NewPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create attendance event publisher")
	}
	payrollEvents, err := payrollevents.NewPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create payroll event publisher")
	}

	// Repositories
	userRepo := authrepo.NewUserRepository(db)
	employeeRepo := staffrepo.NewEmployeeRepository(db)
	roleRepo := staffrepo.NewRoleRepository(db)
	attemptRepo := kioskrepo.NewAttemptRepository(db)
	logRepo := attendancerepo.NewLogRepository(db)
	correctionRepo := attendancerepo.NewCorrectionRepository(db)
	payrollRepo := payrollrepo.NewPayrollRepository(db)
	auditor := audit.NewRecorder(db, log)

	// Services
	jwtManager := jwt.NewManager(&cfg.JWT)
	authService := authsvc.NewAuthService(userRepo, jwtManager, log.WithComponent("auth"))
	staffService := staffsvc.NewStaffService(employeeRepo, roleRepo, staffEvents, log.WithComponent("staff"))

	signer := kiosksvc.NewTimeWindowSigner(cfg.Kiosk.Secret, cfg.Kiosk.Window)
	passkeyGuard := kiosksvc.NewPasskeyGuard(attemptRepo, log)
	kioskService := kiosksvc.NewKioskService(signer, employeeRepo, logRepo, cfg.Server.BaseURL, log.WithComponent("kiosk"))

	attendanceService := attendancesvc.NewAttendanceService(
		logRepo, employeeRepo, passkeyGuard, signer, attendanceEvents, auditor,
		log.WithComponent("attendance"),
	)
	correctionService := attendancesvc.NewCorrectionService(
		correctionRepo, attendanceEvents, auditor,
		log.WithComponent("attendance.corrections"),
	)
	payrollService := payrollsvc.NewPayrollService(
		payrollRepo, logRepo, employeeRepo, payrollEvents, auditor,
		log.WithComponent("payroll"),
	)

	// Handlers
	authHandler := authhandler.NewAuthHandler(authService, log)
	auditHandler := audit.NewHandler(auditor)
	employeeHandler := staffhandler.NewEmployeeHandler(staffService, log)
	roleHandler := staffhandler.NewRoleHandler(staffService, log)
	kioskHandler := kioskhandler.NewKioskHandler(kioskService, log)
	attendanceHandler := attendancehandler.NewAttendanceHandler(attendanceService, correctionService, log)
	payrollHandler := payrollhandler.NewPayrollHandler(payrollService, log)

	router := buildRouter(cfg, log, db, rmq, jwtManager,
		authHandler, employeeHandler, roleHandler, kioskHandler, attendanceHandler, payrollHandler, auditHandler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

func buildRouter(
	cfg *config.Config,
	log *logger.Logger,
	db *database.DB,
	rmq *messaging.RabbitMQ,
	jwtManager *jwt.Manager,
	authHandler *authhandler.AuthHandler,
	employeeHandler *staffhandler.EmployeeHandler,
	roleHandler *staffhandler.RoleHandler,
	kioskHandler *kioskhandler.KioskHandler,
	attendanceHandler *attendancehandler.AttendanceHandler,
	payrollHandler *payrollhandler.PayrollHandler,
	auditHandler *audit.Handler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Server.BaseURL, "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]any{
			"service":  serviceName,
			"database": db.Health(req.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		// Kiosk surface: no login, gated by passkey and QR signature.
		r.Route("/kiosk", func(r chi.Router) {
			r.Get("/status", kioskHandler.Status)
			r.Post("/time-in", attendanceHandler.TimeIn)
			r.Post("/time-out", attendanceHandler.TimeOut)
			r.Post("/verify-passkey", attendanceHandler.VerifyPasskey)
		})

		// Admin panel surface
		r.Group(func(r chi.Router) {
			r.Use(authhandler.Authenticate(jwtManager))

			r.Group(func(r chi.Router) {
				r.Use(httputil.RequireRoles(actor.RoleAdmin))
				r.Post("/employees", employeeHandler.Create)
				r.Patch("/employees/{id}", employeeHandler.Update)
				r.Put("/employees/{id}/passkey", employeeHandler.SetPasskey)
				r.Delete("/employees/{id}", employeeHandler.Delete)
				r.Post("/roles", roleHandler.Create)
				r.Delete("/roles/{id}", roleHandler.Delete)
				r.Delete("/attendance/{id}", attendanceHandler.Delete)
				r.Patch("/attendance/corrections/{id}", attendanceHandler.ReviewCorrection)
				r.Post("/payroll/runs/{id}/finalize", payrollHandler.Finalize)
				r.Delete("/payroll/runs/{id}", payrollHandler.Reset)
				r.Get("/audit", auditHandler.List)
			})

			r.Group(func(r chi.Router) {
				r.Use(httputil.RequireRoles(actor.RoleAdmin, actor.RoleSupervisor))
				r.Get("/employees", employeeHandler.List)
				r.Get("/employees/{id}", employeeHandler.Get)
				r.Get("/employees/{id}/qr", kioskHandler.QRCode)
				r.Get("/roles", roleHandler.List)
				r.Get("/attendance", attendanceHandler.List)
				r.Patch("/attendance/{id}", attendanceHandler.Edit)
				r.Get("/attendance/{id}/photo", attendanceHandler.Photo)
				r.Get("/attendance/corrections", attendanceHandler.ListCorrections)
				r.Post("/payroll/compute", payrollHandler.Compute)
				r.Get("/payroll", payrollHandler.GetPeriod)
				r.Get("/payroll/runs", payrollHandler.ListRuns)
				r.Get("/payroll/export", payrollHandler.Export)
			})
		})
	})

	return r
}
