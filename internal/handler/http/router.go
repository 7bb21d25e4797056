package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/payroll-engine/internal/config"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-engine/internal/observability"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

func NewRouter(
	appCfg config.AppConfig,
	metrics *observability.Metrics,
	employeeHandler EmployeeHandler,
	attendanceHandler AttendanceHandler,
	overtimeHandler OvertimeHandler,
	leaveHandler LeaveHandler,
	cashAdvanceHandler CashAdvanceHandler,
	payrollHandler PayrollHandler,
	settingsHandler SettingsHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(!appCfg.IsProduction())
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-engine"),
		slog.String("env", appCfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(middleware.SecureHeaders(appCfg.IsProduction()))
	r.Use(metrics.Middleware)
	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", employeeHandler.ListEmployees)
			r.Post("/", employeeHandler.CreateEmployee)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(middleware.RequireUUIDParams("id"))
				r.Get("/", employeeHandler.GetEmployee)
				r.Put("/salary", employeeHandler.UpdateSalary)
				r.Post("/inactivate", employeeHandler.InactivateEmployee)
			})
		})

		r.Route("/attendance", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.ClockRateLimit(appCfg.ClockRateLimit))
				r.Post("/clock-in", attendanceHandler.ClockIn)
				r.Post("/clock-out", attendanceHandler.ClockOut)
			})
			r.Post("/absences", attendanceHandler.MarkAbsent)
			r.Get("/", attendanceHandler.List)
			r.With(middleware.RequireUUIDParams("employeeID")).Get("/summary/{employeeID}", attendanceHandler.Summary)
			r.With(middleware.RequireUUIDParams("id")).Get("/{id}", attendanceHandler.Get)
		})

		r.Route("/overtime", func(r chi.Router) {
			r.Get("/", overtimeHandler.List)
			r.Post("/", overtimeHandler.File)
			r.Get("/action-required", overtimeHandler.ActionRequired)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(middleware.RequireUUIDParams("id"))
				r.Get("/", overtimeHandler.Get)
				r.Post("/approve", overtimeHandler.Approve)
				r.Post("/reject", overtimeHandler.Reject)
				r.Post("/cancel", overtimeHandler.Cancel)
				r.Post("/complete", overtimeHandler.ManualComplete)
			})
		})

		r.Route("/leave", func(r chi.Router) {
			r.Route("/requests", func(r chi.Router) {
				r.Get("/", leaveHandler.List)
				r.Post("/", leaveHandler.File)
				r.Get("/action-required", leaveHandler.ActionRequired)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(middleware.RequireUUIDParams("id"))
					r.Get("/", leaveHandler.Get)
					r.Post("/approve", leaveHandler.Approve)
					r.Post("/reject", leaveHandler.Reject)
					r.Post("/cancel", leaveHandler.Cancel)
					r.Post("/complete", leaveHandler.ManualComplete)
				})
			})
			r.Route("/credits/{employeeID}", func(r chi.Router) {
				r.Use(middleware.RequireUUIDParams("employeeID"))
				r.Get("/", leaveHandler.Credits)
				r.Put("/", leaveHandler.AdjustCredit)
				r.Delete("/", leaveHandler.ResetCredits)
				r.Get("/balance", leaveHandler.Balance)
			})
		})

		r.Route("/cash-advances", func(r chi.Router) {
			r.Get("/", cashAdvanceHandler.List)
			r.Post("/", cashAdvanceHandler.File)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(middleware.RequireUUIDParams("id"))
				r.Get("/", cashAdvanceHandler.Get)
				r.Post("/manager-review", cashAdvanceHandler.ManagerReview)
				r.Post("/admin-review", cashAdvanceHandler.AdminReview)
				r.Post("/cancel", cashAdvanceHandler.Cancel)
				r.Post("/disburse", cashAdvanceHandler.Disburse)
			})
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Post("/compute", payrollHandler.Compute)
			r.Post("/drafts", payrollHandler.RunDraft)
			r.Post("/finalize", payrollHandler.Finalize)
			r.Get("/lines", payrollHandler.ListLines)
			r.Route("/lines/{id}", func(r chi.Router) {
				r.Use(middleware.RequireUUIDParams("id"))
				r.Get("/", payrollHandler.GetLine)
				r.Delete("/", payrollHandler.DeleteDraft)
			})
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", settingsHandler.Get)
			r.Put("/", settingsHandler.Update)
			r.Post("/refresh", settingsHandler.Refresh)
		})
	})
	return r
}
