package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/robfig/cron/v3"

	api "github.com/opencampus/courseplayer/internal/api/http"
	"github.com/opencampus/courseplayer/internal/assessment"
	"github.com/opencampus/courseplayer/internal/auth"
	"github.com/opencampus/courseplayer/internal/config"
	"github.com/opencampus/courseplayer/internal/content"
	"github.com/opencampus/courseplayer/internal/db"
	"github.com/opencampus/courseplayer/internal/eventlog"
	"github.com/opencampus/courseplayer/internal/progression"
	"github.com/opencampus/courseplayer/internal/store"
)

func main() {
	cfg := config.FromEnv()

	catalog, err := content.Load(cfg.ContentPath)
	if err != nil {
		log.Fatalf("load catalog: %v", err)
	}

	engine := assessment.NewEngine(
		assessment.WithPassThreshold(cfg.PassThreshold),
		assessment.WithMaxViolations(cfg.ProctorMax),
		assessment.WithStrictSignals(cfg.StrictProctoring),
	)
	policy := progression.Policy{
		ModuleStepDays:  cfg.ModuleUnlockStep,
		LessonDateGates: cfg.LessonDateGates,
		AutoAdvance:     cfg.AutoAdvance,
	}

	var (
		snapshots progression.SnapshotStore
		mgrOpts   []progression.ManagerOption
	)
	if cfg.DBDriver == "memory" {
		snapshots = store.NewMemoryStore()
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			log.Fatalf("db open failed: %v", err)
		}
		snapshots = store.NewSQLStore(dbh)
		mgrOpts = append(mgrOpts, progression.WithEventSink(eventlog.NewRepo(dbh)))
	}

	mgr := progression.NewManager(catalog, policy, engine, snapshots, mgrOpts...)
	authSvc := auth.NewService(cfg.AuthSecret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/session", auth.SessionHandler(authSvc))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.Middleware(authSvc))
		pr.Route("/api", func(ar chi.Router) {
			api.Mount(ar, mgr)
		})
	})

	r.Group(func(ar chi.Router) {
		ar.Use(auth.AdminMiddleware(cfg.AdminUser, cfg.AdminPassHash))
		ar.Route("/admin", func(rr chi.Router) {
			api.MountAdmin(rr, mgr)
		})
	})

	if cfg.AbsenceSweepSpec != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.AbsenceSweepSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := mgr.SweepAbsences(ctx); err != nil {
				log.Printf("absence sweep: %v", err)
			}
		}); err != nil {
			log.Fatalf("bad ABSENCE_SWEEP spec %q: %v", cfg.AbsenceSweepSpec, err)
		}
		c.Start()
		log.Printf("absence sweep scheduled: %s", cfg.AbsenceSweepSpec)
	}

	log.Printf("courseplayer listening on %s", cfg.HTTPAddr)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
