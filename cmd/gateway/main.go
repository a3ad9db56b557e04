package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	api "github.com/talentroute/assessment-engine/internal/api/http"
	auth "github.com/talentroute/assessment-engine/internal/auth/middleware"
	"github.com/talentroute/assessment-engine/internal/belbin"
	"github.com/talentroute/assessment-engine/internal/catalog"
	"github.com/talentroute/assessment-engine/internal/config"
	"github.com/talentroute/assessment-engine/internal/db"
	"github.com/talentroute/assessment-engine/internal/gate"
	"github.com/talentroute/assessment-engine/internal/general"
	"github.com/talentroute/assessment-engine/internal/neo"
	"github.com/talentroute/assessment-engine/internal/progress"
	"github.com/talentroute/assessment-engine/internal/rbac"
	"github.com/talentroute/assessment-engine/internal/results"
	"github.com/talentroute/assessment-engine/internal/storage"
)

func main() {
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	var cat catalog.Store = catalog.NewSQLStore(dbh, cfg.DBDriver)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cat = catalog.NewCachedStore(cat, rdb, 5*time.Minute)
	}

	prog := progress.NewSQLStore(dbh)
	belbinSvc := belbin.NewService(cat, prog)
	neoSvc := neo.NewService(cat, prog)
	generalSvc := general.NewService(cat, prog)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}
	pub := results.NewPublisher(dbh, results.ServiceStatus{
		Belbin:  belbinSvc,
		Neo:     neoSvc,
		General: generalSvc,
	}, cat, bs)

	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)
	resumeGate := gate.NewSQLChecker(dbh)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, cfg.Mode == config.ModeOffline))

		pr.With(rbac.Require("user:change_password")).
			Post("/me/password", api.ChangePasswordHandler(dbh))

		// Read-only track surfaces.
		pr.Group(func(vr chi.Router) {
			vr.Use(rbac.Require("exam:view"))
			vr.Get("/belbin/questions", api.ListBelbinQuestionsHandler(cat))
			vr.Get("/belbin/questions/next", api.BelbinNextQuestionHandler(belbinSvc))
			vr.Get("/neo/questions", api.ListNeoQuestionsHandler(cat))
			vr.Get("/neo/questions/next", api.NeoNextQuestionHandler(neoSvc))
			vr.Get("/neo/questions/{questionID}/neighbor", api.NeoNavigateHandler(neoSvc))
			vr.Get("/general/exams", api.ListGeneralExamsHandler(cat))
			vr.Get("/general/exams/{examID}", api.GetGeneralExamHandler(cat))
			vr.Get("/general/exams/{examID}/status", api.GeneralStatusHandler(generalSvc))
		})

		pr.Group(func(or chi.Router) {
			or.Use(rbac.RequireAny("answer:view-own", "results:view"))
			or.Get("/belbin/answers", api.BelbinAnswersHandler(belbinSvc))
			or.Get("/neo/answers", api.NeoAnswersHandler(neoSvc))
			or.Get("/neo/questions/{questionID}/answer", api.NeoAnswerForQuestionHandler(neoSvc))
			or.Get("/neo/score", api.NeoScoreHandler(neoSvc))
			or.Get("/general/exams/{examID}/answers", api.GeneralAnswersHandler(generalSvc))
			or.Get("/general/exams/{examID}/score", api.GeneralScoreHandler(generalSvc))
			or.Get("/general/my-exams", api.UserExamsHandler(generalSvc))
			or.Get("/results/{track}", api.MyResultHandler(pub))
		})

		// Mutations are gated on resume completion.
		pr.Group(func(mr chi.Router) {
			mr.Use(rbac.Require("answer:submit"), gate.RequireResume(resumeGate))
			mr.Post("/belbin/answers", api.SubmitBelbinAnswerHandler(belbinSvc))
			mr.Post("/neo/answers", api.SubmitNeoAnswerHandler(neoSvc))
			mr.Post("/general/exams/{examID}/start", api.StartGeneralExamHandler(generalSvc))
			mr.Post("/general/exams/{examID}/answers", api.SubmitGeneralAnswerHandler(generalSvc))
		})
		pr.Group(func(fr chi.Router) {
			fr.Use(rbac.Require("track:finish"), gate.RequireResume(resumeGate))
			fr.Post("/belbin/finish", api.FinishBelbinHandler(belbinSvc))
			fr.Post("/neo/finish", api.FinishNeoHandler(neoSvc))
			fr.Post("/general/exams/{examID}/finish", api.FinishGeneralExamHandler(generalSvc))
		})

		// Admin surface.
		pr.Group(func(ar chi.Router) {
			ar.Use(rbac.Require("catalog:write"))
			ar.Post("/admin/belbin/questions", api.PutBelbinQuestionHandler(cat))
			ar.Delete("/admin/belbin/questions/{questionID}", api.DeleteBelbinQuestionHandler(cat))
			ar.Post("/admin/neo/questions", api.PutNeoQuestionHandler(cat))
			ar.Delete("/admin/neo/questions/{questionID}", api.DeleteNeoQuestionHandler(cat))
			ar.Put("/admin/neo/likert-labels", api.RelabelNeoLikertHandler(cat))
			ar.Post("/admin/general/exams", api.PutGeneralExamHandler(cat))
			ar.Delete("/admin/general/exams/{examID}", api.DeleteGeneralExamHandler(cat))
			ar.Post("/admin/general/exams/{examID}/questions", api.PutGeneralQuestionHandler(cat))
			ar.Delete("/admin/general/questions/{questionID}", api.DeleteGeneralQuestionHandler(cat))
		})
		pr.Group(func(ar chi.Router) {
			ar.Use(rbac.Require("results:upload"))
			ar.Post("/admin/results/batch", api.BatchUploadResultsHandler(pub))
			ar.Post("/admin/results/{track}", api.UploadResultHandler(pub))
		})
		pr.Group(func(ar chi.Router) {
			ar.Use(rbac.Require("results:view"))
			ar.Get("/admin/results/{track}/{userID}", api.UserResultHandler(pub))
			ar.Route("/admin/artifacts", func(fr chi.Router) {
				api.MountArtifacts(fr, bs)
			})
		})
		pr.Group(func(ar chi.Router) {
			ar.Use(rbac.Require("stats:view"))
			ar.Get("/admin/belbin/stats", api.BelbinStatsHandler(belbinSvc))
			ar.Get("/admin/neo/stats", api.NeoStatsHandler(neoSvc))
		})
		pr.Group(func(ar chi.Router) {
			ar.Use(rbac.Require("track:reset"))
			ar.Post("/admin/belbin/reset/{userID}", api.AdminResetBelbinHandler(belbinSvc))
			ar.Post("/admin/neo/reset/{userID}", api.AdminResetNeoHandler(neoSvc))
			ar.Post("/admin/general/exams/{examID}/reset/{userID}", api.AdminResetGeneralExamHandler(generalSvc))
		})
		pr.Group(func(ar chi.Router) {
			ar.Use(rbac.Require("users:manage"))
			ar.Post("/admin/users/bulk", api.BulkUpsertUsersHandler(dbh))
			ar.Get("/admin/users", api.ListUsersHandler(dbh))
			ar.Post("/admin/users/resume-completed", api.SetResumeCompletedHandler(dbh))
		})
	})

	log.Printf("assessment gateway listening on %s (mode=%s, driver=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
