package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/seanma333/project-metronome-app-sub000/api/swagger"
	"github.com/seanma333/project-metronome-app-sub000/internal/geocode"
	"github.com/seanma333/project-metronome-app-sub000/internal/handler"
	"github.com/seanma333/project-metronome-app-sub000/internal/middleware"
	"github.com/seanma333/project-metronome-app-sub000/internal/models"
	"github.com/seanma333/project-metronome-app-sub000/internal/repository"
	"github.com/seanma333/project-metronome-app-sub000/internal/service"
	"github.com/seanma333/project-metronome-app-sub000/pkg/cache"
	"github.com/seanma333/project-metronome-app-sub000/pkg/config"
	"github.com/seanma333/project-metronome-app-sub000/pkg/database"
	"github.com/seanma333/project-metronome-app-sub000/pkg/logger"
	corsmiddleware "github.com/seanma333/project-metronome-app-sub000/pkg/middleware/cors"
	reqidmiddleware "github.com/seanma333/project-metronome-app-sub000/pkg/middleware/requestid"
	"github.com/seanma333/project-metronome-app-sub000/pkg/storage"
)

// @title Metronome API
// @version 1.0.0
// @description Music lesson scheduling marketplace API
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	avatarStore, err := storage.NewAvatarStore(cfg.Avatars.StorageDir, cfg.Avatars.MaxFileSizeBytes, cfg.Avatars.AllowedMIMEs)
	if err != nil {
		logr.Sugar().Fatalw("failed to init avatar store", "error", err)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	timeslotRepo := repository.NewTimeslotRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	calendarRepo := repository.NewCalendarEventRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Search.CacheTTL, logr, true)
	geocoder := geocode.New(cfg.Geocoding, cacheRepo, metricsSvc, logr)
	identitySvc := service.NewIdentityService(userRepo, validate, logr, service.IdentityConfig{
		TokenSecret: cfg.Auth.TokenSecret,
		Issuer:      cfg.Auth.Issuer,
		Leeway:      cfg.Auth.Leeway,
	})
	teacherSvc := service.NewTeacherService(teacherRepo, userRepo, timeslotRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	timeslotSvc := service.NewTimeslotService(timeslotRepo, userRepo, validate, logr)
	calendarSvc := service.NewCalendarService(calendarRepo, lessonRepo, timeslotRepo, userRepo, studentRepo, logr)
	bookingSvc := service.NewBookingService(bookingRepo, timeslotRepo, studentRepo, teacherRepo, validate, logr)
	lessonSvc := service.NewLessonService(lessonRepo, studentRepo, userRepo, validate, logr)
	searchSvc := service.NewSearchService(teacherRepo, addressRepo, studentRepo, geocoder, cacheSvc, cfg.Search, validate, logr)
	addressSvc := service.NewAddressService(addressRepo, geocoder, validate, logr)
	exportSvc := service.NewExportService(timeslotRepo, lessonRepo, logr)

	// Handlers.
	identityHandler := handler.NewIdentityHandler(identitySvc, avatarStore, cfg.Avatars.PublicBaseURL)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	timeslotHandler := handler.NewTimeslotHandler(timeslotSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	lessonHandler := handler.NewLessonHandler(lessonSvc, calendarSvc)
	searchHandler := handler.NewSearchHandler(searchSvc)
	addressHandler := handler.NewAddressHandler(addressSvc)
	exportHandler := handler.NewScheduleExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.Static("/avatars", cfg.Avatars.StorageDir)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Public routes; an optional session renders availability in the
	// viewer's timezone.
	public := api.Group("")
	public.Use(middleware.OptionalSession(identitySvc))
	{
		public.GET("/teachers/:slug", teacherHandler.PublicProfile)
		public.GET("/instruments", teacherHandler.ListInstruments)
		public.GET("/languages", teacherHandler.ListLanguages)
	}

	// Authenticated routes available before onboarding completes.
	session := api.Group("")
	session.Use(middleware.Session(identitySvc))
	{
		session.GET("/me", identityHandler.Me)
		session.POST("/me/onboarding", identityHandler.Onboard)
		session.PATCH("/me", identityHandler.Update)
		session.PUT("/me/avatar", identityHandler.UploadAvatar)
	}

	onboarded := api.Group("")
	onboarded.Use(middleware.Session(identitySvc), middleware.RequireOnboarded())
	{
		onboarded.GET("/addresses", addressHandler.List)
		onboarded.POST("/addresses", addressHandler.Add)
		onboarded.DELETE("/addresses/:id", addressHandler.Remove)

		onboarded.GET("/lessons", lessonHandler.List)
		onboarded.GET("/lessons/:id", lessonHandler.Get)
		onboarded.GET("/lessons/:id/notes", lessonHandler.ListNotes)
		onboarded.GET("/lessons/:id/calendar-event", lessonHandler.GetCalendarEvent)

		onboarded.GET("/booking-requests", bookingHandler.List)
		onboarded.GET("/search/teachers", searchHandler.Search)
	}

	teachers := api.Group("")
	teachers.Use(middleware.Session(identitySvc), middleware.RequireRoles(models.RoleTeacher))
	{
		teachers.GET("/teachers/me", teacherHandler.GetOwn)
		teachers.PUT("/teachers/me", teacherHandler.Upsert)

		teachers.GET("/timeslots", timeslotHandler.List)
		teachers.POST("/timeslots", timeslotHandler.Create)
		teachers.PATCH("/timeslots/:id", timeslotHandler.Move)
		teachers.DELETE("/timeslots/:id", timeslotHandler.Delete)

		teachers.POST("/booking-requests/:id/accept", bookingHandler.Accept)
		teachers.POST("/booking-requests/:id/deny", bookingHandler.Deny)

		teachers.DELETE("/lessons/:id", lessonHandler.Delete)
		teachers.POST("/lessons/:id/notes", lessonHandler.AddNote)
		teachers.POST("/lessons/:id/calendar-event", lessonHandler.GenerateCalendarEvent)

		teachers.GET("/schedule/export", exportHandler.Export)
	}

	requesters := api.Group("")
	requesters.Use(middleware.Session(identitySvc), middleware.RequireRoles(models.RoleStudent, models.RoleParent))
	{
		requesters.GET("/students", studentHandler.List)
		requesters.POST("/students", studentHandler.Create)
		requesters.GET("/students/:id", studentHandler.Get)
		requesters.PATCH("/students/:id", studentHandler.Update)
		requesters.DELETE("/students/:id", studentHandler.Delete)

		requesters.POST("/booking-requests", bookingHandler.Create)
		requesters.POST("/booking-requests/:id/cancel", bookingHandler.Cancel)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
