package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/relief-portal-api/api"
	"github.com/linesmerrill/relief-portal-api/api/scheduler"
	"github.com/linesmerrill/relief-portal-api/config"
	"github.com/linesmerrill/relief-portal-api/databases"
	"github.com/linesmerrill/relief-portal-api/jurisdiction"
	"github.com/linesmerrill/relief-portal-api/ledger"
	"github.com/linesmerrill/relief-portal-api/models"
	"github.com/linesmerrill/relief-portal-api/moderation"
	"github.com/linesmerrill/relief-portal-api/notify"
	"github.com/linesmerrill/relief-portal-api/storage"
	"github.com/linesmerrill/relief-portal-api/verification"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Sessions  *api.SessionManager
	Storage   storage.Uploader
	Mailer    notify.Mailer
	Metrics   *api.Collector
	Directory jurisdiction.Directory
	client    databases.ClientHelper
	dbHelper  databases.DatabaseHelper
}

func (a *App) ledger() *ledger.Service {
	return &ledger.Service{
		Funds:        databases.NewFundDatabase(a.dbHelper),
		Applications: databases.NewFundApplicationDatabase(a.dbHelper),
		Transactions: databases.NewFundTransactionDatabase(a.dbHelper),
		Nominees:     databases.NewNomineeDatabase(a.dbHelper),
		Victims:      databases.NewVictimDatabase(a.dbHelper),
		Users:        databases.NewUserDatabase(a.dbHelper),
		Tx:           databases.NewTransactor(a.client),
	}
}

func (a *App) moderation() *moderation.Service {
	return &moderation.Service{
		Articles: databases.NewArticleDatabase(a.dbHelper),
		Gallery:  databases.NewGalleryDatabase(a.dbHelper),
		Counters: databases.NewCounterDatabase(a.dbHelper),
	}
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	if a.Directory == nil {
		a.Directory = jurisdiction.Default()
	}
	if a.Sessions == nil {
		a.Sessions = api.NewSessionManager(context.Background(), a.Config.JWTSecret, a.Config.SessionTTL, a.Config.SecureCookies)
	}
	if a.Storage == nil {
		a.Storage = storage.Disabled{}
	}
	if a.Metrics == nil {
		a.Metrics = api.NewCollector(api.SlowRequest)
	}
	s := a.Sessions
	verifier := verification.New()
	funds := a.ledger()

	r := mux.NewRouter()
	r.Use(api.RequestLogger(a.Metrics))

	auth := Auth{DB: databases.NewUserDatabase(a.dbHelper), Sessions: s}
	u := User{
		DB:            databases.NewUserDatabase(a.dbHelper),
		Nominees:      databases.NewNomineeDatabase(a.dbHelper),
		Victims:       databases.NewVictimDatabase(a.dbHelper),
		Sessions:      s,
		Directory:     a.Directory,
		OfficerDomain: a.Config.OfficerEmailDomain,
	}
	v := Victim{
		DB:        databases.NewVictimDatabase(a.dbHelper),
		Counters:  databases.NewCounterDatabase(a.dbHelper),
		Storage:   a.Storage,
		Verifier:  verifier,
		Ledger:    funds,
		Directory: a.Directory,
	}
	n := Nominee{DB: databases.NewNomineeDatabase(a.dbHelper), Verifier: verifier}
	f := Fund{Ledger: funds}
	c := Content{Moderation: a.moderation(), Storage: a.Storage}
	loc := Locations{Directory: a.Directory}
	m := Metrics{Collector: a.Metrics}

	reviewers := s.RequireRole(models.RoleOfficer, models.RoleAdmin)
	admins := s.RequireRole(models.RoleAdmin)

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(a.Config.RequestTimeout))

	apiCreate.Handle("/auth/login", http.HandlerFunc(auth.LoginHandler)).Methods("POST")
	apiCreate.Handle("/auth/logout", s.Middleware(http.HandlerFunc(auth.LogoutHandler))).Methods("POST")
	apiCreate.Handle("/auth/session", s.Middleware(http.HandlerFunc(auth.SessionHandler))).Methods("GET")

	apiCreate.Handle("/users", http.HandlerFunc(u.SignupHandler)).Methods("POST")
	apiCreate.Handle("/users", admins(http.HandlerFunc(u.UsersHandler))).Methods("GET")
	apiCreate.Handle("/users/profile", s.Middleware(http.HandlerFunc(u.ProfileHandler))).Methods("GET")
	apiCreate.Handle("/users/profile", s.Middleware(http.HandlerFunc(u.CompleteProfileHandler))).Methods("POST")
	apiCreate.Handle("/users/uno", admins(http.HandlerFunc(u.OfficersHandler))).Methods("GET")
	apiCreate.Handle("/users/uno", admins(http.HandlerFunc(u.ProvisionOfficerHandler))).Methods("POST")

	apiCreate.Handle("/locations", http.HandlerFunc(loc.LocationsHandler)).Methods("GET")

	apiCreate.Handle("/victims", s.Optional(http.HandlerFunc(v.CreateVictimHandler))).Methods("POST")
	apiCreate.Handle("/victims", s.Optional(http.HandlerFunc(v.VictimsHandler))).Methods("GET")
	apiCreate.Handle("/victims/{victim_id}", s.Optional(http.HandlerFunc(v.VictimByIDHandler))).Methods("GET")
	apiCreate.Handle("/victims/{victim_id}/verify", reviewers(http.HandlerFunc(v.VerifyVictimHandler))).Methods("PUT")
	apiCreate.Handle("/victims/{victim_id}/financial-support", http.HandlerFunc(v.FinancialSupportHandler)).Methods("GET")

	apiCreate.Handle("/nominees", reviewers(http.HandlerFunc(n.NomineesHandler))).Methods("GET")
	apiCreate.Handle("/nominees/profile", s.RequireRole(models.RoleNominee)(http.HandlerFunc(n.NomineeProfileHandler))).Methods("GET")
	apiCreate.Handle("/nominees/{nominee_id}/verify", reviewers(http.HandlerFunc(n.VerifyNomineeHandler))).Methods("PUT")

	apiCreate.Handle("/funds", s.Middleware(http.HandlerFunc(f.CreateFundHandler))).Methods("POST")
	apiCreate.Handle("/funds", s.Middleware(http.HandlerFunc(f.FundsHandler))).Methods("GET")
	apiCreate.Handle("/funds/apply", s.Middleware(http.HandlerFunc(f.ApplyHandler))).Methods("POST")
	apiCreate.Handle("/funds/applications", s.Middleware(http.HandlerFunc(f.ApplicationsHandler))).Methods("GET")
	apiCreate.Handle("/funds/applications/nominee-action", s.Middleware(http.HandlerFunc(f.NomineeActionHandler))).Methods("POST")
	apiCreate.Handle("/funds/applications/{application_id}", s.Middleware(http.HandlerFunc(f.DecideHandler))).Methods("PUT")

	apiCreate.Handle("/admin/reported-donations", admins(http.HandlerFunc(f.ReportedDonationsHandler))).Methods("GET")
	apiCreate.Handle("/admin/metrics", admins(http.HandlerFunc(m.MetricsHandler))).Methods("GET")

	apiCreate.Handle("/articles", http.HandlerFunc(c.CreateArticleHandler)).Methods("POST")
	apiCreate.Handle("/articles", s.Optional(http.HandlerFunc(c.ArticlesHandler))).Methods("GET")
	apiCreate.Handle("/articles/{article_id}", s.Optional(http.HandlerFunc(c.ArticleByIDHandler))).Methods("GET")
	apiCreate.Handle("/articles/{article_id}", admins(http.HandlerFunc(c.ModerateArticleHandler))).Methods("PUT")

	apiCreate.Handle("/gallery", http.HandlerFunc(c.CreateGalleryItemHandler)).Methods("POST")
	apiCreate.Handle("/gallery", s.Optional(http.HandlerFunc(c.GalleryHandler))).Methods("GET")
	apiCreate.Handle("/gallery/{item_id}", admins(http.HandlerFunc(c.ModerateGalleryItemHandler))).Methods("PUT")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize(ctx context.Context) error {
	client, err := databases.NewClient(ctx, &a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}
	if err := client.Ping(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	zap.S().Info("relief-portal-api has connected to the database")

	if err := databases.EnsureIndexes(ctx, a.dbHelper); err != nil {
		zap.S().With(err).Error("failed to create indexes")
		return err
	}
	if err := databases.EnsureHeadAdmin(ctx, databases.NewUserDatabase(a.dbHelper), a.Config.HeadAdminEmail, a.Config.HeadAdminPassword); err != nil {
		zap.S().With(err).Error("failed to create head admin")
		return err
	}

	a.Storage, err = storage.New(a.Config.CloudinaryURL)
	if err != nil {
		return err
	}
	a.Mailer = notify.New(a.Config.SendGridAPIKey, a.Config.MailFromName, a.Config.MailFromAddress)
	a.Sessions = api.NewSessionManager(ctx, a.Config.JWTSecret, a.Config.SessionTTL, a.Config.SecureCookies).
		CheckAccounts(ctx, databases.NewUserDatabase(a.dbHelper))
	a.Metrics = api.NewCollector(api.SlowRequest)
	a.Directory = jurisdiction.Default()

	// initialize api router
	a.initializeRoutes()
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// Scheduler builds the background jobs sharing the app's database connection
func (a *App) Scheduler() *scheduler.Scheduler {
	return &scheduler.Scheduler{
		Ledger:            a.ledger(),
		Moderation:        a.moderation(),
		Users:             databases.NewUserDatabase(a.dbHelper),
		Locks:             databases.NewSchedulerLockDatabase(a.dbHelper),
		Mailer:            a.Mailer,
		InstanceID:        instanceID(),
		DigestSchedule:    a.Config.DigestSchedule,
		ReconcileSchedule: a.Config.ReconcileSchedule,
		DashboardURL:      a.Config.BaseURL,
	}
}

// Close disconnects from the database
func (a *App) Close(ctx context.Context) error {
	if a.client == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}

// instanceID names this process when competing for scheduler locks
func instanceID() string {
	if dyno := os.Getenv("DYNO"); dyno != "" {
		return dyno
	}
	host, _ := os.Hostname()
	return host + "-" + strconv.FormatInt(time.Now().UnixNano(), 36)
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
