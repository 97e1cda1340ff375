package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dpsweb/school-web/internal/auth"
	"github.com/dpsweb/school-web/internal/config"
	"github.com/dpsweb/school-web/internal/content"
	"github.com/dpsweb/school-web/internal/faculty"
	"github.com/dpsweb/school-web/internal/gallery"
	"github.com/dpsweb/school-web/internal/gate"
	"github.com/dpsweb/school-web/internal/logging"
	"github.com/dpsweb/school-web/internal/media"
	"github.com/dpsweb/school-web/internal/ratelimit"
)

// Rate-limit windows. The auth endpoint gets a much tighter budget than the
// rest of the API so credential guessing stalls long before the global cap.
const (
	globalRateMax    = 300
	authRateMax      = 5
	rateLimitWindow  = time.Minute
	memSweepInterval = time.Minute
)

// CLI flags
var (
	portFlag    int
	webFlag     string
	dataDirFlag string
)

// Baked in at build time:
//
//	go build -ldflags "-X main.commitHash=$(git rev-parse --short HEAD) -X main.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	commitHash = "dev"
	buildTime  = ""
)

var rootCmd = &cobra.Command{
	Use:   "school-web",
	Short: "Web server and admin API for the school marketing site",
	Long: `school-web serves the public school site plus the authenticated admin
API: content editing, hosted media, faculty records, and the legacy gallery.

Examples:
  school-web
  school-web --port 9090
  school-web --web ./site`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 8080, "Port to listen on")
	rootCmd.Flags().StringVar(&webFlag, "web", "web", "Directory of static site files")
	rootCmd.Flags().StringVar(&dataDirFlag, "data-dir", "", "Content data directory (overrides SCHOOL_DATA_DIR)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app wires the stores and guards behind the HTTP handlers.
type app struct {
	verifier auth.Verifier
	content  *content.Store
	gallery  *gallery.Store
	faculty  *faculty.Store
	media    *media.Guard // nil when no media bucket is configured
}

func runMain(cmd *cobra.Command, args []string) {
	logging.Init()
	start := time.Now()

	cfg := config.Load()
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		log.Warn().Msg("Admin credentials not configured; all admin logins will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	verifier := auth.NewStaticVerifier(cfg.AdminUsername, cfg.AdminPassword)
	contentStore := content.NewStore(cfg.DataDir)
	galleryStore := gallery.NewStore(cfg.DataDir)
	facultyStore := faculty.NewStore(verifier, contentStore)

	a := &app{
		verifier: verifier,
		content:  contentStore,
		gallery:  galleryStore,
		faculty:  facultyStore,
	}

	// AWS clients are only constructed when something actually needs them.
	var awsCfg aws.Config
	if cfg.MediaBucket != "" || cfg.RateLimitTable != "" {
		c, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load AWS configuration")
		}
		awsCfg = c
	}

	if err := cfg.ValidateForMedia(); err != nil {
		log.Info().Str("reason", err.Error()).Msg("Media endpoints disabled")
	} else {
		host := media.NewS3Host(s3.NewFromConfig(awsCfg), cfg.MediaBucket, cfg.MediaBaseURL)
		a.media = media.NewGuard(verifier, host, contentStore)
	}

	var counterStore ratelimit.CounterStore
	if cfg.RateLimitTable != "" {
		counterStore = ratelimit.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.RateLimitTable)
	} else {
		mem := ratelimit.NewMemoryStore()
		mem.StartSweeper(ctx, memSweepInterval)
		counterStore = mem
	}

	g := gate.New(
		ratelimit.New(counterStore, "global", globalRateMax, rateLimitWindow),
		ratelimit.New(counterStore, "auth", authRateMax, rateLimitWindow),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/api/admin/login", a.handleLogin)
	mux.HandleFunc("/api/admin/logout", a.handleLogout)
	mux.HandleFunc("/api/admin/session", a.handleSession)
	mux.HandleFunc("/api/content", a.handleContent)
	mux.HandleFunc("/api/media", a.handleMedia)
	mux.HandleFunc("/api/faculty", a.handleFaculty)
	mux.HandleFunc("/api/faculty/", a.handleFacultyItem)
	mux.HandleFunc("/api/gallery", a.handleGallery)

	// Static site, including the admin UI under /admin/. The gate redirects
	// unauthenticated admin-UI requests before they reach the file server.
	mux.Handle("/", http.FileServer(http.Dir(webFlag)))

	handler := withRecover(withLogging(withMetrics(g.Middleware(mux))))

	addr := fmt.Sprintf(":%d", portFlag)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	sl := logging.NewStartupLogger("school-web").
		CommitHash(commitHash).
		BuildTime(buildTime).
		DataDir("content", cfg.DataDir).
		DataDir("web", webFlag).
		Feature("media", a.media != nil).
		Feature("dynamoRateLimit", cfg.RateLimitTable != "").
		Config("port", fmt.Sprintf("%d", portFlag)).
		InitDuration(time.Since(start))
	if cfg.MediaBucket != "" {
		sl.S3Bucket("media", cfg.MediaBucket)
	}
	if cfg.RateLimitTable != "" {
		sl.DynamoTable("rateLimit", cfg.RateLimitTable)
	}
	sl.Log()

	log.Info().Int("port", portFlag).Msg("Starting web server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
