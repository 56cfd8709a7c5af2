// Command runtrack serves the running-metrics API. It accepts keypoint frames
// over HTTP, keeps the live session, and stores finished sessions in SQLite.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/cadence.report/internal/api"
	"github.com/banshee-data/cadence.report/internal/config"
	"github.com/banshee-data/cadence.report/internal/db"
	"github.com/banshee-data/cadence.report/internal/emitter"
	"github.com/banshee-data/cadence.report/internal/profile"
	"github.com/banshee-data/cadence.report/internal/timeutil"
	"github.com/banshee-data/cadence.report/internal/tracker"
	"github.com/banshee-data/cadence.report/internal/units"
	"github.com/banshee-data/cadence.report/internal/version"
)

var (
	devMode     = flag.Bool("dev", false, "Run in dev mode (tracker diagnostics and per-frame trace on stderr)")
	listen      = flag.String("listen", ":8080", "Listen address")
	dbPath      = flag.String("db", "cadence.db", "SQLite database for finished sessions (empty disables storage)")
	configPath  = flag.String("config", "", "Tuning config JSON (defaults to compiled-in values)")
	profilePath = flag.String("profile", "", "Runner profile YAML")
	mqttBroker  = flag.String("mqtt-broker", "", "MQTT broker address (empty disables publishing)")
	mqttTopic   = flag.String("mqtt-topic", "cadence", "MQTT topic prefix")
	mqttClient  = flag.String("mqtt-client-id", "runtrack", "MQTT client ID")
	unitsFlag   = flag.String("units", units.MPS, "Default speed units: "+units.GetValidUnitsString())
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if flag.Arg(0) == "migrate" {
		if err := db.RunMigrateCommand(flag.Args()[1:], *dbPath, os.Stdout); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if !units.IsValid(*unitsFlag) {
		log.Fatalf("Invalid units %q, must be one of: %s", *unitsFlag, units.GetValidUnitsString())
	}

	configureLogging(*devMode)

	tuning, err := loadTuning(*configPath)
	if err != nil {
		log.Fatalf("Failed to load tuning config: %v", err)
	}
	p, err := loadProfile(*profilePath)
	if err != nil {
		log.Fatalf("Failed to load profile: %v", err)
	}
	log.Printf("runner profile: height %.0fcm weight %.0fkg stride %.2fm", p.HeightCm, p.WeightKg, p.StrideLength())

	var store *db.DB
	if *dbPath != "" {
		store, err = db.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer store.Close()
	}

	var pub *emitter.MQTT
	if *mqttBroker != "" {
		pub, err = emitter.Connect(emitter.Options{
			Broker:   *mqttBroker,
			ClientID: *mqttClient,
			Topic:    *mqttTopic,
		})
		if err != nil {
			log.Fatalf("Failed to connect to MQTT broker: %v", err)
		}
		defer pub.Close()
	}

	t := tracker.New(tuning, p, timeutil.RealClock{})
	handler, err := newHandler(t, store, pub, *unitsFlag)
	if err != nil {
		log.Fatalf("Failed to build routes: %v", err)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()

		server := &http.Server{
			Addr:              *listen,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: runtrack [flags]\n       runtrack [-db path] migrate <action>\n\nFlags:\n")
	flag.PrintDefaults()
	fmt.Fprintln(out)
	db.PrintMigrateHelp(out)
}

// configureLogging routes the tracker's streams. Session lifecycle always
// goes to stderr; diagnostics and per-frame traces only in dev mode.
func configureLogging(dev bool) {
	if dev {
		tracker.SetLogWriters(os.Stderr, os.Stderr, os.Stderr)
		return
	}
	tracker.SetLogWriters(os.Stderr, nil, nil)
}

// loadTuning reads the tuning file, or returns the compiled-in defaults when
// path is empty.
func loadTuning(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.EmptyTuningConfig(), nil
	}
	return config.LoadTuningConfig(path)
}

// loadProfile reads the runner profile, or returns the default profile when
// path is empty.
func loadProfile(path string) (profile.UserProfile, error) {
	if path == "" {
		return profile.Default(), nil
	}
	return profile.Load(path)
}

// newHandler mounts the API and, when a store is configured, the database
// admin routes, wrapped in request logging.
func newHandler(t *tracker.Tracker, store *db.DB, pub *emitter.MQTT, unit string) (http.Handler, error) {
	// Typed nils must not reach the API's interfaces.
	var (
		s api.Store
		p emitter.Publisher
	)
	if store != nil {
		s = store
	}
	if pub != nil {
		p = pub
	}
	mux := api.NewServer(t, s, p, unit).ServeMux()
	if store != nil {
		if err := store.AttachAdminRoutes(mux); err != nil {
			return nil, err
		}
	}
	return api.LoggingMiddleware(mux), nil
}
