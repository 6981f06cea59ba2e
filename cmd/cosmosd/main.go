// cosmosd is the node daemon. It builds the node's namespace registry from
// its description files, publishes state of health over MQTT, exports it to
// InfluxDB, keeps snapshots in SQLite and serves the registry over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/hsfl/cosmos-core-sub000/internal/api"
	"github.com/hsfl/cosmos-core-sub000/internal/infrastructure/config"
	"github.com/hsfl/cosmos-core-sub000/internal/infrastructure/database"
	"github.com/hsfl/cosmos-core-sub000/internal/infrastructure/influxdb"
	"github.com/hsfl/cosmos-core-sub000/internal/infrastructure/logging"
	"github.com/hsfl/cosmos-core-sub000/internal/infrastructure/metrics"
	"github.com/hsfl/cosmos-core-sub000/internal/infrastructure/mqtt"
	ns "github.com/hsfl/cosmos-core-sub000/internal/namespace"
	"github.com/hsfl/cosmos-core-sub000/internal/node"
	"github.com/hsfl/cosmos-core-sub000/internal/snapshot"
	"github.com/hsfl/cosmos-core-sub000/internal/telemetry"
	"github.com/hsfl/cosmos-core-sub000/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// shutdownTimeout bounds the final snapshot taken on shutdown.
const shutdownTimeout = 10 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the daemon lifecycle, separated from main for testability. It
// returns nil on a clean shutdown.
func run(ctx context.Context, args []string) error { //nolint:gocognit,gocyclo // linear startup sequence
	flags := pflag.NewFlagSet("cosmosd", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", getConfigPath(), "path to the YAML configuration file")
	showVersion := flags.Bool("version", false, "print version and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Printf("cosmosd %s (%s, %s)\n", version, commit, date)
		return nil
	}

	log := logging.Default()
	log.Info("starting cosmosd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", *configPath)

	log = logging.New(cfg.Logging, version)

	// Build the registry from the node description files.
	reg := ns.New()
	reg.SetMaxEntries(cfg.Node.MaxEntries)
	loader := node.NewLoader(os.DirFS(cfg.Node.Dir))
	loader.SetLogger(log)
	rec, stats, err := loader.Load(reg)
	if err != nil {
		return fmt.Errorf("loading node %s: %w", cfg.Node.Dir, err)
	}

	name := cfg.Node.Name
	if name == "" {
		name = rec.Node.Name
	}
	log = log.ForNode(name)
	log.Info("node loaded",
		"dir", cfg.Node.Dir,
		"entries", reg.Count(),
		"files", len(stats.Files),
		"aliases", stats.Aliases,
		"alias_errors", len(stats.AliasErrors),
	)

	registry := metrics.NewRegistry()
	registry.Metrics.Entries.Set(float64(reg.Count()))

	guard := telemetry.NewGuard(reg)
	agent, err := telemetry.NewAgent(telemetry.Config{
		Node:   name,
		SOH:    cfg.Node.SOH,
		Period: cfg.GetHeartbeatPeriod(),
		QoS:    byte(cfg.MQTT.QoS), //nolint:gosec // validated to 0..2
	}, guard)
	if err != nil {
		return fmt.Errorf("creating telemetry agent: %w", err)
	}
	agent.SetLogger(log)
	agent.SetMetrics(registry.Metrics)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if err := db.Migrate(ctx, migrations.FS()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	snapshots := snapshot.NewRepository(db.DB)
	snapshots.SetMetrics(registry.Metrics)
	if cfg.Snapshot.Restore {
		restoreSnapshot(ctx, snapshots, agent, rec, log)
	}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	var mirror *telemetry.Mirror
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT, name)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
			registry.Metrics.RecordMQTTStatus(true)
			if pubErr := agent.PublishCatalogue(); pubErr != nil {
				log.Warn("catalogue not republished", "error", pubErr)
			}
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
			registry.Metrics.RecordMQTTStatus(false)
		})
		registry.Metrics.RecordMQTTStatus(true)
		agent.SetPublisher(mqttClient)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		)

		if cfg.Node.MirrorRemote {
			mirror = telemetry.NewMirror(name, cfg.Node.MaxEntries)
			mirror.SetLogger(log)
			if err := mirror.Attach(mqttClient, byte(cfg.MQTT.QoS)); err != nil { //nolint:gosec // validated to 0..2
				return fmt.Errorf("attaching mirror: %w", err)
			}
			log.Info("mirroring remote nodes")
		}
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		agent.SetExporter(influxClient)
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	if err := agent.Start(ctx); err != nil {
		return fmt.Errorf("starting telemetry agent: %w", err)
	}
	defer func() {
		log.Info("stopping telemetry agent")
		agent.Stop()
	}()
	log.Info("telemetry agent started", "period", cfg.GetHeartbeatPeriod(), "soh", cfg.Node.SOH)

	if cfg.Snapshot.Enabled {
		scheduler := snapshot.NewScheduler(snapshots, name, wireSource(guard),
			cfg.GetSnapshotInterval(), cfg.GetSnapshotRetention())
		scheduler.SetLogger(log)
		scheduler.Start(ctx)
		defer func() {
			log.Info("taking final snapshot")
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			scheduler.Stop(stopCtx)
		}()
	}

	deps := api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Security:  cfg.Security,
		Logger:    log,
		Agent:     agent,
		Snapshots: snapshots,
		DB:        db,
		Metrics:   registry,
		Version:   version,
	}
	if mqttClient != nil {
		deps.MQTT = mqttClient
	}
	if mirror != nil {
		deps.Mirror = mirror
	}
	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal", "api", server.Addr())

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses COSMOS_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("COSMOS_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// wireSource renders every entry of the registry as wire text.
func wireSource(guard *telemetry.Guard) snapshot.Source {
	return func() (string, error) {
		var text string
		err := guard.Do(func(r *ns.Registry) error {
			var err error
			text, err = r.SerializeMatch("*")
			return err
		})
		return text, err
	}
}

// restoreSnapshot applies the newest snapshot of the node, if any. A missing
// or unreadable snapshot is logged and startup continues from the files.
// Applying the snapshot enables every entry it names, so the hardware
// enabled flags are derived again from rec afterwards.
func restoreSnapshot(ctx context.Context, repo *snapshot.Repository, agent *telemetry.Agent, rec *node.Record, log *logging.Logger) {
	snap, err := repo.Latest(ctx, agent.Node())
	if errors.Is(err, snapshot.ErrNotFound) {
		log.Info("no snapshot to restore")
		return
	}
	if err != nil {
		log.Warn("snapshot not restored", "error", err)
		return
	}
	st, err := agent.Apply(snap.Text)
	_ = agent.Guard().Do(func(r *ns.Registry) error {
		node.ApplyEnabled(r, rec)
		return nil
	})
	if err != nil {
		log.Warn("snapshot not restored", "id", snap.ID, "error", err)
		return
	}
	log.Info("snapshot restored",
		"id", snap.ID,
		"taken", snap.CreatedAt,
		"matched", st.Matched,
		"skipped", st.Skipped,
	)
}

// healthCheck verifies the infrastructure connections. mqttClient and
// influxClient may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
