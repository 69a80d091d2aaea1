package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-feeder/internal/api"
	"github.com/nerrad567/gray-logic-feeder/internal/bus"
	"github.com/nerrad567/gray-logic-feeder/internal/hass"
	"github.com/nerrad567/gray-logic-feeder/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-feeder/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-feeder/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-feeder/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-feeder/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-feeder/internal/netmon"
	"github.com/nerrad567/gray-logic-feeder/internal/settings"
	"github.com/nerrad567/gray-logic-feeder/internal/transport"
	"github.com/nerrad567/gray-logic-feeder/migrations"
)

// defaultPrefixRoot starts the broker prefix when mqtt.prefix is empty.
const defaultPrefixRoot = "feeder/"

// errRestartRequested ends run after a "cmnd/restart" command so that the
// service manager starts a fresh process.
var errRestartRequested = errors.New("restart requested")

// run is the service, separated from main for testability.
func run(ctx context.Context, configPath string, debug bool) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting feeder",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := loadConfig(configPath, debug)
	if err != nil {
		return err
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
	)

	db, err := openDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	restart := func() { cancel(errRestartRequested) }

	g, ctx := errgroup.WithContext(runCtx)

	messages := bus.New(bus.Options{
		QueueSize: cfg.Bus.QueueSize,
		Logger:    log.Component("bus"),
	})
	g.Go(func() error {
		messages.Run(ctx)
		return nil
	})

	monitor, err := netmon.New(netmon.Options{
		Bus:          messages,
		Interface:    cfg.Network.Interface,
		PollInterval: cfg.GetPollInterval(),
		WirelessPath: cfg.Network.WirelessPath,
		Logger:       log.Component("netmon"),
	})
	if err != nil {
		return fmt.Errorf("creating network monitor: %w", err)
	}

	// Connect to InfluxDB (optional)
	var telemetry hass.Telemetry
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		var influxErr error
		influxClient, influxErr = influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
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
		telemetry = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	bridge, err := newBridge(cfg, messages, settings.NewSQLiteStore(db.DB), monitor, telemetry, log.Component("hass"))
	if err != nil {
		return err
	}
	if err := bridge.Start(ctx); err != nil {
		return fmt.Errorf("starting discovery bridge: %w", err)
	}

	if err := startSwitchEcho(messages, cfg.Hass.Switches); err != nil {
		return fmt.Errorf("starting switch handlers: %w", err)
	}

	app := newFeederApp(messages, restart, log.Component("app"))
	if err := app.Start(); err != nil {
		return fmt.Errorf("starting feeder app: %w", err)
	}
	g.Go(func() error {
		return app.Run(ctx)
	})

	hostname, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("reading hostname: %w", err)
	}
	if cfg.MQTT.Prefix == "" {
		cfg.MQTT.Prefix = defaultPrefixRoot + hostname
	}

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.Component("mqtt"))
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"prefix", cfg.MQTT.Prefix,
	)

	relay, err := transport.New(transport.Options{
		Bus:      messages,
		Broker:   mqttClient,
		HostName: hostname,
		Outbound: cfg.MQTT.Outbound,
		Inbound:  cfg.MQTT.Inbound,
		Retain:   cfg.MQTT.Retain,
		Logger:   log.Component("transport"),
	})
	if err != nil {
		return fmt.Errorf("creating relay: %w", err)
	}
	if err := relay.Start(ctx); err != nil {
		return fmt.Errorf("starting relay: %w", err)
	}
	defer func() {
		if stopErr := relay.Stop(); stopErr != nil {
			log.Error("error stopping relay", "error", stopErr)
		}
	}()

	g.Go(func() error {
		return monitor.Run(ctx)
	})

	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:   cfg.API,
			WS:       cfg.WebSocket,
			Security: cfg.Security,
			Logger:   log.Component("api"),
			Bus:      messages,
			Bridge:   bridge,
			Relay:    relay,
			Network:  monitor,
			DB:       db,
			Version:  version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	var influxCheck healthChecker
	if influxClient != nil {
		influxCheck = influxClient
	}
	if err := healthCheck(ctx, db, mqttClient, influxCheck); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	if err := g.Wait(); err != nil {
		return err
	}
	if errors.Is(context.Cause(runCtx), errRestartRequested) {
		log.Info("feeder stopped for restart")
		return errRestartRequested
	}

	log.Info("feeder stopped")
	return nil
}

// loadConfig reads the configuration file and applies the --debug flag.
func loadConfig(path string, debug bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if debug {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// openDatabase opens the settings database and applies pending migrations.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, log *logging.Logger) (*database.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, migrations.Source()); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", db.Path())
	return db, nil
}

// newBridge creates the discovery bridge and registers every entity declared
// in the hass section of the configuration.
func newBridge(cfg *config.Config, messages hass.Bus, store hass.SettingsStore, addresses hass.AddressSource, telemetry hass.Telemetry, log *logging.Logger) (*hass.Bridge, error) {
	bridge, err := hass.New(hass.Options{
		Bus: messages,
		Device: hass.DeviceInfo{
			Name:         cfg.Device.Name,
			Manufacturer: cfg.Device.Manufacturer,
			Model:        cfg.Device.Model,
			Version:      cfg.Device.Version,
		},
		Settings:        store,
		AutoDiscovery:   cfg.Hass.AutoDiscovery,
		Addresses:       addresses,
		Address:         cfg.Device.MAC,
		DiscoveryPrefix: cfg.Hass.DiscoveryPrefix,
		Placeholders:    hass.ParsePlaceholderMode(cfg.Hass.Placeholders),
		Telemetry:       telemetry,
		Logger:          log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating discovery bridge: %w", err)
	}

	for _, a := range cfg.Hass.Attributes {
		if err := bridge.AddAttributes(a.Name, hass.AttributeOptions{
			Manufacturer: a.Manufacturer,
			Model:        a.Model,
			Version:      a.Version,
		}); err != nil {
			return nil, fmt.Errorf("registering attributes %q: %w", a.Name, err)
		}
	}
	for _, s := range cfg.Hass.Sensors {
		if err := bridge.AddSensor(hass.SensorOptions{
			Entity:         s.Entity,
			Value:          s.Value,
			FriendlyName:   s.FriendlyName,
			Unit:           s.Unit,
			DeviceClass:    s.DeviceClass,
			Icon:           s.Icon,
			ValueTemplate:  s.ValueTemplate,
			AttributeGroup: s.AttributeGroup,
			ExpireAfter:    s.ExpireAfter,
			ForceUpdate:    s.ForceUpdate,
		}); err != nil {
			return nil, fmt.Errorf("registering sensor %s/%s: %w", s.Entity, s.Value, err)
		}
	}
	for _, l := range cfg.Hass.Lights {
		if err := bridge.AddLight(hass.LightOptions{
			Entity:         l.Entity,
			AttributeGroup: l.AttributeGroup,
		}); err != nil {
			return nil, fmt.Errorf("registering light %s: %w", l.Entity, err)
		}
	}
	for _, s := range cfg.Hass.Switches {
		if err := bridge.AddSwitch(hass.SwitchOptions{
			Entity:         s.Entity,
			AttributeGroup: s.AttributeGroup,
			Icon:           s.Icon,
		}); err != nil {
			return nil, fmt.Errorf("registering switch %s: %w", s.Entity, err)
		}
	}
	return bridge, nil
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// healthCheck verifies the infrastructure connections. influx is nil when
// InfluxDB is disabled.
func healthCheck(ctx context.Context, db, mqttClient, influx healthChecker) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influx != nil {
		if err := influx.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
