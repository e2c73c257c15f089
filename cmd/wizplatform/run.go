package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/wiz-platform/internal/accessory"
	"github.com/nerrad567/wiz-platform/internal/api"
	"github.com/nerrad567/wiz-platform/internal/bridge"
	"github.com/nerrad567/wiz-platform/internal/discovery"
	"github.com/nerrad567/wiz-platform/internal/infrastructure/config"
	"github.com/nerrad567/wiz-platform/internal/infrastructure/database"
	"github.com/nerrad567/wiz-platform/internal/infrastructure/influxdb"
	"github.com/nerrad567/wiz-platform/internal/infrastructure/logging"
	"github.com/nerrad567/wiz-platform/internal/infrastructure/mqtt"
	"github.com/nerrad567/wiz-platform/internal/platform"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the platform until interrupted",
		Long: `Connect to the MQTT broker, replay cached accessories, start discovery
and keep accessories in sync with discovered devices until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
}

// run is the platform lifecycle, separated from the command for testability.
func run(ctx context.Context, opts *rootOptions) error {
	st, err := openStore(ctx, opts, nil)
	if err != nil {
		return err
	}
	log := st.log
	defer func() {
		log.Info("closing database")
		if closeErr := st.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	cfg := st.cfg

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	mqttClient.SetLogger(log.Component("mqtt"))
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})

	liveness, closeLiveness := connectInflux(cfg.InfluxDB.Enabled, func() (*influxdb.Client, error) {
		return influxdb.Connect(cfg.InfluxDB)
	}, log)
	defer closeLiveness()

	if err := healthCheck(ctx, st.db, mqttClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	runtime := st.runtime(mqttClient)

	monitor := bridge.NewMonitor("wiz", time.Duration(cfg.Bridge.HealthMaxAge)*time.Second, log.Component("bridge"))
	if err := monitor.Subscribe(mqttClient, mqttClient.QoS()); err != nil {
		return err
	}

	discoveryClient := discovery.NewClient(mqttClient, discovery.ClientOptions{
		QoS:    mqttClient.QoS(),
		Logger: log.Component("discovery"),
	})
	defer func() {
		if closeErr := discoveryClient.Close(); closeErr != nil {
			log.Error("error closing discovery client", "error", closeErr)
		}
	}()

	controller, err := platform.New(platform.Options{
		Host:                  runtime,
		Discovery:             discoveryClient,
		DiscoveryOptions:      discovery.OptionsFromConfig(cfg),
		CustomCharacteristics: cfg.CustomCharacteristics(),
		Liveness:              liveness,
		Logger:                log.Component("platform"),
		Version:               version,
	})
	if err != nil {
		return fmt.Errorf("creating platform: %w", err)
	}

	cached, err := runtime.Replay(ctx, func(s *accessory.Shell) {
		if configureErr := controller.ConfigureAccessory(s); configureErr != nil {
			log.Error("failed to configure cached accessory", append(s.LogArgs(), "error", configureErr)...)
		}
	})
	if err != nil {
		return err
	}
	log.Info("cached accessories restored", "count", cached)

	if cfg.API.Enabled {
		apiServer, apiErr := api.New(api.Deps{
			Config:   cfg.API,
			WS:       cfg.WebSocket,
			Security: cfg.Security,
			Logger:   log.Component("api"),
			Platform: controller,
			MQTT:     mqttClient,
			Bridge:   monitor,
			Version:  version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		if cfg.Security.JWT.Secret == "" {
			log.Warn("API authentication disabled: security.jwt.secret is empty")
		}
	} else {
		log.Info("API server disabled")
	}

	stopBridge, err := startBridge(ctx, cfg.Bridge, monitor, log)
	if err != nil {
		return err
	}
	defer stopBridge()

	if err := controller.DidFinishLaunching(); err != nil {
		return err
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	runErr := controller.Run(ctx, discoveryClient.Events())

	log.Info("shutting down", "bindings", len(controller.Bindings()))
	if err := controller.Shutdown(); err != nil {
		log.Error("error stopping discovery", "error", err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	log.Info("WiZ platform stopped")
	return nil
}

// startBridge launches the WiZ discovery bridge when the platform manages it
// and returns the function that stops it.
func startBridge(ctx context.Context, cfg config.BridgeConfig, monitor *bridge.Monitor, log *logging.Logger) (func(), error) {
	if !cfg.Managed {
		log.Info("bridge not managed, expecting an external WiZ bridge")
		return func() {}, nil
	}

	opts := bridge.OptionsFromConfig(cfg, monitor.Check)
	opts.Logger = log.Component("bridge")
	supervisor, err := bridge.NewSupervisor(opts)
	if err != nil {
		return nil, fmt.Errorf("creating bridge supervisor: %w", err)
	}
	if err := supervisor.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting bridge: %w", err)
	}

	return func() {
		if stopErr := supervisor.Stop(); stopErr != nil {
			log.Error("error stopping bridge", "error", stopErr)
		}
	}, nil
}

// healthCheck verifies the database and broker connections.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	return nil
}

// connectInflux returns the liveness recorder for the controller and a
// cleanup function. InfluxDB is optional: a failed connection is logged and
// the platform runs without telemetry.
func connectInflux(enabled bool, connect func() (*influxdb.Client, error), log *logging.Logger) (platform.LivenessRecorder, func()) {
	if !enabled {
		log.Info("InfluxDB disabled")
		return nil, func() {}
	}

	client, err := connect()
	if err != nil {
		log.Warn("InfluxDB unavailable, liveness telemetry disabled", "error", err)
		return nil, func() {}
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected")

	return client, func() {
		log.Info("closing InfluxDB connection")
		if closeErr := client.Close(); closeErr != nil {
			log.Error("error closing InfluxDB", "error", closeErr)
		}
	}
}
