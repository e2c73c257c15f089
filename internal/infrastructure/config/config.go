package config

import (
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Platform identity as registered with the host runtime.
const (
	PluginID     = "homebridge-wiz-smarthome"
	PlatformName = "WizSmarthome"
)

// Defaulting constants, in the units the discovery bridge expects.
const (
	// DefaultDiscoveryIntervalMS is used when neither discovery_interval nor
	// polling_interval is set.
	DefaultDiscoveryIntervalMS = 10000

	// DefaultSendTimeoutMS is used when neither default_send_options.timeout
	// nor timeout is set.
	DefaultSendTimeoutMS = 15000

	msPerSecond = 1000
)

// Config is the root configuration structure for the WiZ platform.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Platform           PlatformConfig         `yaml:"platform"`
	DiscoveryOptions   DiscoveryOptionsConfig `yaml:"discovery_options"`
	DefaultSendOptions SendOptionsConfig      `yaml:"default_send_options"`
	Database           DatabaseConfig         `yaml:"database"`
	MQTT               MQTTConfig             `yaml:"mqtt"`
	Bridge             BridgeConfig           `yaml:"bridge"`
	InfluxDB           InfluxDBConfig         `yaml:"influxdb"`
	API                APIConfig              `yaml:"api"`
	WebSocket          WebSocketConfig        `yaml:"websocket"`
	Security           SecurityConfig         `yaml:"security"`
	Logging            LoggingConfig          `yaml:"logging"`
}

// PlatformConfig holds the flat, user-facing platform settings. Most of them
// only seed the structured discovery and send-option blocks.
type PlatformConfig struct {
	// AddCustomCharacteristics enables extended characteristic support.
	// Default: true
	AddCustomCharacteristics *bool `yaml:"add_custom_characteristics"`

	// DeviceTypes restricts discovery to these device types. Accepts a single
	// string or a list.
	DeviceTypes StringList `yaml:"device_types"`

	// PollingInterval is the discovery interval in seconds.
	PollingInterval int `yaml:"polling_interval"`

	// Timeout is the default send timeout in seconds.
	Timeout int `yaml:"timeout"`

	// Broadcast is the discovery broadcast address.
	Broadcast string `yaml:"broadcast"`

	// Devices lists statically configured devices to poll in addition to
	// broadcast discovery.
	Devices []StaticDevice `yaml:"devices"`

	// MACAddresses is an allow list of device MAC patterns.
	MACAddresses []string `yaml:"mac_addresses"`

	// ExcludeMACAddresses is a deny list of device MAC patterns.
	ExcludeMACAddresses []string `yaml:"exclude_mac_addresses"`

	// DeviceOptions seeds discovery_options.device_options.
	DeviceOptions *DeviceOptionsConfig `yaml:"device_options"`

	// InUseThreshold is the per-device "in use" threshold.
	InUseThreshold float64 `yaml:"in_use_threshold"`
}

// DiscoveryOptionsConfig is the discovery block sent to the bridge.
type DiscoveryOptionsConfig struct {
	Broadcast string `yaml:"broadcast"`

	// DiscoveryInterval is in milliseconds.
	DiscoveryInterval int `yaml:"discovery_interval"`

	DeviceTypes         StringList          `yaml:"device_types"`
	DeviceOptions       DeviceOptionsConfig `yaml:"device_options"`
	MACAddresses        []string            `yaml:"mac_addresses"`
	ExcludeMACAddresses []string            `yaml:"exclude_mac_addresses"`
	Devices             []StaticDevice      `yaml:"devices"`
}

// DeviceOptionsConfig holds per-device options applied to every discovered device.
type DeviceOptionsConfig struct {
	DefaultSendOptions *SendOptionsConfig `yaml:"default_send_options"`
	InUseThreshold     float64            `yaml:"in_use_threshold"`
}

// SendOptionsConfig holds per-request transport options.
type SendOptionsConfig struct {
	// Timeout is in milliseconds.
	Timeout int `yaml:"timeout"`
}

// StaticDevice is a device reached directly instead of via broadcast.
type StaticDevice struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StringList decodes from either a YAML scalar or a sequence of scalars.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" || node.Value == "" {
			*l = nil
			return nil
		}
		*l = StringList{node.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("line %d: expected string or list of strings", node.Line)
	}
}

// DatabaseConfig contains SQLite database settings for the accessory cache.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// BridgeConfig describes the WiZ discovery bridge process. When Managed is
// false the bridge is expected to be running already.
type BridgeConfig struct {
	Managed bool     `yaml:"managed"`
	Binary  string   `yaml:"binary"`
	Args    []string `yaml:"args"`
	Env     []string `yaml:"env"`
	WorkDir string   `yaml:"work_dir"`

	RestartOnFailure bool `yaml:"restart_on_failure"`

	// RestartDelay, MaxRestartDelay and StableThreshold are in seconds.
	RestartDelay       int `yaml:"restart_delay"`
	MaxRestartDelay    int `yaml:"max_restart_delay"`
	StableThreshold    int `yaml:"stable_threshold"`
	MaxRestartAttempts int `yaml:"max_restart_attempts"`

	// GracefulTimeout is how long to wait after SIGTERM, in seconds.
	GracefulTimeout int `yaml:"graceful_timeout"`

	// HealthCheckInterval is in seconds; 0 disables health checks.
	HealthCheckInterval int `yaml:"health_check_interval"`

	// HealthMaxAge is the oldest acceptable health report, in seconds;
	// 0 accepts a retained report of any age.
	HealthMaxAge int `yaml:"health_max_age"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains the management HTTP server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket settings for the accessory event stream.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// SecurityConfig contains API authentication settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT token settings. An empty secret disables
// authentication on the management API.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//  4. Platform defaulting (flat settings seed the discovery and send blocks)
//
// Environment variables follow the pattern: WIZPLATFORM_SECTION_KEY
// For example: WIZPLATFORM_DATABASE_PATH, WIZPLATFORM_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse is Load for configuration already in memory.
func Parse(data []byte) (*Config, error) {
	cfg := defaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.ApplyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a fully defaulted configuration without reading a file.
func Default() *Config {
	cfg := defaultConfig()
	cfg.ApplyPlatformDefaults()
	return cfg
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/wizplatform.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "wizplatform",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Bridge: BridgeConfig{
			RestartOnFailure:    true,
			RestartDelay:        5,
			MaxRestartDelay:     300,
			StableThreshold:     120,
			GracefulTimeout:     10,
			HealthCheckInterval: 30,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8089,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// ApplyPlatformDefaults fills the discovery and send-option blocks from the
// flat platform settings. Values already present in the structured blocks win.
// Calling it more than once has no further effect.
func (c *Config) ApplyPlatformDefaults() {
	p := &c.Platform
	if p.AddCustomCharacteristics == nil {
		enabled := true
		p.AddCustomCharacteristics = &enabled
	}

	dis := &c.DiscoveryOptions
	if dis.Broadcast == "" {
		dis.Broadcast = p.Broadcast
	}
	if dis.DiscoveryInterval == 0 {
		dis.DiscoveryInterval = p.PollingInterval * msPerSecond
	}
	if dis.DiscoveryInterval == 0 {
		dis.DiscoveryInterval = DefaultDiscoveryIntervalMS
	}
	if len(dis.DeviceTypes) == 0 {
		dis.DeviceTypes = p.DeviceTypes
	}
	if dis.DeviceTypes == nil {
		dis.DeviceTypes = StringList{}
	}
	if p.DeviceOptions != nil && dis.DeviceOptions.DefaultSendOptions == nil && dis.DeviceOptions.InUseThreshold == 0 {
		dis.DeviceOptions = *p.DeviceOptions
	}
	if dis.MACAddresses == nil {
		dis.MACAddresses = p.MACAddresses
	}
	if dis.MACAddresses == nil {
		dis.MACAddresses = []string{}
	}
	if dis.ExcludeMACAddresses == nil {
		dis.ExcludeMACAddresses = p.ExcludeMACAddresses
	}
	if dis.ExcludeMACAddresses == nil {
		dis.ExcludeMACAddresses = []string{}
	}
	if p.Devices != nil {
		dis.Devices = p.Devices
	}

	dso := &c.DefaultSendOptions
	if dso.Timeout == 0 {
		dso.Timeout = p.Timeout * msPerSecond
	}
	if dso.Timeout == 0 {
		dso.Timeout = DefaultSendTimeoutMS
	}

	dev := &dis.DeviceOptions
	if dev.DefaultSendOptions == nil {
		cpy := *dso
		dev.DefaultSendOptions = &cpy
	}
	if dev.InUseThreshold == 0 {
		dev.InUseThreshold = p.InUseThreshold
	}
}

// CustomCharacteristics reports whether extended characteristics are enabled.
func (c *Config) CustomCharacteristics() bool {
	return c.Platform.AddCustomCharacteristics == nil || *c.Platform.AddCustomCharacteristics
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: WIZPLATFORM_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("WIZPLATFORM_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("WIZPLATFORM_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("WIZPLATFORM_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("WIZPLATFORM_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("WIZPLATFORM_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Security
	if v := os.Getenv("WIZPLATFORM_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}

	// Discovery
	if v := os.Getenv("WIZPLATFORM_BROADCAST"); v != "" {
		cfg.Platform.Broadcast = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}

	// Discovery validation
	if c.DiscoveryOptions.DiscoveryInterval < 0 {
		errs = append(errs, "discovery_options.discovery_interval must not be negative")
	}
	if c.DefaultSendOptions.Timeout < 0 {
		errs = append(errs, "default_send_options.timeout must not be negative")
	}
	for _, pattern := range append(append([]string{}, c.DiscoveryOptions.MACAddresses...), c.DiscoveryOptions.ExcludeMACAddresses...) {
		if _, err := path.Match(pattern, ""); err != nil {
			errs = append(errs, fmt.Sprintf("invalid mac address pattern %q", pattern))
		}
	}
	for _, d := range c.DiscoveryOptions.Devices {
		if d.Host == "" {
			errs = append(errs, "discovery_options.devices[].host is required")
			break
		}
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	// Bridge validation
	if c.Bridge.Managed && c.Bridge.Binary == "" {
		errs = append(errs, "bridge.binary is required when bridge.managed is true")
	}

	// API validation
	if c.API.Enabled {
		if c.API.Port < 1 || c.API.Port > 65535 {
			errs = append(errs, "api.port must be between 1 and 65535")
		}
		if c.API.TLS.Enabled && (c.API.TLS.CertFile == "" || c.API.TLS.KeyFile == "") {
			errs = append(errs, "api.tls.cert_file and api.tls.key_file are required when tls is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
