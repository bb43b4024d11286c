package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/capture"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/types"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "SHOWROOM"

// Config is the complete application configuration
type Config struct {
	Scene   SceneConfig   `json:"scene" yaml:"scene" toml:"scene"`
	Catalog CatalogConfig `json:"catalog" yaml:"catalog" toml:"catalog"`
	Camera  CameraConfig  `json:"camera" yaml:"camera" toml:"camera"`
	Capture CaptureConfig `json:"capture" yaml:"capture" toml:"capture"`
	Bridge  BridgeConfig  `json:"bridge" yaml:"bridge" toml:"bridge"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics" toml:"metrics"`
	NATS    NATSConfig    `json:"nats" yaml:"nats" toml:"nats"`
	Loop    LoopConfig    `json:"loop" yaml:"loop" toml:"loop"`
}

// SceneConfig locates the scene asset
type SceneConfig struct {
	Dir  string `json:"dir" yaml:"dir" toml:"dir"`
	Name string `json:"name" yaml:"name" toml:"name"`
}

// CatalogConfig locates the catalog file
type CatalogConfig struct {
	Path string `json:"path" yaml:"path" toml:"path"`
}

// CameraConfig seeds the virtual camera. Rotation is Euler degrees.
type CameraConfig struct {
	Position      types.Vector3 `json:"position" yaml:"position" toml:"position"`
	Rotation      types.Vector3 `json:"rotation" yaml:"rotation" toml:"rotation"`
	FocusDistance float64       `json:"focus_distance" yaml:"focus_distance" toml:"focus_distance"`
	FocusSpeed    float64       `json:"focus_speed" yaml:"focus_speed" toml:"focus_speed"`
}

// CaptureConfig places the capture preview node. Rotation is Euler degrees.
type CaptureConfig struct {
	Enabled  bool             `json:"enabled" yaml:"enabled" toml:"enabled"`
	DeviceID string           `json:"device_id" yaml:"device_id" toml:"device_id"`
	Position types.Vector3    `json:"position" yaml:"position" toml:"position"`
	Rotation types.Vector3    `json:"rotation" yaml:"rotation" toml:"rotation"`
	Devices  []capture.Device `json:"devices" yaml:"devices" toml:"devices"`
}

// DefaultDevice is the capture device used when none are configured
var DefaultDevice = capture.Device{ID: "video", Label: "Default camera", Kind: capture.VideoInput, Width: 1280, Height: 720}

// CaptureDevices returns the configured devices, or DefaultDevice when the list is empty
func (c CaptureConfig) CaptureDevices() []capture.Device {
	if len(c.Devices) == 0 {
		return []capture.Device{DefaultDevice}
	}
	return c.Devices
}

// BridgeConfig configures the host WebSocket bridge
type BridgeConfig struct {
	Enabled        bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Addr           string   `json:"addr" yaml:"addr" toml:"addr"`
	Path           string   `json:"path" yaml:"path" toml:"path"`
	RateLimit      float64  `json:"rate_limit" yaml:"rate_limit" toml:"rate_limit"`
	RateBurst      int      `json:"rate_burst" yaml:"rate_burst" toml:"rate_burst"`
	SendBuffer     int      `json:"send_buffer" yaml:"send_buffer" toml:"send_buffer"`
	WriteTimeout   Duration `json:"write_timeout" yaml:"write_timeout" toml:"write_timeout"`
	PingInterval   Duration `json:"ping_interval" yaml:"ping_interval" toml:"ping_interval"`
	CommandTimeout Duration `json:"command_timeout" yaml:"command_timeout" toml:"command_timeout"`
	CameraFrames   bool     `json:"camera_frames" yaml:"camera_frames" toml:"camera_frames"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	Addr    string `json:"addr" yaml:"addr" toml:"addr"`
	Path    string `json:"path" yaml:"path" toml:"path"`
}

// NATSConfig configures selection notifications and command intake over NATS
type NATSConfig struct {
	Enabled          bool          `json:"enabled" yaml:"enabled" toml:"enabled"`
	URL              string        `json:"url" yaml:"url" toml:"url"`
	Name             string        `json:"name" yaml:"name" toml:"name"`
	SelectionSubject string        `json:"selection_subject" yaml:"selection_subject" toml:"selection_subject"`
	CommandSubject   string        `json:"command_subject" yaml:"command_subject" toml:"command_subject"`
	MaxReconnects    int           `json:"max_reconnects" yaml:"max_reconnects" toml:"max_reconnects"`
	ReconnectWait    Duration      `json:"reconnect_wait" yaml:"reconnect_wait" toml:"reconnect_wait"`
	ConnectTimeout   Duration      `json:"connect_timeout" yaml:"connect_timeout" toml:"connect_timeout"`
	Username         string        `json:"username,omitempty" yaml:"username,omitempty" toml:"username,omitempty"`
	Password         string        `json:"password,omitempty" yaml:"password,omitempty" toml:"password,omitempty"`
	Token            string        `json:"token,omitempty" yaml:"token,omitempty" toml:"token,omitempty"`
	TLS              NATSTLSConfig `json:"tls" yaml:"tls" toml:"tls"`
}

// NATSTLSConfig for secure NATS connections
type NATSTLSConfig struct {
	CertFile string `json:"cert_file,omitempty" yaml:"cert_file,omitempty" toml:"cert_file,omitempty"`
	KeyFile  string `json:"key_file,omitempty" yaml:"key_file,omitempty" toml:"key_file,omitempty"`
	CAFile   string `json:"ca_file,omitempty" yaml:"ca_file,omitempty" toml:"ca_file,omitempty"`
}

// LoopConfig paces the runtime loop
type LoopConfig struct {
	TickInterval  Duration `json:"tick_interval" yaml:"tick_interval" toml:"tick_interval"`
	CommandBuffer int      `json:"command_buffer" yaml:"command_buffer" toml:"command_buffer"`
	// HostTicks disables the internal ticker; ticks arrive from the bridge instead
	HostTicks bool `json:"host_ticks" yaml:"host_ticks" toml:"host_ticks"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Scene:   SceneConfig{Dir: "assets", Name: "showroom"},
		Catalog: CatalogConfig{Path: "assets/catalog.yaml"},
		Camera: CameraConfig{
			Position:      types.Vec3(0, 1.6, 4),
			FocusDistance: 2.5,
			FocusSpeed:    4.0,
		},
		Capture: CaptureConfig{
			Enabled:  true,
			DeviceID: "video",
			Position: types.Vec3(-6.30, 1.765, 6.745),
			Rotation: types.Vec3(0, 180, 0),
		},
		Bridge: BridgeConfig{
			Enabled:        true,
			Addr:           ":8090",
			Path:           "/bridge",
			RateLimit:      120,
			RateBurst:      30,
			SendBuffer:     64,
			WriteTimeout:   Duration(10 * time.Second),
			PingInterval:   Duration(30 * time.Second),
			CommandTimeout: Duration(5 * time.Second),
		},
		Metrics: MetricsConfig{Enabled: true, Addr: ":9090", Path: "/metrics"},
		NATS: NATSConfig{
			URL:              "nats://localhost:4222",
			Name:             "showroom",
			SelectionSubject: "showroom.selection.changed",
			CommandSubject:   "showroom.command",
			MaxReconnects:    -1,
			ReconnectWait:    Duration(2 * time.Second),
			ConnectTimeout:   Duration(5 * time.Second),
		},
		Loop: LoopConfig{
			TickInterval:  Duration(16 * time.Millisecond),
			CommandBuffer: 64,
		},
	}
}

// Load reads path over the defaults, choosing the decoder by extension
// (.yaml, .yml, .json or .toml). Environment overrides are not applied.
func Load(path string) (*Config, error) {
	data, err := safeReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.WrapFatal(
				fmt.Errorf("%w: %s", errors.ErrConfigNotFound, path), "Config", "Load", "read file")
		}
		return nil, errors.WrapFatal(err, "Config", "Load", "read file")
	}

	cfg := Default()
	if err := Decode(strings.ToLower(filepath.Ext(path)), data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode unmarshals data in the format named by ext into cfg
func Decode(ext string, data []byte, cfg *Config) error {
	var err error
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json":
		if err = validateJSONDepth(data); err == nil {
			dec := json.NewDecoder(bytes.NewReader(data))
			dec.DisallowUnknownFields()
			err = dec.Decode(cfg)
		}
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return errors.WrapFatal(fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err), "Config", "Decode", "parse "+ext)
	}
	return nil
}

// ApplyEnvOverrides applies SHOWROOM_* environment variables
func (c *Config) ApplyEnvOverrides() error {
	str := func(key string, dst *string) error {
		val := os.Getenv(EnvPrefix + "_" + key)
		if val == "" {
			return nil
		}
		if err := validateEnvVar(key, val); err != nil {
			return err
		}
		*dst = val
		return nil
	}
	boolean := func(key string, dst *bool) error {
		var raw string
		if err := str(key, &raw); err != nil || raw == "" {
			return err
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s_%s: %w", EnvPrefix, key, err)
		}
		*dst = v
		return nil
	}

	steps := []func() error{
		func() error { return str("SCENE_DIR", &c.Scene.Dir) },
		func() error { return str("SCENE_NAME", &c.Scene.Name) },
		func() error { return str("CATALOG_PATH", &c.Catalog.Path) },
		func() error { return str("BRIDGE_ADDR", &c.Bridge.Addr) },
		func() error { return boolean("BRIDGE_ENABLED", &c.Bridge.Enabled) },
		func() error { return str("METRICS_ADDR", &c.Metrics.Addr) },
		func() error { return boolean("METRICS_ENABLED", &c.Metrics.Enabled) },
		func() error { return str("NATS_URL", &c.NATS.URL) },
		func() error { return boolean("NATS_ENABLED", &c.NATS.Enabled) },
		func() error { return str("NATS_USERNAME", &c.NATS.Username) },
		func() error { return str("NATS_PASSWORD", &c.NATS.Password) },
		func() error { return str("NATS_TOKEN", &c.NATS.Token) },
		func() error { return str("CAPTURE_DEVICE_ID", &c.Capture.DeviceID) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return errors.WrapInvalid(fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err), "Config", "ApplyEnvOverrides", "read env")
		}
	}
	return nil
}

// Validate checks the configuration for values the showroom cannot run with
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.WrapInvalid(
			fmt.Errorf("%w: "+format, append([]any{errors.ErrInvalidConfig}, args...)...),
			"Config", "Validate", "check field")
	}

	if c.Scene.Name == "" {
		return invalid("scene.name is required")
	}
	if c.Camera.FocusDistance <= 0 || math.IsNaN(c.Camera.FocusDistance) {
		return invalid("camera.focus_distance must be positive")
	}
	if c.Camera.FocusSpeed <= 0 {
		return invalid("camera.focus_speed must be positive")
	}
	if c.Loop.CommandBuffer <= 0 {
		return invalid("loop.command_buffer must be positive")
	}
	if !c.Loop.HostTicks && c.Loop.TickInterval.D() <= 0 {
		return invalid("loop.tick_interval must be positive unless loop.host_ticks is set")
	}
	if c.Bridge.Enabled {
		if c.Bridge.Addr == "" {
			return invalid("bridge.addr is required when the bridge is enabled")
		}
		if !strings.HasPrefix(c.Bridge.Path, "/") {
			return invalid("bridge.path must start with /")
		}
		if c.Bridge.RateLimit <= 0 || c.Bridge.RateBurst <= 0 {
			return invalid("bridge rate limit and burst must be positive")
		}
	} else if c.Loop.HostTicks {
		return invalid("loop.host_ticks requires the bridge")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return invalid("metrics.addr is required when metrics are enabled")
	}
	if c.NATS.Enabled {
		if c.NATS.URL == "" {
			return invalid("nats.url is required when NATS is enabled")
		}
		if !isValidSubject(c.NATS.SelectionSubject) || !isValidSubject(c.NATS.CommandSubject) {
			return invalid("nats subjects must be dot separated tokens")
		}
	}
	if c.Capture.Enabled {
		seen := make(map[string]bool, len(c.Capture.Devices))
		for i, d := range c.Capture.Devices {
			if d.ID == "" {
				return invalid("capture.devices[%d].id is required", i)
			}
			if seen[d.ID] {
				return invalid("duplicate capture device %q", d.ID)
			}
			seen[d.ID] = true
			if d.Kind != capture.VideoInput && d.Kind != capture.AudioInput {
				return invalid("capture.devices[%d].kind %q is not videoinput or audioinput", i, d.Kind)
			}
		}
	}
	return nil
}

// isValidSubject checks a NATS subject: non-empty tokens of alphanumerics, dashes and
// underscores separated by dots
func isValidSubject(s string) bool {
	if s == "" {
		return false
	}
	for _, token := range strings.Split(s, ".") {
		if token == "" {
			return false
		}
		for _, r := range token {
			ok := r == '-' || r == '_' ||
				(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
			if !ok {
				return false
			}
		}
	}
	return true
}

// String returns the configuration as indented JSON with secrets masked
func (c *Config) String() string {
	masked := *c
	if masked.NATS.Password != "" {
		masked.NATS.Password = "***"
	}
	if masked.NATS.Token != "" {
		masked.NATS.Token = "***"
	}
	data, _ := json.MarshalIndent(masked, "", "  ")
	return string(data)
}
