// Package config loads and validates the showroom configuration.
//
// Load starts from Default and decodes a file over it, picking the decoder by
// extension: .yaml/.yml (gopkg.in/yaml.v3), .json (encoding/json, unknown fields
// rejected) or .toml (github.com/pelletier/go-toml/v2). Durations are written as Go
// duration strings in every format.
//
// # Environment overrides
//
// ApplyEnvOverrides reads SHOWROOM_* variables, for example:
//
//	SHOWROOM_SCENE_NAME=living-room
//	SHOWROOM_NATS_ENABLED=true
//	SHOWROOM_NATS_URL=nats://broker:4222
//	SHOWROOM_BRIDGE_ADDR=:9000
//
// # Validation
//
// Validate returns errors of the invalid class wrapping ErrInvalidConfig. Load failures
// (missing file, parse errors) are fatal.
//
//	cfg, err := config.Load("showroom.yaml")
//	if err != nil {
//	    return err
//	}
//	if err := cfg.ApplyEnvOverrides(); err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
