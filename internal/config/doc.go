// Package config loads the launcher's own configuration.
//
// Values are layered, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Command Line Flags      │  ← Highest priority
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← REVLAUNCHER_*
//	├─────────────────────────────┤
//	│  2. Config File             │  ← <configDir>/revlauncher.{toml,yaml,yml,json}
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// The config directory is resolved from defaults, environment and flags
// before the config file is read, since the file lives inside it.
//
// # Keys
//
//	paths.configDir     directory holding setting.json and id_setting.json
//	logging.level       debug, info, warn or error
//	java.command        command looked up on PATH during Java detection
//	java.probeTimeout   limit for running "java -version"
//
// # Basic Usage
//
//	cfg, err := config.Load(config.WithFlags(map[string]any{
//		config.KeyLogLevel: "debug",
//	}))
//	if err != nil {
//		return err
//	}
//	reg, err := registry.Open(cfg.Paths.ConfigDir)
package config
