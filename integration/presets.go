package integration

import "fmt"

// Package integration bundles store settings into named presets and
// assembles the state store and ledger processor the launcher runs on.
//
// Usage:
//   preset := integration.LitePreset()   // in-memory, for development
//   preset := integration.FullPreset()   // on-disk, for production

// DB kinds understood by MakeStore.
const (
	MemoryDB = "memory"
	LevelDB  = "leveldb"
)

// PresetConfig captures the store parameters that vary across profiles.
type PresetConfig struct {
	Name          string // human-readable identifier (e.g., "lite", "full")
	DB            string // backing database kind: MemoryDB or LevelDB
	CacheMB       int    // leveldb block cache size
	Handles       int    // leveldb open file handles
	AccountCache  int    // decoded accounts kept in memory
	EnableMetrics bool   // whether to expose the metrics endpoint
}

func DefaultPreset() PresetConfig {
	return PresetConfig{
		Name:          "default",
		DB:            LevelDB,
		CacheMB:       256,
		Handles:       256,
		AccountCache:  4096,
		EnableMetrics: false,
	}
}

// LitePreset keeps everything in memory. Nothing survives a restart, which
// suits tests and throwaway local networks.
func LitePreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "lite"
	cfg.DB = MemoryDB
	cfg.CacheMB = 0
	cfg.Handles = 0
	cfg.AccountCache = 512
	cfg.EnableMetrics = true // diagnostics during development
	return cfg
}

// FullPreset is an on-disk store with large caches.
func FullPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "full"
	cfg.CacheMB = 1024
	cfg.Handles = 1024
	cfg.AccountCache = 65536
	cfg.EnableMetrics = true
	return cfg
}

// GetPresetByName looks up a preset by its string identifier.
//
// Example:
//
//	preset, err := integration.GetPresetByName("lite")
//	if err != nil {
//	    log.Fatal(err)
//	}
func GetPresetByName(name string) (PresetConfig, error) {
	switch name {
	case "lite":
		return LitePreset(), nil
	case "full":
		return FullPreset(), nil
	case "default":
		return DefaultPreset(), nil
	default:
		return PresetConfig{}, fmt.Errorf("unknown preset: %q (valid: lite, full, default)", name)
	}
}

// ApplyPreset merges the non-zero fields of preset into target.
func ApplyPreset(target *PresetConfig, preset PresetConfig) {
	if preset.DB != "" {
		target.DB = preset.DB
	}
	if preset.CacheMB > 0 {
		target.CacheMB = preset.CacheMB
	}
	if preset.Handles > 0 {
		target.Handles = preset.Handles
	}
	if preset.AccountCache > 0 {
		target.AccountCache = preset.AccountCache
	}
	// boolean flags are always applied
	target.EnableMetrics = preset.EnableMetrics
	if preset.Name != "" {
		target.Name = preset.Name
	}
}
