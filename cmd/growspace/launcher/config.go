// This file maps the CLI context and the optional TOML file to the config
// struct, and the config struct to ledger rules and store presets.

package launcher

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/naoina/toml"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-growspace/integration"
	"github.com/rony4d/go-growspace/inter"
	"github.com/rony4d/go-growspace/opera"
	"github.com/rony4d/go-growspace/opera/genesis"
)

// Config aggregates every subsystem's configuration the launcher needs.
type Config struct {
	Node    NodeConfig
	Network NetworkConfig
	Ledger  LedgerConfig
	Store   integration.PresetConfig
}

type NodeConfig struct {
	DataDir   string
	Payer     string // base58 identity paying for REST submissions
	SentryDSN string
	HTTP      HTTPConfig
	Metrics   MetricsConfig
	Logging   LoggingConfig
}

type HTTPConfig struct {
	Enabled bool
	Addr    string
	Port    int
	APIs    []string
	Timeout string // duration string, e.g. "30s"
}

type MetricsConfig struct {
	Enabled bool
	Addr    string
	Port    int
}

type LoggingConfig struct {
	Verbosity int
	Format    string
	Color     bool
}

type NetworkConfig struct {
	Name         string
	ProgramID    string // empty keeps the preset program id
	RangeSpan    uint64 // zero keeps the preset span
	FakeAccounts int
	FakeBalance  uint64
}

// LedgerConfig overrides the growth and sampling rules of the preset.
// Zero values keep the preset.
type LedgerConfig struct {
	GrowthThreshold uint64
	GrowthMode      string
	GrowthIncrement uint64
	Sampling        bool
	SamplingK       int
	SamplingMinPool int
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// -----------------------------------------------------------------------------
// Default config + builders
// -----------------------------------------------------------------------------

func defaultConfig() Config {
	def := DefaultConfig()
	store, err := integration.GetPresetByName(def.Storage.Preset)
	if err != nil {
		panic(err)
	}
	return Config{
		Node: NodeConfig{
			DataDir: resolvePath(def.Node.DataDir),
			HTTP: HTTPConfig{
				Enabled: def.HTTP.Enabled,
				Addr:    def.HTTP.Addr,
				Port:    def.HTTP.Port,
				APIs:    def.HTTP.APIs,
				Timeout: def.HTTP.Timeout,
			},
			Metrics: MetricsConfig{
				Enabled: def.Metrics.Enabled,
				Addr:    def.Metrics.Addr,
				Port:    def.Metrics.Port,
			},
			Logging: LoggingConfig{
				Verbosity: def.Logging.Verbosity,
				Format:    def.Logging.Format,
				Color:     def.Logging.Color,
			},
		},
		Network: NetworkConfig{
			Name:         def.Network.Name,
			FakeAccounts: def.Network.FakeAccounts,
			FakeBalance:  def.Network.FakeBalance,
		},
		Store: store,
	}
}

// MakeAllConfigs merges defaults, the config file and CLI overrides into a
// single config struct.
func MakeAllConfigs(ctx *cli.Context) (Config, error) {
	cfg := defaultConfig()

	if file := ctx.GlobalString("config"); file != "" {
		if err := loadConfigFile(file, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to load config file %s: %w", file, err)
		}
	}

	if err := applyCLIOverrides(ctx, &cfg); err != nil {
		return cfg, err
	}
	if _, err := cfg.Rules(); err != nil {
		return cfg, err
	}
	if cfg.Store.DB != integration.MemoryDB {
		if err := ensureDir(cfg.Node.DataDir); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// -----------------------------------------------------------------------------
// Config-file / CLI wiring
// -----------------------------------------------------------------------------

func loadConfigFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(path + ", " + err.Error())
	}
	return err
}

func dumpConfig(cfg *Config) ([]byte, error) {
	return tomlSettings.Marshal(cfg)
}

// isSet reports whether a flag was given either before or after the command.
func isSet(ctx *cli.Context, name string) bool {
	return ctx.IsSet(name) || ctx.GlobalIsSet(name)
}

func applyCLIOverrides(ctx *cli.Context, cfg *Config) error {
	if isSet(ctx, "datadir") {
		cfg.Node.DataDir = resolvePath(ctx.GlobalString("datadir"))
	}
	if isSet(ctx, "payer") {
		cfg.Node.Payer = ctx.GlobalString("payer")
	}
	if isSet(ctx, "sentry.dsn") {
		cfg.Node.SentryDSN = ctx.GlobalString("sentry.dsn")
	}

	if ctx.GlobalBool("http") {
		cfg.Node.HTTP.Enabled = true
	}
	if isSet(ctx, "http.addr") {
		cfg.Node.HTTP.Addr = ctx.GlobalString("http.addr")
	}
	if isSet(ctx, "http.port") {
		cfg.Node.HTTP.Port = ctx.GlobalInt("http.port")
	}
	if isSet(ctx, "http.api") {
		cfg.Node.HTTP.APIs = splitCSV(ctx.GlobalString("http.api"))
	}
	if isSet(ctx, "rpc.timeout") {
		cfg.Node.HTTP.Timeout = ctx.GlobalDuration("rpc.timeout").String()
	}
	if ctx.GlobalBool("metrics") {
		cfg.Node.Metrics.Enabled = true
	}
	if isSet(ctx, "metrics.addr") {
		cfg.Node.Metrics.Addr = ctx.GlobalString("metrics.addr")
	}
	if isSet(ctx, "metrics.port") {
		cfg.Node.Metrics.Port = ctx.GlobalInt("metrics.port")
	}

	if isSet(ctx, "log.format") {
		cfg.Node.Logging.Format = ctx.GlobalString("log.format")
	}
	if isSet(ctx, "log.verbosity") {
		cfg.Node.Logging.Verbosity = ctx.GlobalInt("log.verbosity")
	}
	if isSet(ctx, "log.color") {
		cfg.Node.Logging.Color = ctx.GlobalBool("log.color")
	}

	if isSet(ctx, "network") {
		cfg.Network.Name = ctx.GlobalString("network")
	}
	if isSet(ctx, "program") {
		cfg.Network.ProgramID = ctx.GlobalString("program")
	}
	if isSet(ctx, "rangespan") {
		cfg.Network.RangeSpan = ctx.GlobalUint64("rangespan")
	}
	if isSet(ctx, "genesis.fake") {
		cfg.Network.FakeAccounts = ctx.GlobalInt("genesis.fake")
	}
	if isSet(ctx, "genesis.balance") {
		cfg.Network.FakeBalance = ctx.GlobalUint64("genesis.balance")
	}

	if isSet(ctx, "growth.threshold") {
		cfg.Ledger.GrowthThreshold = ctx.GlobalUint64("growth.threshold")
	}
	if isSet(ctx, "growth.mode") {
		cfg.Ledger.GrowthMode = ctx.GlobalString("growth.mode")
	}
	if isSet(ctx, "growth.increment") {
		cfg.Ledger.GrowthIncrement = ctx.GlobalUint64("growth.increment")
	}
	if ctx.GlobalBool("sampling") {
		cfg.Ledger.Sampling = true
	}
	if isSet(ctx, "sampling.k") {
		cfg.Ledger.SamplingK = ctx.GlobalInt("sampling.k")
	}
	if isSet(ctx, "sampling.minpool") {
		cfg.Ledger.SamplingMinPool = ctx.GlobalInt("sampling.minpool")
	}

	if isSet(ctx, "db.preset") {
		preset, err := integration.GetPresetByName(ctx.GlobalString("db.preset"))
		if err != nil {
			return err
		}
		integration.ApplyPreset(&cfg.Store, preset)
	}
	if isSet(ctx, "cache") {
		cfg.Store.CacheMB = ctx.GlobalInt("cache")
	}
	if isSet(ctx, "cache.accounts") {
		cfg.Store.AccountCache = ctx.GlobalInt("cache.accounts")
	}
	return nil
}

// Rules returns the network rules preset with the config overrides applied.
func (cfg *Config) Rules() (opera.Rules, error) {
	rules, err := opera.RulesByName(cfg.Network.Name)
	if err != nil {
		return rules, err
	}
	if cfg.Network.ProgramID != "" {
		pid, err := inter.IdentityFromString(cfg.Network.ProgramID)
		if err != nil {
			return rules, fmt.Errorf("program id: %w", err)
		}
		rules.ProgramID = pid
	}
	if cfg.Network.RangeSpan != 0 {
		rules.RangeSpan = cfg.Network.RangeSpan
	}
	l := cfg.Ledger
	if l.GrowthThreshold != 0 {
		rules.Growth.ThresholdPercent = l.GrowthThreshold
	}
	if l.GrowthMode != "" {
		rules.Growth.Mode = l.GrowthMode
	}
	if l.GrowthIncrement != 0 {
		rules.Growth.Increment = l.GrowthIncrement
	}
	if l.Sampling {
		rules.Sampling.Enabled = true
	}
	if l.SamplingK != 0 {
		rules.Sampling.K = l.SamplingK
	}
	if l.SamplingMinPool != 0 {
		rules.Sampling.MinPool = l.SamplingMinPool
	}
	return rules, rules.Validate()
}

// Genesis returns the genesis to apply to an empty store. Only the fake
// network funds accounts at genesis.
func (cfg *Config) Genesis() *genesis.Genesis {
	if cfg.Network.Name != "fake" || cfg.Network.FakeAccounts <= 0 {
		return nil
	}
	g := genesis.FakeGenesis(uint32(cfg.Network.FakeAccounts), cfg.Network.FakeBalance)
	return &g
}

// PayerIdentity parses the configured payer. The first fake genesis account
// pays on the fake network when no payer is configured.
func (cfg *Config) PayerIdentity() (inter.Identity, error) {
	if cfg.Node.Payer == "" {
		if g := cfg.Genesis(); g != nil {
			return g.Allocations[0].Address, nil
		}
		return inter.Identity{}, errors.New("no payer configured, use --payer")
	}
	return inter.IdentityFromString(cfg.Node.Payer)
}

// HTTPTimeout parses the configured request timeout.
func (cfg *Config) HTTPTimeout() (time.Duration, error) {
	if cfg.Node.HTTP.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(cfg.Node.HTTP.Timeout)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create datadir %s: %w", dir, err)
	}
	return nil
}

func resolvePath(p string) string {
	if strings.HasPrefix(p, "~") {
		return filepath.Join(GuessHomeDir(), strings.TrimPrefix(p, "~"))
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GuessWorkDir(), p)
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func GuessWorkDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func GuessHomeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
