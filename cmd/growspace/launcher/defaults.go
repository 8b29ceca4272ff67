package launcher

// Defaults bundles the baseline configuration values the launcher uses
// before config files and flags override them.

type Defaults struct {
	Node    NodeDefaults
	Network NetworkDefaults
	Storage StorageDefaults
	HTTP    HTTPDefaults
	Metrics MetricsDefaults
	Logging LoggingDefaults
}

// NodeDefaults captures top-level node settings.
type NodeDefaults struct {
	DataDir string // filesystem root holding chaindata; separate dirs keep instances isolated
}

// NetworkDefaults select the rules preset and the fake genesis.
type NetworkDefaults struct {
	Name         string // rules preset: main, test or fake
	FakeAccounts int    // fake identities funded at genesis; only used by the fake network
	FakeBalance  uint64 // lamports of each fake genesis account
}

// StorageDefaults configure the account store.
type StorageDefaults struct {
	Preset string // integration preset name
}

// HTTPDefaults configure the JSON-RPC and REST listener.
type HTTPDefaults struct {
	Enabled bool
	Addr    string
	Port    int // the vote receivers historically listen on 4444
	APIs    []string
	Timeout string
}

type MetricsDefaults struct {
	Enabled bool
	Addr    string
	Port    int
}

// LoggingDefaults control log verbosity/format.
type LoggingDefaults struct {
	Verbosity int    // 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=trace
	Format    string // text or json
	Color     bool
}

// DefaultConfig returns a fully populated Defaults instance.

func DefaultConfig() Defaults {
	return Defaults{
		Node: NodeDefaults{
			DataDir: "~/.growspace",
		},
		Network: NetworkDefaults{
			Name:         "fake",
			FakeAccounts: 3,
			FakeBalance:  1e15,
		},
		Storage: StorageDefaults{
			Preset: "default",
		},
		HTTP: HTTPDefaults{
			Enabled: false,
			Addr:    "127.0.0.1",
			Port:    4444,
			APIs:    []string{"ledger"},
			Timeout: "30s",
		},
		Metrics: MetricsDefaults{
			Enabled: false,
			Addr:    "127.0.0.1",
			Port:    6060,
		},
		Logging: LoggingDefaults{
			Verbosity: 3,
			Format:    "text",
			Color:     false,
		},
	}
}
