package flags

import (
	"time"

	"gopkg.in/urfave/cli.v1"
)

// CommonFlags returns the base set of CLI flags shared across commands.

func CommonFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "datadir",
			Usage: "Data directory for the ledger store",
			Value: "~/.growspace",
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "TOML configuration file",
		},
		cli.StringFlag{
			Name:  "log.format",
			Usage: "Log output format (text|json)",
			Value: "text",
		},
		cli.IntFlag{
			Name:  "log.verbosity",
			Usage: "Logging verbosity (0=crit,1=error,2=warn,3=info,4=debug,5=trace)",
			Value: 3,
		},
		cli.BoolFlag{
			Name:  "log.color",
			Usage: "Enable colored log output",
		},
		cli.StringFlag{
			Name:  "sentry.dsn",
			Usage: "Sentry DSN errors are reported to",
		},
	}
}

// HTTPFlags configure the JSON-RPC, REST and metrics listeners.
func HTTPFlags() []cli.Flag {
	return []cli.Flag{
		cli.BoolFlag{
			Name:  "http",
			Usage: "Enable the HTTP server (JSON-RPC on /rpc, REST endpoints on /)",
		},
		cli.StringFlag{
			Name:  "http.addr",
			Usage: "HTTP server listening interface",
			Value: "127.0.0.1",
		},
		cli.IntFlag{
			Name:  "http.port",
			Usage: "HTTP server listening port",
			Value: 4444,
		},
		cli.StringFlag{
			Name:  "http.api",
			Usage: "Comma-separated list of JSON-RPC APIs to enable",
			Value: "ledger",
		},
		cli.DurationFlag{
			Name:  "rpc.timeout",
			Usage: "Read and write timeout of HTTP requests",
			Value: 30 * time.Second,
		},
		cli.BoolFlag{
			Name:  "metrics",
			Usage: "Enable metrics collection and the expvar endpoint",
		},
		cli.StringFlag{
			Name:  "metrics.addr",
			Usage: "Metrics server listening interface",
			Value: "127.0.0.1",
		},
		cli.IntFlag{
			Name:  "metrics.port",
			Usage: "Metrics server listening port",
			Value: 6060,
		},
	}
}
