package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// NodeFlags hold knobs specific to the local instance (store, payer).

func NodeFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "db.preset",
			Usage: "Store preset (lite|full|default)",
			Value: "default",
		},
		cli.IntFlag{
			Name:  "cache",
			Usage: "Megabytes of memory allocated to the database cache",
		},
		cli.IntFlag{
			Name:  "cache.accounts",
			Usage: "Number of decoded accounts kept in memory",
		},
		cli.StringFlag{
			Name:  "payer",
			Usage: "Identity (base58) that pays for accounts created on behalf of submitters",
		},
	}
}
