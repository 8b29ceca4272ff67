package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// NetworkFlags select the rules the ledger runs under.

func NetworkFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "network",
			Usage: "Network rules preset (main|test|fake)",
			Value: "fake",
		},
		cli.StringFlag{
			Name:  "program",
			Usage: "Override the program id (base58) accounts are derived from",
		},
		cli.Uint64Flag{
			Name:  "rangespan",
			Usage: "Distance between a range and the previous range it finalizes",
		},
		cli.IntFlag{
			Name:  "genesis.fake",
			Usage: "Fund N fake identities at genesis (0 disables)",
		},
		cli.Uint64Flag{
			Name:  "genesis.balance",
			Usage: "Lamports of each fake genesis account",
			Value: 1e15,
		},
	}
}

// LedgerFlags tune growth and crediting.
func LedgerFlags() []cli.Flag {
	return []cli.Flag{
		cli.Uint64Flag{
			Name:  "growth.threshold",
			Usage: "Occupancy percent that triggers account growth",
		},
		cli.StringFlag{
			Name:  "growth.mode",
			Usage: "Growth increment mode (fixed|proportional)",
		},
		cli.Uint64Flag{
			Name:  "growth.increment",
			Usage: "Bytes (fixed) or percent (proportional) added per growth step",
		},
		cli.BoolFlag{
			Name:  "sampling",
			Usage: "Credit only K pseudo-randomly sampled voters of each winning candidate",
		},
		cli.IntFlag{
			Name:  "sampling.k",
			Usage: "Voters credited per winning candidate when sampling",
		},
		cli.IntFlag{
			Name:  "sampling.minpool",
			Usage: "Minimum voters a winning candidate needs when sampling",
		},
	}
}
