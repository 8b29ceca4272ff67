package launcher

import (
	"fmt"
	"os"
	"sort"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-growspace/flags"
	"github.com/rony4d/go-growspace/integration"
	"github.com/rony4d/go-growspace/ledger"
	"github.com/rony4d/go-growspace/logger"
	"github.com/rony4d/go-growspace/state"
)

var (
	// Git SHA1 commit hash of the release (set via linker flags).
	gitCommit = ""

	app = flags.NewApp(gitCommit, "the grow_space vote ledger")
)

func init() {
	app.Flags = flags.Merge(
		flags.CommonFlags(),
		flags.HTTPFlags(),
		flags.NetworkFlags(),
		flags.LedgerFlags(),
		flags.NodeFlags(),
	)
	app.Action = serveAction
	app.Commands = []cli.Command{
		initCommand,
		appendCommand,
		finalizeCommand,
		showCommand,
		votersCommand,
		dumpConfigCommand,
	}
	sort.Sort(cli.CommandsByName(app.Commands))
	app.Before = func(ctx *cli.Context) error {
		return logger.SetupDefault(os.Stderr, ctx.GlobalInt("log.verbosity"), ctx.GlobalString("log.format"), ctx.GlobalBool("log.color"))
	}
}

// Launch runs the command line.
func Launch(args []string) error {
	return app.Run(args)
}

// engine is what every command but dumpconfig runs on.
type engine struct {
	cfg      Config
	store    *state.Store
	ledger   *ledger.Processor
	reporter *logger.Reporter
}

func (e *engine) Close() {
	if err := e.store.Close(); err != nil {
		log.Warn("Failed to close store", "err", err)
	}
}

func makeEngine(ctx *cli.Context) (*engine, error) {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return nil, err
	}
	// the config file may change the log setup made from flags
	if err := logger.SetupDefault(os.Stderr, cfg.Node.Logging.Verbosity, cfg.Node.Logging.Format, cfg.Node.Logging.Color); err != nil {
		return nil, err
	}
	reporter, err := logger.NewReporter(cfg.Node.SentryDSN)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	rules, err := cfg.Rules()
	if err != nil {
		return nil, err
	}
	store, processor, err := integration.MakeEngine(cfg.Node.DataDir, cfg.Store, rules, cfg.Genesis())
	if err != nil {
		reporter.Error("Failed to open store", err, "datadir", cfg.Node.DataDir)
		return nil, err
	}
	log.Info("Ledger ready", "network", rules.Name, "program", rules.ProgramID)
	return &engine{
		cfg:      cfg,
		store:    store,
		ledger:   processor,
		reporter: reporter,
	}, nil
}
