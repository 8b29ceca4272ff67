package launcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-growspace/api"
	"github.com/rony4d/go-growspace/inter"
	"github.com/rony4d/go-growspace/ledger"
)

var (
	rangeFlag = cli.Uint64Flag{
		Name:  "range",
		Usage: "Range id of the ledger",
	}
	periodFlag = cli.Uint64Flag{
		Name:  "period",
		Usage: "Period (block id) the vote or credit refers to",
	}
	valueFlag = cli.StringFlag{
		Name:  "value",
		Usage: "Observed value; only its first 8 bytes are kept",
	}
	voterFlag = cli.StringFlag{
		Name:  "voter",
		Usage: "Voter identity (base58)",
	}
	prevFlag = cli.Uint64Flag{
		Name:  "prev",
		Usage: "Range id of a ledger to finalize before appending",
	}
	offsetFlag = cli.Uint64Flag{
		Name:  "offset",
		Usage: "First credit entry to return",
	}
	limitFlag = cli.Uint64Flag{
		Name:  "limit",
		Usage: "Number of credit entries to return",
		Value: 50,
	}
)

var (
	initCommand = cli.Command{
		Action:    withEngine(initLedger),
		Name:      "init",
		Usage:     "Initialize the ledger of a range",
		ArgsUsage: "",
		Flags:     []cli.Flag{rangeFlag},
	}
	appendCommand = cli.Command{
		Action: withEngine(appendVote),
		Name:   "append",
		Usage:  "Append a vote to the ledger of a range",
		Flags:  []cli.Flag{rangeFlag, periodFlag, valueFlag, voterFlag, prevFlag},
		Description: `
Records the vote of --voter for --value at --period in the ledger of --range.
With --prev the ledger of that range is finalized and its winners credited in
the same call.`,
	}
	finalizeCommand = cli.Command{
		Action: withEngine(finalizeRange),
		Name:   "finalize",
		Usage:  "Tally the ledger of a range and credit the winners",
		Flags:  []cli.Flag{rangeFlag, periodFlag},
	}
	showCommand = cli.Command{
		Action: withEngine(showLedger),
		Name:   "show",
		Usage:  "Print the ledger of a range as JSON",
		Flags:  []cli.Flag{rangeFlag},
	}
	votersCommand = cli.Command{
		Action: withEngine(listVoters),
		Name:   "voters",
		Usage:  "Print a page of the credit aggregate as JSON",
		Flags:  []cli.Flag{offsetFlag, limitFlag},
	}
	dumpConfigCommand = cli.Command{
		Action:    dumpConfigAction,
		Name:      "dumpconfig",
		Usage:     "Show configuration values",
		ArgsUsage: "",
	}
)

func withEngine(fn func(*cli.Context, *engine) error) func(*cli.Context) error {
	return func(ctx *cli.Context) error {
		e, err := makeEngine(ctx)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := fn(ctx, e); err != nil {
			e.reporter.Error("Command failed", err, "command", ctx.Command.Name)
			return err
		}
		return nil
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireFlag(ctx *cli.Context, name string) error {
	if !ctx.IsSet(name) {
		return fmt.Errorf("--%s is required", name)
	}
	return nil
}

func initLedger(ctx *cli.Context, e *engine) error {
	if err := requireFlag(ctx, rangeFlag.Name); err != nil {
		return err
	}
	payer, err := e.cfg.PayerIdentity()
	if err != nil {
		return err
	}
	addr, err := e.ledger.InitializeLedger(payer, ctx.Uint64(rangeFlag.Name))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(ctx.App.Writer, addr)
	return err
}

func appendVote(ctx *cli.Context, e *engine) error {
	for _, name := range []string{rangeFlag.Name, periodFlag.Name, valueFlag.Name, voterFlag.Name} {
		if err := requireFlag(ctx, name); err != nil {
			return err
		}
	}
	payer, err := e.cfg.PayerIdentity()
	if err != nil {
		return err
	}
	voter, err := inter.IdentityFromString(ctx.String(voterFlag.Name))
	if err != nil {
		return fmt.Errorf("voter: %w", err)
	}
	req := ledger.AppendRequest{
		RangeID: ctx.Uint64(rangeFlag.Name),
		Period:  idx.Block(ctx.Uint64(periodFlag.Name)),
		Value:   []byte(ctx.String(valueFlag.Name)),
		Voter:   voter,
		Payer:   payer,
	}
	if ctx.IsSet(prevFlag.Name) {
		prev := ctx.Uint64(prevFlag.Name)
		candidates, err := e.ledger.CandidateAccounts(prev)
		if err != nil {
			return err
		}
		req.Previous = &prev
		req.Candidates = candidates
	}
	res, err := e.ledger.AppendVote(req)
	if err != nil {
		return err
	}
	return printJSON(ctx.App.Writer, res)
}

func finalizeRange(ctx *cli.Context, e *engine) error {
	for _, name := range []string{rangeFlag.Name, periodFlag.Name} {
		if err := requireFlag(ctx, name); err != nil {
			return err
		}
	}
	payer, err := e.cfg.PayerIdentity()
	if err != nil {
		return err
	}
	snapshot := ctx.Uint64(rangeFlag.Name)
	candidates, err := e.ledger.CandidateAccounts(snapshot)
	if err != nil {
		return err
	}
	res, err := e.ledger.FinalizeAndCredit(ledger.FinalizeRequest{
		Snapshot:   &snapshot,
		Period:     idx.Block(ctx.Uint64(periodFlag.Name)),
		Submitter:  payer,
		Candidates: candidates,
	})
	if err != nil {
		return err
	}
	return printJSON(ctx.App.Writer, res)
}

func showLedger(ctx *cli.Context, e *engine) error {
	if err := requireFlag(ctx, rangeFlag.Name); err != nil {
		return err
	}
	rangeID := ctx.Uint64(rangeFlag.Name)
	led, err := e.ledger.Ledger(rangeID)
	if errors.Is(err, ledger.ErrNotFound) {
		return fmt.Errorf("no ledger for range %d", rangeID)
	}
	if err != nil {
		return err
	}
	return printJSON(ctx.App.Writer, api.RPCMarshalLedger(rangeID, led))
}

func listVoters(ctx *cli.Context, e *engine) error {
	_, chunk, err := e.ledger.ReadVoterChunk(ctx.Uint64(offsetFlag.Name), ctx.Uint64(limitFlag.Name))
	if err != nil {
		return err
	}
	return printJSON(ctx.App.Writer, chunk)
}

func dumpConfigAction(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	out, err := dumpConfig(&cfg)
	if err != nil {
		return err
	}
	_, err = ctx.App.Writer.Write(out)
	return err
}
