package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
)

// Output formats accepted by SetupDefault.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// SetupDefault installs the root handler. Verbosity follows the go-ethereum
// levels: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=trace.
func SetupDefault(w io.Writer, verbosity int, format string, color bool) error {
	if w == nil {
		w = os.Stderr
	}
	var fmtr log.Format
	switch format {
	case "", FormatText:
		fmtr = log.TerminalFormat(color)
	case FormatJSON:
		fmtr = log.JSONFormat()
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	if verbosity < int(log.LvlCrit) || verbosity > int(log.LvlTrace) {
		return fmt.Errorf("log verbosity %d out of range", verbosity)
	}
	log.Root().SetHandler(log.LvlFilterHandler(log.Lvl(verbosity), log.StreamHandler(w, fmtr)))
	return nil
}
