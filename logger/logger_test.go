package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"
)

func TestSetupDefault(t *testing.T) {
	defer log.Root().SetHandler(log.DiscardHandler())

	var buf bytes.Buffer
	require.NoError(t, SetupDefault(&buf, int(log.LvlInfo), FormatJSON, false))

	l := New("ledger")
	l.Log.Debug("hidden")
	l.Log.Info("Vote appended", "period", 1000)

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, `"msg":"Vote appended"`)
	require.Contains(t, out, `"module":"ledger"`)
	require.Contains(t, out, `"period":1000`)
}

func TestSetupDefaultErrors(t *testing.T) {
	defer log.Root().SetHandler(log.DiscardHandler())

	require.Error(t, SetupDefault(nil, 3, "xml", false))
	require.Error(t, SetupDefault(nil, 6, FormatText, false))
	require.Error(t, SetupDefault(nil, -1, FormatText, false))
}

func TestNopReporter(t *testing.T) {
	r, err := NewReporter("")
	require.NoError(t, err)
	r.Error("boom", errors.New("test"), "key", "value", "dangling")
}
