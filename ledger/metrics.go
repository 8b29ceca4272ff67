package ledger

import (
	"github.com/ethereum/go-ethereum/metrics"
)

var (
	votesAppendedMeter   = metrics.GetOrRegisterMeter("ledger/votes/appended", nil)
	votesDuplicateMeter  = metrics.GetOrRegisterMeter("ledger/votes/duplicate", nil)
	accountsGrownMeter   = metrics.GetOrRegisterMeter("ledger/accounts/grown", nil)
	blocksFinalizedMeter = metrics.GetOrRegisterMeter("ledger/blocks/finalized", nil)
	creditsAppliedMeter  = metrics.GetOrRegisterMeter("ledger/credits/applied", nil)
	creditsSkippedMeter  = metrics.GetOrRegisterMeter("ledger/credits/skipped", nil)
	ledgerSizeGauge      = metrics.GetOrRegisterGauge("ledger/size", nil)
)
