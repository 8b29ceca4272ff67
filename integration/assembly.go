package integration

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Fantom-foundation/lachesis-base/kvdb"
	"github.com/Fantom-foundation/lachesis-base/kvdb/leveldb"
	"github.com/Fantom-foundation/lachesis-base/kvdb/memorydb"
	"github.com/ethereum/go-ethereum/log"

	"github.com/rony4d/go-growspace/ledger"
	"github.com/rony4d/go-growspace/opera"
	"github.com/rony4d/go-growspace/opera/genesis"
	"github.com/rony4d/go-growspace/state"
)

const chaindataDir = "chaindata"

func openDB(dataDir string, preset PresetConfig) (kvdb.Store, error) {
	switch preset.DB {
	case MemoryDB:
		return memorydb.New(), nil
	case LevelDB:
		if dataDir == "" {
			return nil, fmt.Errorf("%s store needs a data directory", LevelDB)
		}
		path := filepath.Join(dataDir, chaindataDir)
		if err := os.MkdirAll(path, 0700); err != nil {
			return nil, err
		}
		db, err := leveldb.New(path, preset.CacheMB*1024*1024, preset.Handles, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown db kind %q", preset.DB)
	}
}

// MakeStore opens the account store described by preset under dataDir.
func MakeStore(dataDir string, preset PresetConfig, rules opera.Rules) (*state.Store, error) {
	db, err := openDB(dataDir, preset)
	if err != nil {
		return nil, err
	}
	s, err := state.NewStore(db, state.Config{
		Cache:          preset.AccountCache,
		MaxAccountSize: rules.Limits.MaxAccountSize,
		Rent:           rules.Rent,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("Opened store", "preset", preset.Name, "db", preset.DB, "datadir", dataDir)
	return s, nil
}

// MakeEngine opens the store, applies g if the store has no genesis yet and
// returns a processor running rules.
func MakeEngine(dataDir string, preset PresetConfig, rules opera.Rules, g *genesis.Genesis) (*state.Store, *ledger.Processor, error) {
	s, err := MakeStore(dataDir, preset, rules)
	if err != nil {
		return nil, nil, err
	}
	if g != nil {
		applied, err := s.Meta(genesis.MarkerKey)
		if err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		if applied == nil {
			h, err := g.Apply(s)
			if err != nil {
				_ = s.Close()
				return nil, nil, fmt.Errorf("failed to apply genesis: %w", err)
			}
			log.Info("Applied genesis", "network", g.Network, "hash", h, "accounts", len(g.Allocations))
		}
	}
	p, err := ledger.New(s, rules)
	if err != nil {
		_ = s.Close()
		return nil, nil, err
	}
	return s, p, nil
}
