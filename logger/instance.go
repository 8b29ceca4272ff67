// Package logger wires the go-ethereum leveled logger into long-lived
// components and configures the process-wide log output.
package logger

import (
	"github.com/ethereum/go-ethereum/log"
)

// Instance is embedded by components that log with their own context.
type Instance struct {
	Log log.Logger
}

// New returns an Instance tagged with module=name, or the root context when
// no name is given.
func New(name ...string) Instance {
	if len(name) == 0 {
		return Instance{
			Log: log.New(),
		}
	}
	return Instance{
		Log: log.New("module", name[0]),
	}
}
