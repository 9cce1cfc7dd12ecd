//go:build windows

package watcher

import (
	"os"
	"syscall"
)

var watcherSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func isReloadSignal(os.Signal) bool {
	return false
}
