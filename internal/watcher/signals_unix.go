//go:build unix || linux || darwin

package watcher

import (
	"os"
	"syscall"
)

var watcherSignals = []os.Signal{syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP}

func isReloadSignal(sig os.Signal) bool {
	return sig == syscall.SIGHUP
}
