//go:build unix || linux || darwin

package main

import (
	"os/exec"
	"syscall"
)

// configureWatcherProcess sets up platform-specific process attributes for
// the detached watcher
func configureWatcherProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
