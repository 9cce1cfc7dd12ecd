//go:build windows

package main

import (
	"os/exec"
	"syscall"
)

// configureWatcherProcess sets up platform-specific process attributes for
// the detached watcher
func configureWatcherProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
		HideWindow:    true,
	}
}
