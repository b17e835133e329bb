package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

var errAlreadyRunning = errors.New("daemon already running")

// readPID parses the process ID stored in path.
func readPID(path string) (int, error) {
	pidBytes, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(pidBytes)))
	if err != nil {
		return 0, fmt.Errorf("error parsing PID from file '%s': %w", path, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid PID %d found in file '%s'", pid, path)
	}
	return pid, nil
}

// processAlive reports whether a process with pid exists and accepts signals.
func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// acquirePIDFile writes the current PID to path, replacing a stale file. It fails
// with errAlreadyRunning when the recorded process is still alive.
func acquirePIDFile(path string) error {
	// An unreadable or garbage file is treated as stale.
	if pid, err := readPID(path); err == nil && pid != os.Getpid() && processAlive(pid) {
		return fmt.Errorf("%w: process with PID %d found (from %s)", errAlreadyRunning, pid, path)
	}

	_ = os.Remove(path)
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return fmt.Errorf("failed to write PID file '%s': %w", path, err)
	}
	return nil
}
