//go:build !windows

package procutil

import (
	"os/exec"
	"syscall"
)

// Command creates an exec.Cmd running in its own process group, so that
// ffmpeg and anything it spawns can be killed together.
func Command(path string, args ...string) *exec.Cmd {
	cmd := exec.Command(path, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
	return cmd
}

// InitJob is a no-op outside Windows; process groups cover the same need.
func InitJob() error {
	return nil
}

// Assign is a no-op outside Windows.
func Assign(cmd *exec.Cmd) error {
	return nil
}

// ForceKill kills the whole process group of cmd.
func ForceKill(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err != nil {
		return cmd.Process.Kill()
	}
	return syscall.Kill(-pgid, syscall.SIGKILL)
}
