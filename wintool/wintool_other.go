//go:build !windows

package wintool

import (
	"fmt"
	"os/exec"
	"runtime"
)

// FindLink is only implemented on Windows, where it locates MSVC's
// link.exe. Callers (see build.Driver.link) already gate on
// runtime.GOOS == "windows" before calling this, so this stub is
// unreachable on other platforms.
func FindLink(targetArch string) (*exec.Cmd, error) {
	return nil, fmt.Errorf("wintool: FindLink is not supported on %s", runtime.GOOS)
}
