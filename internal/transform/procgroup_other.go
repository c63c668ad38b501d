//go:build !unix

package transform

import (
	"os"
	"os/exec"
)

func startGroup(*exec.Cmd) {}

func exitCode(ps *os.ProcessState) int {
	if ps == nil {
		return -1
	}
	return ps.ExitCode()
}
