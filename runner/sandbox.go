package runner

import (
	"os/exec"
	"strings"
)

// FirejailAvailable reports whether the firejail binary is installed.
func FirejailAvailable() bool {
	_, err := exec.LookPath("firejail")
	return err == nil
}

// FirejailCommand wraps a shell command in a firejail invocation: no network,
// private /tmp, read-only root, all capabilities dropped.
func FirejailCommand(command string, profile string) string {
	parts := []string{"firejail"}
	if profile != "" {
		parts = append(parts, "--profile="+profile)
	}
	parts = append(parts,
		"--net=none",
		"--private",
		"--read-only=/",
		"--caps.drop=all",
		"--quiet",
	)
	parts = append(parts, "sh", "-c", shellQuote(command))
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
