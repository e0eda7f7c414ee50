package runner

import (
	"fmt"
	"strings"
)

// Limits bound one execution. Zero values take the defaults.
type Limits struct {
	CPUSeconds int
	MemoryMB   int
	MaxFiles   int
	MaxOutput  int
}

func (l *Limits) init() {
	if l.CPUSeconds <= 0 {
		l.CPUSeconds = 10
	}
	if l.MemoryMB <= 0 {
		l.MemoryMB = 512
	}
	if l.MaxFiles <= 0 {
		l.MaxFiles = 64
	}
	if l.MaxOutput <= 0 {
		l.MaxOutput = 200 << 10
	}
}

// prefix renders the ulimit commands applied before the executed command in
// the same shell, so the limits bind the command and its children.
func (l *Limits) prefix() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("ulimit -t %d", l.CPUSeconds))
	parts = append(parts, fmt.Sprintf("ulimit -v %d", l.MemoryMB*1024))
	parts = append(parts, fmt.Sprintf("ulimit -n %d", l.MaxFiles))
	return strings.Join(parts, "; ")
}
