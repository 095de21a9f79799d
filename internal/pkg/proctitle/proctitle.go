// Package proctitle names the server process.
package proctitle

import (
	"errors"
	"os"
	"strings"
)

// kernelNameMax is the longest name Linux keeps for a task.
const kernelNameMax = 15

// Set renames the process to title. On Linux the kernel task name is cut to
// 15 bytes; elsewhere only os.Args[0] changes.
func Set(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("empty process title")
	}
	if len(os.Args) > 0 {
		os.Args[0] = title
	}
	return setKernelName(title)
}
