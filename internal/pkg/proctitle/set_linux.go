//go:build linux

package proctitle

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// setKernelName updates the name shown by ps and top via PR_SET_NAME.
func setKernelName(title string) error {
	b := make([]byte, kernelNameMax+1)
	copy(b, title)
	return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&b[0])), 0, 0, 0)
}
