//go:build !linux

package proctitle

func setKernelName(string) error { return nil }
