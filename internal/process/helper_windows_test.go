//go:build windows

package process

func ignoreTerm() {}
