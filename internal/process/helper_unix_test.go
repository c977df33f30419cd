//go:build !windows

package process

import "os/signal"
import "syscall"

func ignoreTerm() {
	signal.Ignore(syscall.SIGTERM)
}
