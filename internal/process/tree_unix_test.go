//go:build !windows

package process

import (
	"context"
	"errors"
	"os"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestHandleCloseKillsDescendants(t *testing.T) {
	childPID := make(chan int, 1)
	sink := func(l Line) {
		if pid, ok := strings.CutPrefix(l.Text, "child="); ok {
			n, _ := strconv.Atoi(pid)
			childPID <- n
		}
	}

	h, err := StartWatch(context.Background(), os.Args[0], nil, helperOptions("spawn", sink))
	if err != nil {
		t.Fatalf("StartWatch: %v", err)
	}

	var child int
	select {
	case child = <-childPID:
	case <-time.After(10 * time.Second):
		_ = h.Close()
		t.Fatal("helper never reported its child")
	}
	if !processAlive(child) {
		t.Fatalf("child %d not running before Close", child)
	}

	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for processAlive(child) {
		if time.Now().After(deadline) {
			t.Fatalf("descendant %d survived Close", child)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestHandleCloseEscalatesToKill(t *testing.T) {
	origTerm, origStdin := terminateGrace, stdinGrace
	terminateGrace, stdinGrace = 200*time.Millisecond, 100*time.Millisecond
	defer func() { terminateGrace, stdinGrace = origTerm, origStdin }()

	sink, ready := waitFor("ready")
	h, err := StartWatch(context.Background(), os.Args[0], nil, helperOptions("ignore-term", sink))
	if err != nil {
		t.Fatalf("StartWatch: %v", err)
	}
	<-ready

	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !h.Exited() {
		t.Fatal("process survived SIGKILL escalation")
	}
}

// processAlive treats zombies as dead: an orphan reparented to a container
// init that never reaps still answers kill(pid, 0).
func processAlive(pid int) bool {
	if err := unix.Kill(pid, 0); errors.Is(err, unix.ESRCH) {
		return false
	}
	if runtime.GOOS != "linux" {
		return true
	}
	stat, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		return false
	}
	fields := strings.Fields(string(stat[strings.LastIndexByte(string(stat), ')')+1:]))
	return len(fields) > 0 && fields[0] != "Z"
}
