//go:build unix

package main

import (
	"math"
	"os"
	"testing"
)

func TestMapLength(t *testing.T) {
	n, err := mapLength(4096)
	if err != nil || n != 4096 {
		t.Errorf("mapLength(4096) = %d, %v", n, err)
	}
	n, err = mapLength(1)
	if err != nil || n != 1 {
		t.Errorf("mapLength(1) = %d, %v", n, err)
	}
	if math.MaxInt64 > int64(math.MaxInt) {
		// 32-bit platforms: sizes beyond int must be refused, not
		// silently truncated to a wrong mapping length.
		if _, err := mapLength(math.MaxInt64); err == nil {
			t.Error("mapLength accepted a size that overflows int")
		}
	}
}

func TestMapStdinPipeFails(t *testing.T) {
	// Under "go test" the process's stdin is not a regular file, so a
	// mapped acquisition of "-" must come back as an error for that
	// input rather than a digest of nothing.
	if fi, err := os.Stdin.Stat(); err == nil && fi.Mode().IsRegular() {
		t.Skip("stdin is a regular file in this run")
	}
	if _, err := openInput(stdinName, true); err == nil {
		t.Error("openInput(\"-\", mmap) succeeded on non-mappable stdin")
	}
}
