//go:build !unix

package main

import (
	"errors"
	"os"
)

// Fallback for platforms without unix memory mapping. Every --mmap
// acquisition fails for that one input; buffered reads are unaffected.

type mmapView struct{}

var errNoMmap = errors.New("memory mapping is not supported on this platform")

func mapFile(f *os.File) (*mmapView, error) {
	return nil, errNoMmap
}

func mapStdin() (*mmapView, error) {
	return nil, errNoMmap
}

func (v *mmapView) bytes() []byte {
	return nil
}

func (v *mmapView) Close() error {
	return nil
}
