package main

import (
	"errors"
	"os"
)

const stdinName = "-"

type inputKind int

const (
	inputStdin inputKind = iota
	inputFile
	inputMapped
)

// input is the acquired representation of a single designator. Exactly
// one variant is active; it is chosen at open time and never changes
// while the input is being consumed.
type input struct {
	kind inputKind
	file *os.File  // inputFile
	view *mmapView // inputMapped
}

// openInput resolves a designator into an input. "-" selects standard
// input; any other string is opened as a path. When useMmap is set the
// whole content is mapped read-only instead, including for stdin (via a
// duplicated descriptor), and an unmappable source such as a pipe is an
// error for this one input.
func openInput(name string, useMmap bool) (*input, error) {
	if name == stdinName {
		if !useMmap {
			return &input{kind: inputStdin}, nil
		}
		view, err := mapStdin()
		if err != nil {
			return nil, err
		}
		return &input{kind: inputMapped, view: view}, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	if fi, serr := f.Stat(); serr == nil && fi.IsDir() {
		_ = f.Close()
		return nil, errors.New("Is a directory")
	}
	if !useMmap {
		return &input{kind: inputFile, file: f}, nil
	}
	view, err := mapFile(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &input{kind: inputMapped, view: view}, nil
}

// Close releases whatever the active variant owns: the mapping and its
// descriptor for inputMapped, the open file for inputFile, nothing for
// inputStdin. Safe to call on every exit path.
func (in *input) Close() error {
	switch in.kind {
	case inputFile:
		if in.file == nil {
			return nil
		}
		f := in.file
		in.file = nil
		return f.Close()
	case inputMapped:
		if in.view == nil {
			return nil
		}
		v := in.view
		in.view = nil
		return v.Close()
	}
	return nil
}
