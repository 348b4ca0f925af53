//go:build unix

package main

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mmapView is a read-only mapping of an entire file. An empty regular
// file gets a nil mapping rather than an OS call: mapping zero bytes is
// EINVAL on Linux, and the empty-input digest must come out the same
// whether or not --mmap is in effect.
type mmapView struct {
	data  []byte
	file  *os.File // closed after unmapping
	dupFD int      // duplicated stdin descriptor, -1 when unused
}

// mapLength converts a source size to the int the OS mapper takes,
// refusing sizes that do not fit (files of 2 GiB and up on 32-bit
// platforms would otherwise map a truncated length).
func mapLength(size int64) (int, error) {
	n := int(size)
	if int64(n) != size || n < 0 {
		return 0, fmt.Errorf("file size %d is too large to memory map", size)
	}
	return n, nil
}

func mapFile(f *os.File) (*mmapView, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Mode().IsRegular() && fi.Size() == 0 {
		return &mmapView{file: f, dupFD: -1}, nil
	}
	n, err := mapLength(fi.Size())
	if err != nil {
		return nil, err
	}
	data, err := unix.Mmap(int(f.Fd()), 0, n, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &mmapView{data: data, file: f, dupFD: -1}, nil
}

func mapStdin() (*mmapView, error) {
	fd, err := unix.Dup(int(os.Stdin.Fd()))
	if err != nil {
		return nil, err
	}
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	if st.Mode&unix.S_IFMT == unix.S_IFREG && st.Size == 0 {
		return &mmapView{dupFD: fd}, nil
	}
	n, err := mapLength(st.Size)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	// A pipe reports size 0 and fails here with EINVAL, which is the
	// wanted outcome: --mmap on non-seekable stdin is this input's
	// acquisition error, not an empty digest.
	data, err := unix.Mmap(fd, 0, n, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return &mmapView{data: data, dupFD: fd}, nil
}

func (v *mmapView) bytes() []byte {
	return v.data
}

func (v *mmapView) Close() error {
	var first error
	if v.data != nil {
		if err := unix.Munmap(v.data); err != nil {
			first = err
		}
		v.data = nil
	}
	if v.file != nil {
		if err := v.file.Close(); err != nil && first == nil {
			first = err
		}
		v.file = nil
	}
	if v.dupFD >= 0 {
		if err := unix.Close(v.dupFD); err != nil && first == nil {
			first = err
		}
		v.dupFD = -1
	}
	return first
}
