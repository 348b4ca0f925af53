// b2sum.go
//
// A coreutils-inspired BLAKE2b checksum tool.
//
// Features.
// - Read FILEs, or standard input when FILE is "-" or no FILE is given.
// - Digest length selectable in bits with -l/--length (default 512).
// - Optional keyed hashing with --key.
// - Optional memory-mapped reads with --mmap.
// - Output formats compatible with coreutils-style "<hex>  <file>" and
//   "<hex> *<file>", plus BSD-style "--tag".
//
// Important.
// - Inputs are processed independently and in order; one unreadable
//   input does not stop the others, it only makes the exit status 1.
// - BLAKE2b uses golang.org/x/crypto/blake2b.

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

const (
	progName    = "b2sum"
	progVersion = "1.0.0"
)

type exitCode int

const (
	exitOK      exitCode = 0
	exitFailure exitCode = 1
)

type options struct {
	lengthBits int
	key        []byte
	mmap       bool

	binary bool
	text   bool

	tag  bool
	zero bool

	appendOut  bool
	outputPath string

	help    bool
	version bool
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s [OPTION]... [FILE]...\n", progName)
	fmt.Fprintf(w, "Print BLAKE2b checksums.\n")
	fmt.Fprintf(w, "With no FILE, or when FILE is -, read standard input.\n\n")
	fmt.Fprintf(w, "  -l, --length BITS    digest length in bits; a multiple of 8,\n")
	fmt.Fprintf(w, "                       at most 512 (default 512)\n")
	fmt.Fprintf(w, "      --key HEX        key for keyed hashing, up to 64 bytes of hex\n")
	fmt.Fprintf(w, "      --mmap           read input with memory mapping\n\n")
	fmt.Fprintf(w, "  -b, --binary         read in binary mode\n")
	fmt.Fprintf(w, "  -t, --text           read in text mode (default)\n")
	fmt.Fprintf(w, "      --tag            create a BSD-style checksum\n")
	fmt.Fprintf(w, "  -z, --zero           end each output line with NUL, not newline,\n")
	fmt.Fprintf(w, "                       and disable file name escaping\n\n")
	fmt.Fprintf(w, "  -a, --append         append to file when using with -o or --output\n")
	fmt.Fprintf(w, "  -o, --output FILE    write output to FILE\n")
	fmt.Fprintf(w, "  -h, --help           display this help and exit\n")
	fmt.Fprintf(w, "  -v, --version        output version information and exit\n")
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", progName, progVersion)
}

func dief(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", progName, fmt.Sprintf(format, a...))
	os.Exit(int(exitFailure))
}

// validLength reports whether a --length value names a whole number of
// bytes inside the BLAKE2b output range.
func validLength(bits int) bool {
	return bits > 0 && bits <= 512 && bits%8 == 0
}

func decodeKey(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(key) > 64 {
		return nil, fmt.Errorf("key is %d bytes, the maximum is 64", len(key))
	}
	return key, nil
}

func escapeFilename(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			if c < 0x20 || c == 0x7f {
				b.WriteString(`\`)
				b.WriteString(fmt.Sprintf("%03o", c))
			} else {
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

func algoTag(bits int) string {
	if bits == 512 {
		return "BLAKE2b"
	}
	return fmt.Sprintf("BLAKE2b-%d", bits)
}

func lineSep(opt *options) string {
	if opt.zero {
		return "\x00"
	}
	return "\n"
}

func formatDigestLine(sum []byte, name string, opt *options) string {
	hexsum := hex.EncodeToString(sum)

	if opt.tag {
		return fmt.Sprintf("%s (%s) = %s", algoTag(opt.lengthBits), name, hexsum)
	}

	if !opt.zero {
		name = escapeFilename(name)
	}

	if opt.binary {
		return fmt.Sprintf("%s *%s", hexsum, name)
	}
	return fmt.Sprintf("%s  %s", hexsum, name)
}

func openOutput(opt *options) (io.Writer, func(), error) {
	if opt.outputPath == "" || opt.outputPath == stdinName {
		return os.Stdout, func() {}, nil
	}
	var (
		f   *os.File
		err error
	)
	if opt.appendOut {
		f, err = os.OpenFile(opt.outputPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
	} else {
		f, err = os.Create(opt.outputPath)
	}
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

// hashPath acquires one designator, hashes it to completion and
// releases its resources before returning, on the error path included.
func hashPath(name string, opt *options) ([]byte, error) {
	in, err := openInput(name, opt.mmap)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return hashOne(in, opt.lengthBits/8, opt.key)
}

// computeFiles processes every designator exactly once, in order. A
// failed input is reported on stderr and recorded; it never stops the
// loop.
func computeFiles(files []string, opt *options, out io.Writer) exitCode {
	sep := lineSep(opt)
	failed := false

	for _, name := range files {
		sum, err := hashPath(name, opt)
		if err != nil {
			failed = true
			fmt.Fprintf(os.Stderr, "%s: %s: %v\n", progName, name, err)
			continue
		}
		_, _ = io.WriteString(out, formatDigestLine(sum, name, opt))
		_, _ = io.WriteString(out, sep)
	}

	if failed {
		return exitFailure
	}
	return exitOK
}

// lastModeIsBinary reports whether the later of -b/-t on the command
// line selected binary mode. The two are mutually exclusive and the
// last one given wins, as in coreutils; pflag keeps only final values,
// so when both were set the order is recovered from argv.
func lastModeIsBinary(argv []string) bool {
	takesValue := map[string]bool{
		"-l": true, "--length": true,
		"-o": true, "--output": true,
		"--key": true,
	}
	binary := false
	for i := 0; i < len(argv); i++ {
		a := argv[i]
		if a == "--" {
			break
		}
		if takesValue[a] {
			i++
			continue
		}
		switch {
		case a == "--binary":
			binary = true
		case a == "--text":
			binary = false
		case strings.HasPrefix(a, "--"):
			// Some other long flag.
		case strings.HasPrefix(a, "-") && len(a) > 1:
			for j := 1; j < len(a); j++ {
				switch a[j] {
				case 'b':
					binary = true
				case 't':
					binary = false
				}
			}
		}
	}
	return binary
}

func parseArgs(argv []string) (options, []string) {
	var opt options
	var keyHex string

	fs := pflag.NewFlagSet(progName, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.IntVarP(&opt.lengthBits, "length", "l", 512, "digest length in bits")
	fs.StringVar(&keyHex, "key", "", "hex key for keyed hashing")
	fs.BoolVar(&opt.mmap, "mmap", false, "read input with memory mapping")
	fs.BoolVarP(&opt.binary, "binary", "b", false, "read in binary mode")
	fs.BoolVarP(&opt.text, "text", "t", false, "read in text mode")
	fs.BoolVar(&opt.tag, "tag", false, "create a BSD-style checksum")
	fs.BoolVarP(&opt.zero, "zero", "z", false, "end lines with NUL")
	fs.BoolVarP(&opt.appendOut, "append", "a", false, "append to the output file")
	fs.StringVarP(&opt.outputPath, "output", "o", "", "write output to FILE")
	fs.BoolVarP(&opt.help, "help", "h", false, "display this help and exit")
	fs.BoolVarP(&opt.version, "version", "v", false, "output version information and exit")

	if err := fs.Parse(argv); err != nil {
		dief("%v", err)
	}

	if opt.binary && opt.text {
		opt.binary = lastModeIsBinary(argv)
		opt.text = !opt.binary
	}

	if keyHex != "" {
		key, err := decodeKey(keyHex)
		if err != nil {
			dief("invalid key: %v", err)
		}
		opt.key = key
	}

	return opt, fs.Args()
}

func main() {
	opt, files := parseArgs(os.Args[1:])

	if opt.help {
		usage(os.Stdout)
		os.Exit(int(exitOK))
	}

	if opt.version {
		printVersion(os.Stdout)
		os.Exit(int(exitOK))
	}

	if !validLength(opt.lengthBits) {
		dief("invalid digest length %d: must be a multiple of 8 between 8 and 512", opt.lengthBits)
	}

	out, clos, err := openOutput(&opt)
	if err != nil {
		dief("cannot open output: %v", err)
	}

	if len(files) == 0 {
		files = []string{stdinName}
	}

	code := computeFiles(files, &opt, out)
	clos()
	os.Exit(int(code))
}
