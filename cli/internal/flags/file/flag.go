package file

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/pflag"
)

// Type is the type name for the path flag.
// It represents a flag that holds a file path.
const Type = "path"

// Stdin is the path that reads the file from standard input.
const Stdin = "-"

// Flag defines a path flag that records whether the value is an existing file.
type Flag struct {
	path string
	fs.FileInfo
}

func (f *Flag) String() string {
	return f.path
}

func (f *Flag) Exists() bool {
	return f.FileInfo != nil
}

// IsStdin reports whether the flag refers to standard input.
func (f *Flag) IsStdin() bool {
	return f.path == Stdin
}

// IsSet reports whether a path was given at all.
func (f *Flag) IsSet() bool {
	return f.path != ""
}

// Open opens the file, or returns stdin when the path is Stdin.
func (f *Flag) Open(stdin io.Reader) (io.ReadCloser, error) {
	switch {
	case f.IsStdin():
		return io.NopCloser(stdin), nil
	case !f.Exists():
		return nil, fmt.Errorf("file %q does not exist", f.path)
	case f.IsDir():
		return nil, fmt.Errorf("path %q is a directory", f.path)
	}
	return os.Open(f.path)
}

// Read reads the whole file, see Open.
func (f *Flag) Read(stdin io.Reader) ([]byte, error) {
	r, err := f.Open(stdin)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (f *Flag) Set(s string) error {
	f.path = s
	f.FileInfo = nil
	if s == "" || s == Stdin {
		return nil
	}
	info, err := os.Stat(s)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unable to stat path %q: %w", s, err)
	}
	f.FileInfo = info
	return nil
}

func (f *Flag) Type() string {
	return Type
}

func Var(f *pflag.FlagSet, name string, value string, usage string) {
	flag := &Flag{}
	_ = flag.Set(value)
	f.Var(flag, name, usage)
}

func VarP(f *pflag.FlagSet, name, shorthand string, value string, usage string) {
	flag := &Flag{}
	_ = flag.Set(value)
	f.VarP(flag, name, shorthand, usage)
}

func Get(f *pflag.FlagSet, name string) (*Flag, error) {
	flag := f.Lookup(name)
	if flag == nil {
		return nil, fmt.Errorf("flag accessed but not defined: %s", name)
	}

	if flag.Value.Type() != Type {
		return nil, fmt.Errorf("trying to get %s value of flag of type %s", Type, flag.Value.Type())
	}

	val, ok := flag.Value.(*Flag)
	if !ok {
		return nil, fmt.Errorf("flag %s is not of type %s", name, Type)
	}
	return val, nil
}
