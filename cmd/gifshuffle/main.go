// Command gifshuffle conceals and recovers payloads hidden in a GIF's
// global colour map ordering.
//
// Usage:
//
//	gifshuffle [-C] [-Q] [-1] [-p passwd] -m string [infile [outfile]]
//	gifshuffle [-C] [-Q] [-1] [-p passwd] -f file   [infile [outfile]]
//	gifshuffle -S [infile]
//
// With neither -f nor -m given, gifshuffle extracts a previously
// concealed payload from infile and writes it to outfile.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/mattkwan-go/gifshuffle"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "gifshuffle: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("gifshuffle", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: gifshuffle [options] [infile [outfile]]

Options:
  -C          compress the payload before concealing it
  -Q          suppress informational messages
  -S          print the file's storage capacity and exit
  -1          legacy v1 ordering (ignore the password for colour ordering)
  -p passwd   password used to encrypt the payload and order colours
  -f file     read the payload to conceal from file
  -m string   conceal string as the payload

With neither -f nor -m, gifshuffle extracts a concealed payload instead
of embedding one. "-" may be used for infile/outfile to mean stdin/stdout.
`)
	}

	compress := fs.Bool("C", false, "")
	quiet := fs.Bool("Q", false, "")
	capacity := fs.Bool("S", false, "")
	legacyV1 := fs.Bool("1", false, "")
	password := fs.String("p", "", "")
	passwordSet := false
	payloadFile := fs.String("f", "", "")
	payloadString := fs.String("m", "", "")

	if err := fs.Parse(args); err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "p" {
			passwordSet = true
		}
	})

	if *payloadFile != "" && *payloadString != "" {
		return &gifshuffle.Error{Kind: gifshuffle.UsageError, Err: fmt.Errorf("only one of -f or -m may be given")}
	}

	var log *zap.SugaredLogger
	if !*quiet {
		l, err := zap.NewProduction()
		if err == nil {
			log = l.Sugar()
			defer l.Sync()
		}
	}

	infile, outfile, err := positionalArgs(fs.Args())
	if err != nil {
		return err
	}

	in, closeIn, err := openInput(infile)
	if err != nil {
		return err
	}
	defer closeIn()

	if *capacity {
		return gifshuffle.Capacity(in, os.Stdout)
	}

	flags := gifshuffle.Flags{
		Compress: *compress,
		Quiet:    *quiet,
		LegacyV1: *legacyV1,
	}
	if passwordSet {
		flags.Password = password
	}

	out, closeOut, err := openOutput(outfile)
	if err != nil {
		return err
	}
	defer closeOut()

	if *payloadFile == "" && *payloadString == "" {
		return gifshuffle.Extract(in, out, flags, log)
	}

	payload, closePayload, err := openPayload(*payloadFile, *payloadString)
	if err != nil {
		return err
	}
	defer closePayload()

	return gifshuffle.Embed(in, out, payload, flags, log)
}

// positionalArgs applies gifshuffle's stdin/stdout-by-default rule to
// the (up to two) leftover command-line arguments.
func positionalArgs(args []string) (infile, outfile string, err error) {
	switch len(args) {
	case 0:
		return "-", "-", nil
	case 1:
		return args[0], "-", nil
	case 2:
		return args[0], args[1], nil
	default:
		return "", "", &gifshuffle.Error{Kind: gifshuffle.UsageError, Err: fmt.Errorf("too many arguments")}
	}
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func openPayload(file, inline string) (io.Reader, func(), error) {
	if file != "" {
		if file == "-" {
			return os.Stdin, func() {}, nil
		}
		f, err := os.Open(file)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { f.Close() }, nil
	}
	return strings.NewReader(inline), func() {}, nil
}
