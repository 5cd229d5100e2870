// Commonpass-build aggregates password corpora into a versioned dataset of
// tier filters, text and JSON copies and a manifest.
//
// Usage:
//
//	commonpass-build -out datasets -version v20250101.1 rockyou.txt extra.txt
//
// Flags:
//
//	-out       Dataset root directory (default: COMMONPASS_ROOT, or the configured store)
//	-version   Dataset version (default: COMMONPASS_VERSION, or v<today>.1)
//	-fpr       Target false-positive rate (default: 0.01)
//	-locale    BCP 47 locale tag recorded in headers (optional)
//	-workers   Number of tiers built in parallel (default: 1)
//	-source    Source file, repeatable; positional arguments are sources too
//
// On success a one-line JSON summary {"version","out","counts"} is written
// to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tamirms/commonpass/blobstore"
	"github.com/tamirms/commonpass/dataset"
	"github.com/tamirms/commonpass/internal/config"
	"github.com/tamirms/commonpass/internal/logging"
)

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type summary struct {
	Version string         `json:"version"`
	Out     string         `json:"out"`
	Counts  dataset.Counts `json:"counts"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], nil, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "commonpass-build: %v\n", err)
		os.Exit(1)
	}
}

// run parses args and builds the dataset. env is passed to config.LoadFrom.
func run(ctx context.Context, args []string, env map[string]string, stdout, stderr io.Writer) error {
	cfg, err := config.LoadFrom(env)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	fs := flag.NewFlagSet("commonpass-build", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("out", "", "dataset root directory")
	version := fs.String("version", cfg.Version, "dataset version")
	fpr := fs.Float64("fpr", dataset.DefaultFPR, "target false-positive rate")
	locale := fs.String("locale", "", "BCP 47 locale tag")
	workers := fs.Int("workers", 1, "tiers built in parallel")
	var sources stringList
	fs.Var(&sources, "source", "source file (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sources = append(sources, fs.Args()...)
	if len(sources) == 0 {
		fs.Usage()
		return fmt.Errorf("no sources given")
	}

	log, err := logging.New(stderr, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}

	var store blobstore.Store
	if *out != "" {
		store = blobstore.NewLocalStore(*out)
	} else if store, err = config.OpenStore(ctx, cfg); err != nil {
		return err
	}

	b, err := dataset.NewBuilder(store,
		dataset.WithVersion(*version),
		dataset.WithFPR(*fpr),
		dataset.WithLocale(*locale),
		dataset.WithWorkers(*workers),
		dataset.WithLogger(log.Logger),
	)
	if err != nil {
		return err
	}
	m, err := b.BuildFiles(ctx, sources...)
	if err != nil {
		return err
	}

	return json.NewEncoder(stdout).Encode(summary{
		Version: m.Version,
		Out:     blobstore.Locate(store, m.Version),
		Counts:  m.Counts,
	})
}
