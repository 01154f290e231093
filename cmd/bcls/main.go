// bcls lists VM instances of a habitat, matched by name pattern.
//
//	bcls prd "^store-lb"         # names and IPs
//	bcls int --long store        # all columns
//	bcls stg --ip store-lb       # IPs only, for piping
//	bcls prd --all               # the whole fleet
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bcls/bcls/pkg/auth"
	"github.com/bcls/bcls/pkg/compute"
	"github.com/bcls/bcls/pkg/config"
	"github.com/bcls/bcls/pkg/logging"
	"github.com/bcls/bcls/pkg/transport"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type options struct {
	habitat string
	pattern string

	long    bool
	ip      bool
	all     bool
	json    bool
	zones   bool
	verbose bool
	version bool

	configPath string
	authMode   string
}

func parseArgs(args []string) (*options, error) {
	fs := pflag.NewFlagSet("bcls", pflag.ContinueOnError)

	opts := &options{}
	fs.BoolVarP(&opts.long, "long", "l", false,
		"long output: machine type, CPU platform, zone, cell, etc. (conflicts with --ip)")
	fs.BoolVarP(&opts.ip, "ip", "i", false,
		"show IPs only, one per line, for piping (conflicts with --long)")
	fs.BoolVarP(&opts.all, "all", "a", false,
		"list the whole fleet, no name pattern")
	fs.BoolVar(&opts.json, "json", false,
		"machine-readable JSON output")
	fs.BoolVar(&opts.zones, "zones", false,
		"list the zones of the habitat's project instead of instances")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false,
		"verbose logging")
	fs.BoolVar(&opts.version, "version", false,
		"print version and exit")
	fs.StringVar(&opts.configPath, "config-path", "",
		"habitat config file (default ~/.bcls/config.toml, then ./config.toml)")
	fs.StringVar(&opts.authMode, "auth", "gcloud",
		"token source: gcloud (credential helper) or adc (application default credentials)")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: bcls <habitat> [flags] [pattern]\n\nFlags:\n%s", fs.FlagUsages())
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.version {
		return opts, nil
	}

	if opts.long && opts.ip {
		return nil, errors.New("--long and --ip are mutually exclusive")
	}
	if opts.authMode != "gcloud" && opts.authMode != "adc" {
		return nil, fmt.Errorf("unknown auth mode %q", opts.authMode)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return nil, errors.New("habitat is required, e.g.: bcls prd \"^store-lb\"")
	}
	opts.habitat = rest[0]
	if len(rest) > 1 {
		opts.pattern = rest[1]
	}
	if len(rest) > 2 {
		return nil, fmt.Errorf("unexpected argument %q", rest[2])
	}

	if opts.pattern == "" && !opts.all && !opts.zones {
		return nil, errors.New("a name pattern is required unless --all or --zones is given")
	}

	return opts, nil
}

func tokenSource(mode string) auth.TokenSource {
	if mode == "adc" {
		return auth.NewADCSource()
	}
	return auth.NewGcloudSource()
}

func run(opts *options, w io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	habitat, err := cfg.Habitat(opts.habitat)
	if err != nil {
		return err
	}

	svc, err := compute.New(compute.Config{
		Project:   habitat.Project,
		Transport: transport.New(),
		Tokens:    tokenSource(opts.authMode),
	})
	if err != nil {
		return err
	}

	ctx := context.Background()

	if opts.zones {
		zones, err := svc.ListZones(ctx)
		if err != nil {
			return err
		}
		return writeZones(w, zones)
	}

	var instances []compute.Instance
	if opts.all {
		instances, err = svc.ListAllInstances(ctx)
	} else {
		instances, err = svc.ListInstances(ctx, opts.pattern)
	}
	if err != nil {
		return fmt.Errorf("failed to list instances: %w", err)
	}

	switch {
	case opts.json:
		return writeJSON(w, instances)
	case opts.ip:
		return writeIPs(w, instances)
	default:
		return writeTable(w, instances, opts.long)
	}
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "bcls: %v\n", err)
		os.Exit(2)
	}

	if opts.version {
		fmt.Printf("Version: %s - Commit: %s - Date: %s\n", Version, GitCommit, BuildDate)
		return
	}

	level := logging.LevelWarn
	if opts.verbose {
		level = logging.LevelDebug
	}
	logging.Setup(logging.Config{Level: level, Pretty: true, Output: os.Stderr})

	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "bcls: %v\n", err)
		os.Exit(1)
	}
}
