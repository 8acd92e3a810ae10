package config

import (
	"flag"
	"io"
	"time"

	"github.com/pkg/errors"
)

// Flags process-level options.
type Flags struct {
	ConfigPath string
	Interval   time.Duration
	LogFile    string
	ActiveURL  string
	JournalDir string
	Setup      bool
}

// ParseFlags parses command line args, without the program name.
func ParseFlags(args []string, output io.Writer) (Flags, error) {
	var f Flags

	fs := flag.NewFlagSet("ns-fischer", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&f.ConfigPath, "config", "config.json", "path to a config file or a directory of config files")
	fs.DurationVar(&f.Interval, "interval", 0, "repeat every interval, e.g. 15m; 0 runs once")
	fs.StringVar(&f.LogFile, "log-file", "", "also write logs to this rotated file")
	fs.StringVar(&f.ActiveURL, "active-url", "", "override the active nation list URL")
	fs.StringVar(&f.JournalDir, "journal-dir", "", "run journal directory (default ./wal/runs)")
	fs.BoolVar(&f.Setup, "setup", false, "interactively create a config file at -config")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	// positional config path, kept for compatibility with `ns-fischer config.json`
	if fs.NArg() > 0 {
		f.ConfigPath = fs.Arg(0)
	}

	if f.Interval < 0 {
		return Flags{}, errors.Errorf("invalid -interval %s", f.Interval)
	}

	return f, nil
}
