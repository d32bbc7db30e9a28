package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/netinternals/internal/netctl"
)

const usage = `usage: netctl [flags] <command> [args]

commands:
  status                      bridge, view and event store state
  feeds [name]                list feeds, or show one feed's value
  refresh [-all]              poll active feeds, or every feed
  poll <interval>             set the poll interval (e.g. 2s, 0 stops)
  send <command> [args...]    forward a command to the host
  tab <hash>                  select a tab, e.g. "#dns&q=example"
  stop                        stop capturing for good
  events [since]              list stored log entries
  dump [file]                 download a log dump (or save it on the daemon with -save)
  load <file>                 upload a log dump for viewing

flags:
`

func main() {
	addr := flag.String("addr", envOr("NETCTL_ADDR", "http://127.0.0.1:8000"), "daemon address")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	compression := flag.String("compression", "gzip", "dump compression: none, gzip or zstd")
	comments := flag.String("comments", "", "comments stored in dumps")
	save := flag.Bool("save", false, "dump: write on the daemon instead of downloading")
	all := flag.Bool("all", false, "refresh: poll every feed")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := netctl.New(netctl.Options{BaseURL: *addr, Timeout: *timeout, MaxRetries: 2})
	opts := dumpOptions{compression: *compression, comments: *comments, save: *save}
	if err := run(ctx, client, flag.Args(), opts, *all); err != nil {
		fmt.Fprintln(os.Stderr, "netctl:", err)
		os.Exit(1)
	}
}

type dumpOptions struct {
	compression string
	comments    string
	save        bool
}

func run(ctx context.Context, c *netctl.Client, args []string, dump dumpOptions, all bool) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "status":
		return printResult(c.Status(ctx))

	case "feeds":
		if len(rest) > 0 {
			return printResult(c.Feed(ctx, rest[0]))
		}
		return printResult(c.Feeds(ctx))

	case "refresh":
		return c.Refresh(ctx, all)

	case "poll":
		if len(rest) != 1 {
			return fmt.Errorf("poll takes one interval")
		}
		d, err := time.ParseDuration(rest[0])
		if err != nil {
			return err
		}
		return c.SetPollInterval(ctx, d)

	case "send":
		if len(rest) == 0 {
			return fmt.Errorf("send needs a command")
		}
		cmdArgs := make([]any, 0, len(rest)-1)
		for _, a := range rest[1:] {
			cmdArgs = append(cmdArgs, netctl.ParseArg(a))
		}
		return c.Send(ctx, rest[0], cmdArgs...)

	case "tab":
		if len(rest) != 1 {
			return fmt.Errorf("tab takes one hash")
		}
		return printResult(c.SelectTab(ctx, rest[0]))

	case "stop":
		return c.StopCapture(ctx)

	case "events":
		var since uint64
		if len(rest) > 0 {
			n, err := strconv.ParseUint(rest[0], 10, 64)
			if err != nil {
				return fmt.Errorf("since must be a sequence number: %w", err)
			}
			since = n
		}
		return printResult(c.Events(ctx, since))

	case "dump":
		if dump.save {
			path, err := c.SaveDump(ctx, dump.comments)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		}
		out := os.Stdout
		if len(rest) > 0 {
			f, err := os.Create(rest[0])
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		return c.Dump(ctx, out, dump.compression, dump.comments)

	case "load":
		if len(rest) != 1 {
			return fmt.Errorf("load takes one file")
		}
		f, err := os.Open(rest[0])
		if err != nil {
			return err
		}
		defer f.Close()
		return printResult(c.LoadLog(ctx, f, filepath.Base(rest[0]), compressionOf(rest[0])))

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// compressionOf guesses a dump's compression from its file name.
func compressionOf(name string) string {
	switch {
	case strings.HasSuffix(name, ".gz"):
		return "gzip"
	case strings.HasSuffix(name, ".zst"):
		return "zstd"
	default:
		return "none"
	}
}

func printResult(v map[string]any, err error) error {
	if err != nil {
		return err
	}
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
