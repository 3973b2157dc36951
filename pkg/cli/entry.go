// Package cli wires the interpreter to the terminal: flag parsing,
// script execution, and the interactive prompt.
package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/dialscript/dial/internal/config"
	"github.com/dialscript/dial/internal/interp"
	"github.com/dialscript/dial/internal/invoke"
)

func Run(args []string) int {
	fs := flag.NewFlagSet("dial", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: dial [flags] [script.dial ...]")
		fs.PrintDefaults()
	}
	cfgPath := fs.String("config", "dial.yaml", "config file")
	endpoint := fs.String("endpoint", "", "gateway endpoint, overrides the config file")
	offline := fs.Bool("offline", false, "queue calls in the message store instead of sending")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dial:", err)
		return 1
	}
	if *endpoint != "" {
		cfg.Endpoint = *endpoint
	}
	if *offline {
		cfg.Offline = true
	}

	gw, err := invoke.DialGateway(cfg.Endpoint)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dial:", err)
		return 1
	}
	defer gw.Close()

	in := interp.New(interp.Options{Invoker: gw, Config: cfg})
	defer in.Close()
	ctx := context.Background()

	if fs.NArg() > 0 {
		for _, path := range fs.Args() {
			if err := runScript(ctx, in, path); err != nil {
				fmt.Fprintf(os.Stderr, "dial: %s: %v\n", path, err)
				return 1
			}
		}
		return 0
	}

	if isatty.IsTerminal(os.Stdin.Fd()) {
		return repl(ctx, in)
	}

	src, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dial:", err)
		return 1
	}
	if err := in.Run(ctx, string(src)); err != nil {
		fmt.Fprintln(os.Stderr, "dial:", err)
		return 1
	}
	return 0
}

func runScript(ctx context.Context, in *interp.Interp, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return in.Run(ctx, string(src))
}

func repl(ctx context.Context, in *interp.Interp) int {
	fmt.Println("dial repl; ctrl-d to exit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("dial> ")
		if !scanner.Scan() {
			fmt.Println()
			return 0
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		before, _ := in.Result()
		if err := in.Run(ctx, line); err != nil {
			fmt.Println("error:", err)
			continue
		}
		if after, ok := in.Result(); ok && after != before {
			fmt.Println(after)
		}
	}
}
