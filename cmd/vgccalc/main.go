// Command vgccalc serves the damage calculator tools over stdio or
// websocket, and runs single calls and data refreshes from the shell.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vgccalc/vgccalc/internal/config"
	"github.com/vgccalc/vgccalc/internal/dispatcher"
	"github.com/vgccalc/vgccalc/internal/server"
	"github.com/vgccalc/vgccalc/pkg/core"
)

const appName = "vgccalc"

// module defs - BuildDate can be set at build time via ldflags
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

// errToolFailed marks a one-shot call whose response was printed but
// reported failure.
var errToolFailed = errors.New("tool call failed")

const usage = `Usage: vgccalc <command> [flags]

Commands:
  serve             answer tool calls on stdio or websocket (default)
  calc [FRAME]      answer one request or batch, read from FRAME, --file or stdin
  refresh-pokedex   download species and moves
  refresh-usage     download usage statistics
  import-paste URL  import a pokepast.es team
  version           print the version

Run "vgccalc <command> --help" for the flags of a command.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout)
	stop()
	if err != nil {
		if !errors.Is(err, errToolFailed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = strings.ToLower(args[0]), args[1:]
	}

	switch cmd {
	case "help":
		fmt.Fprint(stdout, usage)
		return nil
	case "version":
		fmt.Fprintf(stdout, "%s %s (built %s)\n", appName, Version, BuildDate)
		return nil
	case "serve", "calc", "refresh-pokedex", "refresh-usage", "import-paste":
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}

	flags, cfgFlags := newFlagSet(cmd)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if err := loadConfig(flags, cfgFlags); err != nil {
		return err
	}

	a, err := newApp(ctx, appOptions{AsyncRefresh: cmd == "serve"})
	if err != nil {
		return err
	}
	defer a.close()

	switch cmd {
	case "serve":
		return serve(ctx, a, stdin, stdout)
	case "calc":
		return calc(ctx, a, flags, stdin, stdout)
	case "refresh-pokedex":
		return callTool(ctx, a, "refresh_pokedex", nil, stdout)
	case "refresh-usage":
		return refreshUsage(ctx, a, flags, stdout)
	default:
		return importPaste(ctx, a, flags, stdout)
	}
}

// newFlagSet returns the flags of cmd, plus the subset that is bound to
// config keys.
func newFlagSet(cmd string) (*pflag.FlagSet, *pflag.FlagSet) {
	flags := pflag.NewFlagSet(appName+" "+cmd, pflag.ContinueOnError)
	flags.String("config", ".", "directory containing "+config.FileName)

	cfgFlags := pflag.NewFlagSet("config", pflag.ContinueOnError)
	cfgFlags.String("logLevel", "", "log level (debug, info, warn, error)")
	cfgFlags.String("logsDir", "", "directory for session log files")
	cfgFlags.String("storage.type", "", "storage backend (memory, sqlite, postgres)")
	cfgFlags.String("format", "", "default format code")

	switch cmd {
	case "serve":
		cfgFlags.String("server.transport", "", "transport (stdio, websocket)")
		cfgFlags.String("server.address", "", "websocket listen address")
		cfgFlags.String("server.secret", "", "secret websocket clients must pass as ?secret=")
		cfgFlags.Bool("server.asyncRefresh", false, "queue refresh tools instead of running them inline")
	case "calc":
		flags.StringP("file", "f", "", "read the frame from a file")
	case "refresh-usage":
		flags.String("month", "", "month to download, e.g. 2025-12 (default: latest of the format)")
		flags.Int("elo", 0, "rating cutoff (default: every cutoff of the format)")
	case "import-paste":
		flags.String("description", "", "team description")
		flags.String("owner", "", "player who used the team")
		flags.String("tournament", "", "event the team was used at")
		flags.String("placement", "", "result at the event")
	}
	flags.AddFlagSet(cfgFlags)
	return flags, cfgFlags
}

func loadConfig(flags, cfgFlags *pflag.FlagSet) error {
	dir, _ := flags.GetString("config")
	if err := config.Load(dir); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	// Only flags given on the command line override the file.
	changed := pflag.NewFlagSet("changed", pflag.ContinueOnError)
	cfgFlags.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			changed.AddFlag(f)
		}
	})
	if err := config.BindFlags(changed); err != nil {
		return err
	}
	if _, err := core.LookupFormat(viper.GetString("format")); err != nil {
		return fmt.Errorf("config format: %w", err)
	}
	return nil
}

func serve(ctx context.Context, a *app, stdin io.Reader, stdout io.Writer) error {
	if err := a.monitor.Start(); err != nil {
		a.logger.Warn("Failed to start status writer", "error", err)
	}

	transport := a.serverCfg.Transport
	a.logger.Info("Serving", "transport", transport, "version", Version)
	var err error
	switch transport {
	case "stdio", "":
		err = a.server.ServeStdio(ctx, stdin, stdout)
	case "websocket":
		err = a.server.ListenAndServe(ctx)
	default:
		return fmt.Errorf("unknown transport %q", transport)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// calc answers one frame taken from the argument, --file or stdin.
func calc(ctx context.Context, a *app, flags *pflag.FlagSet, stdin io.Reader, stdout io.Writer) error {
	limit := a.serverCfg.MaxFrameBytes
	if limit <= 0 {
		limit = server.DefaultMaxFrameBytes
	}
	var frame []byte
	path, _ := flags.GetString("file")
	switch {
	case flags.NArg() > 0:
		frame = []byte(strings.Join(flags.Args(), " "))
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		frame = b
	default:
		b, err := io.ReadAll(io.LimitReader(stdin, limit+1))
		if err != nil {
			return err
		}
		frame = b
	}
	if int64(len(frame)) > limit {
		return fmt.Errorf("frame exceeds %d bytes", limit)
	}

	out := a.server.Handle(ctx, frame)
	if out == nil {
		return errors.New("empty frame")
	}
	if _, err := fmt.Fprintf(stdout, "%s\n", out); err != nil {
		return err
	}
	if !succeeded(out) {
		return errToolFailed
	}
	return nil
}

// succeeded reports whether a single response, or every element of a
// batch response, succeeded.
func succeeded(out []byte) bool {
	var one dispatcher.Response
	if json.Unmarshal(out, &one) == nil {
		return one.Success
	}
	var many []dispatcher.Response
	if json.Unmarshal(out, &many) != nil {
		return false
	}
	for _, r := range many {
		if !r.Success {
			return false
		}
	}
	return true
}

func refreshUsage(ctx context.Context, a *app, flags *pflag.FlagSet, stdout io.Writer) error {
	args := map[string]any{}
	if flags.Changed("format") {
		args["format"] = viper.GetString("format")
	}
	if month, _ := flags.GetString("month"); month != "" {
		args["month"] = month
	}
	if flags.Changed("elo") {
		elo, _ := flags.GetInt("elo")
		args["elo"] = elo
	}
	return callTool(ctx, a, "refresh_usage", args, stdout)
}

func importPaste(ctx context.Context, a *app, flags *pflag.FlagSet, stdout io.Writer) error {
	if flags.NArg() != 1 {
		return errors.New("import-paste needs exactly one URL")
	}
	args := map[string]any{"url": flags.Arg(0)}
	if flags.Changed("format") {
		args["format"] = viper.GetString("format")
	}
	for _, name := range []string{"description", "owner", "tournament", "placement"} {
		if v, _ := flags.GetString(name); v != "" {
			args[name] = v
		}
	}
	return callTool(ctx, a, "import_pokepaste", args, stdout)
}

// callTool dispatches one call and prints the indented response.
func callTool(ctx context.Context, a *app, tool string, args any, stdout io.Writer) error {
	var raw json.RawMessage
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			return err
		}
		raw = b
	}
	resp := a.dispatcher.Dispatch(ctx, dispatcher.Request{Tool: tool, Args: raw})
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(stdout, "%s\n", out); err != nil {
		return err
	}
	if !resp.Success {
		return errToolFailed
	}
	return nil
}
