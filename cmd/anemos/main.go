package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/jllopis/anemos/pkg/config"
	"github.com/jllopis/anemos/pkg/httpapi"
)

type globalFlags struct {
	ConfigArgs []string
	JSON       bool
	Help       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env is optional; the environment still applies without it.
	_ = godotenv.Load()

	global, args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fatal(err)
	}
	if global.Help || len(args) == 0 {
		printUsage()
		return
	}

	cfg, err := config.LoadWithCLI(global.ConfigArgs)
	if err != nil {
		fatal(err)
	}

	switch args[0] {
	case "serve":
		ensureNoArgs(args[1:])
		runServe(ctx, cfg, configPath(global.ConfigArgs))
	case "query":
		runQuery(ctx, cfg, global, args[1:])
	case "version":
		printVersion()
	case "help":
		printUsage()
	default:
		fatal(fmt.Errorf("unknown command %q", args[0]))
	}
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	var flags globalFlags

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return flags, args[i+1:], nil
		}
		if !strings.HasPrefix(arg, "-") {
			return flags, args[i:], nil
		}
		switch {
		case arg == "-h" || arg == "--help":
			flags.Help = true
			return flags, nil, nil
		case arg == "--json":
			flags.JSON = true
		case arg == "--config" || arg == "--profile" || arg == "--env" || arg == "--set":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for %s", arg)
			}
			flags.ConfigArgs = append(flags.ConfigArgs, arg, args[i+1])
			i++
		case strings.HasPrefix(arg, "--config="),
			strings.HasPrefix(arg, "--profile="),
			strings.HasPrefix(arg, "--env="),
			strings.HasPrefix(arg, "--set="):
			flags.ConfigArgs = append(flags.ConfigArgs, arg)
		default:
			return flags, nil, fmt.Errorf("unknown global flag %q", arg)
		}
	}
	return flags, nil, nil
}

// configPath extracts the --config value from the collected config args.
// The last occurrence wins, matching config.LoadWithCLI.
func configPath(configArgs []string) string {
	var path string
	for i := 0; i < len(configArgs); i++ {
		switch {
		case configArgs[i] == "--config" && i+1 < len(configArgs):
			path = configArgs[i+1]
			i++
		case strings.HasPrefix(configArgs[i], "--config="):
			path = strings.TrimPrefix(configArgs[i], "--config=")
		}
	}
	return path
}

func printJSON(value any) {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(payload))
}

func printVersion() {
	fmt.Println(httpapi.Version)
}

func printUsage() {
	fmt.Print(`Anemos Weather Advisor

Usage:
  anemos [global flags] <command> [args]

Global flags:
  --config <path>      Path to config.yaml
  --profile <name>     Layer config.<name>.yaml over the base file
  --set key=value      Override config (repeatable)
  --json               JSON output
  -h, --help           Show this help

Commands:
  serve                        Run the HTTP service
  query [--emergency] <text>   Run one query through the agent system
  version
  help

`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func ensureNoArgs(args []string) {
	if len(args) > 0 {
		fatal(fmt.Errorf("unexpected args: %v", args))
	}
}
