package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/orgroster/cmd/orgroster/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug     bool                    `help:"Enable debug mode."`
		LogLevel  string                  `help:"Log level override (debug, info, warn, error)." env:"ORGROSTER_LOG_LEVEL"`
		Config    kong.ConfigFlag         `help:"Path to a YAML config file."`
		EnvFile   []string                `help:"Env files loaded before flags are resolved." default:".env"`
		Version   kong.VersionFlag        `help:"Print version and exit."`
		Store     commands.StoreFlags     `embed:"" prefix:"store-"`
		Telemetry commands.TelemetryFlags `embed:"" prefix:"telemetry-"`
		Org       commands.OrgCmd         `cmd:"" help:"Create and list organizations"`
		Member    commands.MemberCmd      `cmd:"" help:"Add and list members of an organization"`
	}
)

func main() {
	// env files must be loaded before kong resolves env tags
	if err := commands.LoadEnvFiles(envFileArgs(os.Args[1:])...); err != nil {
		fmt.Fprintf(os.Stderr, "orgroster: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("orgroster"),
		kong.Description("Keep a roster of organizations and their members."),
		kong.Configuration(commands.YAMLConfig, "~/.config/orgroster/config.yaml"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Debug:     cli.Debug,
		LogLevel:  cli.LogLevel,
		Version:   version,
		Store:     cli.Store,
		Telemetry: cli.Telemetry,
		Out:       os.Stdout,
	})
	cmd.FatalIfErrorf(err)
}

// envFileArgs picks --env-file values out of the raw arguments, defaulting to .env.
func envFileArgs(args []string) []string {
	var files []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--env-file" && i+1 < len(args) {
			files = append(files, args[i+1])
			i++
			continue
		}
		if file, ok := strings.CutPrefix(args[i], "--env-file="); ok {
			files = append(files, file)
		}
	}
	if len(files) == 0 {
		files = []string{".env"}
	}
	return files
}
