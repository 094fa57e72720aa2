package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/markease/internal/cli"
	"github.com/julianstephens/markease/internal/cli/backups"
	"github.com/julianstephens/markease/internal/cli/body"
	"github.com/julianstephens/markease/internal/cli/habits"
	"github.com/julianstephens/markease/internal/cli/notes"
	"github.com/julianstephens/markease/internal/cli/settings"
	"github.com/julianstephens/markease/internal/cli/system"
	"github.com/julianstephens/markease/internal/config"
	"github.com/julianstephens/markease/internal/constants"
	"github.com/julianstephens/markease/internal/errors"
	"github.com/julianstephens/markease/internal/logger"
)

var CLI struct {
	Version    kong.VersionFlag
	Config     string `help:"Storage path: a SQLite file, a .json file, a PostgreSQL URL without password, or 'keyring'. Overrides storage.path from the config file." type:"string"`
	ConfigFile string `help:"YAML configuration file." type:"string" default:"~/.config/markease/config.yaml"`
	Debug      bool   `help:"Log debug output to stderr."`

	Init     system.InitCmd       `cmd:"" help:"Initialize markease storage."`
	Doctor   system.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
	Tui      system.TuiCmd        `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Note     notes.NoteCmd        `cmd:"" help:"Manage markdown notes."`
	Habit    habits.HabitCmd      `cmd:"" help:"Track focus time and journal notes."`
	Body     body.BodyCmd         `cmd:"" help:"Track body measurements."`
	Backup   backups.BackupCmd    `cmd:"" help:"Manage database backups."`
	Keyring  system.KeyringCmd    `cmd:"" help:"Manage secrets stored in the OS keyring."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
}

// commands that open (or never need) the store themselves
var skipLoad = []string{"init", "doctor", "keyring"}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Markdown notes with a writing assistant, a focus timer and a body tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.ConfigFile)
	if err != nil {
		errors.Fatal(err)
	}
	if CLI.Config != "" {
		cfg.Storage.Path = CLI.Config
	}
	if CLI.Debug {
		cfg.Log.Debug = true
	}

	logCfg := logger.Config{
		Debug:       cfg.Log.Debug,
		ConfigDir:   cfg.ConfigDir(),
		Interactive: commandName(ctx.Command()) == "tui",
	}
	if err := logger.Init(logCfg); err != nil {
		// logging is best effort; keep going without a log file
		fmt.Fprintln(os.Stderr, errors.Formatf("failed to initialize logger: %v", err))
	}
	defer logger.Close()

	store, err := cli.OpenProvider(cfg.Storage.Path)
	if err != nil {
		errors.Fatal(err)
	}
	defer store.Close()

	if needsLoad(ctx.Command()) {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
	}

	logger.Debug("Running command", "command", ctx.Command(), "storage", store.GetConfigPath())
	if err := ctx.Run(cli.NewContext(store, cfg)); err != nil {
		store.Close()
		errors.Fatal(err)
	}
}

func commandName(command string) string {
	name, _, _ := strings.Cut(command, " ")
	return name
}

func needsLoad(command string) bool {
	name := commandName(command)
	for _, s := range skipLoad {
		if name == s {
			return false
		}
	}
	return true
}
