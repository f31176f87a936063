// Copyright 2025 The SearchPro Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the searchpro suggestion box: an interactive TUI, a
MessagePack IPC server and a line CLI [DBG] over the same controller.

SearchPro turns keystrokes into debounced, cached substring searches over a
small corpus of topic names. Every input change restarts a 300ms timer; only
the input that stays quiet that long is searched, and the last ten distinct
queries are answered from an LRU cache.

# Usage

Open the search box in the terminal:

	searchpro

Use a custom corpus and enable debug logging:

	searchpro -corpus topics.yaml -d

Run the line CLI for testing:

	searchpro -c

Serve a GUI or editor plugin over stdin/stdout:

	searchpro -server

When stdin or stdout is not a terminal, server mode is picked automatically.

# Configuration

Runtime configuration is read from a TOML file, created with defaults when
missing:

	[search]
	debounce_ms = 300
	cache_capacity = 10

	[corpus]
	path = ""

	[server]
	max_query = 120

	[cli]
	show_stats = false
	max_rows = 8

Invalid values fall back to their defaults with a warning.

# Corpus

The default corpus is embedded. -corpus or [corpus].path loads a .toml,
.yaml/.yml or .bin (MessagePack) file instead, and -export writes the active
corpus in the format implied by the target extension.

# Command Line Flags

	-version
	    Show current version
	-d  Enable debug mode with detailed logging
	-c  Run the line CLI instead of the TUI
	-server
	    Serve MessagePack IPC on stdin/stdout
	-config string
	    Path to a custom config file
	-corpus string
	    Corpus file (.toml, .yaml, .bin)
	-export string
	    Write the active corpus to this path and exit
	-rebuild-config
	    Overwrite the config file with defaults and exit
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/searchpro/internal/cli"
	"github.com/bastiangx/searchpro/internal/logger"
	"github.com/bastiangx/searchpro/internal/utils"
	"github.com/bastiangx/searchpro/pkg/autocomplete"
	"github.com/bastiangx/searchpro/pkg/config"
	"github.com/bastiangx/searchpro/pkg/corpus"
	"github.com/bastiangx/searchpro/pkg/server"
	"github.com/bastiangx/searchpro/pkg/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
)

const (
	Version = "0.3.0-beta"
	AppName = "searchpro"
	gh      = "https://github.com/bastiangx/searchpro"
)

type mode int

const (
	modeTUI mode = iota
	modeCLI
	modeServer
)

func (m mode) String() string {
	switch m {
	case modeCLI:
		return "cli"
	case modeServer:
		return "server"
	default:
		return "tui"
	}
}

// selectMode picks the front end. Explicit flags win; otherwise the TUI
// needs a terminal on both ends and anything else is treated as IPC.
func selectMode(cliFlag, serverFlag, stdinTTY, stdoutTTY bool) mode {
	switch {
	case serverFlag:
		return modeServer
	case cliFlag:
		return modeCLI
	case stdinTTY && stdoutTTY:
		return modeTUI
	default:
		return modeServer
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// sigHandler cancels the returned context on the first interrupt and exits
// on the second.
func sigHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}

// main parses flags, loads config and corpus, then hands off to one of the
// front ends. It holds no search logic itself.
func main() {
	showVersion := flag.Bool("version", false, "Show current version")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run the line CLI -- useful for testing and debugging")
	serverMode := flag.Bool("server", false, "Serve MessagePack IPC on stdin/stdout")
	configPath := flag.String("config", "", "Path to custom config file")
	corpusPath := flag.String("corpus", "", "Corpus file (.toml, .yaml, .bin); overrides [corpus].path")
	exportPath := flag.String("export", "", "Write the active corpus to this path (.toml, .yaml, .bin) and exit")
	rebuildConfig := flag.Bool("rebuild-config", false, "Overwrite the config file with defaults and exit")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger.Setup(*debugMode)

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}

	if *rebuildConfig {
		target := *configPath
		if target == "" {
			target = pathResolver.ConfigPath(config.FileName)
		}
		if err := config.RebuildConfigFile(target); err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Config rebuilt with defaults at %s\n", target)
		return
	}

	appConfig, usedConfigPath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(usedConfigPath))

	source := appConfig.Corpus.Path
	if *corpusPath != "" {
		source = *corpusPath
	}
	items, err := loadCorpus(pathResolver, source)
	if err != nil {
		log.Fatalf("Failed to load corpus: %v", err)
	}
	log.Debugf("Corpus ready: %d items", items.Len())

	if *exportPath != "" {
		if err := items.Save(*exportPath); err != nil {
			log.Fatalf("Failed to export corpus: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Exported %d items to %s\n", items.Len(), *exportPath)
		return
	}

	opts := autocomplete.Options{
		Corpus:        items,
		CacheCapacity: appConfig.Search.CacheCapacity,
		Delay:         appConfig.DebounceDelay(),
	}

	ctx := sigHandler()
	m := selectMode(*cliMode, *serverMode, isTerminal(os.Stdin), isTerminal(os.Stdout))
	log.Debug("Starting", "mode", m, "debounce", opts.Delay, "cache", opts.CacheCapacity)

	switch m {
	case modeCLI:
		log.SetReportTimestamp(false)
		handler := cli.NewInputHandler(opts, appConfig, os.Stdin, os.Stdout)
		if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
			log.Fatalf("CLI error: %v", err)
		}

	case modeServer:
		showStartupInfo(source, items.Len())
		srv := server.NewServer(opts, appConfig, os.Stdin, os.Stdout)
		if err := srv.Start(ctx); err != nil && ctx.Err() == nil {
			log.Fatalf("Server error: %v", err)
		}

	default:
		item, ok, err := tui.Run(tui.Options{
			Autocomplete: opts,
			MaxRows:      appConfig.CLI.MaxRows,
			ShowStats:    appConfig.CLI.ShowStats,
		}, tea.WithContext(ctx))
		if err != nil && ctx.Err() == nil {
			log.Fatalf("TUI error: %v", err)
		}
		if ok {
			fmt.Println(item.Name)
		}
	}
}

// loadCorpus returns the embedded corpus when source is empty.
func loadCorpus(pr *utils.PathResolver, source string) (*corpus.Corpus, error) {
	if source == "" {
		return corpus.Default(), nil
	}
	path, err := pr.ResolveCorpusPath(source)
	if err != nil {
		return nil, fmt.Errorf("resolving corpus %s: %w", source, err)
	}
	log.Debugf("Using corpus at: %s", path)
	return corpus.Load(path)
}

func printVersion() {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	l.SetStyles(styles)

	l.Print("")
	l.Print("[ SearchPro ] Debounced suggestions as you type")
	l.Print("", "version", Version)
	l.Print("")
	l.Print("use -h or --help to see available options")
	l.Print("Github Repo", "gh", gh)
}

// showStartupInfo logs basic info about the server process to stderr.
func showStartupInfo(source string, items int) {
	if source == "" {
		source = "(embedded)"
	}
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	fmt.Fprintln(os.Stderr, "===========")
	fmt.Fprintln(os.Stderr, " SearchPro ")
	fmt.Fprintln(os.Stderr, "===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("corpus: ( %s ) %d items", source, items)
	log.Info("status: ready")
	fmt.Fprintln(os.Stderr, "===========")

	log.SetLevel(currentLevel)
}
