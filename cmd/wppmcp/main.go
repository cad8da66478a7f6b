package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/matheus3301/wppmcp/internal/config"
	"github.com/matheus3301/wppmcp/internal/daemon"
	"github.com/matheus3301/wppmcp/internal/paths"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configFlag := flag.String("config", paths.ConfigPath(), "path to config.toml")
	transportFlag := flag.String("transport", "", "stdio or http (overrides config)")
	listenFlag := flag.String("listen", "", "listen address for the http transport (overrides config)")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version)
		return
	}

	cfg, err := config.Resolve(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *transportFlag != "" {
		cfg.Transport = *transportFlag
	}
	if *listenFlag != "" {
		cfg.ListenAddr = *listenFlag
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{Config: cfg, Version: version}),
	)

	app.Run()
}
