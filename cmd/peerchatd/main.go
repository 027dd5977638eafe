package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/nrocha/peerchat/internal/config"
	"github.com/nrocha/peerchat/internal/daemon"
	"github.com/nrocha/peerchat/internal/profile"
	"go.uber.org/fx"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	flag.Parse()

	name := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadProfile(profile.ProfileConfigPath(name))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// First run: mint an identity and persist it so the uid survives
	// restarts.
	if cfg.Identity.UID == "" {
		cfg.Identity.UID = uuid.NewString()
		if err := config.SaveProfile(profile.ProfileConfigPath(name), cfg); err != nil {
			fmt.Fprintf(os.Stderr, "error: saving identity: %v\n", err)
			os.Exit(1)
		}
	}
	if cfg.Relay.URL == "" {
		fmt.Fprintln(os.Stderr, "error: no relay url configured (set relay.url in profile.toml or PEERCHAT_RELAY_URL)")
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{ProfileName: name, Config: cfg}),
	)

	app.Run()
}
