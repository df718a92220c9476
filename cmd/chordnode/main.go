// Command chordnode starts a single Chord ring member from a TOML config
// file, joining an existing ring when -bootstrap-ip is given, and runs
// until interrupted.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chordring/chord"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file (optional, defaults apply)")
	bootstrapIP := flag.String("bootstrap-ip", "", "ip address of an existing ring member to join through")
	bootstrapPort := flag.Uint("bootstrap-port", 0, "port of an existing ring member to join through")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var cfg chord.Config
	var err error
	if *configPath != "" {
		cfg, err = chord.LoadConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("could not load config")
		}
	}
	nodeLog := log.Logger
	cfg.Logger = &nodeLog

	var node *chord.Node
	if *bootstrapIP != "" {
		node, err = chord.NewJoining(cfg, *bootstrapIP, uint16(*bootstrapPort))
	} else {
		node, err = chord.New(cfg)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("could not start node")
	}

	log.Info().Uint32("id", uint32(node.ID())).Msg("chordnode running, ctrl-c to stop")
	fmt.Println(node.Status().String())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	node.Shutdown()
}
