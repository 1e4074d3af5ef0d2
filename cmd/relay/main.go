package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"pongrelay/internal/config"
	"pongrelay/internal/logging"
	"pongrelay/relay"
)

func main() {
	conf := flag.String("config", "", "Path to config file (defaults to $PONGRELAY_CONFIG, then built-in defaults)")
	flag.Parse()

	if err := config.Load(*conf); err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Init()

	defer logging.Logger.Sync()
	logging.Logger.Info("pongrelay starting")

	hostWait := time.Duration(config.Global.LobbyTimeoutSeconds) * time.Second
	srv := relay.NewServer(config.Global.Listen, hostWait, logging.Logger)

	if err := srv.ListenAndServe(); err != nil {
		logging.Logger.Error("relay stopped", zap.Error(err))
		os.Exit(1)
	}
}
