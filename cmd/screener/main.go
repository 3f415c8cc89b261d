package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"FinScreen/internal/di"
	"FinScreen/internal/screener"
	"FinScreen/pkg/config"

	"github.com/joho/godotenv"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "config file path (yaml or toml)")
	port := flag.Int("port", 0, "override the query endpoint port")
	clean := flag.Bool("clean", false, "clear persisted screener state and exit")
	restart := flag.Bool("restart", false, "resume from persisted screener state")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}
	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "--config is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("dotenv: %v", err)
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *port > 0 {
		cfg.UI.Port = *port
	}

	if *clean {
		// screener state lives in memory only, there is nothing on disk to clear
		log.Printf("clean: no persisted screener state, exiting")
		return
	}
	if *restart {
		log.Printf("restart: no persisted screener state, starting fresh")
	}

	log.Printf("env=%s screeners=%d kinds=%v", cfg.Environment, len(cfg.Screeners), screener.Kinds())

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
