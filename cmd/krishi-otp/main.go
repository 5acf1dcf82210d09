package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tendant/krishi-auth/internal/client/api"
	"github.com/tendant/krishi-auth/internal/client/cli"
)

const defaultAPIURL = "http://localhost:8000/api"

func main() {
	_ = godotenv.Load()

	apiURL := os.Getenv("KRISHI_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	stateDir := ".krishi"
	if home, err := os.UserHomeDir(); err == nil {
		stateDir = filepath.Join(home, ".krishi")
	}

	flag.StringVar(&apiURL, "api", apiURL, "base URL of the account API")
	flag.StringVar(&stateDir, "state", stateDir, "directory for the saved session and pending email")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [register|login|verify|resend|me|check|logout]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(cli.Config{APIURL: apiURL, StateDir: stateDir}, os.Stdin, os.Stdout,
		api.WithHTTPClient(&http.Client{Timeout: 15 * time.Second}))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := app.Run(ctx, flag.Args()); err != nil {
		os.Exit(1)
	}
}
