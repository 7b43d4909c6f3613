// Package main starts the OAuth login service.
//
// The process refuses to start without CLIENT_ID and CLIENT_SECRET so a
// misconfigured deployment never accepts traffic.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	logincmd "github.com/louisbranch/oauthlogin/internal/cmd/login"
	"github.com/louisbranch/oauthlogin/internal/platform/config"
)

func main() {
	log.SetPrefix("[LOGIN] ")
	cfg, err := logincmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse config: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := logincmd.Run(ctx, cfg); err != nil {
		stop()
		config.Exitf("login: %v", err)
	}
}
