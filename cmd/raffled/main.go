package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	raffledcmd "github.com/0xGIDHUB/raffle-engine/internal/cmd/raffled"
)

func main() {
	cfg, err := raffledcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[RAFFLED] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := raffledcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
