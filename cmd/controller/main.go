// command controller runs the presence-light core as a standalone daemon:
// it watches for supported USB HID/serial lights, drives them from
// whatever a façade built on top of package controller commands, and
// shuts down cleanly on SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ledctl.dev/config"
	"ledctl.dev/controller"
	"ledctl.dev/registry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		os.Exit(2)
	}
}

func run() error {
	log.SetFlags(log.Flags() &^ (log.Ldate | log.Ltime))

	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	ctrl, err := controller.New(cfg)
	if err != nil {
		return fmt.Errorf("controller: %w", err)
	}

	ctrl.OnLightPlugged(func(info registry.Info) {
		log.Printf("plugged: %s (%s)", info.ID, info.LogicalName)
	})
	ctrl.OnLightUnplugged(func(info registry.Info) {
		log.Printf("unplugged: %s (%s)", info.ID, info.LogicalName)
	})
	ctrl.OnLightFailed(func(lightID string, err error) {
		log.Printf("light %s failed: %v", lightID, err)
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	log.Println("controller: running, press Ctrl-C to stop")
	<-sigCh

	log.Println("controller: shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return ctrl.Shutdown(ctx)
}
