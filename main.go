package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spaghettifunk/marionette/engine/animation"
	"github.com/spaghettifunk/marionette/engine/assets"
	"github.com/spaghettifunk/marionette/engine/config"
	"github.com/spaghettifunk/marionette/engine/core"
)

// logEvents prints animation events as they fire.
type logEvents struct{}

func (logEvents) DispatchEvent(name string, intValue int32, floatValue float32, stringValue string) {
	core.LogInfo("event %q: i=%d f=%.3f s=%q", name, intValue, floatValue, stringValue)
}

func main() {
	configPath := flag.String("config", "marionette.toml", "path to the configuration file")
	networkName := flag.String("network", "network.json", "network asset to play")
	skeletonName := flag.String("skeleton", "skeleton.json", "skeleton asset to drive")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		core.LogFatal("config: %v", err)
	}
	core.SetLogLevel(cfg.LogLevel)

	am, err := assets.NewManager(cfg.AssetDir, cfg.HotReload)
	if err != nil {
		core.LogFatal("assets: %v", err)
	}
	defer am.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := animation.NewManager(am)
	manager.SetEventMixThreshold(cfg.EventMixThreshold)
	handle := manager.CreateInstance(*networkName, *skeletonName, logEvents{})
	instance, err := handle.Wait(ctx)
	if err != nil {
		core.LogFatal("load: %v", err)
	}
	core.LogInfo("instance %s playing %q", instance.ID(), *networkName)

	clock := core.NewClock()
	clock.Start()
	ticker := time.NewTicker(time.Second / time.Duration(cfg.TickRate))
	defer ticker.Stop()

	var last float64
	for {
		select {
		case <-ctx.Done():
			core.LogInfo("shutting down")
			return
		case <-ticker.C:
			clock.Update()
			now := clock.Elapsed()
			instance.Tick(float32(now - last))
			last = now
		}
	}
}
