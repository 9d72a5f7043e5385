// Command umbrella opens a window on a tile map and runs its scripted
// objects.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"

	"github.com/phanxgames/umbrella"
	"github.com/phanxgames/umbrella/ebitenrender"
	"github.com/phanxgames/umbrella/ecs"
)

func main() {
	configPath := flag.String("config", umbrella.ConfigPath("umbrella.yaml"), "config file (env "+umbrella.ConfigEnv+")")
	testScript := flag.String("test", "", "JSON input script to replay instead of the keyboard")
	flag.Parse()

	if err := run(*configPath, *testScript); err != nil {
		slog.Error("umbrella", "err", err)
		os.Exit(1)
	}
}

func run(configPath, testScript string) error {
	cfg, err := umbrella.LoadConfig(configPath)
	if err != nil {
		return err
	}
	level, _ := cfg.Level()
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	engine, err := umbrella.LoadEngine(cfg, ebitenrender.NewFactory(), log)
	if err != nil {
		return err
	}
	defer engine.Close()

	world := donburi.NewWorld()
	engine.SetEventStore(ecs.NewDonburiStore(world))
	ecs.CollisionEventType.Subscribe(world, func(_ donburi.World, ev umbrella.CollisionEvent) {
		log.Debug("collision", "object", ev.Object, "other", ev.Other, "other_object", ev.OtherObject, "toi", ev.Time)
	})

	rc := ebitenrender.RunConfigFrom(cfg)
	rc.Logger = log
	mirror := ecs.NewMirror(world)
	rc.AfterUpdate = func() {
		mirror.Sync(engine.Map.Objects())
		events.ProcessAllEvents(world)
	}
	if testScript != "" {
		data, err := os.ReadFile(testScript)
		if err != nil {
			return fmt.Errorf("test script: %w", err)
		}
		runner, err := umbrella.LoadTestScript(data)
		if err != nil {
			return fmt.Errorf("test script %s: %w", testScript, err)
		}
		engine.SetTestRunner(runner)
		rc.ExitWhenDone = true
	}
	return ebitenrender.Run(engine, rc)
}
