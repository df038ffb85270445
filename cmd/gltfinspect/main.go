package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/animation"
	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"
	"github.com/Carmen-Shannon/oxy-gltf/engine/profiler"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"

	"github.com/davecgh/go-spew/spew"
)

func main() {
	configPath := flag.String("config", "", "loader configuration file (.toml, .yaml or .yml)")
	logLevel := flag.String("log-level", "", "overrides the configured log level")
	dump := flag.Bool("dump", false, "dump the full asset structure")
	serve := flag.String("serve", "", "serve asset summaries over HTTP on this address")
	deviceName := flag.String("device", "headless", "device backend: headless or wgpu")
	profile := flag.Bool("profile", false, "log prepare and upload timings")
	sampleAt := flag.Float64("sample", -1, "apply every animation at this time in seconds and print the animated nodes")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] file.gltf|file.glb...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := loader.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = loader.LoadConfig(*configPath); err != nil {
			common.LogError("Invalid configuration", "err", err)
			os.Exit(1)
		}
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	backend, err := renderer.ParseDeviceBackendType(*deviceName)
	if err != nil {
		common.LogError("Invalid device", "err", err)
		os.Exit(2)
	}
	device, releaseDevice, err := renderer.NewGraphicsDevice(backend)
	if err != nil {
		common.LogError("Failed to create device", "backend", *deviceName, "err", err)
		os.Exit(1)
	}
	defer releaseDevice()

	var prof *profiler.Profiler
	if *profile {
		prof = profiler.NewProfiler()
	}
	l := loader.NewLoader(
		loader.BackendTypeGLTF,
		loader.WithDevice(device),
		loader.WithConfig(cfg),
		loader.WithProfiler(prof),
	)
	defer l.Release()

	assets, err := l.LoadBatch(ctx, flag.Args())
	if err != nil {
		common.LogError("Some assets failed to load", "err", err)
	}

	for i, asset := range assets {
		if asset == nil {
			continue
		}
		printSummary(flag.Arg(i), asset)
		if *sampleAt >= 0 {
			printPose(asset, float32(*sampleAt))
		}
		if *dump {
			dumpConfig.Dump(asset)
		}
	}
	if prof != nil {
		prof.Log()
	}
	if hd, ok := device.(*renderer.HeadlessDevice); ok {
		common.LogInfo("Device resources", "live", hd.Live(), "bytes", hd.LiveBytes())
	}

	if cfg.Watch {
		err := l.Watch(ctx, func(name string, asset *model.SceneAsset, err error) {
			if err == nil {
				printSummary(name, asset)
			}
		})
		if err != nil {
			common.LogError("Failed to watch assets", "err", err)
		}
	}

	if *serve != "" {
		if err := startServer(ctx, *serve, l); err != nil {
			common.LogError("Server stopped", "err", err)
			os.Exit(1)
		}
		return
	}
	if cfg.Watch {
		<-ctx.Done()
	}
}

var dumpConfig = func() *spew.ConfigState {
	c := spew.NewDefaultConfig()
	c.DisableCapacities = true
	c.DisablePointerAddresses = true
	c.MaxDepth = 6
	return c
}()

func printSummary(name string, asset *model.SceneAsset) {
	s := summarize(asset)
	fmt.Printf("%s: %d scenes, %d meshes, %d materials, %d textures, %d animations, %d bones\n",
		name, len(s.Scenes), s.Meshes, s.Materials, s.Textures, len(s.Animations), s.MaxBones)
	for _, sc := range s.Scenes {
		fmt.Printf("  scene %q: %d nodes, %d cameras, %d lights\n", sc.Name, sc.Nodes, sc.Cameras, sc.Lights)
	}
	for _, a := range s.Animations {
		fmt.Printf("  animation %q: %.3fs over %d nodes\n", a.Name, a.Duration, a.Nodes)
	}
}

// printPose applies every animation of asset at time t and prints the animated node transforms.
func printPose(asset *model.SceneAsset, t float32) {
	for _, anim := range asset.Animations() {
		s := animation.NewSampler(anim, animation.WithLoop(false), animation.WithStartTime(t))
		s.Apply()
		fmt.Printf("  pose %q at %.3fs:\n", anim.Name, s.Time())
		for _, na := range anim.Nodes {
			tr := na.Node.Transform
			fmt.Printf("    %s: t=%v r=%v s=%v\n", na.Node.Name, tr.Translation, tr.Rotation, tr.Scale)
		}
	}
}
