package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	hook "github.com/robotn/gohook"

	"opticmouse/camera"
	"opticmouse/config"
	"opticmouse/cursor"
	"opticmouse/overlay"
	"opticmouse/pipeline"
	"opticmouse/tracking"
)

var (
	configPath = flag.String("config", "config.yaml", "Path to the YAML configuration file (missing file falls back to built-in defaults)")
	source     = flag.String("source", "", "Camera source override: device index or stream URL\n\t\tExample: -source=1 or -source=http://192.168.1.5:4747/video")
	method     = flag.String("method", "", "Tracking method override: optical_flow or color_tracking")
	sens       = flag.Float64("sensitivity", 0, "Sensitivity override: camera-to-screen pixel multiplier (must be > 0)")
	smoothing  = flag.Float64("smoothing", 0, "Smoothing factor override: EMA alpha in (0,1]; 1 disables smoothing")
	smoother   = flag.String("smoother", "", "Smoother override: ema or kalman")
	invertY    = flag.Bool("invert-y", false, "Invert the vertical axis (camera rows grow downward; set when your mounting flips the motion)")
	headless   = flag.Bool("headless", false, "Run without debug windows")
	record     = flag.Bool("record", false, "Record a side-by-side demo video of the session")
	listCams   = flag.Bool("list-cameras", false, "Probe local camera indices and exit (finds DroidCam virtual devices)")
	probeHost  = flag.String("probe-droidcam", "", "Check whether a DroidCam server answers on the given host and exit\n\t\tExample: -probe-droidcam=192.168.1.5")
)

// paused is toggled from the global hotkey listener and read by the loop.
var paused atomic.Bool

func main() {
	flag.Parse()

	if *listCams {
		listLocalCameras()
		return
	}
	if *probeHost != "" {
		probeDroidCam(*probeHost)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("[CONFIG] %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("[MAIN] Optic Mouse starting: method=%s smoother=%s sensitivity=%.2f alpha=%.2f\n",
		cfg.Tracking.Method, cfg.Tracking.Smoother, cfg.Tracking.Sensitivity, cfg.Tracking.SmoothingFactor)

	if err := run(cfg); err != nil && err != context.Canceled {
		fmt.Printf("[MAIN] %v\n", err)
		os.Exit(1)
	}
	fmt.Println("[MAIN] Shutdown complete")
}

func run(cfg *config.Config) error {
	cam, err := camera.Open(cfg.Camera.Source, cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS)
	if err != nil {
		return err
	}
	defer cam.Close()

	tracker, err := buildTracker(cfg)
	if err != nil {
		return err
	}
	defer tracker.Close()

	smoother := buildSmoother(cfg)
	mapper := cursor.NewMapper(cfg.Tracking.Sensitivity, cfg.Cursor.InvertY)
	actuator := cursor.NewActuator(cfg.Cursor.BoundaryMargin, cfg.Cursor.MovementThreshold)
	screenW, screenH := actuator.ScreenSize()
	fmt.Printf("[MAIN] Screen %dx%d, pointer at %v\n", screenW, screenH, actuator.Position())

	observer, err := buildObserver(cfg, screenW, screenH)
	if err != nil {
		return err
	}
	if observer != nil {
		defer observer.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		fmt.Printf("\n[MAIN] Received %v, shutting down\n", sig)
		cancel()
	}()

	go runHotkeys(cancel)

	loop := &pipeline.Loop{
		Source:              cam,
		Tracker:             tracker,
		Mapper:              mapper,
		Smoother:            smoother,
		Actuator:            actuator,
		Paused:              paused.Load,
		ResetSmootherOnLoss: cfg.Tracking.Smoother == config.SmootherKalman,
	}
	if observer != nil {
		loop.Observer = observer
	}

	err = loop.Run(ctx)

	stats := loop.Stats()
	fmt.Printf("[MAIN] Session: %d frames, %d dropped, %.1f FPS avg latency %.1fms\n",
		stats.Frames, stats.Dropped, stats.FPS, stats.LatencyMS)
	return err
}

// loadConfig reads the config file and layers explicitly-set flags on top,
// then re-validates so a bad flag fails as fast as a bad file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Camera.Source = *source
		case "method":
			cfg.Tracking.Method = *method
		case "sensitivity":
			cfg.Tracking.Sensitivity = *sens
		case "smoothing":
			cfg.Tracking.SmoothingFactor = *smoothing
		case "smoother":
			cfg.Tracking.Smoother = *smoother
		case "invert-y":
			cfg.Cursor.InvertY = *invertY
		case "headless":
			cfg.Display.ShowCamera = false
			cfg.Display.ShowDesktop = false
		case "record":
			cfg.Recording.Enabled = true
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildTracker(cfg *config.Config) (tracking.Tracker, error) {
	switch cfg.Tracking.Method {
	case config.MethodOpticalFlow:
		return tracking.NewFlowTracker(tracking.FlowParams{
			MaxCorners:   cfg.OpticalFlow.MaxCorners,
			QualityLevel: cfg.OpticalFlow.QualityLevel,
			MinDistance:  cfg.OpticalFlow.MinDistance,
			MinPoints:    cfg.OpticalFlow.MinPoints,
			UseMedian:    cfg.OpticalFlow.UseMedian,
		}), nil
	case config.MethodColorTracking:
		return tracking.NewColorTracker(tracking.ColorParams{
			LowerHSV: cfg.ColorTracking.LowerHSV,
			UpperHSV: cfg.ColorTracking.UpperHSV,
			MinArea:  cfg.ColorTracking.MinArea,
		}), nil
	}
	return nil, fmt.Errorf("unknown tracking method %q", cfg.Tracking.Method)
}

func buildSmoother(cfg *config.Config) tracking.Smoother {
	if cfg.Tracking.Smoother == config.SmootherKalman {
		return tracking.NewKalmanSmoother(tracking.DefaultKalmanParams())
	}
	return tracking.NewEMASmoother(cfg.Tracking.SmoothingFactor)
}

func buildObserver(cfg *config.Config, screenW, screenH int) (*overlay.Renderer, error) {
	showAnything := cfg.Display.ShowCamera || cfg.Display.ShowDesktop || cfg.Recording.Enabled
	if !showAnything {
		return nil, nil
	}

	renderer := overlay.NewRenderer(overlay.Options{
		ShowCamera:   cfg.Display.ShowCamera,
		ShowDesktop:  cfg.Display.ShowDesktop,
		WindowWidth:  cfg.Display.WindowWidth,
		WindowHeight: cfg.Display.WindowHeight,
		FPSDisplay:   cfg.Display.FPSDisplay,
	})

	if cfg.Recording.Enabled {
		rec, err := overlay.NewRecorder(cfg.Recording.OutputDir, float64(cfg.Recording.FPS),
			cfg.Camera.Width, cfg.Camera.Height, screenW, screenH, cfg.Recording.TrailLength)
		if err != nil {
			renderer.Close()
			return nil, err
		}
		renderer.SetRecorder(rec)
	}
	return renderer, nil
}

// runHotkeys listens for the global pause and quit combinations so the user
// can reclaim the pointer even while the camera is driving it.
func runHotkeys(cancel context.CancelFunc) {
	hook.Register(hook.KeyDown, []string{"ctrl", "shift", "p"}, func(e hook.Event) {
		now := !paused.Load()
		paused.Store(now)
		if now {
			fmt.Println("[HOTKEY] Paused (ctrl+shift+p to resume)")
		} else {
			fmt.Println("[HOTKEY] Resumed")
		}
	})
	hook.Register(hook.KeyDown, []string{"ctrl", "shift", "q"}, func(e hook.Event) {
		fmt.Println("[HOTKEY] Quit requested")
		cancel()
	})

	evChan := hook.Start()
	defer hook.End()
	<-hook.Process(evChan)
}

func listLocalCameras() {
	fmt.Println("[DISCOVER] Probing local camera indices 0-4...")
	devices := camera.DiscoverLocal(5)
	if len(devices) == 0 {
		fmt.Println("[DISCOVER] No usable cameras found")
		return
	}
	for _, d := range devices {
		fmt.Printf("[DISCOVER] Camera %d: %dx%d\n", d.Index, d.Width, d.Height)
	}
	fmt.Println("[DISCOVER] Put the index you want under camera.source in config.yaml")
}

func probeDroidCam(host string) {
	url, ok := camera.ProbeDroidCam(host, 2*time.Second)
	if !ok {
		fmt.Printf("[DISCOVER] No DroidCam server on %s\n", host)
		os.Exit(1)
	}
	fmt.Printf("[DISCOVER] DroidCam stream available: %s\n", url)
	fmt.Println("[DISCOVER] Put that URL under camera.source in config.yaml")
}
