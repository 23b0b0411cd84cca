package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/ayusman/peekaboo/internal/app"
	"github.com/ayusman/peekaboo/internal/capture"
	"github.com/ayusman/peekaboo/internal/catalog"
	"github.com/ayusman/peekaboo/internal/config"
	"github.com/ayusman/peekaboo/internal/detector"
	"github.com/ayusman/peekaboo/internal/display"
	"github.com/ayusman/peekaboo/internal/server"
	"github.com/ayusman/peekaboo/internal/store"
	"github.com/ayusman/peekaboo/internal/tray"
)

// highgui and the tray both need the main OS thread.
func init() {
	runtime.LockOSThread()
}

type flags struct {
	config   string
	camera   int
	width    int
	height   int
	window   string
	headless bool
	db       string
	http     string
	tray     bool
	data     string
	web      string
	write    bool
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.config, "config", "peekaboo.json", "path to the JSON config file")
	flag.IntVar(&f.camera, "camera", 0, "camera device id")
	flag.IntVar(&f.width, "width", capture.DefaultWidth, "capture width")
	flag.IntVar(&f.height, "height", capture.DefaultHeight, "capture height")
	flag.StringVar(&f.window, "window", "peekaboo", "window title")
	flag.BoolVar(&f.headless, "headless", false, "run without a window")
	flag.StringVar(&f.db, "db", "", "SQLite database for session statistics")
	flag.StringVar(&f.http, "http", "", "HTTP listen address, e.g. :8080")
	flag.BoolVar(&f.tray, "tray", false, "show a system tray menu (implies -headless)")
	flag.StringVar(&f.data, "data", "data", "directory holding cascades and overlay images")
	flag.StringVar(&f.web, "web", "", "directory of static files served at / with -http")
	flag.BoolVar(&f.write, "write-config", false, "write the effective config to the -config path and exit")
	flag.Parse()
	return f
}

// apply overrides cfg with the flags given on the command line.
func (f flags) apply(cfg *config.Config) {
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "camera":
			cfg.CameraID = f.camera
		case "width":
			cfg.Width = f.width
		case "height":
			cfg.Height = f.height
		case "window":
			cfg.WindowName = f.window
		case "headless":
			cfg.Headless = f.headless
		case "db":
			cfg.DBPath = f.db
		case "http":
			cfg.HTTPAddr = f.http
		case "tray":
			cfg.Tray = f.tray
		case "data":
			cfg.DataDir = f.data
		}
	})
}

func main() {
	fmt.Println("Peekaboo - Facial Feature Overlays")

	f := parseFlags()

	cfg, err := config.Load(f.config)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	f.apply(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if f.write {
		if err := cfg.Save(f.config); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		log.Printf("Wrote config to %s", f.config)
		return
	}
	quitKey, err := config.ParseKey(cfg.QuitKey)
	if err != nil {
		log.Fatalf("Invalid quit key: %v", err)
	}

	cat, err := catalog.Build(cfg, catalog.FileLoader{})
	if err != nil {
		log.Fatalf("Failed to load features: %v", err)
	}
	defer cat.Close()

	det := detector.NewCascadeDetector()
	defer det.Close()

	var st *store.Store
	if cfg.DBPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			log.Fatalf("Failed to create database directory: %v", err)
		}
		st, err = store.New(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to initialize store: %v", err)
		}
		defer st.Close()
	}

	// The tray owns the main thread, so the loop cannot drive a window.
	headless := cfg.Headless || cfg.Tray

	queue := display.NewQueue(display.DefaultQueueSize)
	var displays display.Multi
	var keys display.KeySource = display.Merge(nil, queue)

	if !headless {
		window := display.NewWindow(cfg.WindowName)
		displays = append(displays, window)
		keys = display.Merge(window, queue)
		log.Printf("Preview window %q (quit with %s)", window.Name(), cfg.QuitKey)
	}

	var stream *display.Stream
	var hub *server.Hub
	if cfg.HTTPAddr != "" {
		stream = display.NewStream(display.DefaultJPEGQuality)
		hub = server.NewHub()
		displays = append(displays, stream)
	}
	defer displays.Close()

	appCfg := app.Config{
		Context:      app.Context{Catalog: cat, Detector: det},
		Camera:       capture.NewCamera(capture.Options{DeviceID: cfg.CameraID, Width: cfg.Width, Height: cfg.Height}),
		Keys:         keys,
		Remote:       queue,
		QuitKey:      quitKey,
		PollInterval: cfg.PollInterval(),
		Store:        st,
		CameraID:     cfg.CameraID,
		Width:        cfg.Width,
		Height:       cfg.Height,
	}
	if len(displays) > 0 {
		appCfg.Display = displays
	}
	if hub != nil {
		appCfg.Publisher = hub
	}

	application, err := app.New(appCfg)
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.HTTPAddr != "" {
		srv := server.New(server.Config{
			StaticDir:  f.web,
			Store:      st,
			Controller: application,
			Stream:     stream,
			Hub:        hub,
		})
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
				log.Printf("Server failed: %v", err)
			}
		}()
	}

	if !cfg.Tray {
		if err := application.Run(ctx); err != nil {
			log.Fatalf("Frame loop failed: %v", err)
		}
		return
	}

	runWithTray(ctx, application, cfg.HTTPAddr)
}

// runWithTray runs the frame loop in the background and the tray on the
// main thread until either stops.
func runWithTray(ctx context.Context, application *app.App, httpAddr string) {
	t := tray.New("Peekaboo", application.Features())

	t.OnToggle(func(kind catalog.Kind) {
		if err := application.RequestToggle(kind); err != nil {
			log.Printf("Toggle %s from tray failed: %v", kind, err)
		}
	})
	t.OnQuit(func() {
		if err := application.RequestQuit(); err != nil {
			log.Printf("Quit from tray failed: %v", err)
		}
	})
	if httpAddr != "" {
		t.OnOpen(func() {
			openBrowser(previewURL(httpAddr))
		})
	}
	application.OnToggle(t.SetChecked)

	go func() {
		if err := application.Run(ctx); err != nil {
			log.Printf("Frame loop failed: %v", err)
		}
		t.Quit()
	}()

	t.Run()
}

func previewURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/api/stream"
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open %s: %v", url, err)
	}
}
