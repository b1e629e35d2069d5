package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"glide/internal/api"
	"glide/internal/autostart"
	"glide/internal/config"
	"glide/internal/engine"
	"glide/internal/hotkey"
	"glide/internal/input"
	"glide/internal/metrics"
	"glide/internal/switcher"
	"glide/internal/tray"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the glide service",
	Long: `Starts the button listener, the motion engine, the local control API and the
tray icon. This is the default when no command is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		noTray, _ := cmd.Flags().GetBool("no-tray")
		enable, _ := cmd.Flags().GetBool("enable")
		presetName, _ := cmd.Flags().GetString("preset")

		cfgMgr, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runService(cfgMgr, serviceOptions{
			noTray: noTray,
			enable: enable,
			preset: presetName,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("no-tray", false, "Run without the tray icon (stop with Ctrl+C)")
	runCmd.Flags().Bool("enable", false, "Enable the engine immediately")
	runCmd.Flags().String("preset", "", "Load this preset before starting")

	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}

type serviceOptions struct {
	noTray bool
	enable bool
	preset string
}

func runService(cfgMgr *config.Manager, opts serviceOptions) error {
	log.Println("glide service starting...")

	cfg := cfgMgr.Get()

	m := metrics.New()
	eng := engine.New(engine.Options{
		Injector: input.NewPlatform(),
		RateHz:   cfg.Motion.MicrostepRateHz,
		Params:   cfg.Motion.Params,
		Metrics:  m,
	})

	store, err := openPresets(cfgMgr)
	if err != nil {
		return err
	}
	sw := switcher.New(cfgMgr, eng, store)

	if opts.preset != "" {
		if _, err := sw.SwitchToPreset(opts.preset); err != nil {
			return fmt.Errorf("failed to load preset %s: %w", opts.preset, err)
		}
	}

	// Button listener
	hkMgr := hotkey.NewManager()
	bindButtons(hkMgr, cfg.Buttons, eng)

	// Rebind only when the button mapping changes; parameter saves also fire
	// the change callback.
	var (
		bindMu  sync.Mutex
		buttons = cfg.Buttons
	)
	cfgMgr.RegisterChangeCallback(func() {
		next := cfgMgr.Get().Buttons
		bindMu.Lock()
		defer bindMu.Unlock()
		if next == buttons {
			return
		}
		buttons = next
		bindButtons(hkMgr, next, eng)
	})

	if err := hkMgr.Start(); err != nil {
		log.Printf("Warning: Hotkey Engine failed to start: %v", err)
	}

	autostart.Sync(cfg.General.StartOnBoot)

	var apiServer *api.Server
	if cfg.General.APIEnabled {
		apiServer = api.NewServer(cfgMgr, eng, sw, m)
		go func() {
			if err := apiServer.Start(cfg.General.APIPort); err != nil {
				log.Printf("API server error: %v", err)
			}
		}()
	}

	if opts.enable || cfg.General.EnableOnStart {
		eng.Enable()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if opts.noTray {
		log.Println("glide running. Press Ctrl+C to stop.")
		<-sigCh
		log.Println("Shutting down...")
	} else {
		stop := make(chan struct{})
		t := buildTray(eng, sw, stop)
		go func() {
			<-sigCh
			log.Println("Shutting down...")
			t.Stop()
		}()
		log.Println("glide running. Use the tray menu or Ctrl+C to stop.")
		t.Run()
		close(stop)
	}

	eng.Disable()
	if apiServer != nil {
		if err := apiServer.Stop(); err != nil {
			log.Printf("API server stop error: %v", err)
		}
	}
	return nil
}

// bindButtons routes the arm and fire buttons to the engine's signals and
// registers the toggle hotkey
func bindButtons(hkMgr *hotkey.Manager, buttons config.ButtonConfig, eng *engine.Engine) {
	hkMgr.Clear()

	signals := eng.Signals()
	hkMgr.BindLevel(buttons.Arm, signals.SetArmed)
	hkMgr.BindLevel(buttons.Fire, signals.SetFiring)
	log.Printf("Buttons: Arm=%s Fire=%s", buttons.Arm, buttons.Fire)

	if buttons.ToggleHotkey == "" {
		return
	}

	var (
		lastToggle time.Time
		toggleMu   sync.Mutex
	)
	if _, err := hkMgr.Register(buttons.ToggleHotkey, func() {
		toggleMu.Lock()
		if time.Since(lastToggle) < 500*time.Millisecond {
			toggleMu.Unlock()
			return
		}
		lastToggle = time.Now()
		toggleMu.Unlock()

		on := eng.Toggle()
		log.Printf("Hotkey: Engine toggled %s", onOff(on))
	}); err != nil {
		log.Printf("Warning: failed to register toggle hotkey: %v", err)
	}
}

func buildTray(eng *engine.Engine, sw *switcher.Switcher, stop <-chan struct{}) *tray.Tray {
	t := tray.New("glide", "glide")

	status := t.AddLabel(statusLine(eng.Enabled(), eng.State().String()))
	toggle := t.AddMenuItem("Enabled", func() {
		eng.Toggle()
	})
	t.SetItemChecked(toggle, eng.Enabled())
	t.AddSeparator()

	presetsMenu := t.AddMenuItem("Presets", nil)
	presets := newPresetMenu(t, presetsMenu, func(name string) {
		if _, err := sw.SwitchToPreset(name); err != nil {
			log.Printf("Tray: Failed to load preset %s: %v", name, err)
		}
	})
	presets.refresh(sw)
	go presets.watch(sw, stop)

	t.AddSeparator()
	t.AddMenuItem("Quit", func() {
		t.Stop()
	})

	// Engine events arrive on the motion goroutine; hand them off so tray
	// updates never delay a render.
	events := make(chan engine.Event, 16)
	eng.Subscribe(func(ev engine.Event) {
		if ev.Type == engine.EventParams {
			return
		}
		select {
		case events <- ev:
		default:
		}
	})
	go func() {
		for ev := range events {
			t.SetItemTitle(status, statusLine(ev.Enabled, ev.State.String()))
			t.SetItemChecked(toggle, ev.Enabled)
			t.SetTooltip(fmt.Sprintf("glide (%s)", onOff(ev.Enabled)))
		}
	}()

	return t
}

func statusLine(enabled bool, state string) string {
	if !enabled {
		return "Status: off"
	}
	return "Status: " + state
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
