package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/thelolagemann/gnuboy-go/internal/boot"
	"github.com/thelolagemann/gnuboy-go/internal/gameboy"
	"github.com/thelolagemann/gnuboy-go/internal/joypad"
	"github.com/thelolagemann/gnuboy-go/internal/ppu"
	"github.com/thelolagemann/gnuboy-go/pkg/audio"
	"github.com/thelolagemann/gnuboy-go/pkg/display/web"
	"github.com/thelolagemann/gnuboy-go/pkg/emu"
	"github.com/thelolagemann/gnuboy-go/pkg/log"
	"github.com/thelolagemann/gnuboy-go/pkg/utils"
)

// sramInterval is how often, in frames, dirty battery RAM is written
// back to disk (about 10 seconds).
const sramInterval = 600

type config struct {
	rom, boot  string
	frames     int
	headless   bool
	logLevel   string
	palette    string
	sampleRate int
	stereo     bool

	saves     string
	loadState string
	saveState string

	screenshot string
	wav        string
	plot       string
	audio      bool
	serve      string
	serial     bool
	trace      bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.rom, "rom", "", "The rom file to load (.gb, .gbc, .gz, .zip or .7z)")
	flag.StringVar(&cfg.boot, "boot", "", "The boot rom file to load")
	flag.IntVar(&cfg.frames, "frames", 0, "Number of frames to run, 0 runs until interrupted")
	flag.BoolVar(&cfg.headless, "headless", false, "Run as fast as possible, without audio")
	flag.StringVar(&cfg.logLevel, "log", "info", "Log level (error, warn, info, debug)")
	flag.StringVar(&cfg.palette, "palette", "", "Palette for monochrome games")
	flag.IntVar(&cfg.sampleRate, "samplerate", 44100, "Audio sample rate")
	flag.BoolVar(&cfg.stereo, "stereo", true, "Stereo audio")
	flag.StringVar(&cfg.saves, "saves", "saves", "Folder for battery saves and states, empty disables saving")
	flag.StringVar(&cfg.loadState, "load-state", "", "Name of a state to load at startup")
	flag.StringVar(&cfg.saveState, "save-state", "", "Name of a state to save on exit")
	flag.StringVar(&cfg.screenshot, "screenshot", "", "Save the last frame to this file (.png or .bmp)")
	flag.StringVar(&cfg.wav, "wav", "", "Record audio to this wav file")
	flag.StringVar(&cfg.plot, "plot", "", "Plot the recorded audio to this file")
	flag.BoolVar(&cfg.audio, "audio", true, "Play audio through SDL")
	flag.StringVar(&cfg.serve, "serve", "", "Stream frames over websockets on this address, e.g. :8090")
	flag.BoolVar(&cfg.serial, "serial", false, "Print serial output to stdout")
	flag.BoolVar(&cfg.trace, "trace", false, "Log every executed instruction")
	flag.Parse()

	level, err := log.ParseLevel(cfg.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if cfg.trace {
		level = log.LevelDebug
	}
	logger := log.NewWithOutput(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, logger log.Logger) error {
	if cfg.rom == "" {
		return errors.New("no rom given, use -rom")
	}
	rom, err := utils.LoadFile(cfg.rom)
	if err != nil {
		return err
	}

	opts := []gameboy.Opt{
		gameboy.WithLogger(logger),
		gameboy.WithSampleRate(cfg.sampleRate, cfg.stereo),
	}
	if cfg.boot != "" {
		raw, err := utils.LoadFile(cfg.boot)
		if err != nil {
			return err
		}
		b, err := boot.Load(raw)
		if err != nil {
			return err
		}
		logger.Infof("boot rom: %s (%s)", b.Model(), b.Checksum())
		opts = append(opts, gameboy.WithBootROM(b))
	}
	if cfg.palette != "" {
		p, ok := ppu.ParseDMGPalette(cfg.palette)
		if !ok {
			return fmt.Errorf("unknown palette %q", cfg.palette)
		}
		opts = append(opts, gameboy.WithPalette(p))
	}
	if cfg.serial {
		opts = append(opts, gameboy.WithSerialOutput(os.Stdout))
	}
	if cfg.trace {
		opts = append(opts, gameboy.Debug())
	}

	var hub *web.Hub
	if cfg.serve != "" {
		hub = web.NewHub(web.WithLogger(logger))
		go hub.Run(ctx)
		srv := &http.Server{Addr: cfg.serve, Handler: hub}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("web: %v", err)
			}
		}()
		defer srv.Close()
		logger.Infof("web: listening on %s", cfg.serve)
	}

	var g *gameboy.GameBoy
	if hub != nil {
		opts = append(opts, gameboy.WithVBlank(func() {
			if err := hub.PushFrame(g.Frame(), g.PixelFormat(), g.Colors()); err != nil {
				logger.Errorf("%v", err)
			}
		}))
	}

	g, err = gameboy.NewGameBoy(bytes.NewReader(rom), opts...)
	if err != nil {
		return err
	}
	logger.Infof("%s", g.Cartridge.Header.String())

	var store *emu.Store
	var sram *os.File
	if cfg.saves != "" {
		if store, err = emu.NewStore(cfg.saves, g.Cartridge.Title, rom); err != nil {
			return err
		}
		if g.Cartridge.Battery {
			if sram, err = openSRAM(store, g); err != nil {
				return err
			}
			defer func() {
				if err := g.SaveSRAM(sram, false); err != nil {
					logger.Errorf("%v", err)
				}
				sram.Close()
			}()
		}
		if cfg.loadState != "" {
			if err := store.LoadState(cfg.loadState, g); err != nil {
				return err
			}
			logger.Infof("loaded state %s", cfg.loadState)
		}
	}

	var player *audio.Player
	if cfg.audio && !cfg.headless {
		if player, err = audio.NewPlayer(cfg.sampleRate, cfg.stereo); err != nil {
			logger.Warnf("%v, continuing without audio", err)
		} else {
			defer player.Close()
		}
	}
	var recorder *audio.Recorder
	if cfg.wav != "" || cfg.plot != "" {
		recorder = audio.NewRecorder(cfg.sampleRate, cfg.stereo)
	}

	var ticker *time.Ticker
	if !cfg.headless {
		ticker = time.NewTicker(time.Duration(float64(time.Second) / gameboy.FrameRate))
		defer ticker.Stop()
	}

	start := time.Now()
loop:
	for n := 0; cfg.frames == 0 || n < cfg.frames; n++ {
		if hub != nil {
			drainPad(hub.Pad(), g)
		}
		if err := g.RunFrame(true); err != nil {
			return err
		}

		samples := g.Samples()
		if player != nil {
			if err := player.Queue(samples); err != nil {
				logger.Errorf("audio: %v", err)
			}
		}
		if recorder != nil {
			recorder.Write(samples)
		}

		if sram != nil && n%sramInterval == sramInterval-1 && g.SRAMDirty() {
			if err := g.SaveSRAM(sram, true); err != nil {
				logger.Errorf("%v", err)
			}
		}

		if ticker != nil {
			select {
			case <-ctx.Done():
				break loop
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			break loop
		}
	}
	elapsed := time.Since(start)
	logger.Infof("ran %d frames in %s (%.1f fps)", g.Frames(), elapsed.Round(time.Millisecond), float64(g.Frames())/elapsed.Seconds())

	if store != nil && cfg.saveState != "" {
		if err := store.SaveState(cfg.saveState, g); err != nil {
			return err
		}
		logger.Infof("saved state %s", cfg.saveState)
	}
	if cfg.screenshot != "" {
		img := utils.FrameToImage(g.Frame(), g.PixelFormat(), g.Colors())
		if err := utils.SaveScreenshot(cfg.screenshot, img, 3); err != nil {
			return err
		}
	}
	if recorder != nil {
		if err := saveAudio(cfg, recorder); err != nil {
			return err
		}
	}
	if player != nil && player.Dropped() > 0 {
		logger.Warnf("audio: dropped %d frames", player.Dropped())
	}
	return nil
}

// openSRAM opens the battery save of the cartridge and loads it, if
// there is anything to load.
func openSRAM(store *emu.Store, g *gameboy.GameBoy) (*os.File, error) {
	f, err := store.OpenSRAM()
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() > 0 {
		if err := g.LoadSRAM(f); err != nil && !errors.Is(err, io.EOF) {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// drainPad applies the latest pad mask received from web clients.
func drainPad(pad <-chan uint8, g *gameboy.GameBoy) {
	for {
		select {
		case mask := <-pad:
			g.SetPad(joypad.Button(mask))
		default:
			return
		}
	}
}

func saveAudio(cfg config, r *audio.Recorder) error {
	if cfg.wav != "" {
		f, err := os.Create(cfg.wav)
		if err != nil {
			return err
		}
		if err := r.Save(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if cfg.plot != "" {
		return audio.PlotWaveform(cfg.plot, r.Samples(), cfg.sampleRate, cfg.stereo)
	}
	return nil
}
