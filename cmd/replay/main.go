// Command replay runs the lane pipeline over saved frames and writes annotated images
// and top-down plots of every decision.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"onelane/calib"
	"onelane/control"
	"onelane/fitting"
	"onelane/input"
	"onelane/pipeline"
	"onelane/types"
	"onelane/ui"
)

func main() {
	configPath := flag.String("config", "onelane.json", "path to the JSON config file")
	outDir := flag.String("out", "replay", "directory for annotated frames and plots")
	seed := flag.Uint64("seed", 1, "seed for the centerline point discard")
	noPlots := flag.Bool("no-plots", false, "skip the top-down plots")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Println("Usage: replay [flags] image-or-dir...")
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := replay(*configPath, *outDir, *seed, !*noPlots, flag.Args(), logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func replay(configPath, outDir string, seed uint64, plots bool, args []string, logger *slog.Logger) error {
	cfg, err := types.LoadConfig(configPath)
	if err != nil {
		return err
	}
	files, err := collectImages(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no images found")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var undistort fitting.Undistorter = calib.Identity{}
	if cfg.Camera.CalibrationFile != "" {
		model, err := calib.LoadModel(cfg.Camera.CalibrationFile)
		if err != nil {
			return err
		}
		cm := calib.NewCameraModel(model)
		defer cm.Close()
		undistort = cm
	}

	debug := types.NewDebugLog(cfg.UI.MaxNotes)
	pipe := pipeline.New(cfg, undistort, nil, debug, logger, rand.New(rand.NewPCG(seed, seed)))

	var state types.DriveState
	for i, path := range files {
		if err := replayOne(cfg, pipe, &state, debug, uint64(i+1), path, outDir, plots, logger); err != nil {
			logger.Warn("skipping frame", "file", path, "err", err)
		}
	}
	return nil
}

func replayOne(cfg *types.Config, pipe *pipeline.Pipeline, state *types.DriveState, debug *types.DebugLog, seq uint64, path, outDir string, plots bool, logger *slog.Logger) error {
	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return fmt.Errorf("could not read image")
	}

	f, err := input.FrameFromMat(img, seq, time.Now())
	if err != nil {
		return err
	}
	if f.Width != cfg.Camera.Width || f.Height != cfg.Camera.Height {
		return fmt.Errorf("image is %dx%d, want %dx%d", f.Width, f.Height, cfg.Camera.Width, cfg.Camera.Height)
	}

	d := pipe.Step(f, state)
	fmt.Printf("%s\t%s\tsteer=%.2f\tthrottle=%.2f\t%s\n",
		filepath.Base(path), d.Outcome, d.Command.AngleDeg, d.Command.Throttle, strings.Join(d.Notes, "; "))

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	ui.RenderFrame(&img, d, state, nil, debug, cfg.Camera, cfg.UI)
	annotated := filepath.Join(outDir, base+"_annotated.png")
	if ok := gocv.IMWrite(annotated, img); !ok {
		logger.Warn("could not write annotated frame", "file", annotated)
	}

	if !plots {
		return nil
	}
	var target *control.Target
	if d.Vehicle != nil {
		if t, err := control.PurePursuit(*d.Vehicle, cfg.Vehicle, cfg.Control.ImagTolerance); err == nil {
			target = &t
		}
	}
	return plotDecision(d, target, cfg.Vehicle, filepath.Join(outDir, base+"_plot.png"))
}

// collectImages expands directories to the png and jpg files they contain, sorted by name.
func collectImages(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".png", ".jpg", ".jpeg":
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}
