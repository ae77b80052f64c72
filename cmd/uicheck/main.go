package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wjojarth123/uicheck/internal/config"
	"github.com/wjojarth123/uicheck/internal/geometry"
	"github.com/wjojarth123/uicheck/internal/imaging"
	"github.com/wjojarth123/uicheck/internal/pipeline"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	image      string
	output     string
	visualize  bool
	configPath string
	saveConfig string
	inputDir   string
	outputDir  string
	boxes      string
	json       bool
	version    bool
}

// run parses args, executes one invocation and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("uicheck", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	def := config.Default()
	var (
		gaussian     = fs.Int("gaussian", def.BlurKernel, "Gaussian blur kernel size (positive, odd)")
		cannyLow     = fs.Int("canny-low", def.CannyLow, "Canny low threshold")
		cannyHigh    = fs.Int("canny-high", def.CannyHigh, "Canny high threshold")
		minArea      = fs.Int("min-area", def.MinArea, "Minimum element area in pixels")
		mergeBoxes   = fs.Bool("merge-boxes", def.MergeBoxes, "Merge overlapping boxes")
		overlap      = fs.Float64("overlap", def.OverlapThreshold, "IoU at which boxes are merged")
		tolerance    = fs.Float64("tolerance", def.AlignmentTolerance, "Alignment tolerance in pixels")
		minGridBoxes = fs.Int("min-grid-boxes", def.MinGridBoxes, "Minimum boxes in a grid pattern")
		workers      = fs.Int("workers", def.Workers, "Images analyzed in parallel in batch mode (0 = one per CPU)")
	)
	fs.StringVar(&o.image, "image", "", "Screenshot to analyze")
	fs.StringVar(&o.output, "output", "", "Path for the annotated image")
	fs.BoolVar(&o.visualize, "visualize", false, "Also write <output>_stages.png with the intermediate stages")
	fs.StringVar(&o.configPath, "config", "", "YAML settings file")
	fs.StringVar(&o.saveConfig, "save-config", "", "Write the effective settings to this YAML file")
	fs.StringVar(&o.inputDir, "input-dir", "", "Analyze every image in this directory")
	fs.StringVar(&o.outputDir, "output-dir", "", "Directory for batch annotated images")
	fs.StringVar(&o.boxes, "boxes", "", "JSON file with a box list to score instead of detecting")
	fs.BoolVar(&o.json, "json", true, "Print the report as JSON")
	fs.BoolVar(&o.version, "version", false, "Print version information")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return exitUsage
	}

	if o.version {
		fmt.Fprintf(stdout, "uicheck %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return exitOK
	}

	cfg := def
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			log.Printf("Failed to load settings: %v", err)
			return exitFailure
		}
		cfg = loaded
	}

	// Only flags given on the command line override the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "gaussian":
			cfg.BlurKernel = *gaussian
		case "canny-low":
			cfg.CannyLow = *cannyLow
		case "canny-high":
			cfg.CannyHigh = *cannyHigh
		case "min-area":
			cfg.MinArea = *minArea
		case "merge-boxes":
			cfg.MergeBoxes = *mergeBoxes
		case "overlap":
			cfg.OverlapThreshold = *overlap
		case "tolerance":
			cfg.AlignmentTolerance = *tolerance
		case "min-grid-boxes":
			cfg.MinGridBoxes = *minGridBoxes
		case "workers":
			cfg.Workers = *workers
		case "visualize":
			cfg.Visualize = o.visualize
		}
	})
	o.visualize = o.visualize || cfg.Visualize

	if err := cfg.Validate(); err != nil {
		log.Printf("Invalid settings: %v", err)
		return exitFailure
	}
	if o.saveConfig != "" {
		if err := cfg.Save(o.saveConfig); err != nil {
			log.Printf("%v", err)
			return exitFailure
		}
	}

	debug := os.Getenv("UICHECK_LOG_LEVEL") == "debug"
	popts := []pipeline.Option{pipeline.WithLogger(log.Default()), pipeline.WithDebug(debug)}

	switch {
	case o.inputDir != "":
		return runBatch(o, cfg, popts, stdout)
	case o.image != "" || o.boxes != "":
		return runSingle(o, cfg, popts, stdout)
	case o.saveConfig != "":
		return exitOK
	}
	fmt.Fprintln(stderr, "one of --image, --boxes or --input-dir is required")
	fs.Usage()
	return exitUsage
}

func runSingle(o options, cfg config.Config, popts []pipeline.Option, stdout io.Writer) int {
	if o.visualize && o.output == "" {
		if o.image == "" {
			log.Printf("--visualize without --image needs --output")
			return exitFailure
		}
		o.output = annotatedPath(o.image, filepath.Dir(o.image))
	}
	cfg.Visualize = o.output != "" && o.image != ""

	p, err := pipeline.New(cfg, popts...)
	if err != nil {
		log.Printf("Invalid settings: %v", err)
		return exitFailure
	}

	var img image.Image
	if o.image != "" {
		img, err = imaging.Open(o.image)
		if err != nil {
			log.Printf("Failed to read image: %v", err)
			return exitFailure
		}
	}

	var res *pipeline.Result
	if o.boxes != "" {
		res, err = scoreBoxFile(p, o.boxes, img)
		if err == nil && img != nil && cfg.Visualize {
			p.Render(img, res)
		}
	} else {
		res, err = p.Analyze(img)
	}
	if err != nil {
		log.Printf("Analysis failed: %v", err)
		return exitFailure
	}

	if cfg.Visualize && res.RenderErr == nil {
		if err := writeImages(res, o.output, o.visualize); err != nil {
			log.Printf("%v", err)
			return exitFailure
		}
	}

	label := o.image
	if label == "" {
		label = o.boxes
	}
	rep := res.Report(label)
	if o.json {
		if err := writeJSON(stdout, rep); err != nil {
			log.Printf("%v", err)
			return exitFailure
		}
	} else {
		printSummary(stdout, rep)
	}
	return exitOK
}

// scoreBoxFile scores the boxes stored in path. With an image the frame is
// the image; otherwise it is the union of the boxes.
func scoreBoxFile(p *pipeline.Pipeline, path string, img image.Image) (*pipeline.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read boxes: %w", err)
	}
	var boxes []geometry.Box
	if err := json.Unmarshal(data, &boxes); err != nil {
		return nil, fmt.Errorf("failed to parse boxes %s: %w", path, err)
	}

	var bounds image.Rectangle
	if img != nil {
		bounds = image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy())
	} else {
		u := geometry.Bounds(boxes)
		bounds = image.Rect(0, 0, u.X2, u.Y2)
	}
	return p.AnalyzeBoxes(boxes, bounds)
}

func runBatch(o options, cfg config.Config, popts []pipeline.Option, stdout io.Writer) int {
	paths, err := listImages(o.inputDir)
	if err != nil {
		log.Printf("%v", err)
		return exitFailure
	}
	if len(paths) == 0 {
		log.Printf("No images found in %s", o.inputDir)
		return exitFailure
	}

	if o.outputDir != "" {
		if err := os.MkdirAll(o.outputDir, 0755); err != nil {
			log.Printf("Failed to create output directory: %v", err)
			return exitFailure
		}
	}
	cfg.Visualize = o.outputDir != ""

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	items, err := pipeline.RunBatch(ctx, paths, cfg, cfg.Workers, popts...)
	if items == nil {
		log.Printf("Batch failed: %v", err)
		return exitFailure
	}

	code := exitOK
	if err != nil {
		log.Printf("Batch interrupted: %v", err)
		code = exitFailure
	}
	reports := make([]pipeline.Report, 0, len(items))
	for _, it := range items {
		reports = append(reports, it.Report())
		if it.Err != nil {
			log.Printf("%s: %v", it.Path, it.Err)
			code = exitFailure
			continue
		}
		if cfg.Visualize && it.Result.RenderErr == nil {
			out := annotatedPath(it.Path, o.outputDir)
			if err := writeImages(it.Result, out, o.visualize); err != nil {
				log.Printf("%v", err)
				code = exitFailure
			}
		}
	}

	if o.json {
		if err := writeJSON(stdout, reports); err != nil {
			log.Printf("%v", err)
			return exitFailure
		}
	} else {
		for _, rep := range reports {
			printSummary(stdout, rep)
		}
	}
	return code
}

// listImages returns the decodable files directly inside dir, sorted by name.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !imaging.IsImageFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// annotatedPath names the annotated copy of src inside dir.
func annotatedPath(src, dir string) string {
	base := filepath.Base(src)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, name+"_annotated.png")
}

// stagesPath derives "<output>_stages.png" from the annotated image path.
func stagesPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + "_stages.png"
}

func writeImages(res *pipeline.Result, output string, stages bool) error {
	if res.Annotated != nil {
		if err := imaging.Save(res.Annotated, output); err != nil {
			return err
		}
	}
	if stages && res.Stages != nil {
		if err := imaging.Save(res.Stages, stagesPath(output)); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, rep pipeline.Report) {
	if rep.Error != "" {
		fmt.Fprintf(w, "%s: error: %s\n", rep.Image, rep.Error)
		return
	}
	fmt.Fprintf(w, "%s: score %.3f (%d boxes, %d groups, %d grids)\n",
		rep.Image, rep.Score, len(rep.Boxes), len(rep.Groups), len(rep.Grids))
}
