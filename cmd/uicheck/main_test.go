package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wjojarth123/uicheck/internal/config"
	"github.com/wjojarth123/uicheck/internal/geometry"
	"github.com/wjojarth123/uicheck/internal/imaging"
	"github.com/wjojarth123/uicheck/internal/pipeline"
)

// writeCards saves a 200×120 page holding a 2×2 grid of cards.
func writeCards(t *testing.T, dir, name string) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 200, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.White)
		}
	}
	for _, c := range []geometry.Box{
		{X1: 20, Y1: 20, X2: 80, Y2: 50},
		{X1: 110, Y1: 20, X2: 170, Y2: 50},
		{X1: 20, Y1: 70, X2: 80, Y2: 100},
		{X1: 110, Y1: 70, X2: 170, Y2: 100},
	} {
		for y := c.Y1; y < c.Y2; y++ {
			for x := c.X1; x < c.X2; x++ {
				img.Set(x, y, color.RGBA{40, 60, 90, 255})
			}
		}
	}

	path := filepath.Join(dir, name)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String()
}

func TestRun_Version(t *testing.T) {
	code, out := runCLI(t, "--version")
	if code != exitOK {
		t.Errorf("exit code: got %d, want %d", code, exitOK)
	}
	if !strings.HasPrefix(out, "uicheck dev") {
		t.Errorf("unexpected version output: %q", out)
	}
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--frobnicate"}},
		{"bad value", []string{"--min-area", "lots"}},
		{"no input", nil},
		{"stray argument", []string{"--image", "a.png", "b.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _ := runCLI(t, tt.args...); code != exitUsage {
				t.Errorf("exit code: got %d, want %d", code, exitUsage)
			}
		})
	}
}

func TestRun_Failures(t *testing.T) {
	dir := t.TempDir()
	img := writeCards(t, dir, "cards.png")

	tests := []struct {
		name string
		args []string
	}{
		{"missing image", []string{"--image", filepath.Join(dir, "missing.png")}},
		{"even kernel", []string{"--image", img, "--gaussian", "4"}},
		{"negative tolerance", []string{"--image", img, "--tolerance", "-1"}},
		{"thresholds inverted", []string{"--image", img, "--canny-low", "200", "--canny-high", "100"}},
		{"missing config", []string{"--image", img, "--config", filepath.Join(dir, "none.yaml")}},
		{"missing boxes", []string{"--boxes", filepath.Join(dir, "none.json")}},
		{"empty input dir", []string{"--input-dir", t.TempDir()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _ := runCLI(t, tt.args...); code != exitFailure {
				t.Errorf("exit code: got %d, want %d", code, exitFailure)
			}
		})
	}
}

func TestRun_Image(t *testing.T) {
	dir := t.TempDir()
	img := writeCards(t, dir, "cards.png")

	code, out := runCLI(t, "--image", img)
	if code != exitOK {
		t.Fatalf("exit code: got %d", code)
	}
	var rep pipeline.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, out)
	}
	if rep.Image != img || rep.Width != 200 || rep.Height != 120 {
		t.Errorf("unexpected header: %+v", rep)
	}
	if len(rep.Boxes) != 4 || len(rep.Grids) != 1 {
		t.Errorf("got %d boxes and %d grids", len(rep.Boxes), len(rep.Grids))
	}
	if rep.Score < 0.8 {
		t.Errorf("score too low: %v", rep.Score)
	}
}

func TestRun_PlainSummary(t *testing.T) {
	img := writeCards(t, t.TempDir(), "cards.png")

	code, out := runCLI(t, "--image", img, "--json=false")
	if code != exitOK {
		t.Fatalf("exit code: got %d", code)
	}
	if !strings.Contains(out, "4 boxes") || !strings.Contains(out, "1 grids") {
		t.Errorf("unexpected summary: %q", out)
	}
}

func TestRun_Visualize(t *testing.T) {
	dir := t.TempDir()
	img := writeCards(t, dir, "cards.png")
	output := filepath.Join(dir, "out.png")

	if code, _ := runCLI(t, "--image", img, "--output", output, "--visualize"); code != exitOK {
		t.Fatalf("exit code: got %d", code)
	}

	annotated, err := imaging.Open(output)
	if err != nil {
		t.Fatalf("annotated image missing: %v", err)
	}
	if annotated.Bounds().Dx() != 200 {
		t.Errorf("annotated width: got %d", annotated.Bounds().Dx())
	}
	stages, err := imaging.Open(filepath.Join(dir, "out_stages.png"))
	if err != nil {
		t.Fatalf("stage panel missing: %v", err)
	}
	if stages.Bounds().Dx() != 400 || stages.Bounds().Dy() != 240 {
		t.Errorf("stage panel: got %v", stages.Bounds())
	}
}

func TestRun_VisualizeDefaultOutput(t *testing.T) {
	dir := t.TempDir()
	img := writeCards(t, dir, "cards.png")

	if code, _ := runCLI(t, "--image", img, "--visualize"); code != exitOK {
		t.Fatalf("exit code: got %d", code)
	}
	for _, name := range []string{"cards_annotated.png", "cards_annotated_stages.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestRun_Boxes(t *testing.T) {
	dir := t.TempDir()
	boxes := []geometry.Box{
		{X1: 0, Y1: 0, X2: 50, Y2: 20},
		{X1: 60, Y1: 0, X2: 110, Y2: 20},
		{X1: 0, Y1: 30, X2: 50, Y2: 50},
		{X1: 60, Y1: 30, X2: 110, Y2: 50},
	}
	data, _ := json.Marshal(boxes)
	path := filepath.Join(dir, "boxes.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	code, out := runCLI(t, "--boxes", path, "--tolerance", "2")
	if code != exitOK {
		t.Fatalf("exit code: got %d", code)
	}
	var rep pipeline.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	if rep.Score != 1 {
		t.Errorf("score: got %v, want 1", rep.Score)
	}
	if rep.Width != 110 || rep.Height != 50 {
		t.Errorf("frame: got %dx%d, want 110x50", rep.Width, rep.Height)
	}
	if rep.Detection != nil {
		t.Error("supplied boxes should carry no detection stats")
	}
}

func TestRun_ConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "settings.yaml")
	if err := os.WriteFile(cfgPath, []byte("min_area: 5000\nalignment_tolerance: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	saved := filepath.Join(dir, "effective.yaml")

	code, _ := runCLI(t, "--config", cfgPath, "--tolerance", "7", "--save-config", saved)
	if code != exitOK {
		t.Fatalf("exit code: got %d", code)
	}

	cfg, err := config.Load(saved)
	if err != nil {
		t.Fatalf("failed to load saved settings: %v", err)
	}
	if cfg.MinArea != 5000 {
		t.Errorf("min_area from file: got %d, want 5000", cfg.MinArea)
	}
	if cfg.AlignmentTolerance != 7 {
		t.Errorf("tolerance flag should win: got %v", cfg.AlignmentTolerance)
	}
	if cfg.CannyHigh != config.Default().CannyHigh {
		t.Errorf("canny_high should keep its default: got %d", cfg.CannyHigh)
	}
}

func TestRun_Batch(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "annotated")
	writeCards(t, in, "a.png")
	writeCards(t, in, "b.png")
	if err := os.WriteFile(filepath.Join(in, "notes.txt"), []byte("skip me"), 0644); err != nil {
		t.Fatal(err)
	}

	code, stdout := runCLI(t, "--input-dir", in, "--output-dir", out, "--workers", "2")
	if code != exitOK {
		t.Fatalf("exit code: got %d", code)
	}
	var reps []pipeline.Report
	if err := json.Unmarshal([]byte(stdout), &reps); err != nil {
		t.Fatalf("batch report is not JSON: %v", err)
	}
	if len(reps) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reps))
	}
	if filepath.Base(reps[0].Image) != "a.png" || filepath.Base(reps[1].Image) != "b.png" {
		t.Errorf("reports out of order: %s, %s", reps[0].Image, reps[1].Image)
	}
	for _, name := range []string{"a_annotated.png", "b_annotated.png"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestRun_BatchRecordsFailures(t *testing.T) {
	in := t.TempDir()
	writeCards(t, in, "good.png")
	if err := os.WriteFile(filepath.Join(in, "broken.png"), []byte("not a png"), 0644); err != nil {
		t.Fatal(err)
	}

	code, stdout := runCLI(t, "--input-dir", in)
	if code != exitFailure {
		t.Errorf("exit code: got %d, want %d", code, exitFailure)
	}
	var reps []pipeline.Report
	if err := json.Unmarshal([]byte(stdout), &reps); err != nil {
		t.Fatalf("batch report is not JSON: %v", err)
	}
	if len(reps) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reps))
	}
	if reps[0].Error == "" {
		t.Error("broken.png should carry an error")
	}
	if reps[1].Error != "" || len(reps[1].Boxes) != 4 {
		t.Errorf("good.png should still be analyzed: %+v", reps[1])
	}
}

func TestStagesPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"out.png", "out_stages.png"},
		{"/tmp/a/result.jpg", "/tmp/a/result_stages.png"},
		{"noext", "noext_stages.png"},
	}
	for _, tt := range tests {
		if got := stagesPath(tt.in); got != tt.want {
			t.Errorf("stagesPath(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}
