// Package config holds the settings bundle shared by the CLI, the tool
// server and the batch runner.
//
// A Config starts from Default, is optionally overlaid with a YAML file by
// Load, and is then overridden by command-line flags. Validate reports the
// first out-of-range value as an error wrapping apperr.ErrInvalidInput.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wjojarth123/uicheck/internal/apperr"
	"github.com/wjojarth123/uicheck/internal/detection"
	"github.com/wjojarth123/uicheck/internal/imaging"
	"github.com/wjojarth123/uicheck/internal/layout"
)

type Config struct {
	// Detector selects the pixel detection strategy. Only "contour" can be
	// configured; supplied box lists go through AnalyzeBoxes.
	Detector string `yaml:"detector" json:"detector"`

	BlurKernel       int `yaml:"blur_kernel" json:"blur_kernel"`
	CannyLow         int `yaml:"canny_low" json:"canny_low"`
	CannyHigh        int `yaml:"canny_high" json:"canny_high"`
	MorphKernel      int `yaml:"morph_kernel" json:"morph_kernel"`
	DilateIterations int `yaml:"dilate_iterations" json:"dilate_iterations"`

	MinArea   int     `yaml:"min_area" json:"min_area"`
	MaxArea   int     `yaml:"max_area" json:"max_area"`
	MinWidth  int     `yaml:"min_width" json:"min_width"`
	MinHeight int     `yaml:"min_height" json:"min_height"`
	MinAspect float64 `yaml:"min_aspect" json:"min_aspect"`
	MaxAspect float64 `yaml:"max_aspect" json:"max_aspect"`

	MergeBoxes       bool    `yaml:"merge_boxes" json:"merge_boxes"`
	OverlapThreshold float64 `yaml:"overlap_threshold" json:"overlap_threshold"`

	MergeTextLines        bool    `yaml:"merge_text_lines" json:"merge_text_lines"`
	LineHeightTolerance   float64 `yaml:"line_height_tolerance" json:"line_height_tolerance"`
	LineVerticalTolerance float64 `yaml:"line_vertical_tolerance" json:"line_vertical_tolerance"`
	LineGapRatio          float64 `yaml:"line_gap_ratio" json:"line_gap_ratio"`

	MergeParagraphs          bool    `yaml:"merge_paragraphs" json:"merge_paragraphs"`
	ParagraphLeftTolerance   float64 `yaml:"paragraph_left_tolerance" json:"paragraph_left_tolerance"`
	ParagraphHeightTolerance float64 `yaml:"paragraph_height_tolerance" json:"paragraph_height_tolerance"`
	ParagraphGapRatio        float64 `yaml:"paragraph_gap_ratio" json:"paragraph_gap_ratio"`

	AlignmentTolerance float64        `yaml:"alignment_tolerance" json:"alignment_tolerance"`
	MinGridBoxes       int            `yaml:"min_grid_boxes" json:"min_grid_boxes"`
	MinGroupSize       int            `yaml:"min_group_size" json:"min_group_size"`
	Weights            layout.Weights `yaml:"weights" json:"weights"`

	Visualize bool `yaml:"visualize" json:"visualize"`
	// Workers bounds batch parallelism. Zero means one per logical CPU.
	Workers int `yaml:"workers" json:"workers"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	text := detection.DefaultTextLineOptions()
	para := detection.DefaultParagraphOptions()
	return Config{
		Detector:         "contour",
		BlurKernel:       imaging.DefaultBlurKernel,
		CannyLow:         imaging.DefaultCannyLow,
		CannyHigh:        imaging.DefaultCannyHigh,
		MorphKernel:      imaging.DefaultMorphKernel,
		DilateIterations: imaging.DefaultDilateIterations,
		MinArea:          detection.DefaultMinArea,
		OverlapThreshold: detection.DefaultOverlapThreshold,

		LineHeightTolerance:   text.HeightTolerance,
		LineVerticalTolerance: text.VerticalTolerance,
		LineGapRatio:          text.GapRatio,

		ParagraphLeftTolerance:   para.LeftTolerance,
		ParagraphHeightTolerance: para.HeightTolerance,
		ParagraphGapRatio:        para.GapRatio,

		AlignmentTolerance: layout.DefaultTolerance,
		MinGridBoxes:       layout.DefaultMinGridBoxes,
		MinGroupSize:       layout.DefaultMinGroupSize,
		Weights:            layout.DefaultWeights(),
	}
}

// Validate checks every field and returns the first problem found.
func (c Config) Validate() error {
	switch c.Detector {
	case "contour", "":
	case "static":
		return apperr.InvalidInputf("detector %q takes its boxes from a box list, not from settings; use --boxes or layout_score_boxes", c.Detector)
	default:
		return apperr.InvalidInputf("unknown detector %q", c.Detector)
	}
	if err := oddPositive("blur_kernel", c.BlurKernel); err != nil {
		return err
	}
	if c.CannyLow < 0 || c.CannyHigh < 0 {
		return apperr.InvalidInputf("canny thresholds must be non-negative, got %d/%d", c.CannyLow, c.CannyHigh)
	}
	if c.CannyLow > c.CannyHigh {
		return apperr.InvalidInputf("canny_low %d exceeds canny_high %d", c.CannyLow, c.CannyHigh)
	}
	if err := oddPositive("morph_kernel", c.MorphKernel); err != nil {
		return err
	}
	if c.DilateIterations < 0 {
		return apperr.InvalidInputf("dilate_iterations must be >= 0, got %d", c.DilateIterations)
	}
	if err := c.filterOptions().Validate(); err != nil {
		return err
	}
	if c.OverlapThreshold <= 0 || c.OverlapThreshold > 1 {
		return apperr.InvalidInputf("overlap_threshold must be in (0,1], got %g", c.OverlapThreshold)
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"line_height_tolerance", c.LineHeightTolerance},
		{"line_vertical_tolerance", c.LineVerticalTolerance},
		{"line_gap_ratio", c.LineGapRatio},
		{"paragraph_left_tolerance", c.ParagraphLeftTolerance},
		{"paragraph_height_tolerance", c.ParagraphHeightTolerance},
		{"paragraph_gap_ratio", c.ParagraphGapRatio},
	} {
		if f.value < 0 {
			return apperr.InvalidInputf("%s must be non-negative, got %g", f.name, f.value)
		}
	}
	if c.AlignmentTolerance < 0 {
		return apperr.InvalidInputf("alignment_tolerance must be non-negative, got %g", c.AlignmentTolerance)
	}
	if c.MinGridBoxes < layout.DefaultMinGridBoxes {
		return apperr.InvalidInputf("min_grid_boxes must be at least %d, got %d", layout.DefaultMinGridBoxes, c.MinGridBoxes)
	}
	if c.MinGroupSize < 2 {
		return apperr.InvalidInputf("min_group_size must be at least 2, got %d", c.MinGroupSize)
	}
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return apperr.InvalidInputf("workers must be >= 0, got %d", c.Workers)
	}
	return nil
}

func oddPositive(name string, v int) error {
	if v <= 0 || v%2 == 0 {
		return apperr.InvalidInputf("%s must be a positive odd integer, got %d", name, v)
	}
	return nil
}

func (c Config) filterOptions() detection.FilterOptions {
	return detection.FilterOptions{
		MinArea:   c.MinArea,
		MaxArea:   c.MaxArea,
		MinWidth:  c.MinWidth,
		MinHeight: c.MinHeight,
		MinAspect: c.MinAspect,
		MaxAspect: c.MaxAspect,
	}
}

// DetectionOptions maps the bundle onto the contour detector settings.
func (c Config) DetectionOptions() detection.Options {
	return detection.Options{
		BlurKernel: c.BlurKernel,
		CannyLow:   c.CannyLow,
		CannyHigh:  c.CannyHigh,
		Enhance: imaging.EnhanceOptions{
			CloseKernel:      c.MorphKernel,
			DilateKernel:     imaging.DefaultDilateKernel,
			DilateIterations: c.DilateIterations,
		},
		Filter:           c.filterOptions(),
		MergeBoxes:       c.MergeBoxes,
		OverlapThreshold: c.OverlapThreshold,
		MergeTextLines:   c.MergeTextLines,
		TextLine: detection.TextLineOptions{
			HeightTolerance:   c.LineHeightTolerance,
			VerticalTolerance: c.LineVerticalTolerance,
			GapRatio:          c.LineGapRatio,
		},
		MergeParagraphs: c.MergeParagraphs,
		Paragraph: detection.ParagraphOptions{
			LeftTolerance:   c.ParagraphLeftTolerance,
			HeightTolerance: c.ParagraphHeightTolerance,
			GapRatio:        c.ParagraphGapRatio,
		},
	}
}

// LayoutOptions maps the bundle onto the alignment and scoring settings.
func (c Config) LayoutOptions() layout.Options {
	return layout.Options{
		Tolerance:    c.AlignmentTolerance,
		MinGridBoxes: c.MinGridBoxes,
		Score: layout.ScoreOptions{
			Weights:      c.Weights,
			MinGroupSize: c.MinGroupSize,
		},
	}
}

// Load reads a YAML settings file. Keys absent from the file keep their
// Default values. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes c to path as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
