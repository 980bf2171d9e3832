// Package config holds every tunable of the region engine.
//
// Values start from Default, may be overlaid by a YAML file and are finally
// adjusted by environment variables (LoadFromEnv).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadFromEnv.
const (
	EnvConfigFile     = "IMAGE_REGIONS_CONFIG"
	EnvSegmentURL     = "IMAGE_REGIONS_SEGMENT_URL"
	EnvSegmentTimeout = "IMAGE_REGIONS_SEGMENT_TIMEOUT"
	EnvSegmentRetries = "IMAGE_REGIONS_SEGMENT_RETRIES"
	EnvOCRLanguage    = "IMAGE_REGIONS_OCR_LANG"
	EnvTessdataPrefix = "TESSDATA_PREFIX"
	EnvBatchWorkers   = "IMAGE_REGIONS_WORKERS"
	EnvBatchDPI       = "IMAGE_REGIONS_PDF_DPI"
)

type Config struct {
	Detection    Detection    `yaml:"detection"`
	Text         Text         `yaml:"text"`
	Segmentation Segmentation `yaml:"segmentation"`
	OCR          OCR          `yaml:"ocr"`
	Batch        Batch        `yaml:"batch"`
}

// Detection configures the visual candidate ensemble and everything downstream of it.
type Detection struct {
	// MinAreaFloor and MinAreaFraction define the adaptive minimum area:
	// max(MinAreaFloor, MinAreaFraction * image area).
	MinAreaFloor    int     `yaml:"min_area_floor"`
	MinAreaFraction float64 `yaml:"min_area_fraction"`

	MinBoxSize        int     `yaml:"min_box_size"`
	MinColoredBoxSize int     `yaml:"min_colored_box_size"`
	FullPageFraction  float64 `yaml:"full_page_fraction"`

	EdgeAreaFactor    float64 `yaml:"edge_area_factor"`
	ColoredAreaFactor float64 `yaml:"colored_area_factor"`
	QuadAreaFactor    float64 `yaml:"quad_area_factor"`

	SmoothSigma         float64     `yaml:"smooth_sigma"`
	EdgeThresholds      []CannyPair `yaml:"edge_thresholds"`
	EdgeDilateIter      int         `yaml:"edge_dilate_iterations"`
	EdgeErodeIter       int         `yaml:"edge_erode_iterations"`
	AdaptiveBlockSize   int         `yaml:"adaptive_block_size"`
	AdaptiveC           float64     `yaml:"adaptive_c"`
	SaturationThreshold uint8       `yaml:"saturation_threshold"`
	QuadLevels          []uint8     `yaml:"quad_levels"`
	QuadEpsilon         float64     `yaml:"quad_epsilon"`

	Confidence Confidence `yaml:"confidence"`

	DedupIoU          float64 `yaml:"dedup_iou"`
	GridIoU           float64 `yaml:"grid_iou"`
	GridFallbackBelow int     `yaml:"grid_fallback_below"`
	GridMargin        int     `yaml:"grid_margin"`
	GridInset         int     `yaml:"grid_inset"`

	BoxAspectMin    float64 `yaml:"box_aspect_min"`
	BoxAspectMax    float64 `yaml:"box_aspect_max"`
	BannerWideAbove float64 `yaml:"banner_wide_above"`
	BannerTallBelow float64 `yaml:"banner_tall_below"`
	DropSectionsAt  int     `yaml:"drop_sections_at"`
	MaxRegions      int     `yaml:"max_regions"`

	MergeDuplicateIoU float64 `yaml:"merge_duplicate_iou"`
	MixedOverlap      float64 `yaml:"mixed_overlap"`

	Refine Refine `yaml:"refine"`
}

// CannyPair is one low/high hysteresis pair on the 0-255 gradient scale.
type CannyPair struct {
	Low  int `yaml:"low"`
	High int `yaml:"high"`
}

// Confidence is the fixed confidence (0-100) each strategy assigns.
type Confidence struct {
	Edges    float64 `yaml:"edges"`
	Adaptive float64 `yaml:"adaptive"`
	Otsu     float64 `yaml:"otsu"`
	Colored  float64 `yaml:"colored"`
	Quad     float64 `yaml:"quad"`
	Grid     float64 `yaml:"grid"`
}

// Refine configures the bounding-box refiner.
type Refine struct {
	MinROI          int     `yaml:"min_roi"`
	BlurSigma       float64 `yaml:"blur_sigma"`
	CannyLow        int     `yaml:"canny_low"`
	CannyHigh       int     `yaml:"canny_high"`
	MinEdgePixels   int     `yaml:"min_edge_pixels"`
	MinEdgeFraction float64 `yaml:"min_edge_fraction"`
	PadMin          int     `yaml:"pad_min"`
	PadFraction     float64 `yaml:"pad_fraction"`
	MinKeepFraction float64 `yaml:"min_keep_fraction"`
}

// Text configures OCR word grouping.
type Text struct {
	MinWordConfidence float64 `yaml:"min_word_confidence"`
	MinWidth          int     `yaml:"min_width"`
	MinHeight         int     `yaml:"min_height"`
	Padding           int     `yaml:"padding"`
}

// PolygonPreset bounds polygon simplification: epsilon is a fraction of the
// contour perimeter and MaxPoints caps the vertex count.
type PolygonPreset struct {
	Epsilon   float64 `yaml:"epsilon"`
	MaxPoints int     `yaml:"max_points"`
}

// Segmentation configures mask-to-region conversion and the remote model.
type Segmentation struct {
	Fine          PolygonPreset `yaml:"fine"`
	Coarse        PolygonPreset `yaml:"coarse"`
	MaxMasks      int           `yaml:"max_masks"`
	MinConfidence float64       `yaml:"min_confidence"`
	MaskCutoff    float64       `yaml:"mask_cutoff"`

	Endpoint   string        `yaml:"endpoint"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

type OCR struct {
	Language       string `yaml:"language"`
	TessdataPrefix string `yaml:"tessdata_prefix"`
}

// Batch configures multi-page runs from the command line.
type Batch struct {
	Workers int `yaml:"workers"`
	DPI     int `yaml:"dpi"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Detection: Detection{
			MinAreaFloor:      500,
			MinAreaFraction:   0.005,
			MinBoxSize:        20,
			MinColoredBoxSize: 15,
			FullPageFraction:  0.98,
			EdgeAreaFactor:    0.5,
			ColoredAreaFactor: 0.3,
			QuadAreaFactor:    0.3,
			SmoothSigma:       1.0,
			EdgeThresholds: []CannyPair{
				{Low: 50, High: 150},
				{Low: 30, High: 100},
				{Low: 10, High: 50},
			},
			EdgeDilateIter:      2,
			EdgeErodeIter:       1,
			AdaptiveBlockSize:   11,
			AdaptiveC:           2,
			SaturationThreshold: 50,
			QuadLevels:          []uint8{50, 127, 200},
			QuadEpsilon:         0.02,
			Confidence: Confidence{
				Edges:    70,
				Adaptive: 65,
				Otsu:     60,
				Colored:  75,
				Quad:     80,
				Grid:     35,
			},
			DedupIoU:          0.4,
			GridIoU:           0.85,
			GridFallbackBelow: 3,
			GridMargin:        10,
			GridInset:         5,
			BoxAspectMin:      0.8,
			BoxAspectMax:      1.25,
			BannerWideAbove:   2.5,
			BannerTallBelow:   0.4,
			DropSectionsAt:    3,
			MaxRegions:        20,
			MergeDuplicateIoU: 0.90,
			MixedOverlap:      0.65,
			Refine: Refine{
				MinROI:          10,
				BlurSigma:       1.0,
				CannyLow:        30,
				CannyHigh:       100,
				MinEdgePixels:   20,
				MinEdgeFraction: 0.0008,
				PadMin:          3,
				PadFraction:     0.02,
				MinKeepFraction: 0.15,
			},
		},
		Text: Text{
			MinWordConfidence: 30,
			MinWidth:          20,
			MinHeight:         10,
			Padding:           5,
		},
		Segmentation: Segmentation{
			Fine:          PolygonPreset{Epsilon: 0.002, MaxPoints: 120},
			Coarse:        PolygonPreset{Epsilon: 0.003, MaxPoints: 80},
			MaxMasks:      20,
			MinConfidence: 0.25,
			MaskCutoff:    0.5,
			Timeout:       30 * time.Second,
			MaxRetries:    3,
		},
		OCR: OCR{
			Language: "eng",
		},
		Batch: Batch{
			Workers: 4,
			DPI:     150,
		},
	}
}

// LoadFile overlays the YAML document at path on the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse overlays a YAML document on the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv builds the configuration from the optional config file named by
// IMAGE_REGIONS_CONFIG plus individual environment overrides.
func LoadFromEnv() (*Config, error) {
	cfg := Default()
	if path := getEnvOrDefault(EnvConfigFile, ""); path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cfg.Segmentation.Endpoint = getEnvOrDefault(EnvSegmentURL, cfg.Segmentation.Endpoint)
	cfg.Segmentation.Timeout = parseDurationOrDefault(EnvSegmentTimeout, cfg.Segmentation.Timeout)
	cfg.Segmentation.MaxRetries = parseIntOrDefault(EnvSegmentRetries, cfg.Segmentation.MaxRetries)
	cfg.OCR.Language = getEnvOrDefault(EnvOCRLanguage, cfg.OCR.Language)
	cfg.OCR.TessdataPrefix = getEnvOrDefault(EnvTessdataPrefix, cfg.OCR.TessdataPrefix)
	cfg.Batch.Workers = parseIntOrDefault(EnvBatchWorkers, cfg.Batch.Workers)
	cfg.Batch.DPI = parseIntOrDefault(EnvBatchDPI, cfg.Batch.DPI)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	d := c.Detection
	for name, v := range map[string]float64{
		"dedup_iou":           d.DedupIoU,
		"grid_iou":            d.GridIoU,
		"merge_duplicate_iou": d.MergeDuplicateIoU,
		"mixed_overlap":       d.MixedOverlap,
		"full_page_fraction":  d.FullPageFraction,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("detection.%s must be in (0, 1] (got %v)", name, v)
		}
	}
	if d.MinAreaFloor < 0 || d.MinAreaFraction < 0 {
		return fmt.Errorf("detection minimum area must not be negative")
	}
	if d.MaxRegions <= 0 {
		return fmt.Errorf("detection.max_regions must be > 0 (got %d)", d.MaxRegions)
	}
	if d.AdaptiveBlockSize < 3 || d.AdaptiveBlockSize%2 == 0 {
		return fmt.Errorf("detection.adaptive_block_size must be odd and >= 3 (got %d)", d.AdaptiveBlockSize)
	}
	if d.BoxAspectMin >= d.BoxAspectMax {
		return fmt.Errorf("detection.box_aspect_min must be below box_aspect_max")
	}
	for _, p := range d.EdgeThresholds {
		if p.Low < 0 || p.High < p.Low {
			return fmt.Errorf("detection.edge_thresholds: invalid pair %d/%d", p.Low, p.High)
		}
	}

	s := c.Segmentation
	for name, p := range map[string]PolygonPreset{"fine": s.Fine, "coarse": s.Coarse} {
		if p.Epsilon <= 0 || p.MaxPoints < 3 {
			return fmt.Errorf("segmentation.%s: epsilon must be > 0 and max_points >= 3", name)
		}
	}
	if s.MaxMasks <= 0 {
		return fmt.Errorf("segmentation.max_masks must be > 0 (got %d)", s.MaxMasks)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("segmentation.timeout must be > 0 (got %s)", s.Timeout)
	}
	if c.Batch.Workers <= 0 || c.Batch.DPI <= 0 {
		return fmt.Errorf("batch workers and dpi must be > 0 (got workers=%d, dpi=%d)", c.Batch.Workers, c.Batch.DPI)
	}
	return nil
}

// AdaptiveMinArea returns max(MinAreaFloor, MinAreaFraction * width * height).
func (d Detection) AdaptiveMinArea(width, height int) float64 {
	scaled := d.MinAreaFraction * float64(width) * float64(height)
	if scaled > float64(d.MinAreaFloor) {
		return scaled
	}
	return float64(d.MinAreaFloor)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}
