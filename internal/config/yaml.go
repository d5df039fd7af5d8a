package config

import (
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// RateLimitRule is one "N per {minute|hour}" rule.
type RateLimitRule struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	RequestsPerHour   int `yaml:"requests_per_hour"`
}

// RateLimitConfig mirrors the gateway's exact-path > service-default >
// global-default resolution order (api-gateway/app/rate_limit.py).
type RateLimitConfig struct {
	Enabled  bool                     `yaml:"enabled"`
	Default  RateLimitRule            `yaml:"default"`
	Services map[string]RateLimitRule `yaml:"services"`
	Paths    map[string]RateLimitRule `yaml:"paths"`
}

// ChannelSpecRow mirrors campaigns-service/app/models/channel_spec.py.
type ChannelSpecRow struct {
	Channel         string  `yaml:"channel"`
	CommercialSpace string  `yaml:"commercial_space,omitempty"`
	FieldName       string  `yaml:"field_name"`
	MinChars        int     `yaml:"min_chars,omitempty"`
	MaxChars        int     `yaml:"max_chars,omitempty"`
	WarnChars       int     `yaml:"warn_chars,omitempty"`
	MaxWeightKB     float64 `yaml:"max_weight_kb,omitempty"`
	MinWidth        int     `yaml:"min_width,omitempty"`
	MinHeight       int     `yaml:"min_height,omitempty"`
	MaxWidth        int     `yaml:"max_width,omitempty"`
	MaxHeight       int     `yaml:"max_height,omitempty"`
	ExpectedWidth   int     `yaml:"expected_width,omitempty"`
	ExpectedHeight  int     `yaml:"expected_height,omitempty"`
	TolerancePct    float64 `yaml:"tolerance_pct,omitempty"`
	Active          bool    `yaml:"active"`
}

// BrandPaletteConfig mirrors the constants at the top of
// branding-service/app/services/brand_validator.py.
type BrandPaletteConfig struct {
	ApprovedColors         []string `yaml:"approved_colors"`
	PrimaryColors          []string `yaml:"primary_colors"`
	ApprovedFonts          []string `yaml:"approved_fonts"`
	AllowedDomains         []string `yaml:"allowed_domains"`
	ProhibitedShorteners   []string `yaml:"prohibited_shorteners"`
	AllowedBodyBackgrounds []string `yaml:"allowed_body_backgrounds"`

	MinFontSizePx      int `yaml:"min_font_size_px"`
	LogoMinHeightPx    int `yaml:"logo_min_height_px"`
	LogoMaxHeightPx    int `yaml:"logo_max_height_px"`
	MaxContainerWidthPx int `yaml:"max_container_width_px"`
	MaxRotationDeg     int `yaml:"max_rotation_deg"`
}

var (
	channelSpecsOnce  sync.Once
	channelSpecsCache []ChannelSpecRow

	brandPaletteOnce  sync.Once
	brandPaletteCache BrandPaletteConfig

	rateLimitOnce  sync.Once
	rateLimitCache RateLimitConfig
)

// LoadChannelSpecs loads the local YAML fallback for channel specs,
// cached for the process lifetime. Path comes from CHANNEL_SPECS_PATH.
func LoadChannelSpecs() []ChannelSpecRow {
	channelSpecsOnce.Do(func() {
		path := envStr("CHANNEL_SPECS_PATH", "config/channel_specs.yaml")
		channelSpecsCache = defaultChannelSpecs()
		if data, err := os.ReadFile(path); err == nil {
			var rows []ChannelSpecRow
			if yaml.Unmarshal(data, &rows) == nil && len(rows) > 0 {
				channelSpecsCache = rows
			}
		}
	})
	return channelSpecsCache
}

// LoadBrandPalette loads the local YAML brand guideline constants,
// falling back to the defaults lifted from brand_validator.py.
func LoadBrandPalette() BrandPaletteConfig {
	brandPaletteOnce.Do(func() {
		path := envStr("BRAND_PALETTE_PATH", "config/brand_palette.yaml")
		brandPaletteCache = defaultBrandPalette()
		if data, err := os.ReadFile(path); err == nil {
			var cfg BrandPaletteConfig
			if yaml.Unmarshal(data, &cfg) == nil && len(cfg.ApprovedColors) > 0 {
				brandPaletteCache = cfg
			}
		}
	})
	return brandPaletteCache
}

// LoadRateLimitConfig loads rate-limit rules, falling back to sane
// defaults mirroring the scenario in spec.md S6 (login_per_minute=10).
func LoadRateLimitConfig() RateLimitConfig {
	rateLimitOnce.Do(func() {
		path := envStr("RATE_LIMIT_CONFIG_PATH", "config/rate_limits.yaml")
		rateLimitCache = defaultRateLimitConfig()
		if data, err := os.ReadFile(path); err == nil {
			var cfg RateLimitConfig
			if yaml.Unmarshal(data, &cfg) == nil {
				rateLimitCache = cfg
			}
		}
	})
	return rateLimitCache
}

func defaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled: true,
		Default: RateLimitRule{RequestsPerMinute: 60},
		Services: map[string]RateLimitRule{
			"auth":              {RequestsPerMinute: 20},
			"campaigns":         {RequestsPerMinute: 120},
			"content":           {RequestsPerMinute: 30},
			"briefing-enhancer": {RequestsPerMinute: 30},
		},
		Paths: map[string]RateLimitRule{
			"/api/auth/login": {RequestsPerMinute: 10},
		},
	}
}

func defaultChannelSpecs() []ChannelSpecRow {
	return []ChannelSpecRow{
		{Channel: "SMS", FieldName: "body", MinChars: 1, MaxChars: 160, Active: true},
		{Channel: "PUSH", FieldName: "title", MaxChars: 50, Active: true},
		{Channel: "PUSH", FieldName: "body", MaxChars: 150, Active: true},
		{Channel: "EMAIL", FieldName: "html", MaxWeightKB: 100, Active: true},
		{Channel: "EMAIL", FieldName: "rendered_image", MaxWeightKB: 500, Active: true},
		{Channel: "APP", FieldName: "image", MaxWeightKB: 1024, MinWidth: 300, MinHeight: 300,
			MaxWidth: 4096, MaxHeight: 4096, TolerancePct: 5, Active: true},
	}
}

func defaultBrandPalette() BrandPaletteConfig {
	return BrandPaletteConfig{
		ApprovedColors: []string{
			"#6b7fff", "#8b9fff",
			"#ffffff", "#f5f5f5", "#f8f9ff",
			"#333333", "#555555", "#666666", "#888888", "#999999", "#cccccc",
			"#000000", "#1a1a1a", "#2a2a2a", "#0a0a0a",
		},
		PrimaryColors:  []string{"#6b7fff", "#8b9fff"},
		ApprovedFonts:  []string{"arial", "helvetica", "sans-serif"},
		AllowedDomains: []string{"orqestra.com.br", "orqestra.ai", "orqestra.com"},
		ProhibitedShorteners: []string{
			"bit.ly", "bitly.com", "tinyurl.com", "tiny.cc", "goo.gl", "g.co",
			"t.co", "ow.ly", "is.gd", "buff.ly", "adf.ly", "j.mp",
		},
		AllowedBodyBackgrounds: []string{"#ffffff", "#f5f5f5", "#000000"},

		MinFontSizePx:       12,
		LogoMinHeightPx:     40,
		LogoMaxHeightPx:     80,
		MaxContainerWidthPx: 600,
		MaxRotationDeg:      2,
	}
}
