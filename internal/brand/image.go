package brand

import (
	"bytes"
	"encoding/base64"
	image2 "image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/image/draw"

	"github.com/orqestra/campaign-platform/internal/validation"
)

const (
	colorTolerance = 25
	dominantCount  = 8
	quantizeStep   = 16
	sampleSize     = 80
)

var dataURLPayloadRe = regexp.MustCompile(`base64\s*,\s*([A-Za-z0-9+/=]+)`)

// validateImage scores an App image's dominant colors against the
// approved palette, grounded on image_color_validator.py.
func (v *Validator) validateImage(dataURL string) *validation.BrandResult {
	raw, err := decodeDataURL(dataURL)
	if err != nil {
		return &validation.BrandResult{
			Compliant: false,
			Violations: []validation.BrandViolation{{
				Rule: "invalid_image", Category: "image", Severity: "critical",
				Message: "Imagem inválida ou corrompida: " + err.Error(),
			}},
			Summary: criticalSummary(),
		}
	}

	img, _, err := image2.Decode(bytes.NewReader(raw))
	if err != nil {
		return &validation.BrandResult{
			Compliant: false,
			Violations: []validation.BrandViolation{{
				Rule: "invalid_image", Category: "image", Severity: "critical",
				Message: "Imagem inválida ou corrompida: " + err.Error(),
			}},
			Summary: criticalSummary(),
		}
	}

	dominant := extractDominantColors(img)
	approved := toSet(v.palette.ApprovedColors)
	primary := toSet(v.palette.PrimaryColors)

	var violations []validation.BrandViolation
	hasPrimary := false
	for _, dc := range dominant {
		if isPrimaryColor(dc.hex, primary) {
			hasPrimary = true
		}
		if isBackgroundNeutral(dc.hex) {
			continue
		}
		if !colorInPalette(dc.hex, approved) {
			violations = append(violations, validation.BrandViolation{
				Rule: "unapproved_color", Category: "colors", Severity: "critical",
				Value: dc.hex, Message: "Cor " + dc.hex + " não está na paleta aprovada da marca",
			})
		}
	}
	if !hasPrimary && len(dominant) > 0 {
		violations = append(violations, validation.BrandViolation{
			Rule: "missing_primary_color", Category: "colors", Severity: "warning",
			Message: "Cor primária da marca não detectada nas cores principais",
		})
	}

	return report(violations)
}

type colorCount struct {
	hex   string
	count int
}

// extractDominantColors resizes the image to a small sample grid,
// quantizes into coarse buckets, and returns the most frequent buckets
// as hex colors — a cheap stand-in for a full k-means palette extraction.
func extractDominantColors(img image2.Image) []colorCount {
	dst := image2.NewRGBA(image2.Rect(0, 0, sampleSize, sampleSize))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	counts := map[[3]int]int{}
	for y := 0; y < sampleSize; y++ {
		for x := 0; x < sampleSize; x++ {
			r, g, b, _ := dst.At(x, y).RGBA()
			bucket := [3]int{
				quantize(int(r >> 8)),
				quantize(int(g >> 8)),
				quantize(int(b >> 8)),
			}
			counts[bucket]++
		}
	}

	var flat []colorCount
	for bucket, n := range counts {
		r := min255(bucket[0] + 8)
		g := min255(bucket[1] + 8)
		b := min255(bucket[2] + 8)
		flat = append(flat, colorCount{hex: rgbToHex(r, g, b), count: n})
	}
	sort.Slice(flat, func(i, j int) bool { return flat[i].count > flat[j].count })
	if len(flat) > dominantCount {
		flat = flat[:dominantCount]
	}
	return flat
}

func quantize(c int) int { return (c / quantizeStep) * quantizeStep }
func min255(c int) int {
	if c > 255 {
		return 255
	}
	return c
}

func colorDistance(a, b string) int {
	ar, ag, ab := hexToRGB(a)
	br, bg, bb := hexToRGB(b)
	return absInt(ar-br) + absInt(ag-bg) + absInt(ab-bb)
}

func hexToRGB(hex string) (int, int, int) {
	h := strings.TrimPrefix(normalizeColor(hex), "#")
	if len(h) != 6 {
		return 0, 0, 0
	}
	r, _ := strconv.ParseInt(h[0:2], 16, 0)
	g, _ := strconv.ParseInt(h[2:4], 16, 0)
	b, _ := strconv.ParseInt(h[4:6], 16, 0)
	return int(r), int(g), int(b)
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func colorInPalette(hex string, approved map[string]bool) bool {
	normalized := normalizeColor(hex)
	if approved[normalized] {
		return true
	}
	for a := range approved {
		if colorDistance(normalized, a) <= 40 {
			return true
		}
	}
	return false
}

func isPrimaryColor(hex string, primary map[string]bool) bool {
	normalized := normalizeColor(hex)
	for p := range primary {
		if colorDistance(normalized, p) <= 50 {
			return true
		}
	}
	return false
}

func isBackgroundNeutral(hex string) bool {
	switch normalizeColor(hex) {
	case "#ffffff", "#fff", "#fefefe", "#f5f5f5", "#f8f9ff",
		"#000000", "#000", "#0a0a0a", "#1a1a1a":
		return true
	default:
		return false
	}
}

func decodeDataURL(input string) ([]byte, error) {
	input = strings.TrimSpace(input)
	payload := input
	if strings.HasPrefix(input, "data:") {
		m := dataURLPayloadRe.FindStringSubmatch(input)
		if m == nil {
			return nil, errInvalidDataURL
		}
		payload = m[1]
	}
	return base64.StdEncoding.DecodeString(payload)
}

var errInvalidDataURL = dataURLError("data URL inválida: base64 não encontrado")

type dataURLError string

func (e dataURLError) Error() string { return string(e) }
