package validation

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/orqestra/campaign-platform/internal/config"
	"github.com/orqestra/campaign-platform/internal/models"
)

// SpecRow is a (channel, commercial_space, field) spec row, aliasing the
// config package's YAML row shape so both the local-fallback loader and
// the external-tool response share one type (spec §4.3 step 3a).
type SpecRow = config.ChannelSpecRow

// specsInput is what validateSpecs needs; it is built by nodes.go from
// the Submission plus whatever retrieveContent resolved.
type specsInput struct {
	Channel         models.CreativePieceType
	CommercialSpace string
	Body            string
	Title           string
	HTML            string
	ImageDataURL    string
}

// validateSpecs is the deterministic specs validator (spec §4.3 step
// 3a), grounded on content-validation-service/app/core/validators.py's
// per-channel checks and exact default thresholds.
func validateSpecs(in specsInput, rows []SpecRow) *SpecsResult {
	switch in.Channel {
	case models.PieceSMS:
		return validateSMSSpecs(in.Body, rows)
	case models.PiecePush:
		return validatePushSpecs(in.Title, in.Body, rows)
	case models.PieceEmail:
		return validateEmailSpecs(in.HTML, rows)
	case models.PieceApp:
		return validateAppSpecs(in.ImageDataURL, in.CommercialSpace, rows)
	default:
		return &SpecsResult{Valid: false, Errors: []string{fmt.Sprintf("unknown channel %q", in.Channel)}}
	}
}

func findRow(rows []SpecRow, channel, field string) (SpecRow, bool) {
	for _, r := range rows {
		if strings.EqualFold(r.Channel, channel) && r.FieldName == field && r.Active {
			return r, true
		}
	}
	return SpecRow{}, false
}

func findRowForSpace(rows []SpecRow, channel, field, commercialSpace string) (SpecRow, bool) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(commercialSpace), " ", "_"))
	if norm != "" {
		for _, r := range rows {
			if strings.EqualFold(r.Channel, channel) && r.FieldName == field && r.Active &&
				strings.ToLower(strings.ReplaceAll(r.CommercialSpace, " ", "_")) == norm {
				return r, true
			}
		}
	}
	return findRow(rows, channel, field)
}

func validateSMSSpecs(body string, rows []SpecRow) *SpecsResult {
	row, ok := findRow(rows, "SMS", "body")
	minChars, maxChars := 1, 160
	if ok {
		if row.MinChars > 0 {
			minChars = row.MinChars
		}
		if row.MaxChars > 0 {
			maxChars = row.MaxChars
		}
	}
	res := &SpecsResult{Valid: true, Details: map[string]any{"length": len([]rune(body))}}
	n := len([]rune(body))
	if n < minChars {
		res.Valid = false
		res.Errors = append(res.Errors, fmt.Sprintf("SMS vazio. Mínimo: %d caractere(s).", minChars))
	}
	if n > maxChars {
		res.Valid = false
		res.Errors = append(res.Errors, fmt.Sprintf("SMS excede o limite de %d caracteres.", maxChars))
	}
	return res
}

func validatePushSpecs(title, body string, rows []SpecRow) *SpecsResult {
	titleRow, _ := findRow(rows, "PUSH", "title")
	bodyRow, _ := findRow(rows, "PUSH", "body")
	maxTitle, maxBody := 50, 150
	if titleRow.MaxChars > 0 {
		maxTitle = titleRow.MaxChars
	}
	if bodyRow.MaxChars > 0 {
		maxBody = bodyRow.MaxChars
	}

	res := &SpecsResult{Valid: true, Details: map[string]any{
		"title_length": len([]rune(title)), "body_length": len([]rune(body)),
	}}
	if len([]rune(title)) > maxTitle {
		res.Valid = false
		res.Errors = append(res.Errors, fmt.Sprintf("Título excede %d caracteres e pode ser truncado em dispositivos móveis.", maxTitle))
	}
	if len([]rune(body)) > maxBody {
		res.Valid = false
		res.Errors = append(res.Errors, fmt.Sprintf("Corpo excede %d caracteres e pode ser truncado em dispositivos móveis.", maxBody))
	}
	return res
}

func validateEmailSpecs(html string, rows []SpecRow) *SpecsResult {
	htmlRow, _ := findRow(rows, "EMAIL", "html")
	imgRow, _ := findRow(rows, "EMAIL", "rendered_image")
	maxHTMLKB, maxImgKB := 100.0, 500.0
	if htmlRow.MaxWeightKB > 0 {
		maxHTMLKB = htmlRow.MaxWeightKB
	}
	if imgRow.MaxWeightKB > 0 {
		maxImgKB = imgRow.MaxWeightKB
	}
	weightKB := float64(len(html)) / 1024.0

	res := &SpecsResult{Valid: true, Details: map[string]any{"html_weight_kb": weightKB}}
	if weightKB > maxHTMLKB {
		res.Valid = false
		res.Errors = append(res.Errors, fmt.Sprintf("HTML pesa %.1f KB, acima do limite de %.0f KB (Gmail corta em ~102 KB).", weightKB, maxHTMLKB))
	}
	_ = maxImgKB // rendered-image weight is a warning-only check, applied when the render is available (nodes.go)
	return res
}

func validateAppSpecs(dataURL, commercialSpace string, rows []SpecRow) *SpecsResult {
	res := &SpecsResult{Valid: true, Details: map[string]any{}}

	raw, err := decodeDataURLImage(dataURL)
	if err != nil {
		res.Valid = false
		res.Errors = append(res.Errors, "imagem inválida ou corrompida")
		return res
	}

	row, hasSpaceSpec := findRowForSpace(rows, "APP", "image", commercialSpace)
	maxWeightKB := 1024.0
	if row.MaxWeightKB > 0 {
		maxWeightKB = row.MaxWeightKB
	}
	weightKB := float64(len(raw)) / 1024.0
	res.Details["weight_kb"] = weightKB
	if weightKB > maxWeightKB {
		res.Valid = false
		res.Errors = append(res.Errors, fmt.Sprintf("Imagem pesa %.1f KB, acima do limite de %.0f KB.", weightKB, maxWeightKB))
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		res.Valid = false
		res.Errors = append(res.Errors, "não foi possível ler as dimensões da imagem")
		return res
	}
	res.Details["width"] = cfg.Width
	res.Details["height"] = cfg.Height

	if hasSpaceSpec && row.ExpectedWidth > 0 && row.ExpectedHeight > 0 {
		tol := row.TolerancePct
		if tol <= 0 {
			tol = 5
		}
		if !withinTolerance(cfg.Width, row.ExpectedWidth, tol) || !withinTolerance(cfg.Height, row.ExpectedHeight, tol) {
			res.Valid = false
			res.Errors = append(res.Errors, fmt.Sprintf(
				"Dimensões %dx%d fora da tolerância de %.0f%% para %dx%d esperado.",
				cfg.Width, cfg.Height, tol, row.ExpectedWidth, row.ExpectedHeight))
		}
		return res
	}

	minW, minH, maxW, maxH := 300, 300, 4096, 4096
	if row.MinWidth > 0 {
		minW = row.MinWidth
	}
	if row.MinHeight > 0 {
		minH = row.MinHeight
	}
	if row.MaxWidth > 0 {
		maxW = row.MaxWidth
	}
	if row.MaxHeight > 0 {
		maxH = row.MaxHeight
	}
	if cfg.Width < minW || cfg.Height < minH || cfg.Width > maxW || cfg.Height > maxH {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"Sem espaço comercial específico: dimensões %dx%d fora da faixa genérica %dx%d–%dx%d.",
			cfg.Width, cfg.Height, minW, minH, maxW, maxH))
	}
	return res
}

func withinTolerance(actual, expected int, tolerancePct float64) bool {
	if expected == 0 {
		return actual == 0
	}
	delta := float64(actual-expected) / float64(expected) * 100
	if delta < 0 {
		delta = -delta
	}
	return delta <= tolerancePct
}

// decodeDataURLImage decodes a data: URL image payload, grounded on
// content-validation-service's _is_data_url_image/_decode_image_bytes.
func decodeDataURLImage(dataURL string) ([]byte, error) {
	idx := strings.Index(dataURL, "base64,")
	payload := dataURL
	if idx >= 0 {
		payload = dataURL[idx+len("base64,"):]
	}
	return base64.StdEncoding.DecodeString(payload)
}
