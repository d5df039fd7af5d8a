// Package brand implements the deterministic brand validator (spec
// §4.3 step 3b): HTML rule groups for Email pieces and dominant-color
// palette matching for App images. Grounded on
// branding-service/app/services/brand_validator.py and
// image_color_validator.py.
package brand

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/orqestra/campaign-platform/internal/config"
	"github.com/orqestra/campaign-platform/internal/models"
	"github.com/orqestra/campaign-platform/internal/validation"
)

// Validator runs the full brand rule set against Email HTML and App
// images. It implements validation.BrandValidator.
type Validator struct {
	palette config.BrandPaletteConfig
}

func NewValidator(palette config.BrandPaletteConfig) *Validator {
	return &Validator{palette: palette}
}

// Validate dispatches on channel: Email runs the HTML rule groups, App
// runs dominant-color palette matching, SMS/Push have no brand rules
// and are trivially compliant.
func (v *Validator) Validate(ctx context.Context, channel models.CreativePieceType, html, imageDataURL string) (*validation.BrandResult, error) {
	switch channel {
	case models.PieceEmail:
		return v.validateHTML(html), nil
	case models.PieceApp:
		return v.validateImage(imageDataURL), nil
	default:
		return &validation.BrandResult{Compliant: true, Score: 100}, nil
	}
}

var (
	hexColorRe    = regexp.MustCompile(`#[0-9a-fA-F]{3,6}`)
	rgbColorRe    = regexp.MustCompile(`rgba?\([^)]+\)`)
	rgbValuesRe   = regexp.MustCompile(`rgba?\((\d+),\s*(\d+),\s*(\d+)`)
	fontFamilyRe  = regexp.MustCompile(`(?i)font-family\s*:\s*([^;]+)`)
	fontSizeRe    = regexp.MustCompile(`(?i)font-size\s*:\s*(\d+)px`)
	logoClassRe   = regexp.MustCompile(`(?i)logo`)
	altOrqestraRe = regexp.MustCompile(`(?i)orqestra`)
	headerClassRe = regexp.MustCompile(`(?i)header`)
	containerRe   = regexp.MustCompile(`(?i)container|email-container`)
	ctaClassRe    = regexp.MustCompile(`(?i)cta|button`)
	ctaStyleRe    = regexp.MustCompile(`(?i)background`)
	footerClassRe = regexp.MustCompile(`(?i)footer`)
	heightStyleRe = regexp.MustCompile(`(?i)height\s*:\s*(\d+)px`)
	maxWidthRe    = regexp.MustCompile(`(?i)max-width\s*:\s*(\d+)px`)
	bgColorRe     = regexp.MustCompile(`(?i)background-color\s*:\s*([^;]+)`)
	bgAnyRe       = regexp.MustCompile(`(?i)background(?:-color)?\s*:\s*([^;]+)`)
	colorOnlyRe   = regexp.MustCompile(`(?i)(?:^|;)\s*color\s*:\s*([^;]+)`)
	keyframesRe   = regexp.MustCompile(`(?is)@keyframes.*blink`)
	textShadowRe  = regexp.MustCompile(`(?i)text-shadow\s*:\s*([^;]+)`)
	rotateRe      = regexp.MustCompile(`(?i)transform\s*:\s*rotate\(([^)]+)\)`)
	rotateAngleRe = regexp.MustCompile(`-?\d+`)
	lightGrayRe   = regexp.MustCompile(`(?i)#[ef][ef][ef][ef][ef][ef]`)
	httpDomainRe  = regexp.MustCompile(`(?i)https?://([^/:\s]+)`)
)

func (v *Validator) validateHTML(html string) *validation.BrandResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return &validation.BrandResult{
			Compliant: false,
			Violations: []validation.BrandViolation{{
				Rule: "invalid_html", Category: "html", Severity: "critical",
				Message: "HTML inválido ou corrompido: " + err.Error(),
			}},
			Summary: criticalSummary(),
		}
	}

	var violations []validation.BrandViolation
	allStyles := extractInlineStyles(doc) + "\n" + extractStyleTags(doc)

	violations = append(violations, v.checkColors(allStyles)...)
	violations = append(violations, v.checkFonts(allStyles)...)
	violations = append(violations, v.checkLogo(doc)...)
	violations = append(violations, v.checkLayout(doc)...)
	violations = append(violations, v.checkCTAs(doc)...)
	violations = append(violations, v.checkFooter(doc)...)
	violations = append(violations, v.checkLinks(doc)...)
	violations = append(violations, v.checkProhibited(allStyles)...)

	return report(violations)
}

func extractInlineStyles(doc *goquery.Document) string {
	var styles []string
	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("style"); ok {
			styles = append(styles, v)
		}
	})
	return strings.Join(styles, " ")
}

func extractStyleTags(doc *goquery.Document) string {
	var css []string
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		css = append(css, s.Text())
	})
	return strings.Join(css, "\n")
}

func normalizeColor(color string) string {
	c := strings.ToLower(strings.TrimSpace(color))
	if m := rgbValuesRe.FindStringSubmatch(c); m != nil {
		r, _ := strconv.Atoi(m[1])
		g, _ := strconv.Atoi(m[2])
		b, _ := strconv.Atoi(m[3])
		return rgbToHex(r, g, b)
	}
	if !strings.HasPrefix(c, "#") {
		c = "#" + c
	}
	if len(c) == 4 {
		c = "#" + string([]byte{c[1], c[1], c[2], c[2], c[3], c[3]})
	}
	return c
}

func extractColors(css string) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range hexColorRe.FindAllString(css, -1) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, c := range rgbColorRe.FindAllString(css, -1) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func (v *Validator) checkColors(css string) []validation.BrandViolation {
	var out []validation.BrandViolation
	approved := toSet(v.palette.ApprovedColors)
	primary := toSet(v.palette.PrimaryColors)

	hasPrimary := false
	for _, raw := range extractColors(css) {
		normalized := normalizeColor(raw)
		if !approved[normalized] && !lightGrayRe.MatchString(normalized) {
			out = append(out, validation.BrandViolation{
				Rule: "unapproved_color", Category: "colors", Severity: "critical",
				Value: raw, Message: "Cor " + raw + " não está na paleta aprovada da marca",
			})
		}
		if primary[normalized] {
			hasPrimary = true
		}
	}
	if !hasPrimary {
		out = append(out, validation.BrandViolation{
			Rule: "missing_primary_color", Category: "colors", Severity: "warning",
			Message: "Cor primária da marca não está presente",
		})
	}
	return out
}

func (v *Validator) checkFonts(css string) []validation.BrandViolation {
	var out []validation.BrandViolation
	approved := toSet(v.palette.ApprovedFonts)
	minSize := v.palette.MinFontSizePx
	if minSize <= 0 {
		minSize = 12
	}

	for _, m := range fontFamilyRe.FindAllStringSubmatch(css, -1) {
		raw := strings.TrimSpace(m[1])
		normalized := strings.ReplaceAll(strings.ReplaceAll(strings.ToLower(normalizeGroup(raw)), `"`, ""), "'", "")
		hasApproved := false
		for _, f := range strings.Split(normalized, ",") {
			if approved[strings.TrimSpace(f)] {
				hasApproved = true
				break
			}
		}
		if !hasApproved {
			out = append(out, validation.BrandViolation{
				Rule: "unapproved_font", Category: "typography", Severity: "critical",
				Value: raw, Message: "Fonte não aprovada: " + raw,
			})
		}
	}

	for _, m := range fontSizeRe.FindAllStringSubmatch(css, -1) {
		size, _ := strconv.Atoi(m[1])
		if size < minSize {
			out = append(out, validation.BrandViolation{
				Rule: "font_size_too_small", Category: "typography", Severity: "warning",
				Value: m[1] + "px", Message: "Tamanho de fonte muito pequeno: " + m[1] + "px",
			})
		}
	}
	return out
}

// normalizeGroup is a no-op hook kept distinct from strings.ToLower so
// future locale-specific font-name folding has a single seam.
func normalizeGroup(s string) string { return s }

func (v *Validator) checkLogo(doc *goquery.Document) []validation.BrandViolation {
	var candidates []*goquery.Selection
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		id, _ := s.Attr("id")
		alt, _ := s.Attr("alt")
		if logoClassRe.MatchString(class) || logoClassRe.MatchString(id) || altOrqestraRe.MatchString(alt) {
			candidates = append(candidates, s)
		}
	})
	doc.Find("header, div").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		if !headerClassRe.MatchString(class) {
			return
		}
		s.Find("img").Each(func(_ int, img *goquery.Selection) {
			candidates = append(candidates, img)
		})
	})

	if len(candidates) == 0 {
		return []validation.BrandViolation{{
			Rule: "missing_logo", Category: "logo", Severity: "critical",
			Message: "Logo da Orqestra não encontrado no email",
		}}
	}

	var out []validation.BrandViolation
	logo := candidates[0]
	style, _ := logo.Attr("style")
	heightAttr, _ := logo.Attr("height")

	var height int
	var hasHeight bool
	if heightAttr != "" {
		if h, err := strconv.Atoi(heightAttr); err == nil {
			height, hasHeight = h, true
		}
	} else if m := heightStyleRe.FindStringSubmatch(style); m != nil {
		h, _ := strconv.Atoi(m[1])
		height, hasHeight = h, true
	}

	minH, maxH := v.palette.LogoMinHeightPx, v.palette.LogoMaxHeightPx
	if minH <= 0 {
		minH = 40
	}
	if maxH <= 0 {
		maxH = 80
	}
	if hasHeight {
		if height < minH {
			out = append(out, validation.BrandViolation{
				Rule: "logo_too_small", Category: "logo", Severity: "warning",
				Value: strconv.Itoa(height) + "px", Message: "Logo muito pequeno",
			})
		} else if height > maxH {
			out = append(out, validation.BrandViolation{
				Rule: "logo_too_large", Category: "logo", Severity: "warning",
				Value: strconv.Itoa(height) + "px", Message: "Logo muito grande",
			})
		}
	}

	alt, _ := logo.Attr("alt")
	if !altOrqestraRe.MatchString(alt) {
		out = append(out, validation.BrandViolation{
			Rule: "missing_logo_alt_text", Category: "logo", Severity: "warning",
			Message: `Logo sem alt text "Orqestra" adequado`,
		})
	}
	return out
}

func (v *Validator) checkLayout(doc *goquery.Document) []validation.BrandViolation {
	var out []validation.BrandViolation

	var container *goquery.Selection
	doc.Find("div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if containerRe.MatchString(class) {
			container = s
			return false
		}
		return true
	})
	if container == nil {
		doc.Find("table").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if role, _ := s.Attr("role"); role == "presentation" {
				container = s
				return false
			}
			return true
		})
	}

	maxWidth := v.palette.MaxContainerWidthPx
	if maxWidth <= 0 {
		maxWidth = 600
	}
	if container != nil {
		style, _ := container.Attr("style")
		width := 0
		if m := maxWidthRe.FindStringSubmatch(style); m != nil {
			width, _ = strconv.Atoi(m[1])
		} else if wa, ok := container.Attr("width"); ok {
			width, _ = strconv.Atoi(wa)
		}
		if width > maxWidth {
			out = append(out, validation.BrandViolation{
				Rule: "container_too_wide", Category: "layout", Severity: "warning",
				Value: strconv.Itoa(width) + "px", Message: "Container muito largo",
			})
		}
	}

	body := doc.Find("body").First()
	if body.Length() > 0 {
		style, _ := body.Attr("style")
		if m := bgColorRe.FindStringSubmatch(style); m != nil {
			bg := normalizeColor(m[1])
			allowed := toSet(v.palette.AllowedBodyBackgrounds)
			if !allowed[bg] {
				out = append(out, validation.BrandViolation{
					Rule: "non_neutral_background", Category: "layout", Severity: "warning",
					Value: bg, Message: "Background do body deve ser neutro",
				})
			}
		}
	}
	return out
}

func (v *Validator) checkCTAs(doc *goquery.Document) []validation.BrandViolation {
	var out []validation.BrandViolation
	primary := toSet(v.palette.PrimaryColors)

	seen := map[*goquery.Selection]bool{}
	var ctas []*goquery.Selection
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		style, _ := s.Attr("style")
		if ctaClassRe.MatchString(class) || ctaStyleRe.MatchString(style) {
			if !seen[s] {
				seen[s] = true
				ctas = append(ctas, s)
			}
		}
	})

	for _, cta := range ctas {
		style, _ := cta.Attr("style")
		if m := bgAnyRe.FindStringSubmatch(style); m != nil {
			bgRaw := m[1]
			if !strings.Contains(strings.ToLower(bgRaw), "gradient") {
				bg := normalizeColor(bgRaw)
				if !primary[bg] {
					out = append(out, validation.BrandViolation{
						Rule: "cta_wrong_background_color", Category: "cta", Severity: "critical",
						Value: bg, Message: "CTA deve usar cor primária",
					})
				}
			}
		}
		if m := colorOnlyRe.FindStringSubmatch(style); m != nil {
			text := normalizeColor(m[1])
			if text != "#ffffff" && text != "#fff" {
				out = append(out, validation.BrandViolation{
					Rule: "cta_wrong_text_color", Category: "cta", Severity: "warning",
					Value: text, Message: "Texto do CTA deve ser branco",
				})
			}
		}
	}
	return out
}

func (v *Validator) checkFooter(doc *goquery.Document) []validation.BrandViolation {
	var footer *goquery.Selection
	doc.Find("footer, div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if footerClassRe.MatchString(class) {
			footer = s
			return false
		}
		return true
	})
	if footer == nil {
		divs := doc.Find("div[class]")
		if divs.Length() > 0 {
			footer = divs.Last()
		}
	}
	if footer == nil {
		return []validation.BrandViolation{{
			Rule: "missing_footer", Category: "footer", Severity: "critical",
			Message: "Footer não encontrado",
		}}
	}

	text := strings.ToLower(footer.Text())
	hasCopyright := strings.Contains(footer.Text(), "©") && strings.Contains(text, "orqestra")
	if !hasCopyright {
		return []validation.BrandViolation{{
			Rule: "missing_copyright", Category: "footer", Severity: "warning",
			Message: `Copyright com "© Orqestra" não encontrado no footer`,
		}}
	}
	return nil
}

func (v *Validator) checkLinks(doc *goquery.Document) []validation.BrandViolation {
	var out []validation.BrandViolation
	allowed := v.palette.AllowedDomains
	shorteners := v.palette.ProhibitedShorteners

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		lower := strings.ToLower(href)
		if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") ||
			strings.HasPrefix(lower, "#") || strings.HasPrefix(lower, "javascript:") {
			return
		}
		if strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//") {
			return
		}
		if strings.HasPrefix(lower, "//") {
			href = "https:" + href
			lower = strings.ToLower(href)
		}

		m := httpDomainRe.FindStringSubmatch(lower)
		if m == nil {
			return
		}
		domain := m[1]

		for _, shortener := range shorteners {
			if strings.Contains(domain, shortener) || strings.Contains(shortener, domain) {
				out = append(out, validation.BrandViolation{
					Rule: "prohibited_url_shortener", Category: "links", Severity: "critical",
					Value: truncate(href, 100), Message: "Encurtador de URL proibido: " + shortener,
				})
				return
			}
		}
		isAllowed := false
		for _, d := range allowed {
			if strings.Contains(domain, d) {
				isAllowed = true
				break
			}
		}
		if !isAllowed {
			out = append(out, validation.BrandViolation{
				Rule: "unapproved_link_domain", Category: "links", Severity: "critical",
				Value: truncate(href, 100), Message: "Link aponta para domínio não aprovado: " + domain,
			})
		}
	})
	return out
}

func (v *Validator) checkProhibited(css string) []validation.BrandViolation {
	var out []validation.BrandViolation

	if keyframesRe.MatchString(css) {
		out = append(out, validation.BrandViolation{
			Rule: "prohibited_blink_animation", Category: "prohibited", Severity: "critical",
			Message: `Animações "blink" são proibidas`,
		})
	}

	for _, m := range textShadowRe.FindAllStringSubmatch(css, -1) {
		shadow := strings.TrimSpace(m[1])
		if shadow != "none" && shadow != "0" && shadow != "0px" {
			out = append(out, validation.BrandViolation{
				Rule: "prohibited_text_shadow", Category: "prohibited", Severity: "warning",
				Message: "Text-shadow excessivo não é permitido",
			})
		}
	}

	maxRotation := v.palette.MaxRotationDeg
	if maxRotation <= 0 {
		maxRotation = 2
	}
	for _, m := range rotateRe.FindAllStringSubmatch(css, -1) {
		angleStr := rotateAngleRe.FindString(m[1])
		if angleStr == "" {
			continue
		}
		angle, _ := strconv.Atoi(angleStr)
		if angle < 0 {
			angle = -angle
		}
		if angle > maxRotation {
			out = append(out, validation.BrandViolation{
				Rule: "prohibited_rotation", Category: "prohibited", Severity: "warning",
				Value: strconv.Itoa(angle) + "deg", Message: "Rotação excessiva detectada",
			})
		}
	}
	return out
}

func report(violations []validation.BrandViolation) *validation.BrandResult {
	res := &validation.BrandResult{Violations: violations}
	for _, v := range violations {
		switch v.Severity {
		case "critical":
			res.Summary.Critical++
		case "warning":
			res.Summary.Warning++
		default:
			res.Summary.Info++
		}
	}
	res.Summary.Total = len(violations)
	score := 100 - res.Summary.Critical*20 - res.Summary.Warning*5 - res.Summary.Info
	if score < 0 {
		score = 0
	}
	res.Score = score
	res.Compliant = res.Summary.Critical == 0 && res.Summary.Warning == 0
	return res
}

func criticalSummary() struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
	Total    int `json:"total"`
} {
	return struct {
		Critical int `json:"critical"`
		Warning  int `json:"warning"`
		Info     int `json:"info"`
		Total    int `json:"total"`
	}{Critical: 1, Total: 1}
}

func rgbToHex(r, g, b int) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 7)
	buf[0] = '#'
	buf[1], buf[2] = hexDigits[r>>4], hexDigits[r&0xf]
	buf[3], buf[4] = hexDigits[g>>4], hexDigits[g&0xf]
	buf[5], buf[6] = hexDigits[b>>4], hexDigits[b&0xf]
	return string(buf)
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[strings.ToLower(it)] = true
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
