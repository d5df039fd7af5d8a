package brand

import (
	"context"
	"testing"

	"github.com/orqestra/campaign-platform/internal/config"
	"github.com/orqestra/campaign-platform/internal/models"
)

func testValidator() *Validator {
	return NewValidator(config.LoadBrandPalette())
}

func TestValidator_Email_CompliantHappyPath(t *testing.T) {
	html := `<html><body style="background-color:#ffffff;">
	<div class="email-container" style="max-width:600px;">
	<div class="header"><img class="logo" alt="Orqestra" height="60"></div>
	<p style="font-family: Arial; font-size: 14px;">Olá!</p>
	<a class="cta" style="background:#6b7fff;color:#ffffff;" href="https://orqestra.com.br/oferta">Ver oferta</a>
	<div class="footer">© Orqestra 2026</div>
	</div></body></html>`

	res, err := testValidator().Validate(context.Background(), models.PieceEmail, html, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Compliant {
		t.Fatalf("expected compliant, got violations: %+v", res.Violations)
	}
	if res.Score != 100 {
		t.Fatalf("expected score 100, got %d", res.Score)
	}
}

func TestValidator_Email_MissingLogoIsCritical(t *testing.T) {
	html := `<html><body style="background-color:#ffffff;">
	<div class="email-container" style="max-width:600px;">
	<p style="font-family: Arial; font-size: 14px;">Olá!</p>
	<div class="footer">© Orqestra 2026</div>
	</div></body></html>`

	res, err := testValidator().Validate(context.Background(), models.PieceEmail, html, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Compliant {
		t.Fatal("expected non-compliant result due to missing logo")
	}
	found := false
	for _, v := range res.Violations {
		if v.Rule == "missing_logo" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected missing_logo violation, got %+v", res.Violations)
	}
}

func TestValidator_Email_ProhibitedShortenerLink(t *testing.T) {
	html := `<html><body style="background-color:#ffffff;">
	<div class="email-container" style="max-width:600px;">
	<div class="header"><img class="logo" alt="Orqestra" height="60"></div>
	<a href="https://bit.ly/abc123">clique aqui</a>
	<div class="footer">© Orqestra 2026</div>
	</div></body></html>`

	res, _ := testValidator().Validate(context.Background(), models.PieceEmail, html, "")
	if res.Compliant {
		t.Fatal("expected non-compliant result due to shortener link")
	}
	found := false
	for _, v := range res.Violations {
		if v.Rule == "prohibited_url_shortener" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected prohibited_url_shortener violation, got %+v", res.Violations)
	}
}

func TestValidator_SMSAndPush_AlwaysCompliant(t *testing.T) {
	v := testValidator()
	for _, ch := range []models.CreativePieceType{models.PieceSMS, models.PiecePush} {
		res, err := v.Validate(context.Background(), ch, "", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Compliant || res.Score != 100 {
			t.Fatalf("expected trivially compliant result for %s, got %+v", ch, res)
		}
	}
}

func TestValidator_App_InvalidImage(t *testing.T) {
	res, err := testValidator().Validate(context.Background(), models.PieceApp, "", "not-a-data-url")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Compliant {
		t.Fatal("expected non-compliant result for invalid image payload")
	}
}
