package legal

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func testAgent() *Agent {
	docs := []Chunk{
		{Text: "É proibido prometer garantia de retorno financeiro em qualquer comunicação de crédito.", SourceFile: "res_4658.txt", Section: "SMS:juros"},
		{Text: "Toda comunicação deve identificar claramente a instituição remetente Orqestra.", SourceFile: "manual_compliance.txt", Section: "GENERAL:identificacao"},
		{Text: "Comunicações de PUSH devem manter linguagem direta sem omitir condições contratuais.", SourceFile: "manual_compliance.txt", Section: "PUSH:condicoes"},
	}
	return NewAgent(NewInMemoryRetriever(docs), NewHeuristicLLMClient(), NewCache(nil, zerolog.Nop()), zerolog.Nop())
}

func TestAgent_Validate_RejectsProhibitedPromise(t *testing.T) {
	a := testAgent()
	res, err := a.Validate(context.Background(), "analyze_piece", "SMS", "Garantia de retorno financeiro de 20% ao mês, sem risco.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision != "REPROVADO" || !res.RequiresHuman {
		t.Fatalf("expected REPROVADO with human review, got %+v", res)
	}
}

func TestAgent_Validate_ApprovesWithGrounding(t *testing.T) {
	a := testAgent()
	res, err := a.Validate(context.Background(), "analyze_piece", "PUSH", "Orqestra: sua fatura já está disponível no app, confira as condições contratuais.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision != "APROVADO" {
		t.Fatalf("expected APROVADO, got %+v", res)
	}
	if len(res.Sources) == 0 {
		t.Fatal("expected sources to be populated from retrieved chunks")
	}
}

func TestAgent_Validate_RejectsWhenNoGrounding(t *testing.T) {
	a := testAgent()
	res, err := a.Validate(context.Background(), "analyze_piece", "EMAIL", "Texto totalmente fora do escopo normativo indexado, xyzxyzxyz.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision != "REPROVADO" || !res.RequiresHuman {
		t.Fatalf("expected REPROVADO requiring human review when no context is found, got %+v", res)
	}
}
