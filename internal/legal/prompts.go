package legal

import "strings"

// rejectionCriteria is the fixed list of disqualifying patterns
// generate_node embeds in its prompt (nodes.py), translated rather than
// quoted verbatim.
var rejectionCriteria = []string{
	"Promessa de garantia de resultado financeiro ou de crédito aprovado",
	"Ausência de identificação clara do remetente (Orqestra ou instituição parceira)",
	"Omissão de informação obrigatória prevista em regulação (CET, taxas, prazos)",
	"Linguagem coercitiva ou que induza decisão sem tempo de reflexão adequado",
	"Referência a produto ou condição não amparada pela documentação normativa",
}

// systemPrompt builds the fixed instruction header for the generate
// step, parameterized by channel so PUSH/SMS get the terser tone
// reminder retrieve_node's channel-aware query building implies.
func systemPrompt(channel string) string {
	var b strings.Builder
	b.WriteString("Você é um analista jurídico responsável por aprovar ou reprovar peças de comunicação de uma instituição financeira antes do envio ao cliente.\n")
	b.WriteString("Avalie o conteúdo abaixo exclusivamente com base no contexto normativo fornecido. Nunca aprove um conteúdo sem base documental.\n")
	b.WriteString("Critérios que obrigam reprovação:\n")
	for _, c := range rejectionCriteria {
		b.WriteString("- " + c + "\n")
	}
	b.WriteString("Canal avaliado: " + channel + ".\n")
	b.WriteString("Responda apenas com os campos decision, requires_human_review, summary e sources.")
	return b.String()
}

// userPrompt assembles the retrieved context and the content under
// review into the generate step's human turn.
func userPrompt(content string, chunks []Chunk) string {
	var b strings.Builder
	b.WriteString("Contexto normativo recuperado:\n")
	if len(chunks) == 0 {
		b.WriteString("(nenhum trecho normativo encontrado)\n")
	}
	for i, c := range chunks {
		b.WriteString("[")
		b.WriteString(itoa(i + 1))
		b.WriteString("] (" + c.SourceFile + ", " + c.Section + ")\n")
		b.WriteString(c.Text)
		b.WriteString("\n\n")
	}
	b.WriteString("Conteúdo a ser avaliado:\n")
	b.WriteString(content)
	return b.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
