package invoice

import (
	"strings"
	"unicode/utf8"
)

// maxPromptText caps the invoice text sent to the model.
const maxPromptText = 12000

const promptHeader = `Você é um especialista em extração de dados de notas fiscais brasileiras.

Analise o texto da nota fiscal abaixo e extraia EXATAMENTE as seguintes informações em formato JSON:

{
    "fornecedor": {
        "razao_social": "string",
        "fantasia": "string ou null",
        "cnpj": "string (formato XX.XXX.XXX/XXXX-XX)"
    },
    "faturado": {
        "nome_completo": "string",
        "cpf": "string (formato XXX.XXX.XXX-XX)"
    },
    "numero_nota_fiscal": "string",
    "data_emissao": "string (formato YYYY-MM-DD)",
    "descricao_produtos": "string (descrição detalhada de todos os produtos/serviços)",
    "valor_total": "number (valor decimal)",
    "data_vencimento": "string (formato YYYY-MM-DD)",
    "quantidade_parcelas": 1
}

REGRAS IMPORTANTES:
1. Se algum campo não for encontrado, use null
2. Para datas, converta para o formato YYYY-MM-DD
3. Para valores monetários, use apenas números (sem símbolos)
4. Para CNPJ e CPF, mantenha a formatação com pontos e traços
5. Na descrição dos produtos, inclua TODOS os itens listados na nota

Texto da nota fiscal:
`

// BuildPrompt renders the extraction prompt for the given invoice text.
func BuildPrompt(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > maxPromptText {
		cut := maxPromptText
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	var b strings.Builder
	b.Grow(len(promptHeader) + len(text) + 64)
	b.WriteString(promptHeader)
	b.WriteString(text)
	b.WriteString("\n\nResponda APENAS com o JSON válido:")
	return b.String()
}
