package conciliacao

import (
	"regexp"
	"strings"
)

// PoliticaOS seleciona a estratégia de extração da chave de OS a partir do
// campo livre de nome/descrição. Fontes diferentes usam convenções
// diferentes, então a política é escolhida por invocação.
type PoliticaOS string

const (
	// PoliticaPadrao procura o padrão numérico ddd-dddd..dddddd-d..ddd em
	// qualquer posição do texto; sem ocorrência, a extração falha.
	PoliticaPadrao PoliticaOS = "padrao"
	// PoliticaPrefixo toma a sequência máxima de dígitos e hífens ancorada
	// no início do texto; sem sequência, o próprio texto vira a chave.
	PoliticaPrefixo PoliticaOS = "prefixo"
)

var padraoOSRegex = regexp.MustCompile(`\d{3}-\d{4,6}-\d{1,3}`)

// ExtrairOS extrai a chave de OS do texto segundo a política escolhida.
// ok=false sinaliza falha de extração (apenas possível na política padrão,
// ou quando o texto é vazio) e leva à exclusão da linha na normalização.
func ExtrairOS(texto string, politica PoliticaOS) (string, bool) {
	t := strings.TrimSpace(texto)
	if t == "" {
		return "", false
	}

	switch politica {
	case PoliticaPrefixo:
		fim := 0
		for fim < len(t) {
			c := t[fim]
			if (c < '0' || c > '9') && c != '-' {
				break
			}
			fim++
		}
		chave := strings.TrimRight(t[:fim], "-")
		if chave == "" {
			return t, true
		}
		return chave, true
	default:
		if m := padraoOSRegex.FindString(t); m != "" {
			return m, true
		}
		return "", false
	}
}
