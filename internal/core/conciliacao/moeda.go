package conciliacao

import (
	"strconv"
	"strings"
)

// ParseValorBR converte um valor monetário em texto (formato brasileiro ou
// anglo) para float64. Função total: qualquer entrada ilegível resulta em 0.
func ParseValorBR(val string) float64 {
	f, _ := parseValorBR(val)
	return f
}

// parseValorBR é a variante usada pelo normalizador: além do valor, informa
// se a entrada era legível. Vazio e traços de preenchimento contam como
// zeros legítimos; texto sem dígito algum ou com formato irrecuperável não.
func parseValorBR(val string) (float64, bool) {
	s := strings.TrimSpace(val)
	if s == "" || s == "-" || s == "–" || s == "—" {
		return 0.0, true
	}

	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0.0, true
	}

	if !strings.ContainsAny(s, "0123456789") {
		return 0.0, false
	}

	// tratar sinais/parenteses
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimPrefix(strings.TrimSuffix(s, ")"), "(")
	}
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimPrefix(s, "-")
	}
	s = strings.TrimPrefix(s, "+")

	// localizar última ocorrência de . e , para decidir formato
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	if lastComma > lastDot {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else if lastDot > lastComma {
		if strings.Count(s, ".") > 1 {
			parts := strings.Split(s, ".")
			decimalPart := parts[len(parts)-1]
			intPart := strings.Join(parts[:len(parts)-1], "")
			s = intPart + "." + decimalPart
		}
	}

	// neste ponto só devem restar dígitos, ponto decimal e vírgula de
	// milhar (formato anglo); qualquer outro caractere invalida a entrada
	// em vez de ser descartado silenciosamente, senão datas e códigos como
	// "12/05/2024" virariam valores enormes
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != ',' {
			return 0.0, false
		}
	}
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0.0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0, false
	}
	if neg {
		f = -f
	}
	return mathRound(f, 2), true
}

func mathRound(val float64, precision int) float64 {
	pow := 1.0
	for i := 0; i < precision; i++ {
		pow *= 10
	}
	if val >= 0 {
		return float64(int64(val*pow+0.5)) / pow
	}
	return float64(int64(val*pow-0.5)) / pow
}

func formatTwoDecimalsComma(val float64) string {
	return strings.Replace(strconv.FormatFloat(val, 'f', 2, 64), ".", ",", 1)
}
