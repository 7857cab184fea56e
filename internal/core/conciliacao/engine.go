package conciliacao

import (
	"math"

	"conciliacao-service/internal/domain"
)

// ToleranciaPadrao é a tolerância sugerida para considerar dois valores
// iguais. O valor correto varia por operação, então a tolerância é sempre
// um parâmetro do cruzamento, nunca uma constante interna.
const ToleranciaPadrao = 0.01

// CruzarTotais faz a junção externa completa dos totais dos dois lados e
// classifica cada OS. Cada lado já chega pré-agregado a no máximo um total
// por chave, então a saída tem exatamente uma linha por chave presente em
// qualquer um dos lados: primeiro as chaves do extrato na ordem de entrada,
// depois as exclusivas do caixa na ordem de entrada.
func CruzarTotais(extrato, caixa []domain.TotalPorOS, tolerancia float64) []domain.LinhaConciliada {
	porChaveCaixa := make(map[chaveAgrupamento]domain.TotalPorOS, len(caixa))
	for _, t := range caixa {
		porChaveCaixa[chaveAgrupamento{os: t.OS, grupo: t.Grupo}] = t
	}

	linhas := make([]domain.LinhaConciliada, 0, len(extrato)+len(caixa))
	vistas := make(map[chaveAgrupamento]bool, len(extrato))

	for _, ref := range extrato {
		chave := chaveAgrupamento{os: ref.OS, grupo: ref.Grupo}
		vistas[chave] = true

		atual, noCaixa := porChaveCaixa[chave]
		linhas = append(linhas, classificar(ref.OS, ref.Grupo, ref.ValorTotal, atual.ValorTotal, true, noCaixa, tolerancia))
	}

	for _, atual := range caixa {
		chave := chaveAgrupamento{os: atual.OS, grupo: atual.Grupo}
		if vistas[chave] {
			continue
		}
		linhas = append(linhas, classificar(atual.OS, atual.Grupo, 0, atual.ValorTotal, false, true, tolerancia))
	}

	return linhas
}

// classificar aplica a tabela de status na ordem de prioridade: conferido,
// faltante no caixa, sobra no caixa, divergente. Comparações de valor usam
// sempre |diferença| <= tolerância, nunca igualdade exata.
func classificar(os, grupo string, valorExtrato, valorCaixa float64, noExtrato, noCaixa bool, tolerancia float64) domain.LinhaConciliada {
	diferenca := mathRound(valorCaixa-valorExtrato, 2)

	var status domain.StatusConciliacao
	switch {
	case noExtrato && noCaixa && math.Abs(diferenca) <= tolerancia:
		status = domain.StatusConferido
	case noExtrato && !noCaixa:
		status = domain.StatusFaltanteNoCaixa
	case !noExtrato && noCaixa:
		status = domain.StatusSobraNoCaixa
	default:
		status = domain.StatusDivergente
	}

	return domain.LinhaConciliada{
		OS:           os,
		Grupo:        grupo,
		ValorExtrato: valorExtrato,
		ValorCaixa:   valorCaixa,
		Diferenca:    diferenca,
		Status:       status,
	}
}

// CalcularTotais soma os valores de todas as linhas conciliadas para as
// métricas de cabeçalho do relatório.
func CalcularTotais(linhas []domain.LinhaConciliada) domain.TotaisConciliacao {
	var totais domain.TotaisConciliacao
	for _, l := range linhas {
		totais.TotalExtrato += l.ValorExtrato
		totais.TotalCaixa += l.ValorCaixa
	}
	totais.TotalExtrato = mathRound(totais.TotalExtrato, 2)
	totais.TotalCaixa = mathRound(totais.TotalCaixa, 2)
	totais.DiferencaTotal = mathRound(totais.TotalCaixa-totais.TotalExtrato, 2)
	return totais
}
