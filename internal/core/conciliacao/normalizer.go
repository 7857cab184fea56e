package conciliacao

import (
	"fmt"
	"strings"

	"conciliacao-service/internal/domain"
)

// NormalizarTabela transforma uma tabela bruta em registros canônicos,
// aplicando o parser de moeda e o extrator de OS. É um filter-map que
// preserva a ordem das linhas: linhas sem chave resolvível ou com valor
// zero são descartadas em silêncio e apenas contadas no diagnóstico.
// A única falha possível é estrutural (coluna de chave ou de valor ausente
// da tabela), reportada por fonte para permitir sucesso parcial do lote.
func NormalizarTabela(tabela domain.TabelaBruta, politica PoliticaOS) ([]domain.Registro, domain.DiagnosticoNormalizacao, error) {
	var diag domain.DiagnosticoNormalizacao

	if err := validarColunas(tabela); err != nil {
		return nil, diag, err
	}

	registros := make([]domain.Registro, 0, len(tabela.Linhas))
	for _, linha := range tabela.Linhas {
		diag.LinhasProcessadas++

		valor, ok := parseValorBR(linha[tabela.ColunaValor])
		if !ok {
			diag.ValoresInvalidos++
		}

		chave, okChave := ExtrairOS(linha[tabela.ColunaChave], politica)
		if !okChave || valor == 0 {
			diag.LinhasExcluidas++
			continue
		}

		var grupo string
		if tabela.ColunaGrupo != "" {
			grupo = strings.TrimSpace(linha[tabela.ColunaGrupo])
		}

		registros = append(registros, domain.Registro{
			OS:    chave,
			Valor: valor,
			Fonte: tabela.Fonte,
			Grupo: grupo,
		})
	}

	return registros, diag, nil
}

func validarColunas(tabela domain.TabelaBruta) error {
	if tabela.ColunaChave == "" || !contemColuna(tabela.Colunas, tabela.ColunaChave) {
		return fmt.Errorf("fonte %q: coluna de chave %q ausente da tabela", tabela.Fonte, tabela.ColunaChave)
	}
	if tabela.ColunaValor == "" || !contemColuna(tabela.Colunas, tabela.ColunaValor) {
		return fmt.Errorf("fonte %q: coluna de valor %q ausente da tabela", tabela.Fonte, tabela.ColunaValor)
	}
	if tabela.ColunaGrupo != "" && !contemColuna(tabela.Colunas, tabela.ColunaGrupo) {
		return fmt.Errorf("fonte %q: coluna de grupo %q ausente da tabela", tabela.Fonte, tabela.ColunaGrupo)
	}
	return nil
}

func contemColuna(colunas []string, nome string) bool {
	for _, c := range colunas {
		if c == nome {
			return true
		}
	}
	return false
}
