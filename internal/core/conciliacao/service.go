package conciliacao

import (
	"bytes"
	"encoding/csv"
	"strings"
	"unicode"
	"unicode/utf8"

	"conciliacao-service/internal/domain"
	"conciliacao-service/internal/loader"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Service define a interface do serviço de conciliação de extratos de
// convênio contra planilhas de caixa.
type Service interface {
	Conciliar(extratos, caixas []domain.ArquivoFonte, opcoes Opcoes) (*domain.RelatorioConciliacao, error)
	GerarCSVRelatorio(relatorio *domain.RelatorioConciliacao) ([]byte, error)
}

// Opcoes parametriza uma execução de conciliação. Tolerancia é obrigatória
// no sentido de que o chamador escolhe o valor; ToleranciaPadrao existe
// apenas como sugestão para a borda HTTP.
type Opcoes struct {
	Tolerancia  float64
	Politica    PoliticaOS
	ColunaGrupo string // nome aproximado da coluna de grupo; vazio desliga a dimensão
}

type service struct{}

// NewService cria uma nova instância do serviço de conciliação.
func NewService() Service {
	return &service{}
}

// Conciliar executa o pipeline completo: carga das tabelas, normalização,
// agregação por lado e cruzamento. Falhas estruturais de arquivos
// individuais são colecionadas em ErrosPorFonte e não abortam o lote; o
// relatório sai com o que pôde ser processado.
func (svc *service) Conciliar(extratos, caixas []domain.ArquivoFonte, opcoes Opcoes) (*domain.RelatorioConciliacao, error) {
	relatorio := &domain.RelatorioConciliacao{}

	registrosExtrato := svc.carregarLado(extratos, opcoes, &relatorio.DiagnosticoExtrato, &relatorio.ErrosPorFonte)
	registrosCaixa := svc.carregarLado(caixas, opcoes, &relatorio.DiagnosticoCaixa, &relatorio.ErrosPorFonte)

	relatorio.DuplicadasExtrato = Duplicadas(registrosExtrato)
	relatorio.DuplicadasCaixa = Duplicadas(registrosCaixa)

	porGrupo := opcoes.ColunaGrupo != ""
	totaisExtrato := AgruparPorOS(registrosExtrato, porGrupo)
	totaisCaixa := AgruparPorOS(registrosCaixa, porGrupo)

	relatorio.Linhas = CruzarTotais(totaisExtrato, totaisCaixa, opcoes.Tolerancia)
	relatorio.Totais = CalcularTotais(relatorio.Linhas)

	return relatorio, nil
}

// carregarLado processa os arquivos de um dos lados: carrega cada tabela,
// normaliza e acumula registros e diagnósticos. Cada execução opera sobre
// suas próprias cópias; o serviço não guarda estado entre chamadas.
func (svc *service) carregarLado(arquivos []domain.ArquivoFonte, opcoes Opcoes, diag *domain.DiagnosticoNormalizacao, erros *[]domain.ErroFonte) []domain.Registro {
	var registros []domain.Registro

	for _, arquivo := range arquivos {
		tabela, err := loader.CarregarTabela(arquivo, opcoes.ColunaGrupo)
		if err != nil {
			*erros = append(*erros, domain.ErroFonte{Fonte: arquivo.Nome, Erro: err.Error()})
			continue
		}

		normalizados, d, err := NormalizarTabela(tabela, opcoes.Politica)
		if err != nil {
			*erros = append(*erros, domain.ErroFonte{Fonte: arquivo.Nome, Erro: err.Error()})
			continue
		}

		registros = append(registros, normalizados...)
		diag.LinhasProcessadas += d.LinhasProcessadas
		diag.LinhasExcluidas += d.LinhasExcluidas
		diag.ValoresInvalidos += d.ValoresInvalidos
	}

	return registros
}

// GerarCSVRelatorio serializa as linhas conciliadas no formato esperado
// pelo escritório: ponto e vírgula, vírgula decimal e Windows-1252.
func (svc *service) GerarCSVRelatorio(relatorio *domain.RelatorioConciliacao) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := charmap.Windows1252.NewEncoder()
	writer := csv.NewWriter(transform.NewWriter(&buffer, encoder))
	writer.Comma = ';'

	header := []string{"OS", "Grupo", "Valor Extrato", "Valor Caixa", "Diferença", "Status"}
	for i := range header {
		header[i] = sanitizeForCSV(header[i])
	}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for _, linha := range relatorio.Linhas {
		record := []string{
			sanitizeForCSV(linha.OS),
			sanitizeForCSV(linha.Grupo),
			formatTwoDecimalsComma(linha.ValorExtrato),
			formatTwoDecimalsComma(linha.ValorCaixa),
			formatTwoDecimalsComma(linha.Diferenca),
			string(linha.Status),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	return buffer.Bytes(), writer.Error()
}

// sanitizeForCSV remove/controla caracteres de controle e retorna string "limpa"
// - remove tabs, newlines embutidos, converte controles para espaço e trim
func sanitizeForCSV(s string) string {
	if s == "" {
		return ""
	}

	start := 0
	end := len(s)

	for start < end {
		r, size := utf8.DecodeRuneInString(s[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(s[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	if start >= end {
		return ""
	}

	var b strings.Builder
	b.Grow(end - start)

	for i := start; i < end; {
		r, size := utf8.DecodeRuneInString(s[i:end])
		i += size

		if r == '\r' || r == '\n' || r == '\t' {
			continue
		}
		if r < 32 {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}
