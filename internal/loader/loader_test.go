package loader

import (
	"bytes"
	"strings"
	"testing"

	"conciliacao-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func TestCarregarTabelaCSVComPreambulo(t *testing.T) {
	conteudo := `Relatório de Produção Mensal;;
Período: 01/01/2026 a 31/01/2026;;
;;
Nome;Valor;Convenio
001-67495-42 ANA SILVA;100,00;UNIMED
002-12345-1 JOSE LIMA;50,00;IPE
TOTAL;150,00;
`
	tabela, err := CarregarTabela(domain.ArquivoFonte{Nome: "extrato.csv", Conteudo: strings.NewReader(conteudo)}, "")
	require.NoError(t, err)

	assert.Equal(t, "extrato.csv", tabela.Fonte)
	assert.Equal(t, "Nome", tabela.ColunaChave)
	assert.Equal(t, "Valor", tabela.ColunaValor)
	assert.Equal(t, "Convenio", tabela.ColunaGrupo)

	// preâmbulo e linha de total ficam de fora
	require.Len(t, tabela.Linhas, 2)
	assert.Equal(t, "001-67495-42 ANA SILVA", tabela.Linhas[0]["Nome"])
	assert.Equal(t, "100,00", tabela.Linhas[0]["Valor"])
	assert.Equal(t, "UNIMED", tabela.Linhas[0]["Convenio"])
}

func TestCarregarTabelaCSVLatin1(t *testing.T) {
	utf8Conteudo := "Nome do Paciente;Vl Líquido\n001-11111-1 JOÃO;25,00\n"
	latin1, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(utf8Conteudo))
	require.NoError(t, err)

	tabela, err := CarregarTabela(domain.ArquivoFonte{Nome: "caixa.csv", Conteudo: bytes.NewReader(latin1)}, "")
	require.NoError(t, err)

	assert.Equal(t, "Nome do Paciente", tabela.ColunaChave)
	assert.Equal(t, "Vl Líquido", tabela.ColunaValor)
	require.Len(t, tabela.Linhas, 1)
	assert.Equal(t, "001-11111-1 JOÃO", tabela.Linhas[0]["Nome do Paciente"])
}

func TestCarregarTabelaCSVDelimitadorVirgula(t *testing.T) {
	conteudo := "Nome,Valor\n001-11111-1 ANA,10.50\n"
	tabela, err := CarregarTabela(domain.ArquivoFonte{Nome: "caixa.csv", Conteudo: strings.NewReader(conteudo)}, "")
	require.NoError(t, err)

	require.Len(t, tabela.Linhas, 1)
	assert.Equal(t, "10.50", tabela.Linhas[0]["Valor"])
}

func TestCarregarTabelaSemCabecalho(t *testing.T) {
	conteudo := "apenas;metadados\nsem;estrutura\n"
	_, err := CarregarTabela(domain.ArquivoFonte{Nome: "ruim.csv", Conteudo: strings.NewReader(conteudo)}, "")
	require.Error(t, err)

	var estrutural *ErroEstrutural
	require.ErrorAs(t, err, &estrutural)
	assert.Equal(t, "ruim.csv", estrutural.Fonte)
	assert.Contains(t, estrutural.Motivo, "cabeçalho")
}

func TestCarregarTabelaGrupoPedidoAusente(t *testing.T) {
	conteudo := "Nome;Valor\n001-11111-1 ANA;10,00\n"
	_, err := CarregarTabela(domain.ArquivoFonte{Nome: "caixa.csv", Conteudo: strings.NewReader(conteudo)}, "Credenciado")
	require.Error(t, err)

	var estrutural *ErroEstrutural
	require.ErrorAs(t, err, &estrutural)
	assert.Contains(t, estrutural.Motivo, "Credenciado")
}

func TestCarregarTabelaGrupoAproximado(t *testing.T) {
	// "Credenciados" não ocorre literalmente no cabeçalho; o casamento
	// aproximado deve amarrar na coluna "Credenciado"
	conteudo := "Nome;Valor;Credenciado\n001-11111-1 ANA;10,00;LAB A\n"
	tabela, err := CarregarTabela(domain.ArquivoFonte{Nome: "caixa.csv", Conteudo: strings.NewReader(conteudo)}, "Credenciados")
	require.NoError(t, err)

	assert.Equal(t, "Credenciado", tabela.ColunaGrupo)
	require.Len(t, tabela.Linhas, 1)
	assert.Equal(t, "LAB A", tabela.Linhas[0]["Credenciado"])
}

func TestEscolherColunaAproximada(t *testing.T) {
	colunas := []string{"Data", "Credenciado", "Vl Liquido"}

	assert.Equal(t, 1, escolherColuna(colunas, []string{"Credenciados"}))
	// palavras sem semelhança alguma continuam sem coluna
	assert.Equal(t, -1, escolherColuna(colunas, []string{"CPF"}))
}

func TestCarregarTabelaXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Planilha de Caixa"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Nome", "Valor"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"001-67495-42 ANA", "100,00"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{"002-12345-1 JOSE", "55,50"}))

	var buffer bytes.Buffer
	require.NoError(t, f.Write(&buffer))

	tabela, err := CarregarTabela(domain.ArquivoFonte{Nome: "caixa.xlsx", Conteudo: &buffer}, "")
	require.NoError(t, err)

	assert.Equal(t, "Nome", tabela.ColunaChave)
	assert.Equal(t, "Valor", tabela.ColunaValor)
	require.Len(t, tabela.Linhas, 2)
	assert.Equal(t, "55,50", tabela.Linhas[1]["Valor"])
}

func TestNomearColunas(t *testing.T) {
	colunas := nomearColunas([]string{"Nome", "", "Valor", "Nome"})
	assert.Equal(t, []string{"Nome", "COL_2", "Valor", "Nome_2"}, colunas)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "VL LIQUIDO", normalizeText("Vl. Líquido"))
	assert.Equal(t, "DESCRICAO", normalizeText("  Descrição "))
	assert.Equal(t, "", normalizeText("---"))
}
