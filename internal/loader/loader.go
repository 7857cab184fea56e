// Package loader transforma os bytes enviados (extratos de convênio e
// planilhas de caixa) em tabelas brutas de linhas nomeadas, localizando o
// cabeçalho verdadeiro no meio do preâmbulo de metadados e identificando as
// colunas de chave, valor e grupo. O núcleo de conciliação consome apenas o
// contrato TabelaBruta e confia nas colunas aqui identificadas.
package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"conciliacao-service/internal/domain"

	"github.com/schollz/closestmatch"
	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErroEstrutural indica que um arquivo específico não pôde virar tabela
// (cabeçalho não localizado, coluna obrigatória ausente, formato ilegível).
// O lote continua com os demais arquivos.
type ErroEstrutural struct {
	Fonte  string
	Motivo string
}

func (e *ErroEstrutural) Error() string {
	return fmt.Sprintf("fonte %q: %s", e.Fonte, e.Motivo)
}

const maxLinhasCabecalho = 40

var (
	chaveKeywords = []string{"NOME", "PACIENTE", "CLIENTE", "TITULAR", "BENEFICIARIO", "DESCRICAO"}
	valorKeywords = []string{"VALOR", "VL LIQUIDO", "VLR", "TOTAL"}
	grupoKeywords = []string{"CREDENCIADO", "CONVENIO", "AREA", "UNIDADE", "SETOR"}
)

var nonAlphanumericRegex = regexp.MustCompile(`[^A-Z0-9 ]+`)
var whitespaceRegex = regexp.MustCompile(`\s+`)

func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	result, _, _ := transform.String(t, str)
	result = strings.ToUpper(result)
	result = nonAlphanumericRegex.ReplaceAllString(result, " ")
	result = whitespaceRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// CarregarTabela lê um arquivo de extrato ou de caixa (.csv, .txt, .xls,
// .xlsx) e devolve a tabela bruta com as colunas de chave e valor
// identificadas. colunaGrupo, quando não vazio, é o nome (aproximado) da
// coluna da dimensão secundária pedida pelo chamador; nesse caso a coluna
// precisa existir.
func CarregarTabela(arquivo domain.ArquivoFonte, colunaGrupo string) (domain.TabelaBruta, error) {
	data, err := io.ReadAll(arquivo.Conteudo)
	if err != nil {
		return domain.TabelaBruta{}, &ErroEstrutural{Fonte: arquivo.Nome, Motivo: fmt.Sprintf("erro ao ler conteúdo: %v", err)}
	}

	var linhas [][]string
	ext := strings.ToLower(filepath.Ext(arquivo.Nome))
	switch ext {
	case ".xlsx":
		linhas, err = lerXLSX(data)
	case ".xls":
		linhas, err = lerXLS(data)
	default:
		linhas, err = lerCSV(data)
	}
	if err != nil {
		return domain.TabelaBruta{}, &ErroEstrutural{Fonte: arquivo.Nome, Motivo: err.Error()}
	}

	return montarTabela(linhas, arquivo.Nome, colunaGrupo)
}

func lerXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir arquivo .xlsx: %v", err)
	}
	defer f.Close()

	nomes := f.GetSheetList()
	if len(nomes) == 0 {
		return nil, fmt.Errorf("o arquivo .xlsx não contém planilhas")
	}
	return f.GetRows(nomes[0])
}

func lerXLS(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		// talvez seja xlsx com extensão errada; tentar excelize
		if _, errX := excelize.OpenReader(bytes.NewReader(data)); errX == nil {
			return lerXLSX(data)
		}
		return nil, fmt.Errorf("erro ao abrir arquivo .xls: %v", err)
	}

	if len(workbook.GetSheets()) == 0 {
		return nil, fmt.Errorf("o arquivo .xls não contém planilhas")
	}
	sheet, err := workbook.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("erro ao obter planilha do arquivo .xls: %v", err)
	}

	var linhas [][]string
	for _, row := range sheet.GetRows() {
		var cells []string
		for _, cell := range row.GetCols() {
			cells = append(cells, cell.GetString())
		}
		linhas = append(linhas, cells)
	}
	return linhas, nil
}

func lerCSV(data []byte) ([][]string, error) {
	// cadeia de decodificação: UTF-8 quando válido, senão ISO-8859-1
	if !utf8.Valid(data) {
		decoder := charmap.ISO8859_1.NewDecoder()
		decodificado, err := decoder.Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("erro ao decodificar arquivo: %v", err)
		}
		data = decodificado
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectarDelimitador(data)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	linhas, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("erro ao ler arquivo delimitado: %v", err)
	}
	return linhas, nil
}

func detectarDelimitador(data []byte) rune {
	fim := len(data)
	if fim > 4096 {
		fim = 4096
	}
	amostra := string(data[:fim])
	if strings.Count(amostra, ";") >= strings.Count(amostra, ",") {
		return ';'
	}
	return ','
}

func montarTabela(linhas [][]string, fonte, colunaGrupo string) (domain.TabelaBruta, error) {
	idxCabecalho, ok := localizarCabecalho(linhas)
	if !ok {
		return domain.TabelaBruta{}, &ErroEstrutural{Fonte: fonte, Motivo: "linha de cabeçalho não localizada"}
	}

	colunas := nomearColunas(linhas[idxCabecalho])

	idxChave := escolherColuna(colunas, chaveKeywords)
	if idxChave == -1 {
		return domain.TabelaBruta{}, &ErroEstrutural{Fonte: fonte, Motivo: "coluna de nome/chave não identificada no cabeçalho"}
	}
	idxValor := escolherColuna(colunas, valorKeywords)
	if idxValor == -1 || idxValor == idxChave {
		return domain.TabelaBruta{}, &ErroEstrutural{Fonte: fonte, Motivo: "coluna de valor não identificada no cabeçalho"}
	}

	idxGrupo := -1
	if colunaGrupo != "" {
		idxGrupo = escolherColuna(colunas, []string{colunaGrupo})
		if idxGrupo == -1 {
			return domain.TabelaBruta{}, &ErroEstrutural{Fonte: fonte, Motivo: fmt.Sprintf("coluna de grupo %q não encontrada", colunaGrupo)}
		}
	} else if idx := escolherColunaExata(colunas, grupoKeywords); idx != -1 {
		idxGrupo = idx
	}

	tabela := domain.TabelaBruta{
		Fonte:       fonte,
		Colunas:     colunas,
		ColunaChave: colunas[idxChave],
		ColunaValor: colunas[idxValor],
	}
	if idxGrupo != -1 {
		tabela.ColunaGrupo = colunas[idxGrupo]
	}

	for i := idxCabecalho + 1; i < len(linhas); i++ {
		linha := linhas[i]
		if linhaVazia(linha) {
			continue
		}

		chave := ""
		if idxChave < len(linha) {
			chave = linha[idxChave]
		}
		chaveNorm := normalizeText(chave)
		if strings.Contains(chaveNorm, "TOTAL") {
			continue
		}

		registro := make(map[string]string, len(colunas))
		for j, nome := range colunas {
			if j < len(linha) {
				registro[nome] = strings.TrimSpace(linha[j])
			} else {
				registro[nome] = ""
			}
		}
		tabela.Linhas = append(tabela.Linhas, registro)
	}

	return tabela, nil
}

// localizarCabecalho procura, nas primeiras linhas, uma que contenha ao
// mesmo tempo uma coluna de nome/chave e uma de valor. Arquivos exportados
// à mão carregam metadados arbitrários antes do cabeçalho verdadeiro.
func localizarCabecalho(linhas [][]string) (int, bool) {
	max := maxLinhasCabecalho
	if len(linhas) < max {
		max = len(linhas)
	}
	for i := 0; i < max; i++ {
		temChave := false
		temValor := false
		for _, cell := range linhas[i] {
			n := normalizeText(cell)
			if n == "" {
				continue
			}
			if !temChave && contemAlgum(n, chaveKeywords) {
				temChave = true
			}
			if !temValor && contemAlgum(n, valorKeywords) {
				temValor = true
			}
		}
		if temChave && temValor {
			return i, true
		}
	}
	return 0, false
}

func contemAlgum(texto string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(texto, kw) {
			return true
		}
	}
	return false
}

func nomearColunas(cabecalho []string) []string {
	colunas := make([]string, len(cabecalho))
	vistos := make(map[string]int, len(cabecalho))
	for i, nome := range cabecalho {
		n := strings.TrimSpace(nome)
		if n == "" {
			n = fmt.Sprintf("COL_%d", i+1)
		}
		if contagem, ok := vistos[n]; ok {
			vistos[n] = contagem + 1
			n = fmt.Sprintf("%s_%d", n, contagem+1)
		} else {
			vistos[n] = 1
		}
		colunas[i] = n
	}
	return colunas
}

// escolherColuna encontra a coluna cujo nome normalizado contém uma das
// palavras-chave; sem acerto exato, cai para o casamento aproximado via
// closestmatch sobre os nomes normalizados do cabeçalho. O dicionário e a
// consulta vão em minúsculas: o closestmatch indexa os n-gramas em
// minúsculas mas consulta sem dobrar a caixa.
func escolherColuna(colunas []string, keywords []string) int {
	if idx := escolherColunaExata(colunas, keywords); idx != -1 {
		return idx
	}

	normCols := make([]string, len(colunas))
	porNorm := make(map[string]int, len(colunas))
	for i, c := range colunas {
		n := strings.ToLower(normalizeText(c))
		normCols[i] = n
		if _, ok := porNorm[n]; !ok {
			porNorm[n] = i
		}
	}

	cm := closestmatch.New(normCols, []int{2, 3})
	for _, kw := range keywords {
		match := cm.Closest(strings.ToLower(normalizeText(kw)))
		if match == "" {
			continue
		}
		if idx, ok := porNorm[match]; ok {
			return idx
		}
	}
	return -1
}

func escolherColunaExata(colunas []string, keywords []string) int {
	normCols := make([]string, len(colunas))
	for i, c := range colunas {
		normCols[i] = normalizeText(c)
	}
	for _, kw := range keywords {
		nkw := normalizeText(kw)
		if nkw == "" {
			continue
		}
		for idx, nc := range normCols {
			if strings.Contains(nc, nkw) {
				return idx
			}
		}
	}
	return -1
}

func linhaVazia(linha []string) bool {
	for _, c := range linha {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
