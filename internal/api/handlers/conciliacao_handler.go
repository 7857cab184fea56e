package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"conciliacao-service/internal/api/responses"
	"conciliacao-service/internal/core/conciliacao"
	"conciliacao-service/internal/domain"

	"github.com/gin-gonic/gin"
)

// ConciliacaoHandler lida com as requisições da API relacionadas à
// conciliação de extratos contra caixas.
type ConciliacaoHandler struct {
	service conciliacao.Service
}

// NewConciliacaoHandler cria um novo handler de conciliação.
func NewConciliacaoHandler(service conciliacao.Service) *ConciliacaoHandler {
	return &ConciliacaoHandler{
		service: service,
	}
}

// lerOpcoesDoForm extrai e valida os parâmetros de conciliação do formulário.
func lerOpcoesDoForm(c *gin.Context) (conciliacao.Opcoes, error) {
	opcoes := conciliacao.Opcoes{
		Tolerancia:  conciliacao.ToleranciaPadrao,
		Politica:    conciliacao.PoliticaPadrao,
		ColunaGrupo: strings.TrimSpace(c.PostForm("colunaGrupo")),
	}

	if raw := strings.TrimSpace(c.PostForm("tolerancia")); raw != "" {
		t, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
		if err != nil || t < 0 {
			return opcoes, fmt.Errorf("tolerância inválida: %q", raw)
		}
		opcoes.Tolerancia = t
	}

	switch politica := strings.TrimSpace(c.PostForm("politicaOS")); politica {
	case "", string(conciliacao.PoliticaPadrao):
		opcoes.Politica = conciliacao.PoliticaPadrao
	case string(conciliacao.PoliticaPrefixo):
		opcoes.Politica = conciliacao.PoliticaPrefixo
	default:
		return opcoes, fmt.Errorf("política de extração de OS desconhecida: %q", politica)
	}

	return opcoes, nil
}

// abrirArquivosDoForm abre todos os arquivos de um campo multipart.
func abrirArquivosDoForm(headers []*multipart.FileHeader) ([]domain.ArquivoFonte, []func() error, error) {
	var arquivos []domain.ArquivoFonte
	var closers []func() error

	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, closers, fmt.Errorf("não foi possível abrir o arquivo %q", header.Filename)
		}
		closers = append(closers, file.Close)
		arquivos = append(arquivos, domain.ArquivoFonte{Nome: header.Filename, Conteudo: file})
	}
	return arquivos, closers, nil
}

func (h *ConciliacaoHandler) conciliarDoForm(c *gin.Context) (*domain.RelatorioConciliacao, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Formulário multipart inválido")
		return nil, false
	}

	extratoHeaders := form.File["extratoFiles"]
	caixaHeaders := form.File["caixaFiles"]
	if len(extratoHeaders) == 0 || len(caixaHeaders) == 0 {
		responses.Error(c, http.StatusBadRequest, "Envie ao menos um arquivo de extrato e um de caixa")
		return nil, false
	}

	opcoes, err := lerOpcoesDoForm(c)
	if err != nil {
		responses.Error(c, http.StatusBadRequest, err.Error())
		return nil, false
	}

	var closers []func() error
	defer func() {
		for _, fechar := range closers {
			fechar()
		}
	}()

	extratos, abertos, err := abrirArquivosDoForm(extratoHeaders)
	closers = append(closers, abertos...)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, err.Error())
		return nil, false
	}

	caixas, abertos, err := abrirArquivosDoForm(caixaHeaders)
	closers = append(closers, abertos...)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, err.Error())
		return nil, false
	}

	relatorio, err := h.service.Conciliar(extratos, caixas, opcoes)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao conciliar os arquivos", err.Error())
		return nil, false
	}
	return relatorio, true
}

// HandleConciliacao recebe os arquivos de extrato e de caixa e devolve o
// relatório de conciliação em JSON.
func (h *ConciliacaoHandler) HandleConciliacao(c *gin.Context) {
	relatorio, ok := h.conciliarDoForm(c)
	if !ok {
		return
	}
	responses.Success(c, relatorio, "Conciliação concluída com sucesso")
}

// HandleConciliacaoCSV recebe os mesmos arquivos e devolve as linhas
// conciliadas como um CSV para download.
func (h *ConciliacaoHandler) HandleConciliacaoCSV(c *gin.Context) {
	relatorio, ok := h.conciliarDoForm(c)
	if !ok {
		return
	}

	outputCSV, err := h.service.GerarCSVRelatorio(relatorio)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao gerar CSV do relatório", err.Error())
		return
	}

	fileName := fmt.Sprintf("Conciliacao_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, "text/csv; charset=windows-1252", outputCSV)
}
