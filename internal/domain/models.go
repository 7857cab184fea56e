// package domain/models.go
package domain

import "io"

// StatusConciliacao define o status de uma OS após o cruzamento
// extrato × caixa.
type StatusConciliacao string

// Constantes com os possíveis status de conciliação.
const (
	StatusConferido       StatusConciliacao = "CONFERIDO"
	StatusFaltanteNoCaixa StatusConciliacao = "FALTANTE_NO_CAIXA"
	StatusSobraNoCaixa    StatusConciliacao = "SOBRA_NO_CAIXA"
	StatusDivergente      StatusConciliacao = "DIVERGENTE"
)

// ArquivoFonte representa um arquivo enviado para conciliação: o nome
// original (usado como rótulo de fonte nos diagnósticos) e o conteúdo bruto.
type ArquivoFonte struct {
	Nome     string
	Conteudo io.Reader
}

// TabelaBruta é o contrato de saída do carregador de tabelas: linhas
// nomeadas já decodificadas mais as colunas de chave, valor e grupo
// identificadas no cabeçalho. O núcleo de conciliação confia nesses
// identificadores de coluna.
type TabelaBruta struct {
	Fonte       string
	Colunas     []string
	Linhas      []map[string]string
	ColunaChave string
	ColunaValor string
	ColunaGrupo string // vazio quando nenhuma dimensão de grupo foi pedida
}

// Registro é um registro canônico produzido pela normalização de uma
// linha bruta: chave de OS resolvida, valor monetário e rótulos de origem.
// Imutável após criado.
type Registro struct {
	OS    string
	Valor float64
	Fonte string
	Grupo string
}

// TotalPorOS é o resultado da agregação de registros canônicos: o total
// somado por OS (ou por OS+grupo) dentro de um dos lados da conciliação.
// Fontes preserva a fonte de cada registro contribuinte, com repetições,
// para suportar a detecção de duplicidades.
type TotalPorOS struct {
	OS         string   `json:"os"`
	ValorTotal float64  `json:"valor_total"`
	Grupo      string   `json:"grupo,omitempty"`
	Fontes     []string `json:"fontes"`
}

// OSDuplicada descreve uma OS que apareceu em mais de um registro dentro
// do mesmo lado, candidata a cobrança em duplicidade.
type OSDuplicada struct {
	OS          string   `json:"os"`
	Ocorrencias int      `json:"ocorrencias"`
	Fontes      []string `json:"fontes"`
}

// LinhaConciliada é uma linha do resultado do cruzamento: uma por OS
// presente em qualquer um dos lados.
type LinhaConciliada struct {
	OS           string            `json:"os"`
	Grupo        string            `json:"grupo,omitempty"`
	ValorExtrato float64           `json:"valor_extrato"`
	ValorCaixa   float64           `json:"valor_caixa"`
	Diferenca    float64           `json:"diferenca"`
	Status       StatusConciliacao `json:"status"`
}

// TotaisConciliacao traz as somas gerais usadas como métricas de cabeçalho.
type TotaisConciliacao struct {
	TotalExtrato   float64 `json:"total_extrato"`
	TotalCaixa     float64 `json:"total_caixa"`
	DiferencaTotal float64 `json:"diferenca_total"`
}

// DiagnosticoNormalizacao conta o que foi absorvido silenciosamente na
// normalização de um lado: linhas excluídas (sem chave ou com valor zero)
// e valores monetários ilegíveis que viraram zero.
type DiagnosticoNormalizacao struct {
	LinhasProcessadas int `json:"linhas_processadas"`
	LinhasExcluidas   int `json:"linhas_excluidas"`
	ValoresInvalidos  int `json:"valores_invalidos"`
}

// ErroFonte registra uma falha estrutural de um arquivo específico do
// lote. Os demais arquivos continuam sendo processados.
type ErroFonte struct {
	Fonte string `json:"fonte"`
	Erro  string `json:"erro"`
}

// RelatorioConciliacao é a estrutura de topo devolvida ao apresentador.
type RelatorioConciliacao struct {
	Linhas             []LinhaConciliada       `json:"linhas"`
	Totais             TotaisConciliacao       `json:"totais"`
	DuplicadasExtrato  []OSDuplicada           `json:"duplicadas_extrato,omitempty"`
	DuplicadasCaixa    []OSDuplicada           `json:"duplicadas_caixa,omitempty"`
	DiagnosticoExtrato DiagnosticoNormalizacao `json:"diagnostico_extrato"`
	DiagnosticoCaixa   DiagnosticoNormalizacao `json:"diagnostico_caixa"`
	ErrosPorFonte      []ErroFonte             `json:"erros_por_fonte,omitempty"`
}
