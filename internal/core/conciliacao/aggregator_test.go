package conciliacao

import (
	"math/rand"
	"testing"

	"conciliacao-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgruparPorOS(t *testing.T) {
	registros := []domain.Registro{
		{OS: "001-67495-42", Valor: 100.00, Fonte: "caixa_a.csv"},
		{OS: "002-12345-1", Valor: 50.00, Fonte: "caixa_a.csv"},
		{OS: "001-67495-42", Valor: 25.50, Fonte: "caixa_b.csv"},
	}

	totais := AgruparPorOS(registros, false)
	require.Len(t, totais, 2)

	// ordem de primeira ocorrência
	assert.Equal(t, "001-67495-42", totais[0].OS)
	assert.InDelta(t, 125.50, totais[0].ValorTotal, 0.001)
	assert.Equal(t, []string{"caixa_a.csv", "caixa_b.csv"}, totais[0].Fontes)

	assert.Equal(t, "002-12345-1", totais[1].OS)
	assert.InDelta(t, 50.00, totais[1].ValorTotal, 0.001)
}

func TestAgruparPorOSComGrupo(t *testing.T) {
	registros := []domain.Registro{
		{OS: "001-67495-42", Valor: 100.00, Grupo: "UNIMED", Fonte: "a"},
		{OS: "001-67495-42", Valor: 40.00, Grupo: "IPE", Fonte: "a"},
		{OS: "001-67495-42", Valor: 10.00, Grupo: "UNIMED", Fonte: "b"},
	}

	porChave := AgruparPorOS(registros, false)
	require.Len(t, porChave, 1)
	assert.InDelta(t, 150.00, porChave[0].ValorTotal, 0.001)

	porGrupo := AgruparPorOS(registros, true)
	require.Len(t, porGrupo, 2)
	assert.Equal(t, "UNIMED", porGrupo[0].Grupo)
	assert.InDelta(t, 110.00, porGrupo[0].ValorTotal, 0.001)
	assert.Equal(t, "IPE", porGrupo[1].Grupo)
	assert.InDelta(t, 40.00, porGrupo[1].ValorTotal, 0.001)
}

func TestAgruparPorOSComutativo(t *testing.T) {
	registros := []domain.Registro{
		{OS: "A", Valor: 10.10, Fonte: "f1"},
		{OS: "B", Valor: 20.20, Fonte: "f1"},
		{OS: "A", Valor: 30.30, Fonte: "f2"},
		{OS: "C", Valor: 0.01, Fonte: "f2"},
		{OS: "B", Valor: 5.55, Fonte: "f3"},
	}

	esperado := map[string]float64{}
	for _, total := range AgruparPorOS(registros, false) {
		esperado[total.OS] = total.ValorTotal
	}

	embaralhados := make([]domain.Registro, len(registros))
	copy(embaralhados, registros)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		rng.Shuffle(len(embaralhados), func(a, b int) {
			embaralhados[a], embaralhados[b] = embaralhados[b], embaralhados[a]
		})

		totais := AgruparPorOS(embaralhados, false)
		require.Len(t, totais, len(esperado))
		for _, total := range totais {
			assert.InDelta(t, esperado[total.OS], total.ValorTotal, 0.001)
		}
	}
}

func TestDuplicadas(t *testing.T) {
	registros := []domain.Registro{
		{OS: "001-67495-42", Valor: 100.00, Fonte: "caixa_a.csv"},
		{OS: "002-12345-1", Valor: 50.00, Fonte: "caixa_a.csv"},
		{OS: "001-67495-42", Valor: 100.00, Fonte: "caixa_b.csv"},
		{OS: "001-67495-42", Valor: 10.00, Fonte: "caixa_a.csv"},
	}

	duplicadas := Duplicadas(registros)
	require.Len(t, duplicadas, 1)
	assert.Equal(t, "001-67495-42", duplicadas[0].OS)
	assert.Equal(t, 3, duplicadas[0].Ocorrencias)
	assert.Equal(t, []string{"caixa_a.csv", "caixa_b.csv", "caixa_a.csv"}, duplicadas[0].Fontes)
}

func TestDuplicadasSemRepeticao(t *testing.T) {
	registros := []domain.Registro{
		{OS: "A", Valor: 1, Fonte: "f"},
		{OS: "B", Valor: 2, Fonte: "f"},
	}
	assert.Empty(t, Duplicadas(registros))
}
