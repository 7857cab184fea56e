package conciliacao

import "conciliacao-service/internal/domain"

type chaveAgrupamento struct {
	os    string
	grupo string
}

// AgruparPorOS soma os registros canônicos por OS. Com porGrupo, a chave de
// agrupamento passa a ser (OS, grupo), mantendo separados os totais por
// credenciado/área. A acumulação segue a ordem de entrada e a saída sai na
// ordem da primeira ocorrência de cada chave, para reprodutibilidade.
func AgruparPorOS(registros []domain.Registro, porGrupo bool) []domain.TotalPorOS {
	totais := make(map[chaveAgrupamento]*domain.TotalPorOS, len(registros))
	ordem := make([]chaveAgrupamento, 0, len(registros))

	for _, r := range registros {
		chave := chaveAgrupamento{os: r.OS}
		if porGrupo {
			chave.grupo = r.Grupo
		}

		total, existe := totais[chave]
		if !existe {
			total = &domain.TotalPorOS{OS: r.OS, Grupo: chave.grupo}
			totais[chave] = total
			ordem = append(ordem, chave)
		}
		total.ValorTotal += r.Valor
		total.Fontes = append(total.Fontes, r.Fonte)
	}

	resultado := make([]domain.TotalPorOS, 0, len(ordem))
	for _, chave := range ordem {
		t := totais[chave]
		t.ValorTotal = mathRound(t.ValorTotal, 2)
		resultado = append(resultado, *t)
	}
	return resultado
}

// Duplicadas lista as OS que receberam mais de um registro dentro do mesmo
// lado da conciliação, inclusive quando as ocorrências vêm do mesmo arquivo:
// a repetição dentro de uma única fonte é justamente o caso clássico de
// cobrança em duplicidade. Não é um erro: a visão existe para que um humano
// decida o que fazer com cada caso.
func Duplicadas(registros []domain.Registro) []domain.OSDuplicada {
	contagem := make(map[string]*domain.OSDuplicada)
	var ordem []string

	for _, r := range registros {
		d, existe := contagem[r.OS]
		if !existe {
			d = &domain.OSDuplicada{OS: r.OS}
			contagem[r.OS] = d
			ordem = append(ordem, r.OS)
		}
		d.Ocorrencias++
		d.Fontes = append(d.Fontes, r.Fonte)
	}

	var duplicadas []domain.OSDuplicada
	for _, os := range ordem {
		if d := contagem[os]; d.Ocorrencias > 1 {
			duplicadas = append(duplicadas, *d)
		}
	}
	return duplicadas
}
