package infer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CategoryID is one of the closed set of job categories.
type CategoryID string

const (
	Atendimento     CategoryID = "Atendimento"
	Vendas          CategoryID = "Vendas"
	Tecnologia      CategoryID = "Tecnologia"
	RecursosHumanos CategoryID = "Recursos Humanos"
	Financeiro      CategoryID = "Financeiro"
	Marketing       CategoryID = "Marketing"
	Outro           CategoryID = "Outro"
)

// Categories lists every category in check order, Outro last.
var Categories = []CategoryID{Atendimento, Vendas, Tecnologia, RecursosHumanos, Financeiro, Marketing, Outro}

// Valid reports whether c is a known category.
func (c CategoryID) Valid() bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

// categoryTerms are whole words or phrases, lower-case and without accents.
// The first category with a hit wins.
var categoryTerms = []struct {
	id    CategoryID
	terms []string
}{
	{Atendimento, []string{
		"atendimento", "atendente", "sac", "call center", "central de relacionamento",
		"relacionamento com o cliente", "relacionamento com cliente", "customer service",
		"customer success", "sucesso do cliente", "suporte ao cliente", "teleatendimento",
	}},
	{Vendas, []string{
		"vendas", "vendedor", "vendedora", "comercial", "consultor de vendas",
		"representante comercial", "executivo de contas", "executiva de contas",
		"pre-vendas", "sales", "inside sales", "sdr", "bdr", "televendas",
	}},
	{Tecnologia, []string{
		"tecnologia", "ti", "desenvolvedor", "desenvolvedora", "programador",
		"programadora", "software", "backend", "back-end", "frontend", "front-end",
		"fullstack", "full stack", "devops", "engenheiro de dados", "cientista de dados",
		"analista de sistemas", "infraestrutura", "suporte tecnico", "qa", "sre",
	}},
	{RecursosHumanos, []string{
		"recursos humanos", "rh", "recrutamento", "recrutador", "recrutadora",
		"recrutamento e selecao", "departamento pessoal", "gestao de pessoas",
		"talent acquisition", "people", "business partner",
	}},
	{Financeiro, []string{
		"financeiro", "financeira", "financas", "contabil", "contabilidade", "contador",
		"contadora", "fiscal", "tesouraria", "contas a pagar", "contas a receber",
		"faturamento", "controladoria", "cobranca",
	}},
	{Marketing, []string{
		"marketing", "social media", "midias sociais", "redes sociais", "seo",
		"growth", "branding", "copywriter", "redator", "redatora", "trafego pago",
	}},
}

// Category classifies a posting from its title and description by keyword
// presence. Ties are broken by the fixed check order; no hit gives Outro.
func Category(title, description string) CategoryID {
	text := " " + words(title+" "+description) + " "
	for _, c := range categoryTerms {
		for _, term := range c.terms {
			if strings.Contains(text, " "+words(term)+" ") {
				return c.id
			}
		}
	}
	return Outro
}

// words lower-cases s, strips accents and reduces it to single-spaced
// letter and digit runs so terms match on word boundaries.
func words(s string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	return strings.Join(strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}
