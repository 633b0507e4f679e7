package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyperifyio/jobscrape/internal/posting"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func ldJSON(body string) string {
	return `<script type="application/ld+json">` + body + `</script>`
}

func TestFromStructuredData_SalaryRange(t *testing.T) {
	doc := mustDoc(t, ldJSON(`{
	  "@context": "https://schema.org",
	  "@type": "JobPosting",
	  "title": "Backend Engineer",
	  "baseSalary": {"@type": "MonetaryAmount", "currency": "R$", "value": {"minValue": "3000", "maxValue": "5000"}}
	}`))

	sd := FromStructuredData(doc)
	if got, _ := sd.Get(posting.Salary); got != "R$ 3000 - 5000" {
		t.Fatalf("unexpected salary: %q", got)
	}
	if got, _ := sd.Get(posting.Title); got != "Backend Engineer" {
		t.Fatalf("unexpected title: %q", got)
	}
}

func TestFromStructuredData_NumericSalaryAndSingleBound(t *testing.T) {
	doc := mustDoc(t, ldJSON(`{"@type":"JobPosting","baseSalary":{"currency":"BRL","value":{"minValue":4500}}}`))
	if got, _ := FromStructuredData(doc).Get(posting.Salary); got != "BRL 4500" {
		t.Fatalf("unexpected salary: %q", got)
	}
}

func TestFromStructuredData_SalaryWithoutBoundsIsOmitted(t *testing.T) {
	doc := mustDoc(t, ldJSON(`{"@type":"JobPosting","title":"Dev","baseSalary":{"currency":"R$","value":{"unitText":"MONTH"}}}`))
	sd := FromStructuredData(doc)
	if _, ok := sd.Get(posting.Salary); ok {
		t.Fatalf("salary must not be set when min and max are absent")
	}
	if _, present := sd.Fields[posting.Salary]; present {
		t.Fatalf("salary key must not be populated")
	}
}

func TestFromStructuredData_Location(t *testing.T) {
	cases := []struct {
		name string
		loc  string
		want string
	}{
		{"city and region", `{"address":{"addressLocality":"São Paulo","addressRegion":"SP"}}`, "São Paulo, SP"},
		{"region only", `{"address":{"addressRegion":"SP"}}`, "SP"},
		{"city only in array", `[{"@type":"Place","address":{"addressLocality":"Recife"}}]`, "Recife"},
		{"skips places without address", `[{"@type":"Place"},{"@type":"Place","address":{"addressLocality":"Campinas","addressRegion":"SP"}}]`, "Campinas, SP"},
		{"name when no address anywhere", `[{"@type":"Place","name":"Remoto"}]`, "Remoto"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := mustDoc(t, ldJSON(`{"@type":"JobPosting","jobLocation":`+tc.loc+`}`))
			if got, _ := FromStructuredData(doc).Get(posting.WorkLocation); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFromStructuredData_MalformedBlockSkipped(t *testing.T) {
	doc := mustDoc(t, ldJSON(`{"@type":"JobPosting", "title": `)+ldJSON(`{"@type":"JobPosting","title":"Designer"}`))
	if got, _ := FromStructuredData(doc).Get(posting.Title); got != "Designer" {
		t.Fatalf("expected the valid block to be used, got %q", got)
	}
}

func TestFromStructuredData_LastNonEmptyWins(t *testing.T) {
	doc := mustDoc(t,
		ldJSON(`{"@type":"JobPosting","title":"Primeiro","description":"Descrição inicial"}`)+
			ldJSON(`{"@type":"JobPosting","title":"Segundo","description":""}`))
	sd := FromStructuredData(doc)
	if got, _ := sd.Get(posting.Title); got != "Segundo" {
		t.Fatalf("expected last title, got %q", got)
	}
	if got, _ := sd.Get(posting.Description); got != "Descrição inicial" {
		t.Fatalf("empty later values must not override, got %q", got)
	}
}

func TestFromStructuredData_GraphAndTypeArray(t *testing.T) {
	doc := mustDoc(t, ldJSON(`{"@context":"https://schema.org","@graph":[
	  {"@type":"Organization","name":"Acme"},
	  {"@type":["JobPosting"],"title":"QA","hiringOrganization":{"@type":"Organization","name":"Acme Ltda"}}
	]}`))
	sd := FromStructuredData(doc)
	if got, _ := sd.Get(posting.Title); got != "QA" {
		t.Fatalf("unexpected title %q", got)
	}
	if sd.Organization != "Acme Ltda" {
		t.Fatalf("unexpected organization %q", sd.Organization)
	}
}

func TestFromStructuredData_DescriptionMarkupBecomesText(t *testing.T) {
	doc := mustDoc(t, ldJSON(`{"@type":"JobPosting","description":"&lt;p&gt;Primeiro&lt;/p&gt;&lt;p&gt;Segundo&lt;/p&gt;","workHours":"Segunda a sexta, 9h às 18h"}`))
	sd := FromStructuredData(doc)
	if got, _ := sd.Get(posting.Description); got != "Primeiro\n\nSegundo" {
		t.Fatalf("unexpected description %q", got)
	}
	if got, _ := sd.Get(posting.WorkSchedule); got != "Segunda a sexta, 9h às 18h" {
		t.Fatalf("unexpected schedule %q", got)
	}
}

func TestFromStructuredData_IgnoresOtherTypesAndScripts(t *testing.T) {
	doc := mustDoc(t, ldJSON(`{"@type":"WebPage","title":"Home"}`)+`<script>{"@type":"JobPosting","title":"x"}</script>`)
	sd := FromStructuredData(doc)
	if len(sd.Fields) != 0 {
		t.Fatalf("expected no fields, got %v", sd.Fields)
	}
}
