package infer

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hyperifyio/jobscrape/internal/sites"
)

// atsSubdomain lists applicant-tracking hosts that put the company in the
// first host label, as in acme.gupy.io.
var atsSubdomain = []string{
	"gupy.io",
	"recruitee.com",
	"solides.jobs",
	"breezy.hr",
	"bamboohr.com",
	"kenoby.com",
	"myworkdayjobs.com",
}

// atsPath lists hosts that put the company in the first path segment, as in
// jobs.lever.co/acme.
var atsPath = []string{
	"jobs.lever.co",
	"boards.greenhouse.io",
	"job-boards.greenhouse.io",
	"jobs.ashbyhq.com",
	"apply.workable.com",
}

// jobBoards host postings for many companies; the URL says nothing about
// the employer.
var jobBoards = []string{
	"linkedin.com",
	"indeed.",
	"vagas.com",
	"infojobs.",
	"catho.com.br",
	"glassdoor.",
	"trampos.co",
}

// genericLabels are subdomains that never name a company.
var genericLabels = map[string]bool{
	"www": true, "jobs": true, "careers": true, "carreiras": true, "vagas": true,
	"trabalhe": true, "trabalheconosco": true, "portal": true, "app": true,
}

// secondLevel are labels that, under a two-letter country code, form a
// public suffix such as com.br or co.uk.
var secondLevel = map[string]bool{
	"com": true, "net": true, "org": true, "gov": true, "edu": true,
	"co": true, "ind": true, "emp": true, "art": true,
}

// Client derives the hiring company's name from a posting URL, or
// NotIdentified.
func Client(rawURL string) string {
	host := sites.Host(rawURL)
	if host == "" {
		return NotIdentified
	}
	for _, ats := range atsSubdomain {
		if host == ats || !strings.HasSuffix(host, "."+ats) {
			continue
		}
		sub := strings.Split(strings.TrimSuffix(host, "."+ats), ".")
		return companyName(sub[len(sub)-1])
	}
	for _, ats := range atsPath {
		if host != ats {
			continue
		}
		return companyName(firstPathSegment(rawURL))
	}
	for _, board := range jobBoards {
		if strings.Contains(host, board) {
			return NotIdentified
		}
	}
	return companyName(registrableLabel(host))
}

// registrableLabel returns the label just left of the public suffix:
// acme for careers.acme.com.br and for acme.com.
func registrableLabel(host string) string {
	labels := strings.Split(host, ".")
	n := len(labels)
	if n < 2 {
		return ""
	}
	if n >= 3 && len(labels[n-1]) == 2 && secondLevel[labels[n-2]] {
		return labels[n-3]
	}
	return labels[n-2]
}

func firstPathSegment(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			return seg
		}
	}
	return ""
}

// companyName turns a host label or slug into a display name.
func companyName(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" || genericLabels[label] {
		return NotIdentified
	}
	parts := strings.FieldsFunc(label, func(r rune) bool { return r == '-' || r == '_' })
	if len(parts) == 0 {
		return NotIdentified
	}
	return cases.Title(language.BrazilianPortuguese).String(strings.Join(parts, " "))
}
