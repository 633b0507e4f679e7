// Package sites classifies job-page URLs by source board and holds the
// per-site extraction strategy table.
package sites

import (
	"net/url"
	"strings"
)

// ID identifies a known job board, or Generic for everything else.
type ID string

const (
	Gupy     ID = "gupy"
	LinkedIn ID = "linkedin"
	Indeed   ID = "indeed"
	Vagas    ID = "vagas"
	InfoJobs ID = "infojobs"
	Generic  ID = "generic"
)

// IDs lists every site identifier, Generic last.
var IDs = []ID{Gupy, LinkedIn, Indeed, Vagas, InfoJobs, Generic}

// hostRules is matched in order against the lower-cased host; first hit wins.
var hostRules = []struct {
	needle string
	id     ID
}{
	{"gupy.io", Gupy},
	{"linkedin.com", LinkedIn},
	{"indeed.", Indeed},
	{"vagas.com", Vagas},
	{"infojobs.", InfoJobs},
}

var labels = map[ID]string{
	Gupy:     "Gupy",
	LinkedIn: "LinkedIn",
	Indeed:   "Indeed",
	Vagas:    "Vagas.com",
	InfoJobs: "InfoJobs",
	Generic:  "Outro",
}

// Label returns the display name of the site.
func (id ID) Label() string {
	if l, ok := labels[id]; ok {
		return l
	}
	return labels[Generic]
}

// Known reports whether id is one of the closed set of identifiers.
func (id ID) Known() bool {
	_, ok := labels[id]
	return ok
}

// Classify returns the site a posting URL belongs to. It never fails:
// unparseable input and unknown hosts yield Generic.
func Classify(rawURL string) ID {
	host := Host(rawURL)
	if host == "" {
		return Generic
	}
	for _, r := range hostRules {
		if strings.Contains(host, r.needle) {
			return r.id
		}
	}
	return Generic
}

// Host extracts the lower-cased host name of rawURL, tolerating a missing
// scheme. It returns "" when the input is not a URL.
func Host(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if !strings.Contains(host, ".") {
		return ""
	}
	return host
}
