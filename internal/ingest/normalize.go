package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"jobapply-engine/internal/domain"
)

const maxKeywords = 40

func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

func NormalizeLocation(loc string) string {
	loc = CleanText(loc)
	if loc == "" {
		return ""
	}

	loc = strings.TrimPrefix(loc, "Location:")
	loc = strings.TrimPrefix(loc, "LOCATIONS:")
	loc = strings.TrimSpace(loc)

	parts := strings.Split(loc, ",")
	seen := map[string]bool{}
	var out []string
	for _, p := range parts {
		p = CleanText(p)
		if p == "" {
			continue
		}
		k := strings.ToLower(p)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}

// HTMLToText strips markup from a description. Block elements become line
// breaks before whitespace is collapsed, so words from adjacent paragraphs
// do not run together.
func HTMLToText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return CleanText(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return CleanText(s)
	}
	doc.Find("script, style").Remove()
	doc.Find("br, p, li, div, h1, h2, h3, h4, tr").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml(" ")
	})
	return CleanText(doc.Text())
}

// CanonicalURL lowercases scheme and host, drops the fragment and tracking
// parameters, and sorts the query.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mc_cid" || lk == "mc_eid" ||
			lk == "mkt_tok" {
			q.Del(k)
		}
	}

	// deterministic query
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}

// StableID keeps a source-provided id, otherwise derives one from the
// canonical URL, or from company/title/location when there is no URL.
func StableID(l domain.Listing) string {
	if id := strings.TrimSpace(l.ID); id != "" {
		return id
	}
	if u := CanonicalURL(l.URL); u != "" {
		return "url:" + hashString(u)
	}
	key := strings.ToLower(strings.Join([]string{
		CleanText(l.Company), CleanText(l.Title), CleanText(l.Location),
	}, "|"))
	return "job:" + hashString(key)
}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true, "be": true,
	"by": true, "for": true, "from": true, "in": true, "is": true, "it": true, "of": true,
	"on": true, "or": true, "our": true, "the": true, "to": true, "we": true, "will": true,
	"with": true, "you": true, "your": true, "this": true, "that": true, "who": true,
	"have": true, "has": true, "all": true, "can": true, "not": true, "us": true,
}

// DeriveKeywords picks distinct lowercase terms from the title and
// description, title terms first. Tokens keep '+', '#' and inner '.' so
// "c++", "c#" and "node.js" survive.
func DeriveKeywords(title, description string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(text string) {
		fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' || r == '-')
		})
		for _, f := range fields {
			f = strings.Trim(f, ".-")
			if len(f) < 2 || stopwords[f] || seen[f] {
				continue
			}
			seen[f] = true
			out = append(out, f)
			if len(out) == maxKeywords {
				return
			}
		}
	}
	add(title)
	if len(out) < maxKeywords {
		add(description)
	}
	return out
}

func cleanSet(xs []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, x := range xs {
		x = CleanText(x)
		k := strings.ToLower(x)
		if x == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, x)
	}
	return out
}

// Normalize returns a cleaned copy of l: text fields tidied, HTML stripped
// from the description, keywords derived when absent, seniority inferred
// from the title when unknown, and a stable id filled in.
func Normalize(l domain.Listing) domain.Listing {
	out := l
	out.Title = CleanText(l.Title)
	out.Company = CleanText(l.Company)
	out.URL = strings.TrimSpace(l.URL)
	out.Location = NormalizeLocation(l.Location)
	out.Description = HTMLToText(l.Description)
	out.Source = CleanText(l.Source)
	out.Benefits = cleanSet(l.Benefits)

	kw := cleanSet(l.Keywords)
	for i := range kw {
		kw[i] = strings.ToLower(kw[i])
	}
	if len(kw) == 0 {
		kw = DeriveKeywords(out.Title, out.Description)
	}
	out.Keywords = kw

	if lvl, err := domain.ParseSeniority(string(l.Seniority)); err == nil && lvl.Known() {
		out.Seniority = lvl
	} else {
		out.Seniority = domain.InferSeniority(out.Title)
	}

	if out.SalaryMin != nil && out.SalaryMax != nil && *out.SalaryMin > *out.SalaryMax {
		out.SalaryMin, out.SalaryMax = out.SalaryMax, out.SalaryMin
	}

	out.ID = StableID(out)
	return out
}

// Dedupe keeps the first listing per id and per canonical URL.
func Dedupe(in []domain.Listing) []domain.Listing {
	ids := map[string]bool{}
	urls := map[string]bool{}
	out := make([]domain.Listing, 0, len(in))
	for _, l := range in {
		u := CanonicalURL(l.URL)
		if ids[l.ID] || (u != "" && urls[u]) {
			continue
		}
		ids[l.ID] = true
		if u != "" {
			urls[u] = true
		}
		out = append(out, l)
	}
	return out
}
