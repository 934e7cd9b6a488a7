package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobapply-engine/internal/domain"
)

func TestCanonicalURL(t *testing.T) {
	got := CanonicalURL("HTTPS://Jobs.Example.com/p/1?utm_source=x&b=2&a=1&gclid=zz#apply")
	assert.Equal(t, "https://jobs.example.com/p/1?a=1&b=2", got)
	assert.Equal(t, "", CanonicalURL("  "))
}

func TestStableID(t *testing.T) {
	assert.Equal(t, "abc", StableID(domain.Listing{ID: " abc "}))

	a := StableID(domain.Listing{URL: "https://x.io/j/1?utm_campaign=q"})
	b := StableID(domain.Listing{URL: "https://X.io/j/1"})
	assert.Equal(t, a, b)
	assert.Contains(t, a, "url:")

	c := StableID(domain.Listing{Company: "Acme", Title: "Go Dev"})
	d := StableID(domain.Listing{Company: "acme ", Title: "go  dev"})
	assert.Equal(t, c, d)
	assert.Contains(t, c, "job:")
}

func TestHTMLToText(t *testing.T) {
	in := `<p>Build <b>Go</b> services.</p><ul><li>Kubernetes</li><li>AWS</li></ul><script>x()</script>`
	assert.Equal(t, "Build Go services. Kubernetes AWS", HTMLToText(in))
	assert.Equal(t, "plain text", HTMLToText("  plain\n text "))
	assert.Equal(t, "Tom & Jerry", HTMLToText("Tom &amp; Jerry"))
}

func TestNormalizeLocation(t *testing.T) {
	assert.Equal(t, "Denver, CO", NormalizeLocation("Location:  Denver ,  CO, denver"))
	assert.Equal(t, "", NormalizeLocation("   "))
}

func TestDeriveKeywords(t *testing.T) {
	kw := DeriveKeywords("Senior Go Engineer", "Work with C++, C# and Node.js in the cloud.")
	assert.Equal(t, []string{"senior", "go", "engineer", "work", "c++", "c#", "node.js", "cloud"}, kw)
}

func TestNormalize(t *testing.T) {
	l := Normalize(domain.Listing{
		Title:       "  Sr.   Backend Engineer ",
		Company:     " Acme ",
		URL:         "https://acme.io/jobs/7?utm_source=feed",
		Description: "<p>Go and Kubernetes</p>",
		Location:    "Remote, remote",
		Benefits:    []string{"401k", " 401K ", ""},
		SalaryMin:   domain.Float(180000),
		SalaryMax:   domain.Float(150000),
	})

	assert.Equal(t, "Sr. Backend Engineer", l.Title)
	assert.Equal(t, "Acme", l.Company)
	assert.Equal(t, "Go and Kubernetes", l.Description)
	assert.Equal(t, "Remote", l.Location)
	assert.Equal(t, []string{"401k"}, l.Benefits)
	assert.Equal(t, domain.SenioritySenior, l.Seniority)
	assert.Contains(t, l.Keywords, "kubernetes")
	assert.Equal(t, 150000.0, *l.SalaryMin)
	assert.Equal(t, 180000.0, *l.SalaryMax)
	assert.NotEmpty(t, l.ID)

	// explicit values win
	l = Normalize(domain.Listing{ID: "x", Title: "Senior Dev", Seniority: "jr", Keywords: []string{"Go", "go"}})
	assert.Equal(t, domain.SeniorityJunior, l.Seniority)
	assert.Equal(t, []string{"go"}, l.Keywords)
	assert.Equal(t, "x", l.ID)

	// unparseable seniority falls back to the title
	l = Normalize(domain.Listing{Title: "Lead Engineer", Seniority: "wizard"})
	assert.Equal(t, domain.SeniorityLead, l.Seniority)
}

func TestDedupe(t *testing.T) {
	in := []domain.Listing{
		{ID: "1", URL: "https://a.io/1"},
		{ID: "1", URL: "https://a.io/other"},
		{ID: "2", URL: "https://A.io/1?utm_medium=x"},
		{ID: "3"},
		{ID: "4"},
	}
	out := Dedupe(in)
	require.Len(t, out, 3)
	assert.Equal(t, "1", out[0].ID)
	assert.Equal(t, "3", out[1].ID)
	assert.Equal(t, "4", out[2].ID)
}

func TestFileSource_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "jobs.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"id":"a","title":"Go Dev","company_rating":4.2}]`), 0o644))
	res, err := NewFileSource(jsonPath).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "file:jobs.json", res.Source)
	require.Len(t, res.Listings, 1)
	assert.Equal(t, 4.2, *res.Listings[0].Rating)
	assert.Equal(t, "file:jobs.json", res.Listings[0].Source)

	envPath := filepath.Join(dir, "env.json")
	require.NoError(t, os.WriteFile(envPath, []byte(`{"listings":[{"id":"b"}],"jobs":[{"id":"c"}]}`), 0o644))
	res, err = NewFileSource(envPath).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Listings, 2)

	yamlPath := filepath.Join(dir, "jobs.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("- id: y1\n  title: Data Engineer\n  salary_min: 120000\n"), 0o644))
	res, err = NewFileSource(yamlPath).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Listings, 1)
	assert.Equal(t, 120000.0, *res.Listings[0].SalaryMin)

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`{nope`), 0o644))
	_, err = NewFileSource(badPath).Fetch(context.Background())
	assert.Error(t, err)

	_, err = NewFileSource(filepath.Join(dir, "missing.json")).Fetch(context.Background())
	assert.Error(t, err)
}

func TestFeedSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		if r.URL.Path == "/broken" {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"jobs":[{"id":"f1","title":"Platform Engineer"}]}`))
	}))
	defer srv.Close()

	lim := NewHostLimiter(100, 1)
	res, err := NewFeedSource("acme", srv.URL+"/jobs", time.Second, lim).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "feed:acme", res.Source)
	require.Len(t, res.Listings, 1)
	assert.Equal(t, "f1", res.Listings[0].ID)

	_, err = NewFeedSource("acme", srv.URL+"/broken", time.Second, nil).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHostLimiter(t *testing.T) {
	lim := NewHostLimiter(20, 1)
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, lim.WaitURL(ctx, "https://a.example/x"))
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)

	// other hosts have their own budget
	start = time.Now()
	require.NoError(t, lim.WaitURL(ctx, "https://b.example/x"))
	assert.Less(t, time.Since(start), 40*time.Millisecond)

	unlimited := NewHostLimiter(0, 0)
	for i := 0; i < 50; i++ {
		require.NoError(t, unlimited.WaitURL(ctx, "::bad"))
	}
}
