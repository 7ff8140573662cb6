package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><style>.x{}</style></head><body>
			<nav>Site Nav</nav>
			<h1>Acme Corp</h1>
			<p>We build   widgets.</p>
			<script>console.log("hi")</script>
			<footer>Copyright</footer>
		</body></html>`))
	}))
	defer srv.Close()

	text, err := NewStatic().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, text, "Acme Corp")
	assert.Contains(t, text, "We build")
	assert.NotContains(t, text, "Site Nav")
	assert.NotContains(t, text, "console.log")
	assert.NotContains(t, text, "Copyright")
}

func TestStaticFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewStatic().Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestFlattenText(t *testing.T) {
	in := "  Jane Doe  \n\n  Senior Engineer    Acme Corp  \n"
	assert.Equal(t, "Jane Doe\nSenior Engineer\nAcme Corp", flattenText(in))
}
