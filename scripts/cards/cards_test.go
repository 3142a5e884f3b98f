package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storyteller/internal/game"
)

func TestCardPaths(t *testing.T) {
	card := game.DefaultCardCatalog().Cards()[4]
	assert.Equal(t, []string{"card-05.png", "medium/card-05.png", "thumb/card-05.png"}, cardPaths(card))
}

func TestMissingFiles(t *testing.T) {
	dir := t.TempDir()
	catalog := game.DefaultCardCatalog()
	assert.Len(t, missingFiles(catalog, dir), 3*game.DeckSize)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "thumb"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "thumb", "card-01.png"), []byte("png"), 0644))
	missing := missingFiles(catalog, dir)
	assert.Len(t, missing, 3*game.DeckSize-1)
	assert.NotContains(t, missing, "thumb/card-01.png")
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/art/medium/card-02.png" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("image bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	require.NoError(t, download(srv.Client(), srv.URL+"/art", "medium/card-02.png", dir))

	got, err := os.ReadFile(filepath.Join(dir, "medium", "card-02.png"))
	require.NoError(t, err)
	assert.Equal(t, "image bytes", string(got))

	err = download(srv.Client(), srv.URL+"/art", "medium/card-03.png", dir)
	assert.ErrorContains(t, err, "HTTP 404")
}
