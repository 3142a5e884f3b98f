package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"storyteller"
	"storyteller/internal/game"
)

// Checks that every image the card manifest references exists under the cards
// directory. With CARDS_MIRROR set, missing images are fetched from that base
// URL using the same relative layout.
//
//	CARDS_DIR=./cards CARDS_MIRROR=https://art.example.com/cards go run ./scripts/cards
func main() {
	fmt.Println("Storyteller Card Art Check")
	fmt.Println("==========================")
	fmt.Println()

	dir := os.Getenv("CARDS_DIR")
	if dir == "" {
		dir = "cards"
	}
	mirror := os.Getenv("CARDS_MIRROR")

	catalog, err := game.NewCardCatalog(storyteller.CardManifestYAML)
	if err != nil {
		fmt.Printf("Error loading card manifest: %v\n", err)
		os.Exit(1)
	}

	missing := missingFiles(catalog, dir)
	fmt.Printf("%d cards, %d image files missing under %s\n\n", len(catalog.Cards()), len(missing), dir)
	if len(missing) == 0 {
		return
	}

	if mirror == "" {
		for _, rel := range missing {
			fmt.Printf("- %s\n", rel)
		}
		fmt.Println("\nSet CARDS_MIRROR to download them.")
		os.Exit(1)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	failed := 0
	for _, rel := range missing {
		fmt.Printf("Downloading %s...\n", rel)
		if err := download(client, mirror, rel, dir); err != nil {
			fmt.Printf("  %v\n", err)
			failed++
			continue
		}
		// be polite to the mirror
		time.Sleep(200 * time.Millisecond)
	}

	if failed > 0 {
		fmt.Printf("\n%d downloads failed\n", failed)
		os.Exit(1)
	}
	fmt.Println("\nAll card art present.")
}

// cardPaths lists the image paths of a card relative to the cards directory
func cardPaths(c game.Card) []string {
	paths := make([]string, 0, 3)
	for _, p := range []string{c.Full, c.Image, c.Thumb} {
		paths = append(paths, strings.TrimPrefix(strings.TrimPrefix(p, "/"), "cards/"))
	}
	return paths
}

func missingFiles(catalog *game.CardCatalog, dir string) []string {
	var missing []string
	for _, c := range catalog.Cards() {
		for _, rel := range cardPaths(c) {
			if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel))); err != nil {
				missing = append(missing, rel)
			}
		}
	}
	return missing
}

func download(client *http.Client, mirror, rel, dir string) error {
	src, err := url.JoinPath(mirror, rel)
	if err != nil {
		return fmt.Errorf("bad mirror url: %w", err)
	}

	resp, err := client.Get(src)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, src)
	}

	dest := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return nil
}
