package storyteller

import (
	_ "embed"
)

// Embed the card manifest
//
//go:embed static/cards.yaml
var CardManifestYAML []byte
