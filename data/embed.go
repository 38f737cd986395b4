// Package data embeds the sample collection and document used to seed a new database.
package data

import (
	_ "embed"
)

//go:embed sample/pages.yaml
var SampleCollection []byte

//go:embed sample/home.json
var SampleDocument []byte
