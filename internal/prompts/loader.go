// Package prompts holds the LLM prompt templates, embedded from the JSON files next to it.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// ID addresses one prompt: the embedded file and the key inside it
type ID struct {
	File string
	Key  string
}

func (id ID) String() string { return id.File + "#" + id.Key }

var (
	ExtractResume = ID{File: "extraction.json", Key: "extract-resume"}
	TailorResume  = ID{File: "tailoring.json", Key: "tailor-resume"}
)

// catalog is every embedded file parsed on first use
var catalog = sync.OnceValues(func() (map[string]map[string]string, error) {
	return loadCatalog(promptFiles)
})

func loadCatalog(fsys fs.FS) (map[string]map[string]string, error) {
	names, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]string, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", name, err)
		}
		var entries map[string]string
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse prompt file %s: %w", name, err)
		}
		out[name] = entries
	}
	return out, nil
}

// Get returns the raw template for id
func Get(id ID) (string, error) {
	files, err := catalog()
	if err != nil {
		return "", err
	}
	entries, ok := files[id.File]
	if !ok {
		return "", fmt.Errorf("prompt file %s not found", id.File)
	}
	text, ok := entries[id.Key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", id.Key, id.File)
	}
	return text, nil
}

// Render fills the {{.Name}} placeholders of id with data. Unknown placeholders are left as they are.
func Render(id ID, data map[string]string) (string, error) {
	text, err := Get(id)
	if err != nil {
		return "", err
	}
	return fill(text, data), nil
}

// MustRender is Render for the prompts compiled into the binary
func MustRender(id ID, data map[string]string) string {
	out, err := Render(id, data)
	if err != nil {
		panic(fmt.Sprintf("prompt %s: %v", id, err))
	}
	return out
}

// fill substitutes in a single pass so substituted values are never rescanned
func fill(text string, data map[string]string) string {
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
