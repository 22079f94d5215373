package web

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"

	"github.com/alnah/go-chunkscribe/internal/lang"
	"github.com/alnah/go-chunkscribe/internal/pipeline"
	"github.com/alnah/go-chunkscribe/internal/transcribe"
)

//go:embed index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

type sizeOption struct {
	Value    string
	Selected bool
}

type languageOption struct {
	lang.Option
	Selected bool
}

type indexData struct {
	Accept       string
	Sizes        []sizeOption
	Languages    []languageOption
	MinMinutes   int
	MaxMinutes   int
	ChunkMinutes int
}

func renderIndex(defaults pipeline.Config) ([]byte, error) {
	data := indexData{
		Accept:       acceptAttr(),
		MinMinutes:   int(pipeline.MinChunkLength.Minutes()),
		MaxMinutes:   int(pipeline.MaxChunkLength.Minutes()),
		ChunkMinutes: int(defaults.ChunkLength.Minutes()),
	}
	for _, s := range transcribe.Sizes() {
		data.Sizes = append(data.Sizes, sizeOption{Value: s.String(), Selected: s == defaults.Size})
	}
	selected := lang.Normalize(defaults.Language)
	if selected == "" {
		selected = lang.Auto
	}
	for _, o := range lang.Options() {
		data.Languages = append(data.Languages, languageOption{Option: o, Selected: o.Code == selected})
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}
	return buf.Bytes(), nil
}
