package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsphweid/ceol/model"
	"gopkg.in/yaml.v3"
)

type Format int

const (
	Unknown Format = iota
	JSON
	YAML
)

// FormatOf guesses the document format from a file name or URL path.
func FormatOf(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return JSON
	case ".yml", ".yaml":
		return YAML
	}
	return Unknown
}

// FormatOfContentType maps a MIME type to a document format.
func FormatOfContentType(contentType string) Format {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "json"):
		return JSON
	case strings.Contains(ct, "yaml"):
		return YAML
	}
	return Unknown
}

// DecodeTunes reads a tune document. An Unknown format tries JSON first and
// falls back to YAML.
func DecodeTunes(data []byte, format Format) (model.TuneDocument, error) {
	var doc model.TuneDocument
	switch format {
	case JSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return doc, fmt.Errorf("could not decode json tune document: %w", err)
		}
	case YAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return doc, fmt.Errorf("could not decode yaml tune document: %w", err)
		}
	default:
		if jsonErr := json.Unmarshal(data, &doc); jsonErr != nil {
			doc = model.TuneDocument{}
			if yamlErr := yaml.Unmarshal(data, &doc); yamlErr != nil {
				return doc, fmt.Errorf("tune document is neither json (%v) nor yaml (%w)", jsonErr, yamlErr)
			}
		}
	}
	return doc.Normalize(), nil
}

func ReadTuneFile(path string) (model.TuneDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.TuneDocument{}, err
	}
	return DecodeTunes(data, FormatOf(path))
}

func EncodeTunes(doc model.TuneDocument, format Format) ([]byte, error) {
	if format == YAML {
		return yaml.Marshal(doc)
	}
	return json.MarshalIndent(doc, "", "  ")
}

func WriteTuneFile(path string, doc model.TuneDocument) error {
	data, err := EncodeTunes(doc, FormatOf(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
