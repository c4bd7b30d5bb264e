// Package output encodes a harvested document into its final wire form:
// JSON or YAML, snake_case or camelCase keys, with an optional timestamp.
package output

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Content types reported to sinks that store metadata alongside the object.
const (
	ContentTypeJSON = "application/json"
	ContentTypeYAML = "application/yaml"
)

// Options selects the encoding of one output document.
type Options struct {
	Pretty        bool
	YAML          bool
	SnakeKeys     bool
	OmitTimestamp bool
	// Timestamp overrides the updated field; zero means now.
	Timestamp time.Time
}

// Marshal encodes the document under the given options and returns the
// encoded bytes with their content type.
func Marshal(doc map[string]any, opts Options) ([]byte, string, error) {
	if !opts.OmitTimestamp {
		ts := opts.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		doc["updated"] = ts.Format(time.RFC3339)
	}

	// Round-trip through JSON so struct tags determine the native key set
	// before any key rewriting.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, "", fmt.Errorf("marshal document: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, "", fmt.Errorf("decode document: %w", err)
	}
	if !opts.SnakeKeys {
		generic = convertKeys(generic)
	}

	if opts.YAML {
		content, err := yaml.Marshal(generic)
		if err != nil {
			return nil, "", fmt.Errorf("encode yaml: %w", err)
		}
		return content, ContentTypeYAML, nil
	}

	var content []byte
	if opts.Pretty {
		content, err = json.MarshalIndent(generic, "", "    ")
	} else {
		content, err = json.Marshal(generic)
	}
	if err != nil {
		return nil, "", fmt.Errorf("encode json: %w", err)
	}
	return content, ContentTypeJSON, nil
}
