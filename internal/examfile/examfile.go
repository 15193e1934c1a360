// Package examfile reads exam definitions from JSON or YAML files.
package examfile

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/pavelanni/examscore/internal/model"
)

//go:embed exam.schema.json
var schemaJSON []byte

const schemaURL = "schema://exam.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var def any
		if err := json.Unmarshal(schemaJSON, &def); err != nil {
			schemaErr = fmt.Errorf("parse exam schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, def); err != nil {
			schemaErr = fmt.Errorf("add exam schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Parse decodes an exam definition. Files ending in .yaml or .yml are read
// as YAML, everything else as JSON. The document is checked against the exam
// schema and then by Exam.Validate.
func Parse(name string, data []byte) (model.Exam, error) {
	doc := data
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		var err error
		if doc, err = yamlToJSON(data); err != nil {
			return model.Exam{}, fmt.Errorf("parse %s: %w", name, err)
		}
	}

	var generic any
	if err := json.Unmarshal(doc, &generic); err != nil {
		return model.Exam{}, fmt.Errorf("parse %s: %w", name, err)
	}
	sch, err := compiledSchema()
	if err != nil {
		return model.Exam{}, err
	}
	if err := sch.Validate(generic); err != nil {
		return model.Exam{}, fmt.Errorf("%w: %s: %v", model.ErrInvalidExam, name, err)
	}

	var exam model.Exam
	if err := json.Unmarshal(doc, &exam); err != nil {
		return model.Exam{}, fmt.Errorf("decode %s: %w", name, err)
	}
	if err := exam.Validate(); err != nil {
		return model.Exam{}, fmt.Errorf("%s: %w", name, err)
	}
	return exam, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&v); err != nil {
		return nil, err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("multiple YAML documents are not supported")
		}
		return nil, err
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("convert YAML to JSON: %w", err)
	}
	return out, nil
}

// Load reads and parses the exam file at path. It also returns the SHA-256
// of the file contents.
func Load(path string) (model.Exam, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Exam{}, "", fmt.Errorf("read exam file: %w", err)
	}
	sum := sha256.Sum256(data)
	exam, err := Parse(path, data)
	if err != nil {
		return model.Exam{}, "", err
	}
	return exam, hex.EncodeToString(sum[:]), nil
}
