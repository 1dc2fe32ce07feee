package curriculum

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/crucible/internal/domain"
)

//go:embed topic.schema.json
var topicSchemaJSON []byte

const topicSchemaURL = "schema://crucible/topic.json"

var (
	topicSchemaOnce sync.Once
	topicSchema     *jsonschema.Schema
	topicSchemaErr  error
)

func compiledTopicSchema() (*jsonschema.Schema, error) {
	topicSchemaOnce.Do(func() {
		var def any
		if err := json.Unmarshal(topicSchemaJSON, &def); err != nil {
			topicSchemaErr = fmt.Errorf("parse topic schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(topicSchemaURL, def); err != nil {
			topicSchemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		topicSchema, topicSchemaErr = c.Compile(topicSchemaURL)
	})
	return topicSchema, topicSchemaErr
}

// validateTopicDocument checks a raw topic YAML document against the topic schema
func validateTopicDocument(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse topic file: %w", err)
	}

	// normalize YAML scalars to the JSON value model the validator expects
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: topic is not JSON-compatible: %v", domain.ErrInvalidInput, err)
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("parse normalized topic: %w", err)
	}

	schema, err := compiledTopicSchema()
	if err != nil {
		return fmt.Errorf("compile topic schema: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("%w: schema validation failed: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
