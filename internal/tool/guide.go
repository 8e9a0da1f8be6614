package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/tutorgraph/tutorgraph/internal/guide"
)

// GuideLookup retrieves stored course-guide documents. The subject
// normally comes from session state, injected into the arguments by
// the tool node when the model did not supply one.
type GuideLookup struct {
	store  *guide.Store
	schema *jsonschema.Schema
}

// GuideLookupInput is the argument schema for the guide_lookup tool.
type GuideLookupInput struct {
	Subject string `json:"subject,omitempty" jsonschema_description:"The subject whose course guide to retrieve. Defaults to the session's current subject."`
	Key     string `json:"key,omitempty" jsonschema_description:"Optional dotted path selecting one guide section, e.g. 'learning_outcomes' or 'bibliography.core'. Omit for a summary."`
}

// NewGuideLookup builds the guide_lookup tool backed by store.
func NewGuideLookup(store *guide.Store) *GuideLookup {
	return &GuideLookup{store: store, schema: mustSchema[GuideLookupInput]()}
}

func (g *GuideLookup) Name() string { return "guide_lookup" }

func (g *GuideLookup) Description() string {
	return "Retrieve the stored course guide for the current subject: a summary, or one section by key."
}

func (g *GuideLookup) Schema() *jsonschema.Schema { return g.schema }

// Invoke implements Tool. Missing guides, missing keys and store
// failures all come back as textual results.
func (g *GuideLookup) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var input GuideLookupInput
	if err := json.Unmarshal(args, &input); err != nil {
		return fmt.Sprintf("Error retrieving guide: bad arguments: %v", err), nil
	}
	if input.Subject == "" {
		return "No guide found: no subject set for this session", nil
	}

	doc, err := g.store.Lookup(input.Subject)
	if err == guide.ErrNotFound {
		return "No guide found for subject: " + input.Subject, nil
	}
	if err != nil {
		return fmt.Sprintf("Error retrieving guide: %v", err), nil
	}

	if input.Key != "" {
		value, ok := guide.Field(doc, input.Key)
		if !ok {
			return fmt.Sprintf("Key %q not present in guide for subject %s", input.Key, input.Subject), nil
		}
		return marshalResult(value)
	}
	return marshalResult(guide.Summary(doc))
}

func marshalResult(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("Error retrieving guide: encode result: %v", err), nil
	}
	return string(data), nil
}
