package tableio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// JSON reads JSON documents as generic mappings. Used for the analysis files
// metadata and converted session attribute documents.
type JSON struct{}

// ReadObject parses the JSON object at path.
func (JSON) ReadObject(ctx context.Context, path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read object file: %w", err)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse object file %s: %w", path, err)
	}
	return out, nil
}
