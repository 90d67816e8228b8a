package loaders

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spaghettifunk/marionette/engine/animation"
	"github.com/spaghettifunk/marionette/engine/core"
)

// LoadSkeleton reads and resolves a skeleton/animation dataset from a
// JSON file.
func LoadSkeleton(path string) (*animation.DataDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	def := &animation.DataDefinition{}
	if err := json.Unmarshal(data, def); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrMalformedAsset, path, err)
	}
	if err := def.Resolve(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrMalformedAsset, path, err)
	}
	return def, nil
}
