package loaders

import (
	"fmt"
	"os"

	"github.com/spaghettifunk/marionette/engine/animation"
	"github.com/spaghettifunk/marionette/engine/core"
)

// LoadNetwork reads a blend-graph network definition from a JSON file.
func LoadNetwork(path string) (*animation.NetworkDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	def, err := animation.ParseNetworkDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrMalformedAsset, path, err)
	}
	return def, nil
}
