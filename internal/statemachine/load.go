package statemachine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadSpec parses a MachineSpec from a YAML file on disk, the way a pack
// would ship state_machine.yml alongside its other config layers.
func LoadSpec(path string) (MachineSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MachineSpec{}, fmt.Errorf("statemachine: read spec %s: %w", path, err)
	}
	if err := validateSpecShape(data); err != nil {
		return MachineSpec{}, fmt.Errorf("statemachine: %s failed schema validation: %w", path, err)
	}
	var spec MachineSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return MachineSpec{}, fmt.Errorf("statemachine: parse spec %s: %w", path, err)
	}
	return spec, nil
}
