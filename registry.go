package mavkit

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// VehicleRegistryEntry describes one named, pre-configured connection.
type VehicleRegistryEntry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Address is a mavcodec-parseable endpoint, e.g. "udpin:0.0.0.0:14550".
	Address string `yaml:"address"`
}

// VehicleRegistry is a set of named vehicle connections loadable from a
// YAML file, for deployments managing a fleet rather than one vehicle.
type VehicleRegistry struct {
	Vehicles []VehicleRegistryEntry `yaml:"vehicles"`
}

// LoadVehicleRegistry reads and parses a registry file.
func LoadVehicleRegistry(path string) (*VehicleRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mavkit: failed to read vehicle registry: %w", err)
	}

	var registry VehicleRegistry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("mavkit: failed to parse vehicle registry: %w", err)
	}

	return &registry, nil
}

// Find looks up an entry by ID.
func (r *VehicleRegistry) Find(id string) (*VehicleRegistryEntry, error) {
	for i := range r.Vehicles {
		if r.Vehicles[i].ID == id {
			return &r.Vehicles[i], nil
		}
	}
	return nil, fmt.Errorf("mavkit: vehicle not found: %s", id)
}

// Connect looks up id and opens a connection to it with config.
func (r *VehicleRegistry) Connect(id string, config Config) (*Vehicle, error) {
	entry, err := r.Find(id)
	if err != nil {
		return nil, err
	}
	return ConnectWithConfig(entry.Address, config)
}
