package registry

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"go.yaml.in/yaml/v3"
)

// SupportedVersions is the range of services.yaml format versions this
// build understands.
const SupportedVersions = ">= 1.0.0, < 2.0.0"

// DefaultVersion is assumed when services.yaml has no version field.
const DefaultVersion = "1.0.0"

// registryFile is the on-disk layout of services.yaml. Services is kept as a
// node so the mapping's document order survives decoding.
type registryFile struct {
	Version  string    `yaml:"version"`
	Services yaml.Node `yaml:"services"`
}

type serviceSpec struct {
	BaseURL string           `yaml:"baseUrl"`
	Tools   []ToolDescriptor `yaml:"tools"`
}

// LoadFile reads and parses a services.yaml file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry %s: %w", path, err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing registry %s: %w", path, err)
	}
	return reg, nil
}

// Parse decodes a services.yaml document. The services mapping is read in
// document order, which becomes the registry's iteration order.
func Parse(data []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshaling YAML: %w", err)
	}

	if err := checkVersion(f.Version); err != nil {
		return nil, err
	}

	node := &f.Services
	if node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		return New()
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: 'services' must be a mapping of service name to service", node.Line)
	}

	entries := make([]ServiceEntry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		var spec serviceSpec
		if err := valNode.Decode(&spec); err != nil {
			return nil, fmt.Errorf("service %q: %w", keyNode.Value, err)
		}
		entries = append(entries, ServiceEntry{
			ServiceName: keyNode.Value,
			BaseURL:     spec.BaseURL,
			Tools:       spec.Tools,
		})
	}
	return New(entries...)
}

// checkVersion validates the services.yaml format version against
// SupportedVersions.
func checkVersion(v string) error {
	if v == "" {
		v = DefaultVersion
	}
	ver, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("invalid registry version %q: %w", v, err)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return fmt.Errorf("parsing supported version range: %w", err)
	}
	if !c.Check(ver) {
		return fmt.Errorf("registry version %s is not supported (want %s)", ver, SupportedVersions)
	}
	return nil
}
