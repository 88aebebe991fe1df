package detectors

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	ports "github.com/equalvoice/parley-mediator/parley/pipeline/ports"
)

// builders is the static detector registry, keyed by category id. Detectors
// are resolved once at configuration time; there is no runtime discovery.
var builders = map[string]func(zerolog.Logger) ports.Detector{
	string(ports.CategoryStructuralMarginalization): func(l zerolog.Logger) ports.Detector {
		return NewStructuralDetector(l)
	},
	string(ports.CategoryExpressionDifficulty): func(l zerolog.Logger) ports.Detector {
		return NewExpressionDetector(l)
	},
	string(ports.CategoryPotentialAggression): func(l zerolog.Logger) ports.Detector {
		return NewAggressionDetector(l)
	},
}

// Available returns the registered detector names, sorted.
func Available() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build instantiates the named detectors. An empty names list means all
// registered detectors; an unknown name is an error.
func Build(names []string, logger zerolog.Logger) ([]ports.Detector, error) {
	if len(names) == 0 {
		names = Available()
	}
	detectors := make([]ports.Detector, 0, len(names))
	for _, name := range names {
		builder, ok := builders[name]
		if !ok {
			return nil, fmt.Errorf("unknown detector %q (available: %v)", name, Available())
		}
		detectors = append(detectors, builder(logger))
	}
	return detectors, nil
}
