package generator

import (
	"fmt"

	"github.com/aretw0/synapse/pkg/domain"
)

// LayerPolicy decides how node counts that do not divide evenly into layers are handled.
type LayerPolicy string

const (
	// LayerClamp assigns remainder nodes to the last layer.
	LayerClamp LayerPolicy = "clamp"
	// LayerStrict rejects node counts that are not a multiple of the layer count.
	LayerStrict LayerPolicy = "strict"
	// LayerOverflow keeps the raw floor(i / perLayer) index, which may reach Layers or beyond.
	LayerOverflow LayerPolicy = "overflow"
)

// WeightRange is a closed interval weights are drawn from uniformly.
type WeightRange struct {
	Min float64 `json:"min" yaml:"min" mapstructure:"min"`
	Max float64 `json:"max" yaml:"max" mapstructure:"max"`
}

// Config holds the generation parameters.
type Config struct {
	// Nodes is the total node count. Zero produces an empty graph.
	Nodes int `json:"nodes" yaml:"nodes" mapstructure:"nodes"`

	// Layers is the number of contiguous layers. Must be positive and at most Nodes.
	Layers int `json:"layers" yaml:"layers" mapstructure:"layers"`

	// ConnectionProb is the chance that a layer-adjacent pair gets a local edge. Default: 0.2.
	ConnectionProb float64 `json:"connection_prob" yaml:"connection_prob" mapstructure:"connection_prob"`

	// LongRangeProb scales the number of long-range trials (floor(Nodes * LongRangeProb)). Default: 0.05.
	LongRangeProb float64 `json:"long_range_prob" yaml:"long_range_prob" mapstructure:"long_range_prob"`

	// LocalWeight bounds the weights of local edges. Default: [0.1, 1.0].
	LocalWeight WeightRange `json:"local_weight" yaml:"local_weight" mapstructure:"local_weight"`

	// LongRangeWeight bounds the weights of long-range edges. Default: [0.05, 0.5].
	LongRangeWeight WeightRange `json:"long_range_weight" yaml:"long_range_weight" mapstructure:"long_range_weight"`

	// LayerPolicy handles uneven partitions. Empty means LayerClamp.
	LayerPolicy LayerPolicy `json:"layer_policy" yaml:"layer_policy" mapstructure:"layer_policy"`
}

// DefaultConfig returns the reference configuration: 100 nodes in 5 layers.
func DefaultConfig() Config {
	return Config{
		Nodes:           100,
		Layers:          5,
		ConnectionProb:  0.2,
		LongRangeProb:   0.05,
		LocalWeight:     WeightRange{Min: 0.1, Max: 1.0},
		LongRangeWeight: WeightRange{Min: 0.05, Max: 0.5},
		LayerPolicy:     LayerClamp,
	}
}

// Validate checks the configuration and returns every failure found.
func (c Config) Validate() error {
	var errs []error
	fail := func(field, reason string, value any) {
		errs = append(errs, &domain.ConfigError{Field: field, Reason: reason, Value: value})
	}

	if c.Nodes < 0 {
		fail("nodes", "must not be negative", c.Nodes)
	}
	if c.Layers <= 0 {
		fail("layers", "must be positive", c.Layers)
	} else if c.Nodes > 0 && c.Layers > c.Nodes {
		fail("layers", fmt.Sprintf("must not exceed nodes (%d)", c.Nodes), c.Layers)
	}
	if c.ConnectionProb < 0 || c.ConnectionProb > 1 {
		fail("connection_prob", "must be within [0, 1]", c.ConnectionProb)
	}
	if c.LongRangeProb < 0 || c.LongRangeProb > 1 {
		fail("long_range_prob", "must be within [0, 1]", c.LongRangeProb)
	}
	if c.LocalWeight.Min > c.LocalWeight.Max {
		fail("local_weight", "min exceeds max", c.LocalWeight)
	}
	if c.LongRangeWeight.Min > c.LongRangeWeight.Max {
		fail("long_range_weight", "min exceeds max", c.LongRangeWeight)
	}

	switch c.policy() {
	case LayerClamp, LayerOverflow:
	case LayerStrict:
		if c.Layers > 0 && c.Nodes%c.Layers != 0 {
			fail("layers", fmt.Sprintf("must divide nodes (%d) evenly under strict policy", c.Nodes), c.Layers)
		}
	default:
		fail("layer_policy", "unknown policy", c.LayerPolicy)
	}

	return domain.Join(errs)
}

func (c Config) policy() LayerPolicy {
	if c.LayerPolicy == "" {
		return LayerClamp
	}
	return c.LayerPolicy
}

// LayerOf returns the layer for node id under this configuration.
// The configuration must be valid and non-empty.
func (c Config) LayerOf(id int) int {
	perLayer := c.Nodes / c.Layers
	layer := id / perLayer
	if c.policy() == LayerClamp && layer >= c.Layers {
		layer = c.Layers - 1
	}
	return layer
}
