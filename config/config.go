// Package config provides configuration loading and access for the
// simulation (spec.md §3 "Configuration").
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// StaticFieldForm selects one of the static-field formulations of
// spec.md §4.3.
type StaticFieldForm string

const (
	FormZheng    StaticFieldForm = "zheng"
	FormVaras    StaticFieldForm = "varas"
	FormKirchner StaticFieldForm = "kirchner"
)

// DynamicKernel selects one of the dynamic-field update kernels of
// spec.md §4.4.
type DynamicKernel string

const (
	KernelDecayDiffusion   DynamicKernel = "decay_diffusion"
	KernelDecay            DynamicKernel = "decay"
	KernelSingleDiffusion  DynamicKernel = "single_diffusion"
	KernelMultipleDiffusion DynamicKernel = "multiple_diffusion"
)

// EnvironmentOrigin selects how the environment's exits and pedestrians
// are sourced (spec.md §3 "Configuration", §6 "Environment file").
type EnvironmentOrigin string

const (
	OriginStaticExitsStaticPedestrians EnvironmentOrigin = "static_exits_static_pedestrians"
	OriginStaticExitsRandomPedestrians EnvironmentOrigin = "static_exits_random_pedestrians"
	OriginAuxiliaryExits               EnvironmentOrigin = "auxiliary_exits"
)

// OutputFormat selects the driver's emitted observation stream (spec.md
// §6 "Output streams").
type OutputFormat string

const (
	OutputEvacuationTime OutputFormat = "evacuation_time"
	OutputHeatmap        OutputFormat = "heatmap"
	OutputVisualisation  OutputFormat = "visualisation"
)

// SweepVariable names which numerical parameter the driver scans across
// a simulation set (spec.md §4.9).
type SweepVariable string

const (
	SweepNone         SweepVariable = ""
	SweepKs           SweepVariable = "ks"
	SweepKd           SweepVariable = "kd"
	SweepKf           SweepVariable = "kf"
	SweepAlpha        SweepVariable = "alpha"
	SweepDelta        SweepVariable = "delta"
	SweepOmega        SweepVariable = "omega"
	SweepMu           SweepVariable = "mu"
	SweepRiskDistance SweepVariable = "risk_distance"
	SweepDensity      SweepVariable = "density"
)

// Numerics holds the numerical model parameters of spec.md §3
// "Configuration": `{ks, kd, kf, alpha, delta, mu, omega, diagonal_cost,
// risk_distance, fire_alpha, fire_gamma, spread_rate, cell_length,
// timestep_duration}`.
type Numerics struct {
	Ks               float64 `yaml:"ks"`
	Kd               float64 `yaml:"kd"`
	Kf               float64 `yaml:"kf"`
	Alpha            float64 `yaml:"alpha"`
	Delta            float64 `yaml:"delta"`
	Mu               float64 `yaml:"mu"`
	Omega            float64 `yaml:"omega"`
	DiagonalCost     float64 `yaml:"diagonal_cost"`
	RiskDistance     float64 `yaml:"risk_distance"`
	FireAlpha        float64 `yaml:"fire_alpha"`
	FireGamma        float64 `yaml:"fire_gamma"`
	SpreadRate       float64 `yaml:"spread_rate"`
	CellLength       float64 `yaml:"cell_length"`
	TimestepDuration float64 `yaml:"timestep_duration"`
}

// Flags holds the behavioural switches of spec.md §3 "Configuration":
// `{prevent_corner_crossing, immediate_exit, fire_present, ...}`.
type Flags struct {
	PreventCornerCrossing bool `yaml:"prevent_corner_crossing"`
	ImmediateExit         bool `yaml:"immediate_exit"`
	FirePresent           bool `yaml:"fire_present"`
	EnableXConflicts      bool `yaml:"enable_x_conflicts"`
	SelfTraceSubtraction  bool `yaml:"self_trace_subtraction"`
}

// Sweep describes the parameter sweep of spec.md §4.9: `iterate the sweep
// variable from min to max step step`.
type Sweep struct {
	Variable SweepVariable `yaml:"variable"`
	Min      float64       `yaml:"min"`
	Max      float64       `yaml:"max"`
	Step     float64       `yaml:"step"`
}

// Points returns the sweep's scan points; a single point equal to base
// when Variable is SweepNone or Step is not positive.
func (s Sweep) Points(base float64) []float64 {
	if s.Variable == SweepNone || s.Step <= 0 {
		return []float64{base}
	}
	var points []float64
	for v := s.Min; v <= s.Max+1e-9; v += s.Step {
		points = append(points, v)
	}
	if len(points) == 0 {
		points = append(points, base)
	}
	return points
}

// Config holds all simulation configuration parameters (spec.md §3
// "Configuration"), immutable for the duration of one run.
type Config struct {
	Environment struct {
		Path   string            `yaml:"path"`
		Origin EnvironmentOrigin `yaml:"origin"`
	} `yaml:"environment"`

	Auxiliary struct {
		Path string `yaml:"path"`
	} `yaml:"auxiliary"`

	Output struct {
		Format OutputFormat `yaml:"format"`
		Path   string       `yaml:"path"`
	} `yaml:"output"`

	StaticField   StaticFieldForm `yaml:"static_field"`
	DynamicKernel DynamicKernel   `yaml:"dynamic_kernel"`

	TotalPedestrians int     `yaml:"total_pedestrians"`
	Density          float64 `yaml:"density"`
	Seed             int64   `yaml:"seed"`
	NumSimulations   int     `yaml:"num_simulations"`

	Numerics Numerics `yaml:"numerics"`
	Flags    Flags    `yaml:"flags"`
	Sweep    Sweep    `yaml:"sweep"`

	Workers int `yaml:"workers"`
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// WriteYAML writes the configuration to path, archiving a run's
// effective settings alongside its output.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Load loads configuration from a YAML file, merging with embedded
// defaults: the file only overwrites the fields it sets.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return cfg, nil
}
