// Package config reads the YAML configuration file of the provenance
// command.
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/BarrensZeppelin/provenance"
	"github.com/pkg/errors"
	"golang.org/x/tools/go/ssa"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Package queries to analyse when none are given on the command line.
	Packages []string `yaml:"packages"`
	// Directory to run the go build tool in.
	Dir   string `yaml:"dir"`
	Tests bool   `yaml:"tests"`

	CallGraph      string `yaml:"callgraph"`
	MaxChainLength int    `yaml:"max_chain_length"`
	Verbose        bool   `yaml:"verbose"`

	Accessors struct {
		Getters   []string `yaml:"getters"`
		Setters   []string `yaml:"setters"`
		Iterators []string `yaml:"iterators"`
	} `yaml:"accessors"`
}

func Default() *Config {
	return &Config{CallGraph: string(provenance.CallGraphCHA)}
}

// Load reads the configuration at path on top of the defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening config")
	}
	defer f.Close()

	c, err := Decode(f)
	return c, errors.Wrapf(err, "reading %s", path)
}

// Decode reads a configuration from r on top of the defaults. Unknown keys
// are rejected.
func Decode(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty document leaves the defaults in place.
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return nil, err
	}
	return c, c.Validate()
}

func (c *Config) Validate() error {
	if _, err := provenance.ParseCallGraphKind(c.CallGraph); err != nil {
		return err
	}
	if c.MaxChainLength < 0 {
		return errors.Errorf("max_chain_length must not be negative, got %d", c.MaxChainLength)
	}
	return nil
}

// AnalysisConfig returns the analysis configuration for prog.
func (c *Config) AnalysisConfig(prog *ssa.Program) (provenance.AnalysisConfig, error) {
	kind, err := provenance.ParseCallGraphKind(c.CallGraph)
	if err != nil {
		return provenance.AnalysisConfig{}, err
	}
	return provenance.AnalysisConfig{
		Program:   prog,
		CallGraph: kind,
		Accessors: provenance.Accessors{
			Getters:   c.Accessors.Getters,
			Setters:   c.Accessors.Setters,
			Iterators: c.Accessors.Iterators,
		},
		MaxChainLength: c.MaxChainLength,
		Verbose:        c.Verbose,
	}, nil
}
