package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ericzander/hotfis/pkg/hotfis/fis"
	"github.com/ericzander/hotfis/pkg/hotfis/membership"
	"github.com/ericzander/hotfis/pkg/hotfis/network"
	"github.com/ericzander/hotfis/pkg/hotfis/rules"
)

// EngineDef is the YAML shape of one inference engine.
type EngineDef struct {
	Groups        []GroupDef `yaml:"groups"`
	Rules         []string   `yaml:"rules"`
	MamdaniPoints int        `yaml:"mamdani_points,omitempty"`
}

// GroupDef is the YAML shape of one membership group.
type GroupDef struct {
	Name      string    `yaml:"name"`
	Domain    []float64 `yaml:"domain"` // [min, max]
	Functions []FuncDef `yaml:"functions"`
}

// FuncDef is the YAML shape of one membership function. Template-built
// functions give Template and Params; custom piecewise-linear functions
// give Params and Levels instead.
type FuncDef struct {
	Name     string    `yaml:"name"`
	Template string    `yaml:"template,omitempty"`
	Params   []float64 `yaml:"params"`
	Levels   []float64 `yaml:"levels,omitempty"`
}

// NetworkDef is the YAML shape of a network: named engine nodes, inserted
// in order.
type NetworkDef struct {
	Nodes []NodeDef `yaml:"nodes"`
}

// NodeDef is one named engine inside a network definition.
type NodeDef struct {
	Name   string    `yaml:"name"`
	Engine EngineDef `yaml:",inline"`
}

// LoadEngineYAML reads a YAML engine definition and builds the engine.
func LoadEngineYAML(path string) (*fis.Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var def EngineDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("load engine %s: %w", path, err)
	}
	e, err := BuildEngine(def)
	if err != nil {
		return nil, fmt.Errorf("load engine %s: %w", path, err)
	}
	return e, nil
}

// LoadNetworkYAML reads a YAML network definition and builds the network.
func LoadNetworkYAML(path string) (*network.Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var def NetworkDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("load network %s: %w", path, err)
	}
	net := network.New()
	for _, nd := range def.Nodes {
		e, err := BuildEngine(nd.Engine)
		if err != nil {
			return nil, fmt.Errorf("load network %s: node %q: %w", path, nd.Name, err)
		}
		if err := net.Insert(e, nd.Name); err != nil {
			return nil, fmt.Errorf("load network %s: %w", path, err)
		}
	}
	return net, nil
}

// BuildEngine constructs an engine from a definition.
func BuildEngine(def EngineDef) (*fis.Engine, error) {
	groups := make([]*membership.Group, 0, len(def.Groups))
	for _, gd := range def.Groups {
		g, err := buildGroup(gd)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	gs, err := membership.NewGroupset(groups)
	if err != nil {
		return nil, err
	}
	rs, err := rules.ParseRuleset(def.Rules)
	if err != nil {
		return nil, err
	}
	return fis.New(gs, rs, fis.Options{MamdaniPoints: def.MamdaniPoints})
}

func buildGroup(gd GroupDef) (*membership.Group, error) {
	if len(gd.Domain) != 2 {
		return nil, fmt.Errorf("group %q: domain wants [min, max], got %d values",
			gd.Name, len(gd.Domain))
	}
	fns := make([]*membership.Func, 0, len(gd.Functions))
	for _, fd := range gd.Functions {
		var (
			fn  *membership.Func
			err error
		)
		if fd.Template != "" {
			fn, err = membership.New(fd.Name, fd.Template, fd.Params)
		} else {
			fn, err = membership.NewLinear(fd.Name, fd.Params, fd.Levels)
		}
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	return membership.NewGroup(gd.Name, gd.Domain[0], gd.Domain[1], fns)
}
