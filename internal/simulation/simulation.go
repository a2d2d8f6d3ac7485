// Package simulation holds the simulation model that charts are built from:
// configuration, named logs and the ordered list of agents.
package simulation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ndrandal/simviz/internal/table"
)

// ErrNoLog is returned when a simulation has no log of the requested name.
var ErrNoLog = errors.New("log not found")

// Agent is one market participant. Agents are ordered buyers first, then
// sellers; agent id i (1-based) refers to Agents[i-1].
type Agent struct {
	Color string `json:"color,omitempty" yaml:"color,omitempty" bson:"color,omitempty"`
	Role  string `json:"role,omitempty" yaml:"role,omitempty" bson:"role,omitempty"`
}

// Simulation is one completed market simulation.
type Simulation struct {
	ID     string                `json:"id,omitempty" yaml:"id,omitempty"`
	Config Config                `json:"config" yaml:"config"`
	Logs   map[string]*table.Log `json:"logs" yaml:"logs"`
	Agents []Agent               `json:"agents" yaml:"agents"`
}

// Log returns the named log.
func (s *Simulation) Log(name string) (*table.Log, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoLog, name)
	}
	l, ok := s.Logs[name]
	if !ok || l == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoLog, name)
	}
	return l, nil
}

// NumberOfBuyers reads numberOfBuyers from the config.
func (s *Simulation) NumberOfBuyers() int {
	return s.Config.Int("numberOfBuyers")
}

// NumberOfSellers reads numberOfSellers from the config.
func (s *Simulation) NumberOfSellers() int {
	return s.Config.Int("numberOfSellers")
}

// NumberOfAgents is the number of buyers plus sellers, or the length of
// Agents when the config does not say.
func (s *Simulation) NumberOfAgents() int {
	if n := s.NumberOfBuyers() + s.NumberOfSellers(); n > 0 {
		return n
	}
	return len(s.Agents)
}

// AgentColors returns each agent's color, defaulting to darkviolet.
func (s *Simulation) AgentColors() []string {
	out := make([]string, len(s.Agents))
	for i, a := range s.Agents {
		out[i] = a.Color
		if out[i] == "" {
			out[i] = "darkviolet"
		}
	}
	return out
}

// AgentLabels returns the short agent labels B1..Bn followed by S1..Sm.
func (s *Simulation) AgentLabels() []string {
	nb, ns := s.NumberOfBuyers(), s.NumberOfSellers()
	out := make([]string, 0, nb+ns)
	for i := 1; i <= nb; i++ {
		out = append(out, "B"+strconv.Itoa(i))
	}
	for i := 1; i <= ns; i++ {
		out = append(out, "S"+strconv.Itoa(i))
	}
	return out
}

// AgentText returns hover text per agent: its label and role, with any
// "Agent" suffix dropped from the role.
func (s *Simulation) AgentText() []string {
	labels := s.AgentLabels()
	out := make([]string, len(s.Agents))
	for i, a := range s.Agents {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		out[i] = label + " " + strings.Replace(a.Role, "Agent", "", 1)
	}
	return out
}

// CaseID returns config.caseid, if present.
func (s *Simulation) CaseID() (any, bool) {
	v, ok := s.Config["caseid"]
	return v, ok && v != nil
}

// Tag returns config.tag formatted as a label. ok is false when the tag is
// absent or a zero value.
func (s *Simulation) Tag() (tag string, ok bool) {
	v := s.Config["tag"]
	if !Truthy(v) {
		return "", false
	}
	return FormatValue(v), true
}

// Name is the label of the j-th simulation in a study: the axis value when
// one is given and non-empty, else the tag, else the case id, else j.
func Name(sim *Simulation, j int, axisValues []any) string {
	if j < len(axisValues) && Truthy(axisValues[j]) {
		return FormatValue(axisValues[j])
	}
	if sim != nil {
		if t, ok := sim.Tag(); ok {
			return t
		}
		if id, ok := sim.CaseID(); ok && Truthy(id) {
			return FormatValue(id)
		}
	}
	return strconv.Itoa(j)
}

// Truthy reports whether v is set to something other than a zero value.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	}
	if n, ok := table.Number(v); ok {
		return n != 0
	}
	return true
}

// FormatValue renders a config value for titles and labels.
func FormatValue(v any) string {
	if v == nil {
		return ""
	}
	if n, ok := table.Number(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
