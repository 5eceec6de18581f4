package lns

import (
	"github.com/elektrokombinacija/mapf-lns-het/internal/agent"
	"github.com/elektrokombinacija/mapf-lns-het/internal/gridmap"
	"github.com/elektrokombinacija/mapf-lns-het/internal/planner"
)

// Registry is the flat, indexable container of agents the Collision
// Graph and everything else reference by id only (spec.md §9 "Graph
// over agent ids, not agent references").
type Registry struct {
	agents []*agent.Agent
}

// NewRegistry builds a registry from agents ordered by id 0..n-1.
func NewRegistry(agents []*agent.Agent) *Registry {
	return &Registry{agents: agents}
}

// Get returns the agent with the given id.
func (r *Registry) Get(id agent.ID) *agent.Agent { return r.agents[id] }

// Len returns the number of agents.
func (r *Registry) Len() int { return len(r.agents) }

// All returns every agent id, 0..n-1.
func (r *Registry) All() []agent.ID {
	ids := make([]agent.ID, len(r.agents))
	for i := range r.agents {
		ids[i] = agent.ID(i)
	}
	return ids
}

// occupancyView adapts a PathTable plus this registry's live goal
// lookups into the planner.Occupancy interface the single-agent
// planner consumes.
type occupancyView struct {
	pt  *PathTable
	reg *Registry
}

func (o occupancyView) Occupants(c gridmap.Cell, t int) []agent.ID { return o.pt.Occupants(c, t) }
func (o occupancyView) Makespan() int                              { return o.pt.Makespan() }
func (o occupancyView) GoalAgent(c gridmap.Cell, t int) (agent.ID, bool) {
	return o.pt.GoalAgent(c, t, func(id agent.ID) gridmap.Cell { return o.reg.Get(id).Path.Goal() })
}

var _ planner.Occupancy = occupancyView{}
