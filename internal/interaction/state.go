package interaction

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/relgraph/internal/projection"
	"github.com/vitebski/relgraph/pkg/models"
)

// ErrInvalidSelection is returned when a node id is not in the current graph.
var ErrInvalidSelection = errors.New("node is not in the current graph")

// Panel is the selection state of the side panel
type Panel int

const (
	ListView Panel = iota
	DetailView
)

func (p Panel) String() string {
	if p == DetailView {
		return "detail"
	}
	return "list"
}

// ViewMode toggles between the node-link canvas and the tabular view
type ViewMode int

const (
	GraphMode ViewMode = iota
	TableMode
)

func (m ViewMode) String() string {
	if m == TableMode {
		return "table"
	}
	return "graph"
}

// Detail is what the detail panel shows for the active node
type Detail struct {
	Node      models.GraphNode
	Outgoing  []models.GraphEdge
	Incoming  []models.GraphEdge
	Neighbors []string
}

// View is an immutable snapshot handed to the rendering surface
type View struct {
	Panel  Panel
	NodeID string
	Tabs   []string
	Mode   ViewMode
	Detail *Detail
}

// State tracks the selected node, the open detail tabs and the view mode.
// It is driven from UI callbacks and is not safe for concurrent use.
type State struct {
	graph    *models.Graph
	nodes    map[string]models.GraphNode
	selected string
	tabs     []string
	mode     ViewMode
	Logger   *logrus.Logger
}

// NewState creates a state bound to graph, in ListView and GraphMode
func NewState(graph *models.Graph, logger *logrus.Logger) *State {
	s := &State{Logger: logger}
	s.SetGraph(graph)
	return s
}

// SetGraph binds the state to a new projection. Tabs whose node disappeared
// are closed; if the active node disappeared the panel falls back to the
// last remaining tab, or to ListView.
func (s *State) SetGraph(graph *models.Graph) {
	s.graph = graph
	s.nodes = make(map[string]models.GraphNode)
	if graph != nil {
		for _, n := range graph.Nodes {
			s.nodes[n.ID] = n
		}
	}

	var kept []string
	for _, id := range s.tabs {
		if _, ok := s.nodes[id]; ok {
			kept = append(kept, id)
		} else if s.Logger != nil {
			s.Logger.Debugf("Closing detail tab for %s, node no longer projected", id)
		}
	}
	s.tabs = kept

	if _, ok := s.nodes[s.selected]; !ok {
		s.selected = ""
		if len(s.tabs) > 0 {
			s.selected = s.tabs[len(s.tabs)-1]
		}
	}
}

// SelectNode moves to DetailView(id), opening a tab for it when needed.
// An empty id deselects.
func (s *State) SelectNode(id string) error {
	if id == "" {
		s.Deselect()
		return nil
	}
	if _, ok := s.nodes[id]; !ok {
		return fmt.Errorf("select %q: %w", id, ErrInvalidSelection)
	}
	if !s.hasTab(id) {
		s.tabs = append(s.tabs, id)
	}
	s.selected = id
	return nil
}

// Deselect returns to ListView and closes every detail tab
func (s *State) Deselect() {
	s.selected = ""
	s.tabs = nil
}

// CloseTab closes the tab for id. Closing the active tab activates its
// neighbour; closing the last tab returns to ListView.
func (s *State) CloseTab(id string) {
	idx := -1
	for i, tab := range s.tabs {
		if tab == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	s.tabs = append(s.tabs[:idx:idx], s.tabs[idx+1:]...)
	if len(s.tabs) == 0 {
		s.Deselect()
		return
	}
	if s.selected == id {
		if idx >= len(s.tabs) {
			idx = len(s.tabs) - 1
		}
		s.selected = s.tabs[idx]
	}
}

// ToggleMode flips between GraphMode and TableMode and returns the new mode
func (s *State) ToggleMode() ViewMode {
	if s.mode == GraphMode {
		s.mode = TableMode
	} else {
		s.mode = GraphMode
	}
	return s.mode
}

// SetMode sets the view mode explicitly
func (s *State) SetMode(mode ViewMode) {
	s.mode = mode
}

// Mode returns the current view mode
func (s *State) Mode() ViewMode {
	return s.mode
}

// Panel returns the current selection state
func (s *State) Panel() Panel {
	if s.selected == "" {
		return ListView
	}
	return DetailView
}

// Selected returns the active node id, empty in ListView
func (s *State) Selected() string {
	return s.selected
}

// Snapshot returns a copy of the current state for rendering
func (s *State) Snapshot() View {
	v := View{
		Panel:  s.Panel(),
		NodeID: s.selected,
		Mode:   s.mode,
	}
	if len(s.tabs) > 0 {
		v.Tabs = append([]string(nil), s.tabs...)
	}
	if s.selected != "" {
		v.Detail = s.detail(s.selected)
	}
	return v
}

func (s *State) detail(id string) *Detail {
	d := &Detail{Node: s.nodes[id]}
	if s.graph == nil {
		return d
	}
	for _, e := range s.graph.Edges {
		if e.SourceID == id {
			d.Outgoing = append(d.Outgoing, e)
		}
		if e.TargetID == id {
			d.Incoming = append(d.Incoming, e)
		}
	}
	d.Neighbors = projection.Neighbors(s.graph, id)
	return d
}

func (s *State) hasTab(id string) bool {
	for _, tab := range s.tabs {
		if tab == id {
			return true
		}
	}
	return false
}
