package domain

// GraphNodeMeta holds per-note canvas metadata: where the note sits on the
// global graph view and how it is rendered there. Indexed by note ID in
// GraphMetadata rather than stored as an opaque blob, so that per-node
// updates and deletes cannot collide.
type GraphNodeMeta struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Pinned bool    `json:"pinned,omitempty"`
	Color  string  `json:"color,omitempty"`
}

// GraphEdgeMeta is a rendered edge on the global graph view.
type GraphEdgeMeta struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// GraphMetadata is the per-user global graph canvas state.
type GraphMetadata struct {
	Nodes map[string]GraphNodeMeta `json:"nodes"`
	Edges []GraphEdgeMeta          `json:"edges"`
}

// NewGraphMetadata returns an empty, usable graph.
func NewGraphMetadata() GraphMetadata {
	return GraphMetadata{
		Nodes: make(map[string]GraphNodeMeta),
		Edges: []GraphEdgeMeta{},
	}
}

// RemoveNode deletes a note's canvas entry and every edge touching it.
func (g *GraphMetadata) RemoveNode(noteID string) {
	delete(g.Nodes, noteID)
	kept := g.Edges[:0]
	for _, e := range g.Edges {
		if e.Source != noteID && e.Target != noteID {
			kept = append(kept, e)
		}
	}
	g.Edges = kept
}

// SetNode creates or replaces a note's canvas entry.
func (g *GraphMetadata) SetNode(noteID string, meta GraphNodeMeta) {
	if g.Nodes == nil {
		g.Nodes = make(map[string]GraphNodeMeta)
	}
	g.Nodes[noteID] = meta
}
