package domain

// CanvasNodeMeta is one element drawn on a note's mindmap canvas.
type CanvasNodeMeta struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
	Color string  `json:"color,omitempty"`
}

// CanvasEdgeMeta is a rendered edge between two canvas nodes.
type CanvasEdgeMeta struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// CanvasData is a single note's mindmap canvas, separate from the global
// graph view. Nodes are indexed by node ID rather than stored as an opaque
// blob, so per-node updates and deletes cannot collide.
type CanvasData struct {
	Nodes map[string]CanvasNodeMeta `json:"nodes"`
	Edges []CanvasEdgeMeta          `json:"edges"`
}

// NewCanvasData returns an empty, usable canvas. A note that has never had
// canvas state saved reads back as this.
func NewCanvasData() CanvasData {
	return CanvasData{
		Nodes: make(map[string]CanvasNodeMeta),
		Edges: []CanvasEdgeMeta{},
	}
}

// SetNode creates or replaces a canvas node.
func (c *CanvasData) SetNode(nodeID string, meta CanvasNodeMeta) {
	if c.Nodes == nil {
		c.Nodes = make(map[string]CanvasNodeMeta)
	}
	c.Nodes[nodeID] = meta
}

// RemoveNode deletes a canvas node and every edge touching it.
func (c *CanvasData) RemoveNode(nodeID string) {
	delete(c.Nodes, nodeID)
	kept := c.Edges[:0]
	for _, e := range c.Edges {
		if e.Source != nodeID && e.Target != nodeID {
			kept = append(kept, e)
		}
	}
	c.Edges = kept
}
