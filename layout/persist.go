package layout

import (
	"encoding/json"
	"fmt"

	"golang.org/x/exp/slices"
)

// DocumentVersion is the current persisted-layout schema version.
const DocumentVersion = 1

// Document is the persisted form of a track network. Load replaces the whole
// graph or nothing.
type Document struct {
	Version  int               `json:"version"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Nodes    map[NodeID]Node   `json:"nodes"`
	Edges    map[EdgeID]Edge   `json:"edges"`
}

// Document snapshots the network into its persisted form.
func (net *Network) Document() Document {
	d := Document{
		Version: DocumentVersion,
		Nodes:   make(map[NodeID]Node, len(net.Nodes)),
		Edges:   make(map[EdgeID]Edge, len(net.Edges)),
	}
	for id, n := range net.Nodes {
		c := *n
		c.Conns = slices.Clone(n.Conns)
		d.Nodes[id] = c
	}
	for id, e := range net.Edges {
		d.Edges[id] = *e
	}
	return d
}

// Validate checks the document's referential integrity, naming the offending
// object in the error.
func (d Document) Validate() error {
	if d.Version != DocumentVersion {
		return fmt.Errorf("layout document: unsupported version %d", d.Version)
	}
	for id, e := range d.Edges {
		if id != e.ID {
			return fmt.Errorf("edge %s: id field says %s", id, e.ID)
		}
		for _, nid := range []NodeID{e.StartNode, e.EndNode} {
			if _, ok := d.Nodes[nid]; !ok {
				return fmt.Errorf("edge %s: endpoint node %s does not exist", id, nid)
			}
		}
	}
	for id, n := range d.Nodes {
		if id != n.ID {
			return fmt.Errorf("node %s: id field says %s", id, n.ID)
		}
		if len(n.Conns) == 0 {
			return fmt.Errorf("node %s: no connections (orphan)", id)
		}
		seen := map[EdgeID]bool{}
		for _, eid := range n.Conns {
			if seen[eid] {
				return fmt.Errorf("node %s: duplicate connection %s", id, eid)
			}
			seen[eid] = true
			e, ok := d.Edges[eid]
			if !ok {
				return fmt.Errorf("node %s: connection %s does not exist", id, eid)
			}
			if e.StartNode != id && e.EndNode != id {
				return fmt.Errorf("node %s: connection %s does not reference it back", id, eid)
			}
		}
		if n.Kind == NodeSwitch {
			for _, bid := range n.SwitchBranches {
				if !seen[bid] {
					return fmt.Errorf("switch node %s: branch %s not among its connections", id, bid)
				}
			}
			if n.SwitchState != SwitchMain && n.SwitchState != SwitchBranch {
				return fmt.Errorf("switch node %s: invalid state %d", id, n.SwitchState)
			}
		}
	}
	return nil
}

// LoadDocument validates d and atomically replaces the in-memory graph,
// rebuilding both spatial indexes. On error the current graph is untouched.
func (net *Network) LoadDocument(d Document) error {
	if err := d.Validate(); err != nil {
		return err
	}
	net.Clear()
	for id, n := range d.Nodes {
		c := n
		c.Conns = slices.Clone(n.Conns)
		net.Nodes[id] = &c
		net.reindexNode(&c)
	}
	for id, e := range d.Edges {
		c := e
		c.Length = c.Geom.Length()
		net.Edges[id] = &c
		net.reindexEdge(&c)
	}
	return nil
}

// MarshalDocument serializes the network as indented JSON.
func (net *Network) MarshalDocument() ([]byte, error) {
	return json.MarshalIndent(net.Document(), "", "  ")
}

// UnmarshalDocument parses and loads a persisted layout.
func (net *Network) UnmarshalDocument(data []byte) error {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("parse layout document: %w", err)
	}
	return net.LoadDocument(d)
}
