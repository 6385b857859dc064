package export

import "github.com/Dan9191/world-service/internal/models"

// LocationNode is a location with the locations nested directly inside it
type LocationNode struct {
	Location models.Location
	Children []*LocationNode
}

// LocationTree arranges flat locations by ParentID, keeping input order among
// siblings. Locations whose parent is missing become roots. Parent links are not
// guaranteed acyclic, so for every cycle the first member in input order becomes
// a root and the link that closes the cycle is dropped. Each location appears
// exactly once.
func LocationTree(locations []models.Location) []*LocationNode {
	nodes := make(map[string]*LocationNode, len(locations))
	for _, l := range locations {
		nodes[l.ID] = &LocationNode{Location: l}
	}

	children := make(map[string][]string)
	var roots []string
	for _, l := range locations {
		if l.ParentID == nil || nodes[*l.ParentID] == nil || *l.ParentID == l.ID {
			roots = append(roots, l.ID)
			continue
		}
		children[*l.ParentID] = append(children[*l.ParentID], l.ID)
	}

	visited := make(map[string]bool, len(locations))
	var attach func(id string) *LocationNode
	attach = func(id string) *LocationNode {
		visited[id] = true
		node := nodes[id]
		for _, childID := range children[id] {
			if !visited[childID] {
				node.Children = append(node.Children, attach(childID))
			}
		}
		return node
	}

	var tree []*LocationNode
	for _, id := range roots {
		tree = append(tree, attach(id))
	}
	// Whatever is left hangs off a cycle.
	for _, l := range locations {
		if !visited[l.ID] {
			tree = append(tree, attach(l.ID))
		}
	}
	return tree
}
