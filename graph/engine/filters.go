package engine

import (
	"github.com/keshy/CodeSense/graph/core"
	"github.com/keshy/CodeSense/output"
)

// LimitNamespaces removes the nodes of groups matched by the exclude list,
// and, when an include-only list is given, of every group that is not on
// it (directly or through an ancestor). Runs before resolution so excluded
// entities cannot become call candidates. Entries that match nothing are
// warned about.
func LimitNamespaces(fileGroups []*core.Group, exclude, includeOnly []string, logger *output.Logger) []*core.Group {
	if len(exclude) == 0 && len(includeOnly) == 0 {
		return fileGroups
	}
	excludeSet := toSet(exclude)
	includeSet := toSet(includeOnly)
	removed := make(map[string]bool)

	for _, group := range fileGroups {
		if excludeSet[group.Token] {
			for _, node := range group.AllNodes() {
				node.RemoveFromParent()
			}
			removed[group.Token] = true
		}
		if len(includeSet) > 0 && !includeSet[group.Token] {
			for _, node := range group.Nodes {
				node.RemoveFromParent()
			}
			removed[group.Token] = true
		}

		for _, subgroup := range group.AllGroups() {
			if subgroup == group {
				continue
			}
			if excludeSet[subgroup.Token] {
				for _, node := range subgroup.AllNodes() {
					node.RemoveFromParent()
				}
				removed[subgroup.Token] = true
			}
			if len(includeSet) > 0 && !includeSet[subgroup.Token] && !anyParentIncluded(subgroup, includeSet) {
				for _, node := range subgroup.Nodes {
					node.RemoveFromParent()
				}
				removed[subgroup.Token] = true
			}
		}
	}

	for _, namespace := range exclude {
		if !removed[namespace] {
			logger.Warning("Could not exclude namespace '%s' because it was not found.", namespace)
		}
	}
	return fileGroups
}

// LimitFunctions removes nodes matched by the exclude list or, when an
// include-only list is given, nodes not on it.
func LimitFunctions(fileGroups []*core.Group, exclude, includeOnly []string, logger *output.Logger) []*core.Group {
	if len(exclude) == 0 && len(includeOnly) == 0 {
		return fileGroups
	}
	excludeSet := toSet(exclude)
	includeSet := toSet(includeOnly)
	removed := make(map[string]bool)

	for _, group := range fileGroups {
		for _, node := range group.AllNodes() {
			if excludeSet[node.Token] || (len(includeSet) > 0 && !includeSet[node.Token]) {
				node.RemoveFromParent()
				removed[node.Token] = true
			}
		}
	}

	for _, function := range exclude {
		if !removed[function] {
			logger.Warning("Could not exclude function '%s' because it was not found.", function)
		}
	}
	return fileGroups
}

func anyParentIncluded(group *core.Group, includeSet map[string]bool) bool {
	for _, parent := range group.AllParents() {
		if includeSet[parent.Token] {
			return true
		}
	}
	return false
}

func toSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}
