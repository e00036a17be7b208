package taskwarrior

import "sort"

// ProjectGroup is the tasks of one project, most urgent first.
type ProjectGroup struct {
	Project string
	Tasks   []Task
}

// SortByUrgency returns a copy of tasks ordered by descending urgency. Tasks
// of equal urgency keep their input order.
func SortByUrgency(tasks []Task) []Task {
	sorted := make([]Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Urgency > sorted[j].Urgency
	})
	return sorted
}

// GroupByProject partitions tasks by project. Projects are ordered
// lexicographically with NoneProject last, present only if some task has it.
// Within a group tasks follow SortByUrgency.
func GroupByProject(tasks []Task) []ProjectGroup {
	sorted := SortByUrgency(tasks)

	seen := make(map[string]bool)
	var projects []string
	hasNone := false
	for _, t := range sorted {
		p := t.Project
		if p == "" {
			p = NoneProject
		}
		if p == NoneProject {
			hasNone = true
			continue
		}
		if !seen[p] {
			seen[p] = true
			projects = append(projects, p)
		}
	}
	sort.Strings(projects)
	if hasNone {
		projects = append(projects, NoneProject)
	}

	groups := make([]ProjectGroup, 0, len(projects))
	for _, p := range projects {
		g := ProjectGroup{Project: p}
		for _, t := range sorted {
			tp := t.Project
			if tp == "" {
				tp = NoneProject
			}
			if tp == p {
				g.Tasks = append(g.Tasks, t)
			}
		}
		groups = append(groups, g)
	}
	return groups
}
