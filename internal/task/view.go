package task

import (
	"slices"
	"strings"
	"time"
)

// View filters tasks by a case-insensitive query over text and note and by
// category, then orders them by due date. Tasks without a usable due date
// go last; ties keep their input order. The input is not modified.
func View(tasks []Task, query string, category Category, loc *time.Location) []Task {
	q := strings.ToLower(query)
	type entry struct {
		t   Task
		due time.Time
		ok  bool
	}
	entries := make([]entry, 0, len(tasks))
	for _, t := range tasks {
		if !matchesQuery(t, q) {
			continue
		}
		if category != CategoryAll && category != "" && t.Category != category {
			continue
		}
		due, ok, err := t.Due(loc)
		entries = append(entries, entry{t: t, due: due, ok: ok && err == nil})
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		switch {
		case !a.ok && !b.ok:
			return 0
		case !a.ok:
			return 1
		case !b.ok:
			return -1
		}
		return a.due.Compare(b.due)
	})

	out := make([]Task, len(entries))
	for i, e := range entries {
		out[i] = e.t
	}
	return out
}

// ActiveView is View restricted to tasks that are not completed.
func ActiveView(tasks []Task, query string, category Category, loc *time.Location) []Task {
	active := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Completed {
			active = append(active, t)
		}
	}
	return View(active, query, category, loc)
}

func matchesQuery(t Task, lowered string) bool {
	if lowered == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Text), lowered) ||
		strings.Contains(strings.ToLower(t.Note), lowered)
}
