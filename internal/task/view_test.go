package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ids(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func sampleTasks() []Task {
	return []Task{
		{ID: "milk", Text: "Buy milk", Category: CategoryShopping},
		{ID: "call", Text: "Call mom", Note: "about the MILK run", DueDate: "2026-03-01T10:00", Category: CategoryPersonal},
		{ID: "report", Text: "Write report", DueDate: "2026-02-01T10:00", Category: CategoryWork},
		{ID: "bread", Text: "Bread", Category: CategoryShopping},
		{ID: "bad", Text: "Broken due", DueDate: "someday", Category: CategoryWork},
		{ID: "same", Text: "Same time", DueDate: "2026-02-01T10:00", Category: CategoryWork},
	}
}

func TestViewSortsByDueNoDueLast(t *testing.T) {
	got := View(sampleTasks(), "", CategoryAll, time.UTC)
	assert.Equal(t, []string{"report", "same", "call", "milk", "bread", "bad"}, ids(got))
}

func TestViewSearchMatchesTextOrNote(t *testing.T) {
	got := View(sampleTasks(), "milk", CategoryAll, time.UTC)
	assert.Equal(t, []string{"call", "milk"}, ids(got))
}

func TestViewCategory(t *testing.T) {
	got := View(sampleTasks(), "", CategoryShopping, time.UTC)
	assert.Equal(t, []string{"milk", "bread"}, ids(got))

	got = View(sampleTasks(), "milk", CategoryShopping, time.UTC)
	assert.Equal(t, []string{"milk"}, ids(got))
}

func TestViewIsIdempotentAndPure(t *testing.T) {
	in := sampleTasks()
	before := append([]Task(nil), in...)

	first := View(in, "", CategoryAll, time.UTC)
	second := View(in, "", CategoryAll, time.UTC)
	assert.Equal(t, first, second)
	assert.Equal(t, first, View(first, "", CategoryAll, time.UTC))
	assert.Equal(t, before, in)
}

func TestViewDueBeforeNoDue(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tasks := []Task{
		{ID: "none", Text: "no due", Category: CategoryWork},
		{ID: "soon", Text: "soon", DueDate: base.Add(10 * time.Second).Format(time.RFC3339), Category: CategoryWork},
	}
	assert.Equal(t, []string{"soon", "none"}, ids(View(tasks, "", CategoryAll, time.UTC)))
}

func TestActiveViewDropsCompleted(t *testing.T) {
	tasks := sampleTasks()
	tasks[2].Completed = true
	got := ActiveView(tasks, "", CategoryAll, time.UTC)
	assert.NotContains(t, ids(got), "report")
	assert.Len(t, got, len(tasks)-1)
}
