package task

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed marks persisted data that could not be decoded into tasks.
var ErrMalformed = errors.New("malformed task data")

// record mirrors the persisted shape; every field is optional on read.
type record struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Note      string `json:"note"`
	Completed bool   `json:"completed"`
	Priority  string `json:"priority"`
	DueDate   string `json:"dueDate"`
	Alerted   bool   `json:"alerted"`
	Category  string `json:"category"`
}

// Encode serializes the full list in order.
func Encode(tasks []Task) ([]byte, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	return json.Marshal(tasks)
}

// Decode parses a persisted list. Records without an ID get a new one and
// legacy category labels are mapped to their current names. Any record that
// does not fit the schema fails the whole list with ErrMalformed.
func Decode(data []byte) ([]Task, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	tasks := make([]Task, 0, len(recs))
	for i, r := range recs {
		if strings.TrimSpace(r.Text) == "" {
			return nil, fmt.Errorf("%w: record %d has empty text", ErrMalformed, i)
		}
		prio, err := ParsePriority(r.Priority)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformed, i, err)
		}
		cat, err := ParseCategory(r.Category)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformed, i, err)
		}
		id := r.ID
		if id == "" {
			id = newID()
		}
		tasks = append(tasks, Task{
			ID:        id,
			Text:      r.Text,
			Note:      r.Note,
			Completed: r.Completed,
			Priority:  prio,
			DueDate:   r.DueDate,
			Alerted:   r.Alerted,
			Category:  cat,
		})
	}
	return tasks, nil
}
