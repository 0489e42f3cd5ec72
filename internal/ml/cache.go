package ml

import (
	"fmt"
	"sync"
)

// Task names a prediction target.
type Task string

const (
	TaskSubcategory Task = "subcategory"
	TaskIncome      Task = "income"
)

// Paths locates a task's artifacts.
type Paths struct {
	Vectorizer string
	Classifier string
}

// Models loads each task's model once per process and hands out the same
// read-only instance afterwards.
type Models struct {
	paths map[Task]Paths

	mu      sync.Mutex
	entries map[Task]*entry
}

type entry struct {
	once  sync.Once
	model *Model
	err   error
}

// NewModels creates a cache over the given artifact paths.
func NewModels(paths map[Task]Paths) *Models {
	return &Models{paths: paths, entries: make(map[Task]*entry)}
}

// Get returns the model for task, loading it on first use. A failed load
// is remembered.
func (m *Models) Get(task Task) (*Model, error) {
	p, ok := m.paths[task]
	if !ok {
		return nil, fmt.Errorf("no model configured for task %q", task)
	}

	m.mu.Lock()
	e, ok := m.entries[task]
	if !ok {
		e = &entry{}
		m.entries[task] = e
	}
	m.mu.Unlock()

	e.once.Do(func() {
		e.model, e.err = LoadModel(p.Vectorizer, p.Classifier)
	})
	return e.model, e.err
}

// Predictor returns a lazy Predictor for task.
func (m *Models) Predictor(task Task) Predictor {
	return lazy{models: m, task: task}
}

type lazy struct {
	models *Models
	task   Task
}

func (l lazy) Predict(descriptions []string) ([]string, error) {
	model, err := l.models.Get(l.task)
	if err != nil {
		return nil, err
	}
	return model.Predict(descriptions)
}
