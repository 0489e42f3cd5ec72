package ml

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jbrukh/bayesian"
)

// Sample is one labeled cleaned description.
type Sample struct {
	Text  string
	Label string
}

// Trained is a freshly fitted vocabulary and classifier.
type Trained struct {
	Vocabulary *Vocabulary
	Classifier *BayesClassifier
}

// Model returns the pair as a Model.
func (t *Trained) Model() *Model {
	return &Model{Vectorizer: t.Vocabulary, Classifier: t.Classifier}
}

// Save writes both artifacts.
func (t *Trained) Save(vecPath, clfPath string) error {
	if err := t.Vocabulary.Save(vecPath); err != nil {
		return err
	}
	return t.Classifier.Save(clfPath)
}

// Train fits a vocabulary and a naive Bayes classifier. At least two
// distinct labels are required.
func Train(samples []Sample) (*Trained, error) {
	var terms []string
	labelSet := make(map[string]bool)
	for _, s := range samples {
		if s.Label == "" {
			continue
		}
		labelSet[s.Label] = true
		terms = append(terms, strings.Fields(s.Text)...)
	}
	if len(labelSet) < 2 {
		return nil, fmt.Errorf("training needs at least 2 distinct labels, got %d", len(labelSet))
	}

	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	classes := make([]bayesian.Class, len(labels))
	for i, l := range labels {
		classes[i] = bayesian.Class(l)
	}

	cl := bayesian.NewClassifier(classes...)
	for _, s := range samples {
		if s.Label == "" {
			continue
		}
		cl.Learn(strings.Fields(s.Text), bayesian.Class(s.Label))
	}
	return &Trained{Vocabulary: NewVocabulary(terms), Classifier: &BayesClassifier{cl: cl}}, nil
}

// ReadSamples reads a "description,label" CSV with a header row.
func ReadSamples(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading samples header: %w", err)
	}
	if header[0] != "description" || header[1] != "label" {
		return nil, fmt.Errorf("unexpected samples header %v", header)
	}

	var samples []Sample
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading samples: %w", err)
		}
		samples = append(samples, Sample{Text: rec[0], Label: rec[1]})
	}
	return samples, nil
}
