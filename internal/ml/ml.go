// Package ml holds the text vectorizer and classifier pairs used to
// predict subcategories and income categories from cleaned descriptions.
package ml

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/jbrukh/bayesian"
	"gopkg.in/yaml.v3"
)

// Vectorizer turns cleaned descriptions into feature documents.
type Vectorizer interface {
	Transform(docs []string) [][]string
}

// Classifier predicts one label per feature document.
type Classifier interface {
	Predict(docs [][]string) []string
}

// Predictor predicts a label for each cleaned description.
type Predictor interface {
	Predict(descriptions []string) ([]string, error)
}

// Model pairs a vectorizer with the classifier fitted on its output.
type Model struct {
	Vectorizer Vectorizer
	Classifier Classifier
}

// Predict vectorizes descriptions and classifies them.
func (m *Model) Predict(descriptions []string) ([]string, error) {
	if len(descriptions) == 0 {
		return nil, nil
	}
	labels := m.Classifier.Predict(m.Vectorizer.Transform(descriptions))
	if len(labels) != len(descriptions) {
		return nil, fmt.Errorf("classifier returned %d labels for %d descriptions", len(labels), len(descriptions))
	}
	return labels, nil
}

// LoadModel reads a vocabulary and a classifier from disk.
func LoadModel(vecPath, clfPath string) (*Model, error) {
	vocab, err := LoadVocabulary(vecPath)
	if err != nil {
		return nil, err
	}
	clf, err := LoadBayesClassifier(clfPath)
	if err != nil {
		return nil, err
	}
	return &Model{Vectorizer: vocab, Classifier: clf}, nil
}

// Vocabulary keeps the tokens seen during training and drops the rest.
type Vocabulary struct {
	Terms []string `yaml:"terms"`

	index map[string]struct{}
}

// NewVocabulary builds a vocabulary from terms, sorted and de-duplicated.
func NewVocabulary(terms []string) *Vocabulary {
	seen := make(map[string]struct{}, len(terms))
	var uniq []string
	for _, t := range terms {
		if _, ok := seen[t]; ok || t == "" {
			continue
		}
		seen[t] = struct{}{}
		uniq = append(uniq, t)
	}
	sort.Strings(uniq)
	return &Vocabulary{Terms: uniq, index: seen}
}

// LoadVocabulary reads a YAML vocabulary file.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing vocabulary: %w", err)
	}
	return NewVocabulary(v.Terms), nil
}

// Save writes the vocabulary as YAML, replacing path atomically.
func (v *Vocabulary) Save(path string) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling vocabulary: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing vocabulary: %w", err)
	}
	return nil
}

// Transform splits each description on whitespace and keeps known tokens.
func (v *Vocabulary) Transform(docs []string) [][]string {
	out := make([][]string, len(docs))
	for i, d := range docs {
		var doc []string
		for _, tok := range strings.Fields(d) {
			if _, ok := v.index[tok]; ok {
				doc = append(doc, tok)
			}
		}
		out[i] = doc
	}
	return out
}

// BayesClassifier is a multinomial naive Bayes classifier.
type BayesClassifier struct {
	cl *bayesian.Classifier
}

// LoadBayesClassifier reads a classifier saved with Save.
func LoadBayesClassifier(path string) (*BayesClassifier, error) {
	cl, err := bayesian.NewClassifierFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading classifier %s: %w", path, err)
	}
	return &BayesClassifier{cl: cl}, nil
}

// Labels returns the classes the classifier can predict.
func (b *BayesClassifier) Labels() []string {
	out := make([]string, len(b.cl.Classes))
	for i, c := range b.cl.Classes {
		out[i] = string(c)
	}
	return out
}

// Predict returns the most likely class of each document. Documents with
// no known token fall back to the class priors.
func (b *BayesClassifier) Predict(docs [][]string) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		_, inx, _ := b.cl.LogScores(d)
		out[i] = string(b.cl.Classes[inx])
	}
	return out
}

// Save writes the classifier to path, replacing any previous file.
func (b *BayesClassifier) Save(path string) error {
	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("creating classifier file: %w", err)
	}
	defer pf.Cleanup()

	if err := b.cl.WriteTo(pf); err != nil {
		return fmt.Errorf("writing classifier: %w", err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replacing classifier: %w", err)
	}
	return nil
}
