// Package catalog supplies the microcontent candidates ranked by the suggestion
// engine. Content comes from files, PostgreSQL, or a remote microcontent service.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/p-n-ai/pai-suggest/internal/recommend"
)

// embeddingKeywords is how many semantic keywords contribute to an item's embedding text.
const embeddingKeywords = 5

// Record is the wire shape of a microcontent in JSON and YAML files, in the
// spreadsheet import, and in the remote microcontent API.
type Record struct {
	Identifier          string                  `json:"identifier" yaml:"identifier"`
	MongoID             string                  `json:"_id,omitempty" yaml:"_id,omitempty"`
	Title               string                  `json:"title" yaml:"title"`
	Description         string                  `json:"description" yaml:"description"`
	ContentType         string                  `json:"contentType" yaml:"contentType"`
	URL                 string                  `json:"url" yaml:"url"`
	Source              string                  `json:"source" yaml:"source"`
	Duration            string                  `json:"duration,omitempty" yaml:"duration,omitempty"`
	Language            string                  `json:"language,omitempty" yaml:"language,omitempty"`
	LearningStyle       recommend.LearningStyle `json:"learningStyle" yaml:"learningStyle"`
	Difficulty          string                  `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	PrimaryConcepts     []string                `json:"primaryConcepts,omitempty" yaml:"primaryConcepts,omitempty"`
	LearningOutcomes    []string                `json:"learningOutcomes,omitempty" yaml:"learningOutcomes,omitempty"`
	SemanticKeywords    []string                `json:"semanticKeywords,omitempty" yaml:"semanticKeywords,omitempty"`
	PrimaryLevel        string                  `json:"primaryLevel" yaml:"primaryLevel"`
	SecondaryLevels     []string                `json:"secondaryLevels,omitempty" yaml:"secondaryLevels,omitempty"`
	Embedding           []float64               `json:"embedding,omitempty" yaml:"embedding,omitempty"`
	EmbeddingCalculated bool                    `json:"embeddingCalculated" yaml:"embeddingCalculated"`
	IsActive            *bool                   `json:"isActive,omitempty" yaml:"isActive,omitempty"`
}

// ID returns the record's identifier, falling back to the document ID.
func (r Record) ID() string {
	if r.Identifier != "" {
		return r.Identifier
	}
	return r.MongoID
}

// active reports whether the record is active. Absent means active.
func (r Record) active() bool {
	return r.IsActive == nil || *r.IsActive
}

// Item converts the record to the engine's content item.
func (r Record) Item() recommend.ContentItem {
	secondary := make([]recommend.Level, 0, len(r.SecondaryLevels))
	for _, l := range r.SecondaryLevels {
		secondary = append(secondary, recommend.Level(l))
	}

	language := r.Language
	if language == "" {
		language = "en"
	}
	difficulty := r.Difficulty
	if difficulty == "" {
		difficulty = "intermediate"
	}

	return recommend.ContentItem{
		ID:               r.ID(),
		Title:            r.Title,
		Description:      r.Description,
		ContentType:      recommend.ContentType(r.ContentType),
		URL:              r.URL,
		Source:           r.Source,
		Duration:         r.Duration,
		Language:         language,
		LearningStyle:    r.LearningStyle,
		Difficulty:       difficulty,
		PrimaryConcepts:  r.PrimaryConcepts,
		LearningOutcomes: r.LearningOutcomes,
		SemanticKeywords: r.SemanticKeywords,
		PrimaryLevel:     recommend.Level(r.PrimaryLevel),
		SecondaryLevels:  secondary,
		Active:           r.active(),
		Embedding:        recommend.EmbeddingFrom(r.Embedding, r.EmbeddingCalculated),
	}
}

// FromItem converts a content item back to its wire record.
func FromItem(item recommend.ContentItem) Record {
	secondary := make([]string, 0, len(item.SecondaryLevels))
	for _, l := range item.SecondaryLevels {
		secondary = append(secondary, string(l))
	}

	vec, embedded := item.Embedding.Vector()
	active := item.Active

	return Record{
		Identifier:          item.ID,
		Title:               item.Title,
		Description:         item.Description,
		ContentType:         string(item.ContentType),
		URL:                 item.URL,
		Source:              item.Source,
		Duration:            item.Duration,
		Language:            item.Language,
		LearningStyle:       item.LearningStyle,
		Difficulty:          item.Difficulty,
		PrimaryConcepts:     item.PrimaryConcepts,
		LearningOutcomes:    item.LearningOutcomes,
		SemanticKeywords:    item.SemanticKeywords,
		PrimaryLevel:        string(item.PrimaryLevel),
		SecondaryLevels:     secondary,
		Embedding:           vec,
		EmbeddingCalculated: embedded,
		IsActive:            &active,
	}
}

// styleCategories lists the valid FSLSM categories per dimension.
var styleCategories = map[string][]string{
	"Processing":    {"Active", "Reflective"},
	"Perception":    {"Sensing", "Intuitive"},
	"Input":         {"Visual", "Verbal"},
	"Understanding": {"Sequential", "Global"},
}

var difficulties = map[string]bool{
	"beginner":     true,
	"intermediate": true,
	"advanced":     true,
}

// Validate checks a record against the catalog schema. All problems are
// reported together.
func Validate(r Record) error {
	var errs []error

	if strings.TrimSpace(r.ID()) == "" {
		errs = append(errs, errors.New("identifier is required"))
	}
	if strings.TrimSpace(r.Title) == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if strings.TrimSpace(r.Description) == "" {
		errs = append(errs, errors.New("description is required"))
	}
	if !recommend.ContentType(r.ContentType).Valid() {
		errs = append(errs, fmt.Errorf("unknown content type %q", r.ContentType))
	}

	categories, ok := styleCategories[r.LearningStyle.Dimension]
	switch {
	case !ok:
		errs = append(errs, fmt.Errorf("unknown learning style dimension %q", r.LearningStyle.Dimension))
	case !slices.Contains(categories, r.LearningStyle.Category):
		errs = append(errs, fmt.Errorf("category %q does not belong to dimension %s (want one of %s)",
			r.LearningStyle.Category, r.LearningStyle.Dimension, strings.Join(categories, "/")))
	}

	if r.Difficulty != "" && !difficulties[r.Difficulty] {
		errs = append(errs, fmt.Errorf("unknown difficulty %q", r.Difficulty))
	}

	if _, err := recommend.ParseLevel(r.PrimaryLevel); err != nil {
		errs = append(errs, fmt.Errorf("primaryLevel: %w", err))
	}
	for _, l := range r.SecondaryLevels {
		if _, err := recommend.ParseLevel(l); err != nil {
			errs = append(errs, fmt.Errorf("secondaryLevels: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid record %q: %w", r.ID(), errors.Join(errs...))
	}
	return nil
}

// EmbeddingText builds the text embedded for a content item: its title, its
// learning outcomes, and its first five semantic keywords.
func EmbeddingText(item recommend.ContentItem) string {
	parts := []string{item.Title}
	parts = append(parts, item.LearningOutcomes...)

	keywords := item.SemanticKeywords
	if len(keywords) > embeddingKeywords {
		keywords = keywords[:embeddingKeywords]
	}
	parts = append(parts, keywords...)

	return strings.TrimSpace(strings.Join(parts, " "))
}
