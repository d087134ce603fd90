package recommend

import (
	"errors"
	"strings"
)

// ElementType is the kind of GDTA node suggestions are requested for.
type ElementType string

const (
	ElementOverallGoal ElementType = "overallGoal"
	ElementGoal        ElementType = "goal"
	ElementSubgoal     ElementType = "subgoal"
	ElementRequirement ElementType = "requirement"
)

// Element is an instructional element (goal, subgoal or information requirement).
// Level is the GDTA ordinal 1..3 and is only meaningful for requirements; zero means absent.
type Element struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Type        ElementType `json:"type"`
	Level       int         `json:"level,omitempty"`
}

// NormalizeElement resolves type aliases and drops fields that do not apply to the
// element's type. overallGoal scores exactly like goal.
func NormalizeElement(e Element) Element {
	e.Title = strings.TrimSpace(e.Title)
	if e.Type == ElementOverallGoal {
		e.Type = ElementGoal
	}
	if e.Type != ElementRequirement {
		e.Level = 0
	}
	return e
}

// Validate checks the fields every element must carry.
func (e Element) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return errors.New("element title is required")
	}
	return nil
}

// Text is the string embedded for the element.
func (e Element) Text() string {
	return strings.TrimSpace(e.Title + " " + e.Description)
}

// ContentType enumerates the kinds of microcontent in the catalog.
type ContentType string

const (
	ContentVideo       ContentType = "video"
	ContentAudio       ContentType = "audio"
	ContentPDF         ContentType = "pdf"
	ContentInfographic ContentType = "infographic"
	ContentQuiz        ContentType = "quiz"
	ContentCaseStudy   ContentType = "case_study"
	ContentScenario    ContentType = "scenario"
	ContentTask        ContentType = "task"
	ContentTutorial    ContentType = "tutorial"
)

// ContentTypes lists every supported content type in display order.
var ContentTypes = []ContentType{
	ContentVideo,
	ContentAudio,
	ContentPDF,
	ContentInfographic,
	ContentQuiz,
	ContentCaseStudy,
	ContentScenario,
	ContentTask,
	ContentTutorial,
}

// Valid reports whether t is one of ContentTypes.
func (t ContentType) Valid() bool {
	for _, c := range ContentTypes {
		if c == t {
			return true
		}
	}
	return false
}

// LearningStyle is an FSLSM dimension/category tag. Descriptive only.
type LearningStyle struct {
	Dimension string `json:"dimension" yaml:"dimension"`
	Category  string `json:"category" yaml:"category"`
}

// Embedding is either absent or a computed vector. The zero value is Unembedded.
type Embedding struct {
	vector []float64
}

// Unembedded returns an embedding that has not been computed yet.
func Unembedded() Embedding {
	return Embedding{}
}

// Embedded wraps a computed vector. An empty vector is treated as unembedded.
func Embedded(vector []float64) Embedding {
	if len(vector) == 0 {
		return Embedding{}
	}
	return Embedding{vector: vector}
}

// EmbeddingFrom builds an Embedding from the stored pair of vector and
// "calculated" flag. Both must agree for the item to count as embedded.
func EmbeddingFrom(vector []float64, calculated bool) Embedding {
	if !calculated {
		return Unembedded()
	}
	return Embedded(vector)
}

// Vector returns the vector and whether one is present.
func (e Embedding) Vector() ([]float64, bool) {
	return e.vector, len(e.vector) > 0
}

// IsEmbedded reports whether a vector is present.
func (e Embedding) IsEmbedded() bool {
	return len(e.vector) > 0
}

// ContentItem is one piece of learning microcontent.
type ContentItem struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	ContentType      ContentType   `json:"contentType"`
	URL              string        `json:"url,omitempty"`
	Source           string        `json:"source,omitempty"`
	Duration         string        `json:"duration,omitempty"`
	Language         string        `json:"language,omitempty"`
	LearningStyle    LearningStyle `json:"learningStyle"`
	Difficulty       string        `json:"difficulty,omitempty"`
	PrimaryConcepts  []string      `json:"primaryConcepts,omitempty"`
	LearningOutcomes []string      `json:"learningOutcomes,omitempty"`
	SemanticKeywords []string      `json:"semanticKeywords,omitempty"`
	PrimaryLevel     Level         `json:"primaryLevel"`
	SecondaryLevels  []Level       `json:"secondaryLevels,omitempty"`
	Active           bool          `json:"-"`
	Embedding        Embedding     `json:"-"`
}

// ScoringMode says which signals contributed to a relevance score.
type ScoringMode string

const (
	ModeHybrid       ScoringMode = "HYBRID"
	ModeSemanticOnly ScoringMode = "SEMANTIC_ONLY"
)

// ModeFor returns the scoring mode used for an element. Only requirements are
// scored against SA levels.
func ModeFor(e Element) ScoringMode {
	if e.Type == ElementRequirement {
		return ModeHybrid
	}
	return ModeSemanticOnly
}

// Scores holds the computed fields of a ranked suggestion.
type Scores struct {
	RelevanceScore float64      `json:"relevanceScore"`
	MatchQuality   MatchQuality `json:"matchQuality"`
	ScoringMode    ScoringMode  `json:"scoringMode"`
	SemanticScore  float64      `json:"semanticScore"`
	SAScore        *float64     `json:"saScore"`
}

// Suggestion is one result row: the content item plus its scores.
// Scores is nil for unranked results.
type Suggestion struct {
	ContentItem
	*Scores
}

// Ranked reports whether the suggestion carries scores.
func (s Suggestion) Ranked() bool {
	return s.Scores != nil
}
