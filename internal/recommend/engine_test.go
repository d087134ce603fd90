package recommend_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/p-n-ai/pai-suggest/internal/embedding"
	"github.com/p-n-ai/pai-suggest/internal/recommend"
)

const tolerance = 1e-9

var elementVec = []float64{1, 0}

// vecAt returns a unit vector whose cosine similarity with elementVec is s.
func vecAt(s float64) []float64 {
	return []float64{s, math.Sqrt(1 - s*s)}
}

func item(id string, sim float64, primary recommend.Level, secondary ...recommend.Level) recommend.ContentItem {
	return recommend.ContentItem{
		ID:              id,
		Title:           "Item " + id,
		ContentType:     recommend.ContentVideo,
		PrimaryLevel:    primary,
		SecondaryLevels: secondary,
		Active:          true,
		Embedding:       recommend.Embedded(vecAt(sim)),
	}
}

func newTestEngine(mock *embedding.MockProvider) *recommend.Engine {
	return recommend.NewEngine(recommend.EngineConfig{Embedder: mock})
}

func requirement(level int) *recommend.Element {
	return &recommend.Element{ID: "req-1", Title: "Identify cognitive biases", Type: recommend.ElementRequirement, Level: level}
}

func TestEngine_EndToEnd(t *testing.T) {
	mock := embedding.NewMockProvider(elementVec)
	engine := newTestEngine(mock)

	got, err := engine.Rank(context.Background(), requirement(1),
		[]recommend.ContentItem{item("c1", 0.9, recommend.LevelAcquire)}, 10)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}

	s := got[0]
	if !s.Ranked() {
		t.Fatal("suggestion should carry scores")
	}
	if s.ScoringMode != recommend.ModeHybrid {
		t.Errorf("ScoringMode = %q, want HYBRID", s.ScoringMode)
	}
	if s.SAScore == nil || *s.SAScore != 1.0 {
		t.Errorf("SAScore = %v, want 1.0", s.SAScore)
	}
	if math.Abs(s.SemanticScore-0.9) > tolerance {
		t.Errorf("SemanticScore = %v, want 0.9", s.SemanticScore)
	}
	if math.Abs(s.RelevanceScore-0.95) > tolerance {
		t.Errorf("RelevanceScore = %v, want 0.95", s.RelevanceScore)
	}
	if s.MatchQuality != recommend.MatchPerfect {
		t.Errorf("MatchQuality = %q, want Perfect Match", s.MatchQuality)
	}
	if mock.LastText() != "Identify cognitive biases" {
		t.Errorf("embedded text = %q", mock.LastText())
	}
}

func TestEngine_HybridAveraging(t *testing.T) {
	engine := newTestEngine(embedding.NewMockProvider(elementVec))

	// Target level 2 is only a secondary level of the item.
	candidates := []recommend.ContentItem{
		item("c1", 0.8, recommend.LevelAcquire, recommend.LevelMakeMeaning),
	}

	got, err := engine.Rank(context.Background(), requirement(2), candidates, 10)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if math.Abs(got[0].RelevanceScore-0.65) > tolerance {
		t.Errorf("RelevanceScore = %v, want 0.65", got[0].RelevanceScore)
	}
	if got[0].MatchQuality != recommend.MatchGood {
		t.Errorf("MatchQuality = %q, want Good Match", got[0].MatchQuality)
	}
}

func TestEngine_ModeDispatch(t *testing.T) {
	candidates := []recommend.ContentItem{
		item("a", 0.2, recommend.LevelAcquire),
		item("b", 0.6, recommend.LevelTransfer),
	}

	tests := []struct {
		elementType recommend.ElementType
		wantMode    recommend.ScoringMode
	}{
		{recommend.ElementRequirement, recommend.ModeHybrid},
		{recommend.ElementGoal, recommend.ModeSemanticOnly},
		{recommend.ElementSubgoal, recommend.ModeSemanticOnly},
	}

	for _, tt := range tests {
		t.Run(string(tt.elementType), func(t *testing.T) {
			engine := newTestEngine(embedding.NewMockProvider(elementVec))
			element := &recommend.Element{Title: "t", Type: tt.elementType, Level: 1}

			got, err := engine.Rank(context.Background(), element, candidates, 10)
			if err != nil {
				t.Fatalf("Rank() error = %v", err)
			}
			for _, s := range got {
				if s.ScoringMode != tt.wantMode {
					t.Errorf("%s: ScoringMode = %q, want %q", s.ID, s.ScoringMode, tt.wantMode)
				}
				if tt.wantMode == recommend.ModeSemanticOnly {
					if s.SAScore != nil {
						t.Errorf("%s: SAScore = %v, want nil", s.ID, *s.SAScore)
					}
					if s.RelevanceScore != s.SemanticScore {
						t.Errorf("%s: RelevanceScore = %v, want semantic %v", s.ID, s.RelevanceScore, s.SemanticScore)
					}
				}
			}
		})
	}
}

func TestEngine_RankingAndTruncation(t *testing.T) {
	engine := newTestEngine(embedding.NewMockProvider(elementVec))
	element := &recommend.Element{Title: "goal", Type: recommend.ElementGoal}

	candidates := []recommend.ContentItem{
		item("low", 0.2, recommend.LevelAcquire),
		item("high", 0.9, recommend.LevelAcquire),
		item("mid", 0.5, recommend.LevelAcquire),
	}

	got, err := engine.Rank(context.Background(), element, candidates, 2)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "high" || got[1].ID != "mid" {
		t.Errorf("order = [%s %s], want [high mid]", got[0].ID, got[1].ID)
	}
}

func TestEngine_StableTieBreak(t *testing.T) {
	engine := newTestEngine(embedding.NewMockProvider(elementVec))
	element := &recommend.Element{Title: "goal", Type: recommend.ElementGoal}

	candidates := []recommend.ContentItem{
		item("first", 0.5, recommend.LevelAcquire),
		item("best", 0.9, recommend.LevelAcquire),
		item("second", 0.5, recommend.LevelAcquire),
		item("third", 0.5, recommend.LevelAcquire),
	}

	got, err := engine.Rank(context.Background(), element, candidates, 10)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	want := []string{"best", "first", "second", "third"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestEngine_MissingEmbeddingFallback(t *testing.T) {
	engine := newTestEngine(embedding.NewMockProvider(elementVec))

	missing := recommend.ContentItem{
		ID:           "no-vec",
		PrimaryLevel: recommend.LevelTransfer,
		Embedding:    recommend.EmbeddingFrom([]float64{1, 0}, false),
	}
	candidates := []recommend.ContentItem{missing, item("weak", 0.1, recommend.LevelTransfer)}

	got, err := engine.Rank(context.Background(), requirement(1), candidates, 10)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (missing embedding must not drop the item)", len(got))
	}

	s := got[0]
	if s.ID != "no-vec" {
		t.Fatalf("got[0] = %s, want no-vec", s.ID)
	}
	if s.SemanticScore != 0.3 {
		t.Errorf("SemanticScore = %v, want 0.3", s.SemanticScore)
	}
	if math.Abs(s.RelevanceScore-0.2) > tolerance {
		t.Errorf("RelevanceScore = %v, want 0.2", s.RelevanceScore)
	}
	if s.MatchQuality != recommend.MatchPoor {
		t.Errorf("MatchQuality = %q, want Poor Match", s.MatchQuality)
	}
}

func TestEngine_EmptyCandidates(t *testing.T) {
	mock := embedding.NewMockProvider(elementVec)
	engine := newTestEngine(mock)

	got, err := engine.Rank(context.Background(), requirement(1), nil, 10)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Rank() = %v, want empty non-nil slice", got)
	}
	if mock.Calls() != 0 {
		t.Errorf("embedder called %d times, want 0", mock.Calls())
	}
}

func TestEngine_NonPositiveLimit(t *testing.T) {
	mock := embedding.NewMockProvider(elementVec)
	engine := newTestEngine(mock)
	candidates := []recommend.ContentItem{item("a", 0.5, recommend.LevelAcquire)}

	for _, limit := range []int{0, -3} {
		got, err := engine.Rank(context.Background(), requirement(1), candidates, limit)
		if err != nil {
			t.Fatalf("Rank(limit=%d) error = %v", limit, err)
		}
		if len(got) != 0 {
			t.Errorf("Rank(limit=%d) returned %d results, want 0", limit, len(got))
		}
	}
	if mock.Calls() != 0 {
		t.Errorf("embedder called %d times, want 0", mock.Calls())
	}
}

func TestEngine_NilElementUnranked(t *testing.T) {
	mock := embedding.NewMockProvider(elementVec)
	engine := newTestEngine(mock)

	candidates := []recommend.ContentItem{
		item("a", 0.1, recommend.LevelAcquire),
		item("b", 0.9, recommend.LevelAcquire),
		item("c", 0.5, recommend.LevelAcquire),
	}

	got, err := engine.Rank(context.Background(), nil, candidates, 2)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("Rank() = %v, want first two candidates in input order", got)
	}
	for _, s := range got {
		if s.Ranked() {
			t.Errorf("%s should not carry scores", s.ID)
		}
	}
	if mock.Calls() != 0 {
		t.Errorf("embedder called %d times, want 0", mock.Calls())
	}
}

func TestEngine_EmbeddingUnavailable(t *testing.T) {
	tests := []struct {
		name     string
		embedder recommend.Embedder
	}{
		{"provider error", &embedding.MockProvider{Err: errors.New("connection refused")}},
		{"empty vector", embedding.NewMockProvider(nil)},
		{"no embedder", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := recommend.NewEngine(recommend.EngineConfig{Embedder: tt.embedder})
			_, err := engine.Rank(context.Background(), requirement(1),
				[]recommend.ContentItem{item("a", 0.5, recommend.LevelAcquire)}, 10)
			if !errors.Is(err, recommend.ErrEmbeddingUnavailable) {
				t.Fatalf("Rank() error = %v, want ErrEmbeddingUnavailable", err)
			}
		})
	}
}

func TestEngine_DimensionMismatch(t *testing.T) {
	engine := newTestEngine(embedding.NewMockProvider([]float64{1, 0, 0}))

	_, err := engine.Rank(context.Background(), requirement(1),
		[]recommend.ContentItem{item("a", 0.5, recommend.LevelAcquire)}, 10)
	if !errors.Is(err, recommend.ErrInvalidInput) {
		t.Fatalf("Rank() error = %v, want ErrInvalidInput", err)
	}
}

func TestEngine_DoesNotMutateCandidates(t *testing.T) {
	engine := newTestEngine(embedding.NewMockProvider(elementVec))
	candidates := []recommend.ContentItem{
		item("a", 0.1, recommend.LevelAcquire),
		item("b", 0.9, recommend.LevelAcquire),
	}

	if _, err := engine.Rank(context.Background(), requirement(1), candidates, 10); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if candidates[0].ID != "a" || candidates[1].ID != "b" {
		t.Errorf("candidates reordered: [%s %s]", candidates[0].ID, candidates[1].ID)
	}
}
