package cache

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/p-n-ai/pai-suggest/internal/recommend"
)

func TestKey(t *testing.T) {
	a := Key("req-1")
	b := Key("req-2")

	if a == b {
		t.Error("different element IDs should not share a key")
	}
	if a != Key("req-1") {
		t.Error("Key() should be deterministic")
	}
	if !strings.HasPrefix(a, keyPrefix) {
		t.Errorf("Key() = %q, want prefix %q", a, keyPrefix)
	}
	if len(Key("a very long element identifier with spaces: and colons")) != len(a) {
		t.Error("keys should have a fixed length")
	}
}

func TestDecodeSuggestions(t *testing.T) {
	sa := 0.5
	in := []recommend.Suggestion{
		{
			ContentItem: recommend.ContentItem{ID: "c1", Title: "Bias 101", PrimaryLevel: recommend.LevelAcquire},
			Scores: &recommend.Scores{
				RelevanceScore: 0.65,
				MatchQuality:   recommend.MatchGood,
				ScoringMode:    recommend.ModeHybrid,
				SemanticScore:  0.8,
				SAScore:        &sa,
			},
		},
		{ContentItem: recommend.ContentItem{ID: "c2"}},
	}

	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	out, err := decodeSuggestions(raw)
	if err != nil {
		t.Fatalf("decodeSuggestions() error = %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if !out[0].Ranked() || out[0].MatchQuality != recommend.MatchGood || *out[0].SAScore != 0.5 {
		t.Errorf("out[0] = %+v", out[0])
	}
	if out[1].Ranked() {
		t.Error("unranked suggestion should decode without scores")
	}
}

func TestDecodeSuggestions_Invalid(t *testing.T) {
	if _, err := decodeSuggestions([]byte("not json")); err == nil {
		t.Fatal("decodeSuggestions() should fail on invalid JSON")
	}
}

func TestSuggestionCache_UnreachableHost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping unreachable host test in short mode")
	}

	opts, err := clientOptions("redis://localhost:59999")
	if err != nil {
		t.Fatalf("clientOptions() error = %v", err)
	}
	client := redis.NewClient(opts)
	defer func() { _ = client.Close() }()

	sc := NewSuggestionCache(client, 0)
	if _, _, err := sc.Get(t.Context(), "req-1"); err == nil {
		t.Fatal("Get() should return error for unreachable host")
	}
}
