package vector

import (
	"fmt"
	"math"
	"sync"
	"testing"
)

func TestIndex_SelfMatch(t *testing.T) {
	idx := NewIndex()
	idx.AddEntry("the exact stored text", nil, 0.5)
	idx.AddEntry("completely different material", nil, 0.5)

	matches := idx.SearchSimilar("the exact stored text", 5, 0)
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	top := matches[0]
	if top.Entry.Content != "the exact stored text" {
		t.Fatalf("expected stored text as top hit, got %v", top.Entry.Content)
	}
	if math.Abs(top.Similarity-1.0) > 1e-5 {
		t.Fatalf("expected self similarity ~1, got %f", top.Similarity)
	}
}

func TestIndex_MinSimilarityCutoff(t *testing.T) {
	idx := NewIndex()
	idx.AddEntry("some entry", nil, 0.5)

	// a cutoff above 1 excludes everything
	if matches := idx.SearchSimilar("unrelated query", 5, 1.01); len(matches) != 0 {
		t.Fatalf("expected cutoff to exclude all entries, got %d matches", len(matches))
	}
	// negative means "use the default cutoff"
	if matches := idx.SearchSimilar("some entry", 5, -1); len(matches) != 1 {
		t.Fatalf("expected default cutoff to admit the self match, got %d", len(matches))
	}
}

func TestIndex_TopK(t *testing.T) {
	idx := NewIndex()
	for i := 0; i < 10; i++ {
		idx.AddEntry(fmt.Sprintf("entry %d", i), nil, 0.5)
	}
	matches := idx.SearchSimilar("entry 3", 3, 0)
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Similarity > matches[i-1].Similarity {
			t.Fatal("expected matches ranked by descending similarity")
		}
	}
}

func TestIndex_AddIsIdempotent(t *testing.T) {
	idx := NewIndex()
	id1 := idx.AddEntry("same content", nil, 0.5)
	id2 := idx.AddEntry("same content", nil, 0.9)
	if id1 != id2 {
		t.Fatalf("expected identical content to produce identical id, got %s and %s", id1, id2)
	}
	if idx.Len() != 1 {
		t.Fatalf("expected one entry, got %d", idx.Len())
	}
	entry, ok := idx.Entry(id1)
	if !ok {
		t.Fatal("expected entry to exist")
	}
	if entry.Importance != 0.9 {
		t.Fatalf("expected latest write to win, got importance %f", entry.Importance)
	}
}

func TestIndex_RemoveAndLazyRebuild(t *testing.T) {
	idx := NewIndex()
	id := idx.AddEntry("to be removed", nil, 0.5)
	idx.AddEntry("to be kept", nil, 0.5)

	// force a matrix build, then mutate and search again
	idx.SearchSimilar("to be kept", 5, 0)
	if !idx.RemoveEntry(id) {
		t.Fatal("expected removal to succeed")
	}
	if idx.RemoveEntry(id) {
		t.Fatal("expected second removal to report false")
	}
	matches := idx.SearchSimilar("to be removed", 5, 0)
	for _, m := range matches {
		if m.Entry.ID == id {
			t.Fatal("expected removed entry to be absent after rebuild")
		}
	}
	if idx.Len() != 1 {
		t.Fatalf("expected one remaining entry, got %d", idx.Len())
	}
}

func TestIndex_EmptySearch(t *testing.T) {
	idx := NewIndex()
	if matches := idx.SearchSimilar("anything", 5, 0); len(matches) != 0 {
		t.Fatalf("expected no matches on empty index, got %d", len(matches))
	}
}

func TestIndex_MetadataIsolation(t *testing.T) {
	idx := NewIndex()
	id := idx.AddEntry("content", map[string]any{"k": "v"}, 0.5)
	entry, _ := idx.Entry(id)
	entry.Metadata["k"] = "mutated"
	again, _ := idx.Entry(id)
	if again.Metadata["k"] != "v" {
		t.Fatal("expected returned entries to carry isolated metadata")
	}
}

func TestIndex_ConcurrentAccess(t *testing.T) {
	idx := NewIndex()
	wg := sync.WaitGroup{}
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			idx.AddEntry(fmt.Sprintf("concurrent entry %d", i), nil, 0.5)
			idx.SearchSimilar("concurrent", 5, 0)
		}(i)
	}
	wg.Wait()
	if idx.Len() != 25 {
		t.Fatalf("expected 25 entries, got %d", idx.Len())
	}
}
