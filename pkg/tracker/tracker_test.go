package tracker

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestTracker(t *testing.T) {
	tr := New()
	provider := "wikidata"

	if stats := tr.Snapshot(); len(stats) != 0 {
		t.Errorf("Expected empty stats, got %d", len(stats))
	}

	tr.TrackCacheHit(provider)
	tr.TrackCacheMiss(provider)
	tr.TrackAPISuccess(provider)
	tr.TrackAPIFailure(provider)
	tr.TrackAPIZero(provider)

	pStats, ok := tr.Snapshot()[provider]
	if !ok {
		t.Fatalf("Expected stats for provider %s", provider)
	}
	want := ProviderStats{CacheHits: 1, CacheMisses: 1, APISuccess: 1, APIFailures: 1, APIZeroResult: 1}
	if pStats != want {
		t.Errorf("Snapshot = %+v, want %+v", pStats, want)
	}
}

func TestTracker_Concurrent(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.TrackAPISuccess("wikidata")
		}()
	}
	wg.Wait()

	if got := tr.Snapshot()["wikidata"].APISuccess; got != 50 {
		t.Errorf("APISuccess = %d, want 50", got)
	}
}

func TestTracker_Log(t *testing.T) {
	tr := New()
	tr.TrackAPISuccess("wikipedia")
	tr.TrackAPIFailure("wikidata")

	var buf bytes.Buffer
	tr.Log(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	out := buf.String()
	first := strings.Index(out, "provider=wikidata")
	second := strings.Index(out, "provider=wikipedia")
	if first < 0 || second < 0 || first > second {
		t.Errorf("expected both providers in name order, got %q", out)
	}
	if !strings.Contains(out, "failures=1") {
		t.Errorf("missing failure count: %q", out)
	}
}
