package orchestration

import "testing"

func TestNewQuery(t *testing.T) {
	first := NewQuery("what time is it")
	second := NewQuery("what time is it")

	if first.Text != "what time is it" {
		t.Fatalf("unexpected text %q", first.Text)
	}
	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", first.ID, second.ID)
	}
	if first.ReceivedAt.IsZero() {
		t.Fatalf("expected the arrival timestamp to be set")
	}
	if first.EmotionTags != nil {
		t.Fatalf("expected no emotion tags without a providing source, got %v", first.EmotionTags)
	}
}
