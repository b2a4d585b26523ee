package segment

import "testing"

func TestSplitEmpty(t *testing.T) {
	if got := Split(""); got != nil {
		t.Fatalf("expected nil for empty text, got %v", got)
	}
	if got := Split("   \n "); got != nil {
		t.Fatalf("expected nil for whitespace, got %v", got)
	}
}

func TestSplitSimpleSentences(t *testing.T) {
	got := Split("This is the first sentence. And here is the second one! Is this the third?")
	want := []string{
		"This is the first sentence.",
		"And here is the second one!",
		"Is this the third?",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d utterances, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("utterance %d: want %q, got %q", i, want[i], got[i])
		}
	}
}

func TestShortFragmentMergesIntoPrevious(t *testing.T) {
	got := Split("Here is a complete sentence. Yes.")
	if len(got) != 1 {
		t.Fatalf("expected short tail merged, got %v", got)
	}
	if got[0] != "Here is a complete sentence. Yes." {
		t.Fatalf("unexpected merge result: %q", got[0])
	}
}

func TestUnterminatedRemainderKept(t *testing.T) {
	got := Split("First sentence here. and then it just trails off without punctuation")
	if len(got) != 2 {
		t.Fatalf("expected 2 utterances, got %v", got)
	}
	if got[1] != "and then it just trails off without punctuation" {
		t.Fatalf("unexpected remainder: %q", got[1])
	}
}

func TestShortUnterminatedRemainderMerged(t *testing.T) {
	got := Split("First sentence here. ok")
	if len(got) != 1 {
		t.Fatalf("expected short remainder merged, got %v", got)
	}
}

func TestRepeatedPunctuationStaysAttached(t *testing.T) {
	got := Split("Seriously?! I had no idea... Tell me more.")
	if len(got) != 3 {
		t.Fatalf("expected 3 utterances, got %v", got)
	}
	if got[0] != "Seriously?!" {
		t.Fatalf("expected %q, got %q", "Seriously?!", got[0])
	}
}

// Mirrors the reference dialogue scenario: a greeting too short to stand
// alone leads, and a short final sentence merges backward.
func TestRussianResponseSegmentsIntoThree(t *testing.T) {
	got := Split("Привет! Это первое предложение. А это второе — длиннее и интереснее. Третье.")
	if len(got) != 3 {
		t.Fatalf("expected 3 utterances, got %d: %v", len(got), got)
	}
	if got[0] != "Привет!" {
		t.Fatalf("utterance 0: got %q", got[0])
	}
	if got[1] != "Это первое предложение." {
		t.Fatalf("utterance 1: got %q", got[1])
	}
	if got[2] != "А это второе — длиннее и интереснее. Третье." {
		t.Fatalf("utterance 2: got %q", got[2])
	}
}
