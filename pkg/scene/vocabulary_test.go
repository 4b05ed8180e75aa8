package scene

import (
	"errors"
	"slices"
	"testing"
)

func TestDefaultVocabulary(t *testing.T) {
	v := DefaultVocabulary()

	tests := []struct {
		keyword string
		want    []string
	}{
		{"cafe", []string{"cafe_ambience", "cafe_chatter", "espresso_machine"}},
		{"Coffee   Shop", []string{"cafe_ambience", "cafe_chatter", "espresso_machine"}},
		{"sea", []string{"underwater_ambience", "whale_song"}},
		{"sea lion", []string{"sealion_shrimp"}},
		{"storm", []string{"thunder", "forest_ambience"}},
		{"calm", []string{"forest_ambience", "underwater_ambience"}},
	}
	for _, tt := range tests {
		got, ok := v.Lookup(tt.keyword)
		if !ok {
			t.Errorf("Lookup(%q) not found", tt.keyword)
			continue
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("Lookup(%q) = %q, want %q", tt.keyword, got, tt.want)
		}
	}

	if _, ok := v.Lookup("spaceship"); ok {
		t.Error("Lookup(spaceship) should miss")
	}

	cats := v.Categories()
	want := []string{
		"bird_chirp", "cafe_ambience", "cafe_chatter", "dolphin_clicks", "espresso_machine",
		"forest_ambience", "sealion_shrimp", "thunder", "underwater_ambience", "whale_song",
	}
	if !slices.Equal(cats, want) {
		t.Errorf("Categories = %q, want %q", cats, want)
	}

	// Each call returns an independent copy.
	v["cafe"][0] = "changed"
	if got, _ := DefaultVocabulary().Lookup("cafe"); got[0] != "cafe_ambience" {
		t.Errorf("DefaultVocabulary shares state: %q", got)
	}
}

func TestParseVocabulary(t *testing.T) {
	v, err := ParseVocabulary([]byte(`{"Engine  Room": ["engine_hum", "alarm"], "beep": ["alarm"]}`))
	if err != nil {
		t.Fatalf("ParseVocabulary(json): %v", err)
	}
	if got := v.Keywords(); !slices.Equal(got, []string{"beep", "engine room"}) {
		t.Errorf("Keywords = %q", got)
	}

	v, err = ParseVocabulary([]byte("rain:\n  - forest_ambience\n  - thunder\n"))
	if err != nil {
		t.Fatalf("ParseVocabulary(yaml): %v", err)
	}
	if got, _ := v.Lookup("rain"); !slices.Equal(got, []string{"forest_ambience", "thunder"}) {
		t.Errorf("rain = %q", got)
	}

	for _, bad := range []string{
		"- just\n- a list\n",
		"rain: []\n",
		"rain: [\"\"]\n",
		"\"  \": [thunder]\n",
		"rain: [forest_ambience",
	} {
		if _, err := ParseVocabulary([]byte(bad)); !errors.Is(err, ErrInvalidVocabulary) {
			t.Errorf("ParseVocabulary(%q) error = %v, want ErrInvalidVocabulary", bad, err)
		}
	}
}

func TestVocabularyMerge(t *testing.T) {
	base := Vocabulary{"rain": {"forest_ambience"}, "thunder": {"thunder"}}
	merged := base.Merge(Vocabulary{"Rain": {"rain_on_tin_roof"}, "drizzle": {"rain_on_tin_roof"}, "empty": nil})

	if got, _ := merged.Lookup("rain"); !slices.Equal(got, []string{"rain_on_tin_roof"}) {
		t.Errorf("rain = %q", got)
	}
	if _, ok := merged.Lookup("empty"); ok {
		t.Error("keywords without categories should be ignored")
	}
	if got := merged.Keywords(); !slices.Equal(got, []string{"drizzle", "rain", "thunder"}) {
		t.Errorf("Keywords = %q", got)
	}
	if got, _ := base.Lookup("rain"); !slices.Equal(got, []string{"forest_ambience"}) {
		t.Errorf("Merge modified the receiver: %q", got)
	}
}
