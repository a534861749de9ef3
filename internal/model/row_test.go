package model

import "testing"

func TestNewOutputRows(t *testing.T) {
	t.Parallel()

	task := SearchTask{Organization: "Bank A", City: "City X"}
	link := LocationLink{URL: "https://maps.example/place/1"}
	loc := &Location{Name: "Agence Centre", Address: "1 Rue A", Rating: "4,2"}

	t.Run("one row per review", func(t *testing.T) {
		t.Parallel()

		reviews := []Review{
			{Text: "Très bien", Date: "il y a 2 mois", Language: LanguageFrench},
			{Text: "خدمة ممتازة", Date: "il y a 1 an", Language: LanguageArabic},
		}
		rows := NewOutputRows(task, link, loc, reviews)
		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}

		want := []string{"Bank A", "City X", "Agence Centre", "1 Rue A", "4,2", "خدمة ممتازة", "il y a 1 an"}
		got := rows[1].Record()
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("field %d: expected %q, got %q", i, want[i], got[i])
			}
		}
		if rows[1].Language != LanguageArabic {
			t.Errorf("expected Arabic, got %v", rows[1].Language)
		}
		if rows[0].Key() == rows[1].Key() {
			t.Errorf("expected distinct keys, both were %q", rows[0].Key())
		}
	})

	t.Run("no reviews yields no rows", func(t *testing.T) {
		t.Parallel()

		if rows := NewOutputRows(task, link, loc, nil); len(rows) != 0 {
			t.Errorf("expected 0 rows, got %d", len(rows))
		}
	})

	t.Run("record matches header width", func(t *testing.T) {
		t.Parallel()

		if got := len(OutputRow{}.Record()); got != len(CSVHeader) {
			t.Errorf("expected %d fields, got %d", len(CSVHeader), got)
		}
	})
}
