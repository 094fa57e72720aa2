package models

import (
	"encoding/json"
	"testing"
)

func TestParseGender(t *testing.T) {
	tests := []struct {
		in      string
		want    Gender
		wantErr bool
	}{
		{"male", GenderMale, false},
		{"Female", GenderFemale, false},
		{"f", GenderFemale, false},
		{" M ", GenderMale, false},
		{"other", "", true},
	}
	for _, tt := range tests {
		got, err := ParseGender(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseGender(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseGender(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseBodyPart(t *testing.T) {
	for _, p := range BodyParts {
		if got, err := ParseBodyPart(string(p)); err != nil || got != p {
			t.Errorf("ParseBodyPart(%q) = %q, %v", p, got, err)
		}
	}
	if _, err := ParseBodyPart("ankle"); err == nil {
		t.Error("ParseBodyPart(ankle) should fail")
	}
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want Language
	}{
		{"en-US", LanguageEnglish},
		{"en", LanguageEnglish},
		{"zh-CN", LanguageChinese},
		{"zh-Hans", LanguageChinese},
	}
	for _, tt := range tests {
		got, err := ParseLanguage(tt.in)
		if err != nil {
			t.Errorf("ParseLanguage(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLanguage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseLanguage("not a tag!"); err == nil {
		t.Error("ParseLanguage should reject malformed tags")
	}
}

func TestHealthRecordJSONShape(t *testing.T) {
	rec := HealthRecord{
		Date:       "2024-03-01",
		Gender:     GenderMale,
		Height:     Float(180),
		Dimensions: Dimensions{Neck: 38, Waist: 80},
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"date":"2024-03-01","gender":"male","height":180,"dimensions":{"neck":38,"waist":80}}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestHabitRecordFlags(t *testing.T) {
	if !(HabitRecord{Date: "2024-03-01"}).IsEmpty() {
		t.Error("zero record should be empty")
	}
	if (HabitRecord{Date: "2024-03-01", Note: "read"}).IsEmpty() {
		t.Error("note-only record is not empty")
	}
	if !(HabitRecord{DurationMinutes: 3}).HasFocus() {
		t.Error("HasFocus() = false for 3 minutes")
	}
}
