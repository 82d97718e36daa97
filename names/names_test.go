package names

import (
	"testing"
)

func TestSanitizeSegment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"smile", "smile"},
		{"Café au lait!", "Cafe_au_lait"},
		{"  spaced   out  ", "spaced_out"},
		{"my.file-1", "my.file-1"},
		{"a__b", "a_b"},
		{"___", Unnamed},
		{"", Unnamed},
		{"???", Unnamed},
		{"Ñandú", "Nandu"},
		{"emoji 😀 face", "emoji_face"},
	}
	for _, tt := range tests {
		if got := SanitizeSegment(tt.in); got != tt.want {
			t.Errorf("SanitizeSegment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStorageBaseAndCanonicalKey(t *testing.T) {
	tests := []struct {
		in        string
		base      string
		canonical string
	}{
		{"Happy Face", "Happy_Face", "happy_face"},
		{"Happy Face.v2", "Happy_Face_v2", "happy_face_v2"},
		{"Ärger", "Arger", "arger"},
		{"smile-1", "smile-1", "smile-1"},
		{"", Unnamed, Unnamed},
	}
	for _, tt := range tests {
		if got := StorageBase(tt.in); got != tt.base {
			t.Errorf("StorageBase(%q) = %q, want %q", tt.in, got, tt.base)
		}
		if got := CanonicalKey(tt.in); got != tt.canonical {
			t.Errorf("CanonicalKey(%q) = %q, want %q", tt.in, got, tt.canonical)
		}
	}
}

func TestCanonicalKey_MirrorsStorageFileNames(t *testing.T) {
	// locally typed name and file name produced by storage must meet
	typed := []string{"Happy Face", "happy face", "HAPPY_FACE", "Happy  Face!"}
	for _, name := range typed {
		stored := StorageBase(name)
		if CanonicalKey(name) != CanonicalKey(stored) {
			t.Errorf("CanonicalKey(%q) = %q differs from key of stored name %q", name, CanonicalKey(name), stored)
		}
	}
	if CanonicalKey("happy.face") == CanonicalKey("happy.fac") {
		t.Error("distinct names must not collide")
	}
}

func TestNormalizer_Transliterate(t *testing.T) {
	n := Normalizer{Transliterate: true}
	if got := n.CanonicalKey("Алиса"); got != "alisa" {
		t.Errorf("transliterated key = %q, want %q", got, "alisa")
	}
	if got := n.StorageBase("Алиса smile"); got != "Alisa_smile" {
		t.Errorf("transliterated base = %q, want %q", got, "Alisa_smile")
	}
	if got := CanonicalKey("Алиса"); got != Unnamed {
		t.Errorf("default key = %q, want %q", got, Unnamed)
	}
}

func TestStripDiacritics(t *testing.T) {
	if got := StripDiacritics("crème brûlée"); got != "creme brulee" {
		t.Errorf("StripDiacritics() = %q", got)
	}
	if got := StripDiacritics("plain"); got != "plain" {
		t.Errorf("StripDiacritics() = %q", got)
	}
}
