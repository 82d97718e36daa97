package asset

import (
	"errors"
	"testing"

	"imgres/common"
	"imgres/names"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		in      string
		want    Scope
		wantErr bool
	}{
		{"Alice", Character("Alice"), false},
		{"character:Alice", Character("Alice"), false},
		{"persona: Bob ", Persona("Bob"), false},
		{"PERSONA:Bob", Persona("Bob"), false},
		{"group:Bob", Scope{}, true},
		{"persona:", Scope{}, true},
	}
	for _, tt := range tests {
		got, err := ParseScope(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseScope(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseScope(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if k := Persona("Bob").Key(); k != "persona:Bob" {
		t.Errorf("Key() = %q", k)
	}
}

func TestLocation(t *testing.T) {
	var zero Location
	if !zero.IsZero() || zero.Source() != "" {
		t.Fatalf("zero location is not empty: %v", zero)
	}
	if !URL("   ").IsZero() {
		t.Errorf("blank URL must produce zero location")
	}

	u := URL(" /user/images/Alice/smile.png ")
	if u.Kind() != common.LocationKindUrl || u.Source() != "/user/images/Alice/smile.png" {
		t.Errorf("URL location = %v", u)
	}

	png := Inline("iVBORw0KGgo=")
	if !png.IsInline() {
		t.Fatalf("Inline() kind = %v", png.Kind())
	}
	if got := png.Source(); got != "data:image/png;base64,iVBORw0KGgo=" {
		t.Errorf("Source() = %q", got)
	}

	jpg := Inline("data:application/octet-stream;base64,/9j/")
	if jpg.Value() != "/9j/" {
		t.Errorf("data URI prefix not dropped: %q", jpg.Value())
	}
	if got := InlineMimeType(jpg.Value()); got != "image/jpeg" {
		t.Errorf("InlineMimeType(jpeg) = %q", got)
	}
	if got := InlineMimeType("not base64 at all!"); got != "image/png" {
		t.Errorf("InlineMimeType(garbage) = %q", got)
	}
}

type prefixLocator string

func (p prefixLocator) FileURL(scope Scope, filename string) string {
	return string(p) + "/" + scope.ID + "/" + filename
}

func TestEntryLocation(t *testing.T) {
	scope := Character("Alice")
	loc := prefixLocator("/img")
	tests := []struct {
		name  string
		entry Entry
		want  Location
	}{
		{"url wins", Entry{Name: "a", URL: "/x/a.png", Path: "/y/a.png", Filename: "a.png"}, URL("/x/a.png")},
		{"path", Entry{Name: "a", Path: "/y/a.png", Filename: "a.png"}, URL("/y/a.png")},
		{"filename", Entry{Name: "a", Filename: "a.png"}, URL("/img/Alice/a.png")},
		{"legacy", Entry{Name: "a", Data: "iVBORw0KGgo="}, Inline("iVBORw0KGgo=")},
		{"nothing", Entry{Name: "a"}, Location{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Location(scope, loc); got != tt.want {
				t.Errorf("Location() = %v, want %v", got, tt.want)
			}
		})
	}

	r := Entry{Name: " Smile ", Data: "iVBORw0KGgo=", Tags: []string{"b", " a", "b", ""}}.Record(names.Normalizer{}, scope, loc)
	if r.DisplayName != "Smile" || r.CanonicalKey != "smile" || r.Source != common.SourceKindMetadata {
		t.Errorf("Record() = %+v", r)
	}
	if !r.IsLegacyInline() {
		t.Errorf("record with data must be legacy inline")
	}
	if len(r.Tags) != 2 || r.Tags[0] != "a" || r.Tags[1] != "b" {
		t.Errorf("Tags = %v", r.Tags)
	}
}

func TestCheckUnique(t *testing.T) {
	entries := []Entry{{Name: "Happy Face"}, {Name: "smile"}}
	var n names.Normalizer

	if err := CheckUnique(n, entries, "frown", -1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := CheckUnique(n, entries, "SMILE", -1)
	if !errors.Is(err, ErrNameCollision) {
		t.Fatalf("expected collision, got %v", err)
	}
	err = CheckUnique(n, entries, "happy_face", -1)
	var ce *CollisionError
	if !errors.As(err, &ce) || ce.Existing != "Happy Face" || ce.Key != "happy_face" {
		t.Fatalf("expected canonical collision, got %v", err)
	}
	// renaming entry onto itself is fine
	if err := CheckUnique(n, entries, "Smile", 1); err != nil {
		t.Errorf("rename onto itself: %v", err)
	}
	if i := Find(entries, " happy face"); i != 0 {
		t.Errorf("Find() = %d", i)
	}
}
