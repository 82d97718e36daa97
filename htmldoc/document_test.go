package htmldoc

import (
	"slices"
	"strings"
	"testing"
)

const page = `<!DOCTYPE html>
<html><body>
<div class="mes"><div id="m1" class="mes_text"><p>hi <b>%%img:smile%%</b></p></div></div>
<div class="mes"><div class="mes_text extra">plain</div></div>
<div class="other">%%img:smile%%</div>
</body></html>`

func TestDocument(t *testing.T) {
	d, err := Parse(strings.NewReader(page), "text/html; charset=utf-8", "mes_text")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if ids := d.IDs(); !slices.Equal(ids, []string{"m1", "c2"}) {
		t.Fatalf("IDs() = %v", ids)
	}

	text, ok := d.Text("m1")
	if !ok || text != "<p>hi <b>%%img:smile%%</b></p>" {
		t.Fatalf("Text() = %q, %v", text, ok)
	}
	if _, ok := d.Text("nope"); ok {
		t.Error("Text() of unknown container succeeded")
	}

	patched := strings.Replace(text, "%%img:smile%%", `<img src="/a/smile.png">`, 1)
	if err := d.Patch("m1", patched); err != nil {
		t.Fatalf("Patch() error = %v", err)
	}
	if text, _ := d.Text("m1"); text != `<p>hi <b><img src="/a/smile.png"/></b></p>` {
		t.Errorf("after Patch() Text() = %q", text)
	}

	if !d.Remove("c2") || d.Remove("c2") {
		t.Error("Remove() misbehaves")
	}
	if err := d.Patch("c2", "x"); err == nil {
		t.Error("Patch() of removed container succeeded")
	}

	var out strings.Builder
	if err := d.Render(&out); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	if !strings.Contains(s, `<img src="/a/smile.png"/>`) || strings.Contains(s, "plain") {
		t.Errorf("Render() = %s", s)
	}
	if !strings.Contains(s, `<div class="other">%%img:smile%%</div>`) {
		t.Error("non container content changed")
	}
}
