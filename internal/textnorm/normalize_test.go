package textnorm

import "testing"

func TestNormalizeFancyQuotesAndDashes(t *testing.T) {
	in := "“Hello” – world’s ‘test’ — done"
	out := Normalize(in)
	want := `"Hello" - world's 'test' - done`
	if out != want {
		t.Errorf("Normalize() = %q, want %q", out, want)
	}
}

func TestNormalizeLineEndingsAndWhitespace(t *testing.T) {
	in := "line one  \r\nline   two\t\t\r\n\r\n  line three  "
	out := Normalize(in)
	want := "line one\nline two\n\nline three"
	if out != want {
		t.Errorf("Normalize() = %q, want %q", out, want)
	}
}

func TestNormalizeTrimsDocumentEnds(t *testing.T) {
	out := Normalize("\n\n  content  \n\n")
	if out != "content" {
		t.Errorf("Normalize() = %q, want %q", out, "content")
	}
}

func TestNormalizeIdeographicAndNBSPSpace(t *testing.T) {
	in := "这是 一个　测试"
	out := Normalize(in)
	want := "这是 一个 测试"
	if out != want {
		t.Errorf("Normalize() = %q, want %q", out, want)
	}
}
