package remote

import "testing"

type decodeTarget struct {
	A int    `json:"a"`
	B string `json:"b"`
}

func TestDecodeJSONLenientPlainObject(t *testing.T) {
	var out decodeTarget
	if err := DecodeJSONLenient(`{"a":1,"b":"x"}`, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.A != 1 || out.B != "x" {
		t.Errorf("out = %+v, want {1 x}", out)
	}
}

func TestDecodeJSONLenientTrailingProse(t *testing.T) {
	var out decodeTarget
	content := "{\"a\":2,\"b\":\"y\"}\n\nNote: this is my best assessment of the text."
	if err := DecodeJSONLenient(content, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.A != 2 || out.B != "y" {
		t.Errorf("out = %+v, want {2 y}", out)
	}
}

func TestDecodeJSONLenientUnparseableReturnsError(t *testing.T) {
	var out decodeTarget
	if err := DecodeJSONLenient("not json at all", &out); err == nil {
		t.Error("expected an error for content with no JSON object")
	}
}

func TestExtractFirstJSONObjectNestedBraces(t *testing.T) {
	content := `{"outer":{"inner":1},"b":"z"} trailing junk`
	obj, ok := extractFirstJSONObject(content)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if obj != `{"outer":{"inner":1},"b":"z"}` {
		t.Errorf("obj = %q", obj)
	}
}

func TestExtractFirstJSONObjectIgnoresBracesInsideStrings(t *testing.T) {
	content := `{"text":"a { b } c"} ignored`
	obj, ok := extractFirstJSONObject(content)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if obj != `{"text":"a { b } c"}` {
		t.Errorf("obj = %q", obj)
	}
}

func TestExtractFirstJSONObjectSkipsLeadingProse(t *testing.T) {
	obj, ok := extractFirstJSONObject("Sure, here is the JSON: {\"a\":1} hope that helps")
	if !ok {
		t.Fatal("expected extraction to succeed despite leading prose")
	}
	if obj != `{"a":1}` {
		t.Errorf("obj = %q", obj)
	}
}

func TestExtractFirstJSONObjectNoObjectFails(t *testing.T) {
	if _, ok := extractFirstJSONObject("no braces anywhere"); ok {
		t.Error("expected extraction to fail with no object present")
	}
}

func TestDecodeJSONLenientLeadingProse(t *testing.T) {
	var out decodeTarget
	if err := DecodeJSONLenient("Here is my verdict:\n{\"a\":3,\"b\":\"z\"}", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.A != 3 || out.B != "z" {
		t.Errorf("out = %+v, want {3 z}", out)
	}
}
