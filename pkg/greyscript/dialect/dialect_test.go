package dialect

import (
	"testing"
)

func TestDefaultKeywords(t *testing.T) {
	d := Default()

	tests := []struct {
		name     string
		expected bool
	}{
		{"if", true},
		{"then", true},
		{"else if", true},
		{"end if", true},
		{"end for", true},
		{"end while", true},
		{"end function", true},
		{"import_code", true},
		{"isa", true},
		{"debugger", true},
		{"foobar", false},
		{"end", false},
		{"True", false},
		{"avancedkeywordthatistoolong", false},
	}

	for _, tt := range tests {
		if got := d.IsKeyword(tt.name); got != tt.expected {
			t.Errorf("IsKeyword(%q) - expected %v, got %v", tt.name, tt.expected, got)
		}
	}
}

func TestDefaultNatives(t *testing.T) {
	d := Default()

	for _, name := range []string{"print", "true", "false", "null", "globals", "locals"} {
		if !d.IsNative(name) {
			t.Errorf("expected %q to be native", name)
		}
	}
	if d.IsNative("myVariable") {
		t.Error("user identifiers should not be native")
	}
}

func TestDefaultPrecedence(t *testing.T) {
	d := Default()

	tests := []struct {
		op       string
		expected int
	}{
		{"or", PrecedenceOr},
		{"and", PrecedenceAnd},
		{"==", PrecedenceComparison},
		{"<<", PrecedenceShift},
		{"+", PrecedenceAdditive},
		{"*", PrecedenceMultiplicative},
		{"%", PrecedenceMultiplicative},
		{"isa", PrecedenceIsa},
		{"^", PrecedencePower},
		{"=", PrecedenceLowest},
		{"(", PrecedenceLowest},
	}

	for _, tt := range tests {
		if got := d.Precedence(tt.op); got != tt.expected {
			t.Errorf("Precedence(%q) - expected %d, got %d", tt.op, tt.expected, got)
		}
	}
}

func TestFromYAML(t *testing.T) {
	data := []byte(`
name: tiny
keywords:
  - if
  - end if
natives:
  - print
precedence:
  "+": 1
  "*": 2
`)

	d, err := FromYAML(data)
	if err != nil {
		t.Fatalf("FromYAML failed: %v", err)
	}
	if d.Name != "tiny" {
		t.Errorf("expected name tiny, got %q", d.Name)
	}
	if !d.IsKeyword("end if") {
		t.Error("expected 'end if' to be a keyword")
	}
	if d.IsKeyword("while") {
		t.Error("did not expect 'while' to be a keyword")
	}
	if !d.IsNative("print") {
		t.Error("expected print to be native")
	}
	if d.Precedence("*") != 2 {
		t.Errorf("expected precedence 2 for *, got %d", d.Precedence("*"))
	}
}

func TestFromYAMLRequiresName(t *testing.T) {
	if _, err := FromYAML([]byte("keywords: [if]")); err == nil {
		t.Fatal("expected error for unnamed dialect")
	}
}

func TestFromYAMLRejectsMalformed(t *testing.T) {
	if _, err := FromYAML([]byte("{not yaml")); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestKeywordListIsSorted(t *testing.T) {
	kws := Default().Keywords()
	if len(kws) == 0 {
		t.Fatal("expected a non-empty keyword list")
	}
	for i := 1; i < len(kws); i++ {
		if kws[i-1] >= kws[i] {
			t.Fatalf("keyword list not sorted at %d: %q >= %q", i, kws[i-1], kws[i])
		}
	}
}
