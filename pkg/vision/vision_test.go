package vision

import "testing"

func TestParseDescriptionPlainJSON(t *testing.T) {
	raw := `{"summary": "toss payment app", "layout": "single column",
		"colors": ["#0064FF"], "fonts": ["Pretendard"],
		"elements": [{"type": "button", "label": "송금하기", "interactive": true}]}`

	d, ok := ParseDescription(raw)
	if !ok {
		t.Fatal("expected successful parse")
	}
	if d.Summary != "toss payment app" {
		t.Errorf("summary = %q", d.Summary)
	}
	if len(d.Colors) != 1 || d.Colors[0] != "#0064FF" {
		t.Errorf("colors = %v", d.Colors)
	}
	if len(d.Elements) != 1 || !d.Elements[0].Interactive {
		t.Errorf("elements = %+v", d.Elements)
	}
}

func TestParseDescriptionMarkdownFence(t *testing.T) {
	raw := "Here is the description:\n```json\n{\"summary\": \"login screen\", \"layout\": \"centered card\"}\n```\nHope that helps!"

	d, ok := ParseDescription(raw)
	if !ok {
		t.Fatal("expected parse despite markdown fence")
	}
	if d.Summary != "login screen" {
		t.Errorf("summary = %q", d.Summary)
	}
}

func TestParseDescriptionBracesInStrings(t *testing.T) {
	raw := `{"summary": "uses {placeholder} tokens", "layout": "grid"}`

	d, ok := ParseDescription(raw)
	if !ok {
		t.Fatal("braces inside strings broke the scanner")
	}
	if d.Summary != "uses {placeholder} tokens" {
		t.Errorf("summary = %q", d.Summary)
	}
}

func TestParseDescriptionFailures(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"prose only", "I cannot see the image clearly."},
		{"truncated json", `{"summary": "cut off`},
		{"wrong types", `{"summary": 42}`},
		{"empty object", `{}`},
		{"unbalanced", `{{{`},
	}
	for _, tt := range cases {
		d, ok := ParseDescription(tt.raw)
		if ok {
			t.Errorf("%s: expected failure", tt.name)
		}
		if !d.Empty() {
			t.Errorf("%s: failure should return empty defaults, got %+v", tt.name, d)
		}
	}
}

func TestFlatText(t *testing.T) {
	d := Description{
		Summary: "toss payment app",
		Layout:  "single column",
		Elements: []Element{
			{Type: "button", Label: "Pay Now"},
			{Type: "image"},
		},
	}
	got := d.FlatText()
	want := "toss payment app single column Pay Now"
	if got != want {
		t.Errorf("FlatText = %q, want %q", got, want)
	}

	if (Description{}).FlatText() != "" {
		t.Error("empty description should flatten to empty string")
	}
}

func TestInteractiveCount(t *testing.T) {
	d := Description{Elements: []Element{
		{Type: "button"},                      // implicit
		{Type: "input"},                       // implicit
		{Type: "link"},                        // implicit
		{Type: "text", Interactive: true},     // explicit
		{Type: "image"},                       // not interactive
		{Type: "button", Interactive: true},   // counted once
	}}
	if n := d.InteractiveCount(); n != 5 {
		t.Errorf("InteractiveCount = %d, want 5", n)
	}
}

func TestExtractJSONFirstObject(t *testing.T) {
	raw := `noise {"a": 1} trailing {"b": 2}`
	if got := extractJSON(raw); got != `{"a": 1}` {
		t.Errorf("extractJSON = %q", got)
	}
}
