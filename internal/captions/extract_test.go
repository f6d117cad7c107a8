package captions

import "testing"

func TestExtractJSONAfter(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		marker string
		want   string
	}{
		{"simple", `x = {"a":1}; y = 2`, "x", `{"a":1}`},
		{"nested", `m = {"a":{"b":{}}} trailing }`, "m", `{"a":{"b":{}}}`},
		{"brace in string", `m = {"s":"}{"}`, "m", `{"s":"}{"}`},
		{"escaped quote", `m = {"s":"a\"}b"}`, "m", `{"s":"a\"}b"}`},
		{"escaped backslash", `m = {"s":"a\\"} rest`, "m", `{"s":"a\\"}`},
		{"no marker", `{"a":1}`, "zz", ""},
		{"unbalanced", `m = {"a":1`, "m", ""},
		{"no object", `m = 42`, "m", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(ExtractJSONAfter(tt.text, tt.marker))
			if got != tt.want {
				t.Errorf("ExtractJSONAfter() = %q, want %q", got, tt.want)
			}
		})
	}
}
