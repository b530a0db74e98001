package highlight

import (
	"testing"

	"golang.org/x/net/html"

	"github.com/Brakebein/texthighlighter/dom"
)

func TestParseColor(t *testing.T) {
	cases := []struct {
		in  string
		hex string
		ok  bool
	}{
		{"#ffff7b", "#ffff7b", true},
		{"#FF0000", "#ff0000", true},
		{"#abc", "#aabbcc", true},
		{"rgb(255, 0, 0)", "#ff0000", true},
		{"rgb(0,128,0)", "#008000", true},
		{"rgba(255, 0, 0, 0.5)", "#ff0000", true},
		{" #ffff7b ", "#ffff7b", true},
		{"rgb(300, 0, 0)", "", false},
		{"tomato", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := parseColor(c.in)
		if ok != c.ok {
			t.Errorf("parseColor(%q): expected ok=%v, got %v", c.in, c.ok, ok)
			continue
		}
		if ok && got.Hex() != c.hex {
			t.Errorf("parseColor(%q): expected %q, got %q", c.in, c.hex, got.Hex())
		}
	}
}

func colorSpan(color string) *html.Node {
	span := &html.Node{Type: html.ElementNode, Data: "span"}
	dom.SetBackgroundColor(span, color)
	return span
}

func TestSameColor(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"#ff0000", "rgb(255, 0, 0)", true},
		{"#FF0000", "#ff0000", true},
		{"#abc", "#aabbcc", true},
		{"#ff0000", "#00ff00", false},
		{"tomato", "TOMATO", true},
		{"tomato", "salmon", false},
		{"#ff0000", "tomato", false},
	}
	for _, c := range cases {
		if got := sameColor(colorSpan(c.a), colorSpan(c.b)); got != c.want {
			t.Errorf("sameColor(%q, %q): expected %v, got %v", c.a, c.b, c.want, got)
		}
	}
}
