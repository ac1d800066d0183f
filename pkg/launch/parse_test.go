package launch

import (
	"testing"

	"github.com/matzehuels/launchgraph/pkg/errors"
)

func TestParse(t *testing.T) {
	text := `gst-launch-1.0 -ev \
tee \
    name=t \
t. \
  ! queue \
      max-size-buffers=2 \
  ! f.sink_0 \
t. \
  ! "video/x-raw, width=(int)320" \
  ! funnel \
      name=f \
  ! fakesink \
      location="a b"`

	p, err := Parse(text, DefaultCommand)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	wantElements := []struct{ name, factory string }{
		{"t", "tee"},
		{"queue0", "queue"},
		{"capsfilter0", "capsfilter"},
		{"f", "funnel"},
		{"fakesink0", "fakesink"},
	}
	if len(p.Elements) != len(wantElements) {
		t.Fatalf("got %d elements, want %d", len(p.Elements), len(wantElements))
	}
	for i, w := range wantElements {
		e := p.Elements[i]
		if e.Name != w.name || e.Factory != w.factory {
			t.Errorf("element %d = %s(%s), want %s(%s)", i, e.Name, e.Factory, w.name, w.factory)
		}
	}

	wantLinks := []Link{
		{From: "t", To: "queue0"},
		{From: "queue0", To: "f", ToPort: "sink_0"},
		{From: "t", To: "capsfilter0"},
		{From: "capsfilter0", To: "f"},
		{From: "f", To: "fakesink0"},
	}
	if len(p.Links) != len(wantLinks) {
		t.Fatalf("got %d links %v, want %d", len(p.Links), p.Links, len(wantLinks))
	}
	for i, w := range wantLinks {
		if p.Links[i] != w {
			t.Errorf("link %d = %+v, want %+v", i, p.Links[i], w)
		}
	}

	q, _ := p.Element("queue0")
	if v, ok := q.Setting("max-size-buffers"); !ok || v != "2" {
		t.Errorf("queue0 max-size-buffers = %q, %v", v, ok)
	}
	sink, _ := p.Element("fakesink0")
	if v, _ := sink.Setting("location"); v != "a b" {
		t.Errorf("quoted value = %q, want %q", v, "a b")
	}
	caps, _ := p.Element("capsfilter0")
	if caps.Caps != "video/x-raw, width=(int)320" {
		t.Errorf("caps = %q", caps.Caps)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"LeadingLink", "! fakesink"},
		{"DanglingLink", "fakesrc !"},
		{"DoubleLink", "fakesrc ! ! fakesink"},
		{"SettingWithoutElement", "name=x"},
		{"UnknownReference", "fakesrc ! nowhere.sink"},
		{"UnterminatedQuote", `fakesrc location="abc`},
		{"DuplicateName", "fakesrc name=a ! fakesink name=a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text, "")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidLaunch) {
				t.Errorf("got %v, want code %s", err, errors.ErrCodeInvalidLaunch)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	got, err := tokenize("a \\\n  b=\"x y\" 'c d' \\")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := []string{"a", `b="x y"`, "'c d'"}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}
