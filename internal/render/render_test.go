package render

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nascp/portal/internal/dom"
	"github.com/nascp/portal/internal/lang"
)

func container(t *testing.T) *dom.Container {
	t.Helper()
	d, err := dom.ParseString(`<html><body><div id="target"></div></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	c, err := d.Lookup("target")
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestThumbnail(t *testing.T) {
	tests := []struct {
		name, fileType, url, thumb, want string
	}{
		{"pdf mime", "application/pdf", "/media/a.pdf", "", PDFThumbnail},
		{"pdf short", "PDF", "/media/a.pdf", "", PDFThumbnail},
		{"word", "application/msword", "/media/a.doc", "", WordThumbnail},
		{"document choice", "document", "/media/a.odt", "", WordThumbnail},
		{"video with thumb", "video", "/media/a.mp4", "/media/a.jpg", "/media/a.jpg"},
		{"mp4 without thumb", "mp4", "/media/a.mp4", "", VideoThumbnail},
		{"image uses url", "image", "/media/a.png", "", "/media/a.png"},
		{"image prefers thumb", "image/png", "/media/a.png", "/media/t.png", "/media/t.png"},
		{"image by extension", "", "/media/photo.JPEG?v=2", "", "/media/photo.JPEG?v=2"},
		{"image without url", "image", "", "", ImageThumbnail},
		{"other", "application/zip", "/media/a.zip", "", FileThumbnail},
		{"missing", "", "", "", FileThumbnail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Thumbnail(tt.fileType, tt.url, tt.thumb); got != tt.want {
				t.Errorf("Thumbnail = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileList(t *testing.T) {
	c := container(t)
	FileList(c, json.RawMessage(`[
		{"title":"Annual report","file_type":"application/pdf","url":"/media/r.pdf"},
		{"file_type":"image","url":"/media/p.png","thumbnail_url":"/media/p_t.png"}
	]`))
	out := c.InnerHTML()

	for _, want := range []string{
		`src="/static/images/pdf_thumbnail.png"`,
		`href="/media/r.pdf"`,
		`>Annual report</a>`,
		`(application/pdf)`,
		`src="/media/p_t.png"`,
		`>Untitled</a>`,
		`alt="file"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s\n%s", want, out)
		}
	}
	if strings.Count(out, "<li") != 2 {
		t.Errorf("want 2 items:\n%s", out)
	}
}

func TestEmptyStates(t *testing.T) {
	tests := []struct {
		name string
		r    Renderer
		msg  string
	}{
		{"files", FileList, NoFiles},
		{"contents", ContentList, NoContent},
		{"departments", DepartmentGrid, NoDepartments},
	}
	inputs := []string{`[]`, `null`, `{"detail":"x"}`, `not json`}
	for _, tt := range tests {
		for _, in := range inputs {
			c := container(t)
			tt.r(c, json.RawMessage(in))
			out := c.InnerHTML()
			if c.Text() != tt.msg {
				t.Errorf("%s(%s): text = %q, want %q", tt.name, in, c.Text(), tt.msg)
			}
			if strings.Contains(out, "<ul") || strings.Contains(out, "<li") || strings.Contains(out, "<article") {
				t.Errorf("%s(%s): list markup rendered: %s", tt.name, in, out)
			}
		}
	}
}

func TestContentList(t *testing.T) {
	c := container(t)
	ContentList(c, json.RawMessage(`[{"title":"Clinic opening","category":"News"},{"title":"Plain"},{"category":7}]`))
	out := c.InnerHTML()
	for _, want := range []string{"Clinic opening", "[Category: News]", "Plain", "Untitled", "[Category: 7]"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}
	if strings.Count(out, "[Category:") != 2 {
		t.Errorf("category rendered for item without one: %s", out)
	}
}

func TestAbbreviation(t *testing.T) {
	tests := map[string]string{
		"Department Of Public Works":        "DOP",
		"health":                            "H",
		"  monitoring -  evaluation":        "ME",
		"Prevention-Care Treatment Support": "PCT",
		"":                                  "",
		"élan vital":                        "ÉV",
	}
	for in, want := range tests {
		if got := Abbreviation(in); got != want {
			t.Errorf("Abbreviation(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDepartmentGrid(t *testing.T) {
	c := container(t)
	DepartmentGrid(c, json.RawMessage(`[{"title":"Department Of Public Works","slug":"public works"}]`))
	out := c.InnerHTML()
	for _, want := range []string{
		`href="/department/public%20works/"`,
		`>DOP</div>`,
		`Department Of Public Works</span>`,
		`<svg`,
		`<circle`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
	if c.Attr("role") != "list" {
		t.Errorf("role = %q", c.Attr("role"))
	}
}

func TestFirstSentence(t *testing.T) {
	tests := map[string]string{
		"Hello world. More text.":             "Hello world.",
		"<p>Launch today!</p><p>Join us.</p>": "Launch today!",
		"Is it open? Yes.":                    "Is it open?",
		"  no terminator  ":                   "no terminator",
		"Tom &amp; Jerry. End":                "Tom & Jerry.",
		"":                                    "",
	}
	for in, want := range tests {
		if got := FirstSentence(in); got != want {
			t.Errorf("FirstSentence(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMergeAndSortNewest(t *testing.T) {
	news := json.RawMessage(`[
		{"title":"n1","body":"a.","created_at":"2025-01-10T09:00:00Z"},
		{"title":"n2","body":"b.","created_at":"2025-03-01T09:00:00.123456Z"}
	]`)
	events := json.RawMessage(`[
		{"title":"e1","body":"c.","created_at":"2025-02-01"},
		{"title":"e2","body":"d.","created_at":"garbage"},
		{"title":"e3","body":"e.","created_at":"2025-04-01T00:00:00+02:00"}
	]`)
	items := MergeNews(news, events)
	if len(items) != 5 {
		t.Fatalf("merged %d items, want 5", len(items))
	}
	SortNewest(items)

	var order []string
	for _, it := range items {
		order = append(order, it.Title)
	}
	if got := strings.Join(order, ","); got != "e3,n2,e1,n1,e2" {
		t.Errorf("order = %s", got)
	}
	for i := 1; i < len(items)-1; i++ {
		if !items[i-1].CreatedAt.After(items[i].CreatedAt) {
			t.Errorf("items %d and %d not strictly descending", i-1, i)
		}
	}
}

func TestDecodeNews(t *testing.T) {
	tests := []struct {
		name    string
		lists   []string
		want    int
		wantErr bool
	}{
		{"two arrays", []string{`[{"title":"a"}]`, `[{"title":"b"},{"title":"c"}]`}, 3, false},
		{"null counts as empty", []string{`null`, `[{"title":"b"}]`}, 1, false},
		{"error object", []string{`[{"title":"a"}]`, `{"detail":"Service unavailable"}`}, 0, true},
		{"scalar", []string{`"oops"`}, 0, true},
		{"empty body", []string{``}, 0, true},
	}
	for _, tt := range tests {
		lists := make([]json.RawMessage, len(tt.lists))
		for i, l := range tt.lists {
			lists[i] = json.RawMessage(l)
		}
		items, err := DecodeNews(lists...)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v", tt.name, err)
			continue
		}
		if len(items) != tt.want {
			t.Errorf("%s: %d items, want %d", tt.name, len(items), tt.want)
		}
	}
}

func TestCarousel(t *testing.T) {
	c := container(t)
	items := []NewsItem{
		{Title: "Old", Body: "Old body. Rest.", CreatedAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
		{Title: "New", Body: "<p>New body!</p>", CreatedAt: time.Date(2025, 5, 6, 0, 0, 0, 0, time.UTC)},
	}
	Carousel(c, items, lang.LocaleGB)
	out := c.InnerHTML()

	if strings.Index(out, ">New<") > strings.Index(out, ">Old<") {
		t.Errorf("newest item is not first: %s", out)
	}
	if strings.Count(out, "carousel-item active") != 1 || !strings.HasPrefix(out, `<div class="carousel-item active"><div class="d-block w-100 text-center p-3"><h3 class="text-white">New</h3>`) {
		t.Errorf("first item not active: %s", out)
	}
	for _, want := range []string{"New body!", "Old body.", "06 May 2025", "02 Jan 2025"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}
	if strings.Contains(out, "Rest.") {
		t.Errorf("body not cut at first sentence: %s", out)
	}
	if items[0].Title != "Old" {
		t.Error("Carousel reordered the caller's slice")
	}
}

func TestCarouselEmptyAndUnavailable(t *testing.T) {
	c := container(t)
	Carousel(c, nil, lang.LocaleUS)
	if c.Text() != NoNewsOrEvents {
		t.Errorf("text = %q", c.Text())
	}
	CarouselUnavailable(c)
	if c.Text() != NewsEventsDown {
		t.Errorf("text = %q", c.Text())
	}
	CarouselRenderer(lang.LocaleUS)(c, json.RawMessage(`[{"title":"Only","body":"x","created_at":"2025-01-01"}]`))
	if !strings.Contains(c.Text(), "Only") {
		t.Errorf("text = %q", c.Text())
	}
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		if _, ok := Lookup(name); !ok {
			t.Errorf("Lookup(%q) failed", name)
		}
	}
	if _, ok := Lookup("carousel"); ok {
		t.Error("carousel is not a catalog renderer")
	}
}
