package dom

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

const page = `<!DOCTYPE html><html><body>
<div id="file-list"></div>
<section id="department-contents-list"><p>old</p></section>
</body></html>`

func TestLookup(t *testing.T) {
	d, err := ParseString(page)
	if err != nil {
		t.Fatal(err)
	}
	c, err := d.Lookup("file-list")
	if err != nil {
		t.Fatal(err)
	}
	if c.ID() != "file-list" {
		t.Errorf("ID = %q", c.ID())
	}

	_, err = d.Lookup("nope")
	var me *MissingContainerError
	if !errors.As(err, &me) || me.ID != "nope" {
		t.Fatalf("got %v, want MissingContainerError", err)
	}
}

func TestIDs(t *testing.T) {
	d, _ := ParseString(page)
	got := strings.Join(d.IDs(), ",")
	if got != "department-contents-list,file-list" {
		t.Errorf("IDs = %s", got)
	}
}

func TestContainerMutations(t *testing.T) {
	d, _ := ParseString(page)
	c, _ := d.Lookup("department-contents-list")

	c.SetBusy(true)
	if c.Attr("aria-busy") != "true" {
		t.Errorf("aria-busy = %q", c.Attr("aria-busy"))
	}
	c.SetLoading()
	if c.Text() != "Loading…" {
		t.Errorf("text = %q", c.Text())
	}
	c.SetMessage("Sorry, this section failed to load.")
	if got := c.InnerHTML(); got != `<p class="text-muted mb-0">Sorry, this section failed to load.</p>` {
		t.Errorf("inner = %s", got)
	}
	c.SetBusy(false)
	if !strings.Contains(d.String(), `aria-busy="false"`) {
		t.Error("aria-busy not rendered")
	}
}

func TestTextIsEscaped(t *testing.T) {
	d, _ := ParseString(page)
	c, _ := d.Lookup("file-list")
	c.Replace(Element("li").Append(Text(`<script>alert(1)</script>`)).Node())
	if strings.Contains(c.InnerHTML(), "<script>") {
		t.Errorf("text was not escaped: %s", c.InnerHTML())
	}
}

func TestConcurrentContainers(t *testing.T) {
	d, _ := ParseString(page)
	var wg sync.WaitGroup
	for _, id := range []string{"file-list", "department-contents-list"} {
		id := id
		c, err := d.Lookup(id)
		if err != nil {
			t.Fatal(err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				c.SetBusy(true)
				c.Replace(Element("ul").Append(Element("li").Append(Text(id)).Node()).Node())
				c.SetBusy(false)
				_ = d.String()
			}
		}()
	}
	wg.Wait()
}
