package render

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/nascp/portal/internal/dom"
)

const ThumbBase = "/static/images"

var (
	PDFThumbnail   = ThumbBase + "/pdf_thumbnail.png"
	WordThumbnail  = ThumbBase + "/word_thumbnail.png"
	VideoThumbnail = ThumbBase + "/video_thumbnail.png"
	ImageThumbnail = ThumbBase + "/image_thumbnail.png"
	FileThumbnail  = ThumbBase + "/file_thumbnail.png"
)

var imageURL = regexp.MustCompile(`(?i)\.(png|jpe?g|gif|webp|svg)(\?|$)`)

// Thumbnail picks the image shown next to a file.
func Thumbnail(fileType, fileURL, thumbURL string) string {
	t := strings.ToLower(fileType)
	switch {
	case strings.Contains(t, "pdf"):
		return PDFThumbnail
	case strings.Contains(t, "word"), strings.Contains(t, "doc"):
		return WordThumbnail
	case strings.Contains(t, "video"), t == "mp4":
		return orDefault(thumbURL, VideoThumbnail)
	case strings.Contains(t, "image"), imageURL.MatchString(fileURL):
		return orDefault(thumbURL, orDefault(fileURL, ImageThumbnail))
	default:
		return FileThumbnail
	}
}

// FileList renders {title, file_type, url, thumbnail_url?} objects.
func FileList(c *dom.Container, data json.RawMessage) {
	files := decodeList(data)
	if len(files) == 0 {
		c.SetMessage(NoFiles)
		return
	}

	ul := listNode()
	for _, f := range files {
		title := f.str("title")
		fileType := strings.ToLower(f.str("file_type"))
		fileURL := f.str("url")

		img := dom.Element("img",
			"src", Thumbnail(fileType, fileURL, f.str("thumbnail_url")),
			"alt", orDefault(title, "file"),
			"loading", "lazy",
			"decoding", "async",
			"width", "100",
			"style", "height: auto",
			"class", "me-3 rounded",
			"data-fallback-src", FileThumbnail,
		)

		meta := ""
		if fileType != "" {
			meta = "(" + fileType + ")"
		}
		info := dom.Element("div").Append(
			dom.Element("a", "href", orDefault(fileURL, "#"), "class", "fw-semibold d-block").
				Append(dom.Text(orDefault(title, "Untitled"))).Node(),
			dom.Element("small", "class", "text-muted").Append(dom.Text(meta)).Node(),
		)

		ul.Append(dom.Element("li", "class", "d-flex align-items-center mb-3", "role", "listitem").
			Append(img.Node(), info.Node()).Node())
	}
	c.Replace(ul.Node())
}
