package models

import "strings"

type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image_url"
)

// Part is one element of a multi-part message. Text is set for text parts,
// URL for image parts.
type Part struct {
	Type PartType
	Text string
	URL  string
}

func TextPart(text string) Part { return Part{Type: PartText, Text: text} }

func ImagePart(url string) Part { return Part{Type: PartImage, URL: url} }

// Content is either plain text or an ordered list of parts. The zero value is
// empty plain text.
type Content struct {
	text  string
	parts []Part
	multi bool
}

func PlainText(s string) Content { return Content{text: s} }

func MultiPart(parts ...Part) Content {
	cp := make([]Part, len(parts))
	copy(cp, parts)
	return Content{parts: cp, multi: true}
}

func (c Content) IsMultiPart() bool { return c.multi }

// Parts returns a copy of the parts. Plain text content yields a single text part.
func (c Content) Parts() []Part {
	if !c.multi {
		return []Part{TextPart(c.text)}
	}
	cp := make([]Part, len(c.parts))
	copy(cp, c.parts)
	return cp
}

// Text joins every text part with newlines. Image parts are skipped.
func (c Content) Text() string {
	if !c.multi {
		return c.text
	}
	var texts []string
	for _, p := range c.parts {
		if p.Type == PartText && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

func (c Content) HasImage() bool {
	_, ok := c.FirstImageURL()
	return ok
}

func (c Content) FirstImageURL() (string, bool) {
	for _, p := range c.parts {
		if p.Type == PartImage && p.URL != "" {
			return p.URL, true
		}
	}
	return "", false
}

func (c Content) ImageCount() int {
	n := 0
	for _, p := range c.parts {
		if p.Type == PartImage {
			n++
		}
	}
	return n
}

func (c Content) Clone() Content {
	if !c.multi {
		return c
	}
	return MultiPart(c.parts...)
}
