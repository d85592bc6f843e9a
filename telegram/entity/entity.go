// Package entity converts MTProto message entities to Bot API entities.
package entity

import (
	"github.com/gotd/td/tg"
)

// Entity types.
const (
	Bold          = "bold"
	Italic        = "italic"
	Underline     = "underline"
	Strikethrough = "strikethrough"
	Code          = "code"
	Pre           = "pre"
	Spoiler       = "spoiler"
	URL           = "url"
	TextLink      = "text_link"
)

// Entity is a Bot API message entity.
type Entity struct {
	Type     string `json:"type"`
	Offset   int    `json:"offset"`
	Length   int    `json:"length"`
	URL      string `json:"url,omitempty"`
	Language string `json:"language,omitempty"`
}

// Translate converts entities keeping order. Unsupported entities are
// dropped.
func Translate(entities []tg.MessageEntityClass) []Entity {
	r := make([]Entity, 0, len(entities))
	for _, e := range entities {
		v, ok := translate(e)
		if !ok {
			continue
		}
		v.Offset = e.GetOffset()
		v.Length = e.GetLength()
		r = append(r, v)
	}
	return r
}

func translate(e tg.MessageEntityClass) (Entity, bool) {
	switch e := e.(type) {
	case *tg.MessageEntityBold:
		return Entity{Type: Bold}, true
	case *tg.MessageEntityItalic:
		return Entity{Type: Italic}, true
	case *tg.MessageEntityUnderline:
		return Entity{Type: Underline}, true
	case *tg.MessageEntityStrike:
		return Entity{Type: Strikethrough}, true
	case *tg.MessageEntityCode:
		return Entity{Type: Code}, true
	case *tg.MessageEntityBlockquote:
		// Sent as code.
		return Entity{Type: Code}, true
	case *tg.MessageEntitySpoiler:
		return Entity{Type: Spoiler}, true
	case *tg.MessageEntityURL:
		return Entity{Type: URL}, true
	case *tg.MessageEntityTextURL:
		return Entity{Type: TextLink, URL: e.URL}, true
	case *tg.MessageEntityPre:
		return Entity{Type: Pre, Language: e.Language}, true
	default:
		return Entity{}, false
	}
}
