package navigation

import (
	"errors"
	"fmt"

	"vaultview/internal/catalog"
)

var ErrNotSelectable = errors.New("tag is not selectable")

type Kind string

const (
	KindAll      Kind = "all"
	KindType     Kind = "type"
	KindCategory Kind = "category"
	KindInfo     Kind = "info"
	KindExternal Kind = "external"
)

const (
	DefaultFormURL = "https://duki-archive-newpipe-form.base44.app/"
)

type Tag struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Kind   Kind   `json:"kind"`
	URL    string `json:"url,omitempty"`
	Active bool   `json:"active"`
}

type Links struct {
	FormURL      string
	ContactEmail string
}

// Rail is the fixed set of filter tags plus outbound links.
type Rail struct {
	links Links
}

func NewRail(links Links) *Rail {
	if links.FormURL == "" {
		links.FormURL = DefaultFormURL
	}
	return &Rail{links: links}
}

// Tags lists every tag in display order with the active one flagged.
func (r *Rail) Tags(active string) []Tag {
	tags := []Tag{{ID: catalog.TagAll, Label: "Todo", Kind: KindAll}}

	tags = append(tags,
		Tag{ID: string(catalog.TypeVideo), Label: "Videos", Kind: KindType},
		Tag{ID: string(catalog.TypeAudio), Label: "Audios", Kind: KindType},
	)

	for _, c := range catalog.Categories() {
		tags = append(tags, Tag{ID: string(c), Label: string(c), Kind: KindCategory})
	}

	tags = append(tags, Tag{ID: catalog.TagInfo, Label: "Info", Kind: KindInfo})

	tags = append(tags, Tag{ID: "form", Label: "Enviar", Kind: KindExternal, URL: r.links.FormURL})
	if r.links.ContactEmail != "" {
		tags = append(tags, Tag{ID: "contact", Label: "Contacto", Kind: KindExternal, URL: "mailto:" + r.links.ContactEmail})
	}

	activeSel, err := catalog.ParseSelector(active)
	if err != nil {
		activeSel = catalog.All
	}
	for i := range tags {
		if tags[i].Kind == KindExternal {
			continue
		}
		if sel, err := catalog.ParseSelector(tags[i].ID); err == nil && sel == activeSel {
			tags[i].Active = true
		}
	}

	return tags
}

// Resolve turns a tag id into filter state. External links cannot be selected.
func (r *Rail) Resolve(id string) (catalog.Selector, error) {
	if id == "form" || id == "contact" {
		return catalog.Selector{}, fmt.Errorf("%w: %s", ErrNotSelectable, id)
	}
	return catalog.ParseSelector(id)
}
