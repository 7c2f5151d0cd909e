package rendering

import (
	"sort"

	"github.com/jonathan/cv-builder/internal/types"
)

// DefaultTemplateID is the layout used when a caller does not choose one
const DefaultTemplateID = "template-1"

// RenderFunc renders a full HTML document for one layout
type RenderFunc func(doc *types.CVDocument, theme Theme) (string, error)

// TemplateInfo describes a registered layout
type TemplateInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type registration struct {
	info   TemplateInfo
	render RenderFunc
}

var registry = map[string]registration{
	"template-1": {
		info:   TemplateInfo{ID: "template-1", Name: "Classic", Description: "Single column with accent rule under each section heading"},
		render: layout("classic"),
	},
	"template-2": {
		info:   TemplateInfo{ID: "template-2", Name: "Modern", Description: "Tinted sidebar holding contact details and skills"},
		render: layout("modern"),
	},
	"template-3": {
		info:   TemplateInfo{ID: "template-3", Name: "Minimal", Description: "Compact typographic layout with accent on names only"},
		render: layout("minimal"),
	},
}

// Lookup returns the render function registered under id
func Lookup(id string) (RenderFunc, error) {
	reg, ok := registry[id]
	if !ok {
		return nil, &TemplateNotFoundError{TemplateID: id}
	}
	return reg.render, nil
}

// Templates lists the registered layouts ordered by id
func Templates() []TemplateInfo {
	infos := make([]TemplateInfo, 0, len(registry))
	for _, reg := range registry {
		infos = append(infos, reg.info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}
