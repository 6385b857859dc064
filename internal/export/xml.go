package export

import (
	"strconv"
	"time"

	"github.com/Dan9191/world-service/internal/models"
	"github.com/beevik/etree"
)

// WorldXML renders a world with its characters, events and nested locations
func WorldXML(w *models.WorldDetail) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("world")
	root.CreateAttr("id", w.ID)
	root.CreateAttr("userId", w.UserID)
	root.CreateAttr("public", strconv.FormatBool(w.IsPublic))
	root.CreateAttr("createdAt", formatTime(w.CreatedAt))
	root.CreateAttr("updatedAt", formatTime(w.UpdatedAt))
	root.CreateElement("name").SetText(w.Name)
	root.CreateElement("description").SetText(w.Description)

	characters := root.CreateElement("characters")
	for _, c := range w.Characters {
		el := characters.CreateElement("character")
		el.CreateAttr("id", c.ID)
		el.CreateElement("name").SetText(c.Name)
		optional(el, "role", c.Role)
		optional(el, "description", c.Description)
		optional(el, "imageUrl", c.ImageURL)
	}

	locations := root.CreateElement("locations")
	for _, node := range LocationTree(w.Locations) {
		writeLocation(locations, node)
	}

	events := root.CreateElement("events")
	for _, e := range w.Events {
		el := events.CreateElement("event")
		el.CreateAttr("id", e.ID)
		if e.Date != nil {
			el.CreateAttr("date", *e.Date)
		}
		el.CreateElement("name").SetText(e.Name)
		optional(el, "description", e.Description)
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}

func writeLocation(parent *etree.Element, node *LocationNode) {
	l := node.Location
	el := parent.CreateElement("location")
	el.CreateAttr("id", l.ID)
	if l.Type != nil {
		el.CreateAttr("type", *l.Type)
	}
	el.CreateElement("name").SetText(l.Name)
	optional(el, "description", l.Description)
	optional(el, "imageUrl", l.ImageURL)
	for _, child := range node.Children {
		writeLocation(el, child)
	}
}

func optional(parent *etree.Element, tag string, value *string) {
	if value != nil {
		parent.CreateElement(tag).SetText(*value)
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
