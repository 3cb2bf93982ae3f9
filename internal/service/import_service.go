package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"whiteboard/internal/canvas"
	"whiteboard/internal/dbclient"
	"whiteboard/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Import Service — external schemas rendered as diagrams
// ─────────────────────────────────────────────────────────────

// Table box sizing: a base header plus one row per listed column, capped so
// very wide tables don't dominate the canvas.
const (
	tableBoxWidth  = 220.0
	tableBoxHeader = 50.0
	tableRowHeight = 22.0
	tableMaxRows   = 10
)

// SchemaIntrospector resolves a saved connection id to its schema. Usually
// the DatabaseService and its connector pool.
type SchemaIntrospector interface {
	Introspect(ctx context.Context, connectionID string) (*dbclient.SchemaInfo, error)
}

// ImportService turns an external database schema into sketch elements:
// one box per table, one bound connector per foreign key.
type ImportService struct {
	sketches     *SketchService
	introspector SchemaIntrospector
}

func NewImportService(sketches *SketchService, introspector SchemaIntrospector) *ImportService {
	return &ImportService{sketches: sketches, introspector: introspector}
}

// ImportSchema introspects a saved connection and appends its schema diagram
// to the sketch. Returns the number of elements added.
func (s *ImportService) ImportSchema(ctx context.Context, sketchID, connectionID string) (int, error) {
	schema, err := s.introspector.Introspect(ctx, connectionID)
	if err != nil {
		return 0, fmt.Errorf("introspect connection %s: %w", connectionID, err)
	}

	elements := SchemaToElements(schema)
	if len(elements) == 0 {
		return 0, nil
	}

	c, err := s.sketches.loadCollection(sketchID)
	if err != nil {
		return 0, err
	}

	// Shift the imported diagram below whatever is already on the canvas.
	offsetX, offsetY := s.sketches.layout.NextPosition(c, tableBoxWidth, tableBoxHeader)
	for i := range elements {
		elements[i].X += offsetX
		elements[i].Y += offsetY
	}

	for _, e := range elements {
		c = c.Put(e)
	}
	c = s.sketches.binder.BindAll(c)
	for _, e := range elements {
		if e.Kind == domain.KindConnector && c.Has(e.ID) {
			c = s.sketches.binder.RouteElbow(c, e.ID)
		}
	}

	if err := s.sketches.saveCollection(ctx, sketchID, c); err != nil {
		return 0, err
	}
	return len(elements), nil
}

// SchemaToElements maps an introspected schema to unplaced elements: one
// labeled box per table (the label carries the column list) and one
// connector per foreign key, endpoints between the two table centers. The
// result still needs a binding pass.
func SchemaToElements(schema *dbclient.SchemaInfo) []domain.Element {
	if schema == nil || len(schema.Tables) == 0 {
		return nil
	}

	boxByTable := make(map[string]int, len(schema.Tables))
	var boxes []domain.Element
	for _, tbl := range schema.Tables {
		b := domain.Element{
			ID:     uuid.NewString(),
			Kind:   domain.KindBox,
			Width:  tableBoxWidth,
			Height: tableBoxHeight(len(tbl.Columns)),
			Label:  tableLabel(tbl),
		}
		boxByTable[tbl.Name] = len(boxes)
		boxes = append(boxes, b)
	}

	layout := canvas.NewLayoutEngine()
	boxes = layout.ArrangeGrid(boxes, 0, 0)

	elements := append([]domain.Element(nil), boxes...)
	for _, tbl := range schema.Tables {
		from := boxes[boxByTable[tbl.Name]]
		for _, fk := range tbl.ForeignKeys {
			toIdx, ok := boxByTable[fk.RefTable]
			if !ok {
				continue
			}
			to := boxes[toIdx]
			elements = append(elements, domain.Element{
				ID:    uuid.NewString(),
				Kind:  domain.KindConnector,
				X:     from.CenterX(),
				Y:     from.CenterY(),
				Label: fk.Column,
				Points: []domain.Point{
					{DX: 0, DY: 0},
					{DX: to.CenterX() - from.CenterX(), DY: to.CenterY() - from.CenterY()},
				},
			})
		}
	}
	return elements
}

func tableBoxHeight(columns int) float64 {
	if columns > tableMaxRows {
		columns = tableMaxRows
	}
	return tableBoxHeader + float64(columns)*tableRowHeight
}

// tableLabel renders the table name and its columns as the box label, with
// primary keys marked.
func tableLabel(tbl dbclient.TableInfo) string {
	var b strings.Builder
	b.WriteString(tbl.Name)
	for i, col := range tbl.Columns {
		if i >= tableMaxRows {
			b.WriteString(fmt.Sprintf("\n… %d more", len(tbl.Columns)-tableMaxRows))
			break
		}
		b.WriteByte('\n')
		if col.PrimaryKey {
			b.WriteString("* ")
		}
		b.WriteString(col.Name)
		if col.Type != "" {
			b.WriteString(" " + col.Type)
		}
	}
	return b.String()
}
