package msbuild

import "fmt"

// GroupElement is a child of a PropertyGroup: Comment or Property.
type GroupElement interface {
	groupElement()
}

// ItemGroupElement is a child of an ItemGroup: Comment or Item.
type ItemGroupElement interface {
	itemGroupElement()
}

// PropertyGroup holds an ordered sequence of properties and comments.
// Elements is the source of truth for order; Properties is the typed
// convenience view, maintained by AddProperty.
type PropertyGroup struct {
	Condition string
	Label     string

	Elements   []GroupElement
	Properties []*Property
}

// Property is a named value. The element tag is the property name and
// the text content is the value; an empty value is legal.
type Property struct {
	Name      string
	Value     string
	Condition string
}

// ItemGroup holds an ordered sequence of items and comments, with the
// same dual-view contract as PropertyGroup.
type ItemGroup struct {
	Condition string
	Label     string

	Elements []ItemGroupElement
	Items    []*Item
}

// ItemOperation selects which mutation an item applies to its named
// collection. The three operations are mutually exclusive; Include is
// the zero value.
type ItemOperation int

const (
	OperationInclude ItemOperation = iota
	OperationRemove
	OperationUpdate
)

// String returns the wire attribute name for the operation.
func (op ItemOperation) String() string {
	switch op {
	case OperationInclude:
		return "Include"
	case OperationRemove:
		return "Remove"
	case OperationUpdate:
		return "Update"
	default:
		return fmt.Sprintf("ItemOperation(%d)", int(op))
	}
}

// ItemMetadata is a single name/value metadata entry on an item.
type ItemMetadata struct {
	Name  string
	Value string
}

// Item declares a mutation on a named item collection. Spec is the
// match pattern or literal and is required for every operation; Exclude
// is meaningful only with Include but is not policed at this layer.
//
// Metadata renders as child elements; AttributeMetadata renders as
// attributes on the item element itself. Placement records authored
// intent and is preserved exactly, never inferred. Both lists keep
// insertion order unless the renderer is asked to canonicalize them.
type Item struct {
	ItemType  string
	Operation ItemOperation
	Spec      string
	Exclude   string
	Condition string

	Metadata          []ItemMetadata
	AttributeMetadata []ItemMetadata
}

// AddComment appends a comment to the property group.
func (g *PropertyGroup) AddComment(c *Comment) {
	g.Elements = append(g.Elements, c)
}

// AddProperty appends a property to both the ordered sequence and the
// typed view.
func (g *PropertyGroup) AddProperty(p *Property) {
	g.Elements = append(g.Elements, p)
	g.Properties = append(g.Properties, p)
}

// AddComment appends a comment to the item group.
func (g *ItemGroup) AddComment(c *Comment) {
	g.Elements = append(g.Elements, c)
}

// AddItem appends an item to both the ordered sequence and the typed
// view.
func (g *ItemGroup) AddItem(it *Item) {
	g.Elements = append(g.Elements, it)
	g.Items = append(g.Items, it)
}

// AddMetadata appends an element-form metadata entry.
func (it *Item) AddMetadata(name, value string) {
	it.Metadata = append(it.Metadata, ItemMetadata{Name: name, Value: value})
}

// AddAttributeMetadata appends an attribute-form metadata entry.
func (it *Item) AddAttributeMetadata(name, value string) {
	it.AttributeMetadata = append(it.AttributeMetadata, ItemMetadata{Name: name, Value: value})
}

func (*Comment) groupElement()  {}
func (*Property) groupElement() {}

func (*Comment) itemGroupElement() {}
func (*Item) itemGroupElement()    {}
