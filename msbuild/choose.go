package msbuild

// WhenElement is a child of a When or Otherwise branch: PropertyGroup
// or ItemGroup.
type WhenElement interface {
	whenElement()
}

// Choose holds an ordered, non-empty sequence of When branches and at
// most one Otherwise. The consuming engine evaluates branches top to
// bottom; this package only preserves order and structure.
type Choose struct {
	Whens     []*When
	Otherwise *Otherwise
}

// When is a conditional branch. Condition is required.
type When struct {
	Condition string
	Elements  []WhenElement
}

// Otherwise is the unconditional fallback branch of a Choose.
type Otherwise struct {
	Elements []WhenElement
}

// AddWhen appends a branch to the Choose.
func (c *Choose) AddWhen(w *When) {
	c.Whens = append(c.Whens, w)
}

// AddPropertyGroup appends a nested property group to the branch.
func (w *When) AddPropertyGroup(g *PropertyGroup) {
	w.Elements = append(w.Elements, g)
}

// AddItemGroup appends a nested item group to the branch.
func (w *When) AddItemGroup(g *ItemGroup) {
	w.Elements = append(w.Elements, g)
}

// AddPropertyGroup appends a nested property group to the fallback
// branch.
func (o *Otherwise) AddPropertyGroup(g *PropertyGroup) {
	o.Elements = append(o.Elements, g)
}

// AddItemGroup appends a nested item group to the fallback branch.
func (o *Otherwise) AddItemGroup(g *ItemGroup) {
	o.Elements = append(o.Elements, g)
}

func (*PropertyGroup) whenElement() {}
func (*ItemGroup) whenElement()     {}
