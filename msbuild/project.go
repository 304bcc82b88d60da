package msbuild

// ProjectElement is a top-level child of a Project. The set of kinds is
// closed: Comment, Import, PropertyGroup, ItemGroup, Choose, UsingTask,
// and Target.
type ProjectElement interface {
	projectElement()
}

// Project is the root of a project document.
//
// Elements is the single ordered sequence of top-level children and is
// the source of truth for emission order. The typed slices (Imports,
// PropertyGroups, ...) are convenience views over the same nodes; every
// node must appear, by identity, in both its typed slice and Elements.
// The Add methods maintain that agreement; ValidateProject reports any
// drift between the two views.
type Project struct {
	Label string

	Elements []ProjectElement

	Imports        []*Import
	PropertyGroups []*PropertyGroup
	ItemGroups     []*ItemGroup
	UsingTasks     []*UsingTask
	Targets        []*Target
	Chooses        []*Choose
}

// Comment is an XML comment retained at its authored position. Text is
// the content between the comment markers, verbatim.
type Comment struct {
	Text string
}

// Import references another project file. Condition and Sdk are
// optional; Project is required.
type Import struct {
	Project   string
	Sdk       string
	Condition string
}

// AddComment appends a comment to the top-level sequence.
func (p *Project) AddComment(c *Comment) {
	p.Elements = append(p.Elements, c)
}

// AddImport appends an import to both the ordered sequence and the
// typed view.
func (p *Project) AddImport(imp *Import) {
	p.Elements = append(p.Elements, imp)
	p.Imports = append(p.Imports, imp)
}

// AddPropertyGroup appends a property group to both views.
func (p *Project) AddPropertyGroup(g *PropertyGroup) {
	p.Elements = append(p.Elements, g)
	p.PropertyGroups = append(p.PropertyGroups, g)
}

// AddItemGroup appends an item group to both views.
func (p *Project) AddItemGroup(g *ItemGroup) {
	p.Elements = append(p.Elements, g)
	p.ItemGroups = append(p.ItemGroups, g)
}

// AddUsingTask appends a task declaration to both views.
func (p *Project) AddUsingTask(u *UsingTask) {
	p.Elements = append(p.Elements, u)
	p.UsingTasks = append(p.UsingTasks, u)
}

// AddTarget appends a target to both views.
func (p *Project) AddTarget(t *Target) {
	p.Elements = append(p.Elements, t)
	p.Targets = append(p.Targets, t)
}

// AddChoose appends a conditional branch block to both views.
func (p *Project) AddChoose(c *Choose) {
	p.Elements = append(p.Elements, c)
	p.Chooses = append(p.Chooses, c)
}

func (*Comment) projectElement()       {}
func (*Import) projectElement()        {}
func (*PropertyGroup) projectElement() {}
func (*ItemGroup) projectElement()     {}
func (*Choose) projectElement()        {}
func (*UsingTask) projectElement()     {}
func (*Target) projectElement()        {}
