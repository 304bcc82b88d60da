package msbuild

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// xmlNamePattern approximates the XML Name production for names the
// renderer turns into tags and attributes. Accepting anything looser
// would let a valid tree render text a parser cannot read back.
var xmlNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._-]*$`)

// reservedTargetNames are the target-child tags with fixed meaning. A
// task carrying one of these names would render as the built-in form
// and lose its identity on the next parse.
var reservedTargetNames = map[string]bool{
	"PropertyGroup": true,
	"ItemGroup":     true,
	"Message":       true,
	"Exec":          true,
	"Error":         true,
	"Warning":       true,
	"Output":        true,
}

// reservedItemAttrs are the item attributes with fixed meaning.
// Attribute-form metadata under one of these names would render a
// duplicate attribute.
var reservedItemAttrs = map[string]bool{
	"Include":   true,
	"Remove":    true,
	"Update":    true,
	"Exclude":   true,
	"Condition": true,
}

// ValidationError carries the complete list of structural violations
// found in a project tree. It is returned as a single batch so one run
// surfaces everything wrong at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	switch len(e.Violations) {
	case 0:
		return "invalid project"
	case 1:
		return "invalid project: " + e.Violations[0]
	default:
		return fmt.Sprintf("invalid project: %d violations: %s",
			len(e.Violations), strings.Join(e.Violations, "; "))
	}
}

// ValidateProject checks a project tree for structural violations and
// returns every violation found, in tree order. An empty result means
// the tree is consistent. It never stops at the first problem and never
// mutates the tree.
func ValidateProject(p *Project) []string {
	if p == nil {
		return []string{"project is nil"}
	}

	var v []string

	// Typed views and the unified sequence must agree by identity,
	// in both directions.
	for i, imp := range p.Imports {
		if !slices.Contains(p.Elements, ProjectElement(imp)) {
			v = append(v, fmt.Sprintf("Import[%d] is not present in Elements list", i))
		}
	}
	for i, g := range p.PropertyGroups {
		if !slices.Contains(p.Elements, ProjectElement(g)) {
			v = append(v, fmt.Sprintf("PropertyGroup[%d] is not present in Elements list", i))
		}
	}
	for i, g := range p.ItemGroups {
		if !slices.Contains(p.Elements, ProjectElement(g)) {
			v = append(v, fmt.Sprintf("ItemGroup[%d] is not present in Elements list", i))
		}
	}
	for i, u := range p.UsingTasks {
		if !slices.Contains(p.Elements, ProjectElement(u)) {
			v = append(v, fmt.Sprintf("UsingTask[%d] is not present in Elements list", i))
		}
	}
	for i, t := range p.Targets {
		if !slices.Contains(p.Elements, ProjectElement(t)) {
			v = append(v, fmt.Sprintf("Target[%d] is not present in Elements list", i))
		}
	}
	for i, c := range p.Chooses {
		if !slices.Contains(p.Elements, ProjectElement(c)) {
			v = append(v, fmt.Sprintf("Choose[%d] is not present in Elements list", i))
		}
	}

	comments := 0
	for i, el := range p.Elements {
		switch e := el.(type) {
		case *Comment:
			v = append(v, validateComment(e, fmt.Sprintf("Comment[%d]", comments))...)
			comments++
		case *Import:
			if !slices.Contains(p.Imports, e) {
				v = append(v, fmt.Sprintf("Elements[%d] (Import) is not present in Imports list", i))
			}
		case *PropertyGroup:
			if !slices.Contains(p.PropertyGroups, e) {
				v = append(v, fmt.Sprintf("Elements[%d] (PropertyGroup) is not present in PropertyGroups list", i))
			}
		case *ItemGroup:
			if !slices.Contains(p.ItemGroups, e) {
				v = append(v, fmt.Sprintf("Elements[%d] (ItemGroup) is not present in ItemGroups list", i))
			}
		case *UsingTask:
			if !slices.Contains(p.UsingTasks, e) {
				v = append(v, fmt.Sprintf("Elements[%d] (UsingTask) is not present in UsingTasks list", i))
			}
		case *Target:
			if !slices.Contains(p.Targets, e) {
				v = append(v, fmt.Sprintf("Elements[%d] (Target) is not present in Targets list", i))
			}
		case *Choose:
			if !slices.Contains(p.Chooses, e) {
				v = append(v, fmt.Sprintf("Elements[%d] (Choose) is not present in Chooses list", i))
			}
		default:
			v = append(v, fmt.Sprintf("Elements[%d] has unsupported kind %T", i, el))
		}
	}

	for i, imp := range p.Imports {
		if strings.TrimSpace(imp.Project) == "" {
			v = append(v, fmt.Sprintf("Import[%d] has an empty Project path", i))
		}
	}
	for i, g := range p.PropertyGroups {
		v = append(v, validatePropertyGroup(g, fmt.Sprintf("PropertyGroup[%d]", i))...)
	}
	for i, g := range p.ItemGroups {
		v = append(v, validateItemGroup(g, fmt.Sprintf("ItemGroup[%d]", i))...)
	}
	for i, u := range p.UsingTasks {
		if strings.TrimSpace(u.TaskName) == "" {
			v = append(v, fmt.Sprintf("UsingTask[%d] has an empty TaskName", i))
		}
	}
	for i, t := range p.Targets {
		v = append(v, validateTarget(t, fmt.Sprintf("Target[%d]", i))...)
	}
	for i, c := range p.Chooses {
		v = append(v, validateChoose(c, fmt.Sprintf("Choose[%d]", i))...)
	}

	return v
}

func validatePropertyGroup(g *PropertyGroup, path string) []string {
	var v []string

	for i, prop := range g.Properties {
		if !slices.Contains(g.Elements, GroupElement(prop)) {
			v = append(v, fmt.Sprintf("%s Property[%d] is not present in Elements list", path, i))
		}
	}
	comments := 0
	for i, el := range g.Elements {
		switch e := el.(type) {
		case *Comment:
			v = append(v, validateComment(e, fmt.Sprintf("%s Comment[%d]", path, comments))...)
			comments++
		case *Property:
			if !slices.Contains(g.Properties, e) {
				v = append(v, fmt.Sprintf("%s Elements[%d] (Property) is not present in Properties list", path, i))
			}
		default:
			v = append(v, fmt.Sprintf("%s Elements[%d] has unsupported kind %T", path, i, el))
		}
	}

	for i, prop := range g.Properties {
		if strings.TrimSpace(prop.Name) == "" {
			v = append(v, fmt.Sprintf("%s Property[%d] has an empty Name", path, i))
		} else if !xmlNamePattern.MatchString(prop.Name) {
			v = append(v, fmt.Sprintf("%s Property[%d] Name %q is not a valid XML name", path, i, prop.Name))
		}
	}

	return v
}

func validateItemGroup(g *ItemGroup, path string) []string {
	var v []string

	for i, it := range g.Items {
		if !slices.Contains(g.Elements, ItemGroupElement(it)) {
			v = append(v, fmt.Sprintf("%s Item[%d] is not present in Elements list", path, i))
		}
	}
	comments := 0
	for i, el := range g.Elements {
		switch e := el.(type) {
		case *Comment:
			v = append(v, validateComment(e, fmt.Sprintf("%s Comment[%d]", path, comments))...)
			comments++
		case *Item:
			if !slices.Contains(g.Items, e) {
				v = append(v, fmt.Sprintf("%s Elements[%d] (Item) is not present in Items list", path, i))
			}
		default:
			v = append(v, fmt.Sprintf("%s Elements[%d] has unsupported kind %T", path, i, el))
		}
	}

	for i, it := range g.Items {
		v = append(v, validateItem(it, fmt.Sprintf("%s Item[%d]", path, i))...)
	}

	return v
}

func validateItem(it *Item, path string) []string {
	var v []string

	if strings.TrimSpace(it.ItemType) == "" {
		v = append(v, fmt.Sprintf("%s has an empty ItemType", path))
	} else if !xmlNamePattern.MatchString(it.ItemType) {
		v = append(v, fmt.Sprintf("%s ItemType %q is not a valid XML name", path, it.ItemType))
	}
	switch it.Operation {
	case OperationInclude, OperationRemove, OperationUpdate:
		if strings.TrimSpace(it.Spec) == "" {
			v = append(v, fmt.Sprintf("%s has an empty %s spec", path, it.Operation))
		}
	default:
		v = append(v, fmt.Sprintf("%s has unknown operation %d", path, int(it.Operation)))
	}
	for i, m := range it.Metadata {
		if strings.TrimSpace(m.Name) == "" {
			v = append(v, fmt.Sprintf("%s Metadata[%d] has an empty Name", path, i))
		} else if !xmlNamePattern.MatchString(m.Name) {
			v = append(v, fmt.Sprintf("%s Metadata[%d] Name %q is not a valid XML name", path, i, m.Name))
		}
	}
	seen := make(map[string]bool, len(it.AttributeMetadata))
	for i, m := range it.AttributeMetadata {
		switch {
		case strings.TrimSpace(m.Name) == "":
			v = append(v, fmt.Sprintf("%s AttributeMetadata[%d] has an empty Name", path, i))
		case !xmlNamePattern.MatchString(m.Name):
			v = append(v, fmt.Sprintf("%s AttributeMetadata[%d] Name %q is not a valid XML name", path, i, m.Name))
		case reservedItemAttrs[m.Name]:
			v = append(v, fmt.Sprintf("%s AttributeMetadata[%d] uses reserved attribute name %q", path, i, m.Name))
		case seen[m.Name]:
			v = append(v, fmt.Sprintf("%s AttributeMetadata[%d] duplicates attribute name %q", path, i, m.Name))
		}
		seen[m.Name] = true
	}

	return v
}

func validateChoose(c *Choose, path string) []string {
	var v []string

	if len(c.Whens) == 0 {
		v = append(v, fmt.Sprintf("%s has no When branch", path))
	}
	for i, w := range c.Whens {
		whenPath := fmt.Sprintf("%s When[%d]", path, i)
		if strings.TrimSpace(w.Condition) == "" {
			v = append(v, fmt.Sprintf("%s has an empty Condition", whenPath))
		}
		v = append(v, validateWhenElements(w.Elements, whenPath)...)
	}
	if c.Otherwise != nil {
		v = append(v, validateWhenElements(c.Otherwise.Elements, path+" Otherwise")...)
	}

	return v
}

func validateWhenElements(elements []WhenElement, path string) []string {
	var v []string

	var propertyGroups, itemGroups int
	for i, el := range elements {
		switch e := el.(type) {
		case *PropertyGroup:
			v = append(v, validatePropertyGroup(e, fmt.Sprintf("%s PropertyGroup[%d]", path, propertyGroups))...)
			propertyGroups++
		case *ItemGroup:
			v = append(v, validateItemGroup(e, fmt.Sprintf("%s ItemGroup[%d]", path, itemGroups))...)
			itemGroups++
		default:
			v = append(v, fmt.Sprintf("%s Elements[%d] has unsupported kind %T", path, i, el))
		}
	}

	return v
}

func validateTarget(t *Target, path string) []string {
	var v []string

	if strings.TrimSpace(t.Name) == "" {
		v = append(v, fmt.Sprintf("%s has an empty Name", path))
	}

	var propertyGroups, itemGroups, tasks, comments int
	for i, el := range t.Elements {
		switch e := el.(type) {
		case *MessageTask, *ExecTask, *ErrorTask, *WarningTask:
		case *Comment:
			v = append(v, validateComment(e, fmt.Sprintf("%s Comment[%d]", path, comments))...)
			comments++
		case *PropertyGroup:
			v = append(v, validatePropertyGroup(e, fmt.Sprintf("%s PropertyGroup[%d]", path, propertyGroups))...)
			propertyGroups++
		case *ItemGroup:
			v = append(v, validateItemGroup(e, fmt.Sprintf("%s ItemGroup[%d]", path, itemGroups))...)
			itemGroups++
		case *Task:
			v = append(v, validateTask(e, fmt.Sprintf("%s Task[%d]", path, tasks))...)
			tasks++
		default:
			v = append(v, fmt.Sprintf("%s Elements[%d] has unsupported kind %T", path, i, el))
		}
	}

	return v
}

// validateComment rejects text that cannot appear inside an XML
// comment: "--" anywhere, or a trailing "-" against the closer.
func validateComment(c *Comment, path string) []string {
	if strings.Contains(c.Text, "--") {
		return []string{fmt.Sprintf(`%s text contains "--"`, path)}
	}
	if strings.HasSuffix(c.Text, "-") {
		return []string{fmt.Sprintf(`%s text ends with "-"`, path)}
	}
	return nil
}

func validateTask(tk *Task, path string) []string {
	var v []string

	switch {
	case strings.TrimSpace(tk.Name) == "":
		v = append(v, fmt.Sprintf("%s has an empty Name", path))
	case !xmlNamePattern.MatchString(tk.Name):
		v = append(v, fmt.Sprintf("%s Name %q is not a valid XML name", path, tk.Name))
	case reservedTargetNames[tk.Name]:
		v = append(v, fmt.Sprintf("%s Name %q collides with a built-in element", path, tk.Name))
	}
	seen := make(map[string]bool, len(tk.Parameters))
	for i, param := range tk.Parameters {
		switch {
		case strings.TrimSpace(param.Name) == "":
			v = append(v, fmt.Sprintf("%s Parameter[%d] has an empty Name", path, i))
		case !xmlNamePattern.MatchString(param.Name):
			v = append(v, fmt.Sprintf("%s Parameter[%d] Name %q is not a valid XML name", path, i, param.Name))
		case param.Name == "Condition":
			v = append(v, fmt.Sprintf("%s Parameter[%d] uses reserved attribute name %q", path, i, param.Name))
		case seen[param.Name]:
			v = append(v, fmt.Sprintf("%s Parameter[%d] duplicates parameter name %q", path, i, param.Name))
		}
		seen[param.Name] = true
	}
	for i, out := range tk.Outputs {
		outPath := fmt.Sprintf("%s Output[%d]", path, i)
		if strings.TrimSpace(out.TaskParameter) == "" {
			v = append(v, fmt.Sprintf("%s has an empty TaskParameter", outPath))
		}
		hasProperty := out.PropertyName != ""
		hasItem := out.ItemName != ""
		switch {
		case hasProperty && hasItem:
			v = append(v, fmt.Sprintf("%s sets both PropertyName and ItemName", outPath))
		case !hasProperty && !hasItem:
			v = append(v, fmt.Sprintf("%s sets neither PropertyName nor ItemName", outPath))
		}
	}

	return v
}
