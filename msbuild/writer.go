package msbuild

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
)

// WriteOptions controls rendering. Each Canonicalize flag reorders one
// category of siblings alphabetically (ordinal comparison, with a
// stable secondary key); unset categories keep authored order. Comments
// never move: canonical ordering permutes data nodes across the data
// slots only.
type WriteOptions struct {
	// Namespace is the xmlns declaration on the root element. Empty
	// omits the declaration entirely.
	Namespace string

	CanonicalizePropertyGroups bool // properties within each group, by Name then Value
	CanonicalizeItemGroups     bool // items within each group, by ItemType then Spec
	CanonicalizeItemMetadata   bool // each item's metadata lists, by Name then Value
	CanonicalizeUsingTasks     bool // UsingTask elements, by TaskName then assembly
	CanonicalizeTaskParameters bool // task parameters, by Name then Value
}

// GenerateProjectXML renders a project tree to XML text. The tree is
// validated first and an inconsistent tree is refused with a
// *ValidationError carrying the full violation list.
//
// Output is deterministic: the same tree and options always produce
// byte-identical text. The tree is never mutated; canonical ordering is
// computed on copies.
func GenerateProjectXML(p *Project, opts WriteOptions) ([]byte, error) {
	if violations := ValidateProject(p); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	w := &projectWriter{opts: opts}
	w.buf.WriteString(xml.Header)
	if err := w.writeProject(p); err != nil {
		return nil, err
	}

	return []byte(w.buf.String()), nil
}

type projectWriter struct {
	buf   strings.Builder
	opts  WriteOptions
	depth int
}

// Attribute values escape quotes and whitespace so values containing
// newlines or tabs survive XML attribute-value normalization on the way
// back in. Text content needs only markup characters escaped; a literal
// carriage return must become a character reference or the parser folds
// it into a newline.
var (
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\n", "&#xA;", "\t", "&#x9;", "\r", "&#xD;",
	)
	textEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#xD;",
	)
)

func (w *projectWriter) indent() {
	for i := 0; i < w.depth; i++ {
		w.buf.WriteString("  ")
	}
}

// attr writes a single attribute, omitting it when the value is empty.
// Optional attributes treat empty as absent; Condition="" is never
// emitted.
func (w *projectWriter) attr(name, value string) {
	if value == "" {
		return
	}
	w.attrAlways(name, value)
}

// attrAlways writes an attribute even when the value is empty. Map-like
// attributes (task parameters, attribute metadata) use it because entry
// presence is the signal and an empty value must round-trip.
func (w *projectWriter) attrAlways(name, value string) {
	w.buf.WriteByte(' ')
	w.buf.WriteString(name)
	w.buf.WriteString(`="`)
	w.buf.WriteString(attrEscaper.Replace(value))
	w.buf.WriteByte('"')
}

func (w *projectWriter) comment(c *Comment) {
	w.indent()
	w.buf.WriteString("<!--")
	w.buf.WriteString(c.Text)
	w.buf.WriteString("-->\n")
}

// textElement writes <name>value</name> on one line, self-closing when
// the value is empty.
func (w *projectWriter) textElement(name, value string, attrs func()) {
	w.indent()
	w.buf.WriteByte('<')
	w.buf.WriteString(name)
	if attrs != nil {
		attrs()
	}
	if value == "" {
		w.buf.WriteString(" />\n")
		return
	}
	w.buf.WriteByte('>')
	w.buf.WriteString(textEscaper.Replace(value))
	w.buf.WriteString("</")
	w.buf.WriteString(name)
	w.buf.WriteString(">\n")
}

func (w *projectWriter) writeProject(p *Project) error {
	w.buf.WriteString("<Project")
	w.attr("Label", p.Label)
	w.attr("xmlns", w.opts.Namespace)
	if len(p.Elements) == 0 {
		w.buf.WriteString(" />\n")
		return nil
	}
	w.buf.WriteString(">\n")
	w.depth++
	for _, el := range w.projectElements(p) {
		if err := w.writeProjectElement(el); err != nil {
			return err
		}
	}
	w.depth--
	w.buf.WriteString("</Project>\n")
	return nil
}

func (w *projectWriter) writeProjectElement(el ProjectElement) error {
	switch e := el.(type) {
	case *Comment:
		w.comment(e)
	case *Import:
		w.indent()
		w.buf.WriteString("<Import")
		w.attr("Project", e.Project)
		w.attr("Sdk", e.Sdk)
		w.attr("Condition", e.Condition)
		w.buf.WriteString(" />\n")
	case *PropertyGroup:
		w.writePropertyGroup(e)
	case *ItemGroup:
		w.writeItemGroup(e)
	case *Choose:
		w.writeChoose(e)
	case *UsingTask:
		w.indent()
		w.buf.WriteString("<UsingTask")
		w.attr("TaskName", e.TaskName)
		w.attr("AssemblyFile", e.AssemblyFile)
		w.attr("AssemblyName", e.AssemblyName)
		w.attr("TaskFactory", e.TaskFactory)
		w.attr("Condition", e.Condition)
		w.buf.WriteString(" />\n")
	case *Target:
		if err := w.writeTarget(e); err != nil {
			return err
		}
	default:
		return &ValidationError{Violations: []string{
			fmt.Sprintf("unsupported project element kind %T", el),
		}}
	}
	return nil
}

func (w *projectWriter) writePropertyGroup(g *PropertyGroup) {
	w.indent()
	w.buf.WriteString("<PropertyGroup")
	w.attr("Condition", g.Condition)
	w.attr("Label", g.Label)
	if len(g.Elements) == 0 {
		w.buf.WriteString(" />\n")
		return
	}
	w.buf.WriteString(">\n")
	w.depth++
	for _, el := range w.groupElements(g) {
		switch e := el.(type) {
		case *Comment:
			w.comment(e)
		case *Property:
			w.textElement(e.Name, e.Value, func() {
				w.attr("Condition", e.Condition)
			})
		}
	}
	w.depth--
	w.indent()
	w.buf.WriteString("</PropertyGroup>\n")
}

func (w *projectWriter) writeItemGroup(g *ItemGroup) {
	w.indent()
	w.buf.WriteString("<ItemGroup")
	w.attr("Condition", g.Condition)
	w.attr("Label", g.Label)
	if len(g.Elements) == 0 {
		w.buf.WriteString(" />\n")
		return
	}
	w.buf.WriteString(">\n")
	w.depth++
	for _, el := range w.itemGroupElements(g) {
		switch e := el.(type) {
		case *Comment:
			w.comment(e)
		case *Item:
			w.writeItem(e)
		}
	}
	w.depth--
	w.indent()
	w.buf.WriteString("</ItemGroup>\n")
}

func (w *projectWriter) writeItem(it *Item) {
	w.indent()
	w.buf.WriteByte('<')
	w.buf.WriteString(it.ItemType)
	w.attrAlways(it.Operation.String(), it.Spec)
	w.attr("Exclude", it.Exclude)
	w.attr("Condition", it.Condition)
	for _, m := range w.metadata(it.AttributeMetadata) {
		w.attrAlways(m.Name, m.Value)
	}
	if len(it.Metadata) == 0 {
		w.buf.WriteString(" />\n")
		return
	}
	w.buf.WriteString(">\n")
	w.depth++
	for _, m := range w.metadata(it.Metadata) {
		w.textElement(m.Name, m.Value, nil)
	}
	w.depth--
	w.indent()
	w.buf.WriteString("</")
	w.buf.WriteString(it.ItemType)
	w.buf.WriteString(">\n")
}

func (w *projectWriter) writeChoose(c *Choose) {
	w.indent()
	w.buf.WriteString("<Choose>\n")
	w.depth++
	for _, branch := range c.Whens {
		w.indent()
		w.buf.WriteString("<When")
		w.attr("Condition", branch.Condition)
		if len(branch.Elements) == 0 {
			w.buf.WriteString(" />\n")
			continue
		}
		w.buf.WriteString(">\n")
		w.depth++
		w.writeWhenElements(branch.Elements)
		w.depth--
		w.indent()
		w.buf.WriteString("</When>\n")
	}
	if c.Otherwise != nil {
		w.indent()
		if len(c.Otherwise.Elements) == 0 {
			w.buf.WriteString("<Otherwise />\n")
		} else {
			w.buf.WriteString("<Otherwise>\n")
			w.depth++
			w.writeWhenElements(c.Otherwise.Elements)
			w.depth--
			w.indent()
			w.buf.WriteString("</Otherwise>\n")
		}
	}
	w.depth--
	w.indent()
	w.buf.WriteString("</Choose>\n")
}

func (w *projectWriter) writeWhenElements(elements []WhenElement) {
	for _, el := range elements {
		switch e := el.(type) {
		case *PropertyGroup:
			w.writePropertyGroup(e)
		case *ItemGroup:
			w.writeItemGroup(e)
		}
	}
}

func (w *projectWriter) writeTarget(t *Target) error {
	w.indent()
	w.buf.WriteString("<Target")
	w.attr("Name", t.Name)
	w.attr("Label", t.Label)
	w.attr("Condition", t.Condition)
	w.attr("BeforeTargets", t.BeforeTargets)
	w.attr("AfterTargets", t.AfterTargets)
	w.attr("DependsOnTargets", t.DependsOnTargets)
	w.attr("Inputs", t.Inputs)
	w.attr("Outputs", t.Outputs)
	w.attr("Returns", t.Returns)
	if len(t.Elements) == 0 {
		w.buf.WriteString(" />\n")
		return nil
	}
	w.buf.WriteString(">\n")
	w.depth++
	for _, el := range t.Elements {
		switch e := el.(type) {
		case *Comment:
			w.comment(e)
		case *PropertyGroup:
			w.writePropertyGroup(e)
		case *ItemGroup:
			w.writeItemGroup(e)
		case *MessageTask:
			w.indent()
			w.buf.WriteString("<Message")
			w.attr("Text", e.Text)
			w.attr("Importance", e.Importance)
			w.attr("Condition", e.Condition)
			w.buf.WriteString(" />\n")
		case *ExecTask:
			w.indent()
			w.buf.WriteString("<Exec")
			w.attr("Command", e.Command)
			w.attr("WorkingDirectory", e.WorkingDirectory)
			w.attr("Condition", e.Condition)
			w.buf.WriteString(" />\n")
		case *ErrorTask:
			w.indent()
			w.buf.WriteString("<Error")
			w.attr("Text", e.Text)
			w.attr("Code", e.Code)
			w.attr("Condition", e.Condition)
			w.buf.WriteString(" />\n")
		case *WarningTask:
			w.indent()
			w.buf.WriteString("<Warning")
			w.attr("Text", e.Text)
			w.attr("Code", e.Code)
			w.attr("Condition", e.Condition)
			w.buf.WriteString(" />\n")
		case *Task:
			w.writeTask(e)
		default:
			return &ValidationError{Violations: []string{
				fmt.Sprintf("unsupported target element kind %T", el),
			}}
		}
	}
	w.depth--
	w.indent()
	w.buf.WriteString("</Target>\n")
	return nil
}

func (w *projectWriter) writeTask(tk *Task) {
	w.indent()
	w.buf.WriteByte('<')
	w.buf.WriteString(tk.Name)
	params := tk.Parameters
	if w.opts.CanonicalizeTaskParameters {
		params = sortedParameters(params)
	}
	for _, param := range params {
		w.attrAlways(param.Name, param.Value)
	}
	w.attr("Condition", tk.Condition)
	if len(tk.Outputs) == 0 {
		w.buf.WriteString(" />\n")
		return
	}
	w.buf.WriteString(">\n")
	w.depth++
	for _, out := range tk.Outputs {
		w.indent()
		w.buf.WriteString("<Output")
		w.attr("TaskParameter", out.TaskParameter)
		w.attr("PropertyName", out.PropertyName)
		w.attr("ItemName", out.ItemName)
		w.attr("Condition", out.Condition)
		w.buf.WriteString(" />\n")
	}
	w.depth--
	w.indent()
	w.buf.WriteString("</")
	w.buf.WriteString(tk.Name)
	w.buf.WriteString(">\n")
}

// reorderSlots returns a copy of elems in which the entries selected by
// match are reordered by less while every other entry keeps its
// position. This is how canonical ordering moves data nodes without
// relocating the comments interleaved between them.
func reorderSlots[E any](elems []E, match func(E) bool, less func(a, b E) bool) []E {
	out := make([]E, len(elems))
	copy(out, elems)

	var slots []int
	var data []E
	for i, el := range out {
		if match(el) {
			slots = append(slots, i)
			data = append(data, el)
		}
	}
	sort.SliceStable(data, func(i, j int) bool { return less(data[i], data[j]) })
	for k, i := range slots {
		out[i] = data[k]
	}

	return out
}

func (w *projectWriter) projectElements(p *Project) []ProjectElement {
	if !w.opts.CanonicalizeUsingTasks {
		return p.Elements
	}
	return reorderSlots(p.Elements,
		func(el ProjectElement) bool {
			_, ok := el.(*UsingTask)
			return ok
		},
		func(a, b ProjectElement) bool {
			ua, ub := a.(*UsingTask), b.(*UsingTask)
			if ua.TaskName != ub.TaskName {
				return ua.TaskName < ub.TaskName
			}
			if ua.AssemblyFile != ub.AssemblyFile {
				return ua.AssemblyFile < ub.AssemblyFile
			}
			return ua.AssemblyName < ub.AssemblyName
		})
}

func (w *projectWriter) groupElements(g *PropertyGroup) []GroupElement {
	if !w.opts.CanonicalizePropertyGroups {
		return g.Elements
	}
	return reorderSlots(g.Elements,
		func(el GroupElement) bool {
			_, ok := el.(*Property)
			return ok
		},
		func(a, b GroupElement) bool {
			pa, pb := a.(*Property), b.(*Property)
			if pa.Name != pb.Name {
				return pa.Name < pb.Name
			}
			return pa.Value < pb.Value
		})
}

func (w *projectWriter) itemGroupElements(g *ItemGroup) []ItemGroupElement {
	if !w.opts.CanonicalizeItemGroups {
		return g.Elements
	}
	return reorderSlots(g.Elements,
		func(el ItemGroupElement) bool {
			_, ok := el.(*Item)
			return ok
		},
		func(a, b ItemGroupElement) bool {
			ia, ib := a.(*Item), b.(*Item)
			if ia.ItemType != ib.ItemType {
				return ia.ItemType < ib.ItemType
			}
			return ia.Spec < ib.Spec
		})
}

func (w *projectWriter) metadata(list []ItemMetadata) []ItemMetadata {
	if !w.opts.CanonicalizeItemMetadata {
		return list
	}
	out := make([]ItemMetadata, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Value < out[j].Value
	})
	return out
}

func sortedParameters(params []TaskParameter) []TaskParameter {
	out := make([]TaskParameter, len(params))
	copy(out, params)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Value < out[j].Value
	})
	return out
}
