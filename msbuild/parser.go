package msbuild

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Parse reads project XML and reconstructs the document tree. Comments
// are retained as nodes at their authored positions so a parsed tree
// re-renders to the original text.
//
// Parsing fails fast with a single error: dispatch is structural, and
// an element with no mapping at a closed level is rejected rather than
// skipped. The one open dispatch point is inside <Target>, where any
// unrecognized element is a task invocation.
func Parse(r io.Reader) (*Project, error) {
	dec := xml.NewDecoder(r)
	p := &parser{dec: dec}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, ErrMissingRoot
		}
		if err != nil {
			return nil, fmt.Errorf("parse project: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "Project" {
				return nil, fmt.Errorf("%w, found <%s>", ErrUnexpectedRoot, t.Name.Local)
			}
			proj, err := p.parseProject(t)
			if err != nil {
				return nil, err
			}
			if err := p.expectDocumentEnd(); err != nil {
				return nil, err
			}
			return proj, nil
		case xml.ProcInst:
			// XML declaration
		case xml.CharData:
			if !isWhitespace(t) {
				return nil, fmt.Errorf("%w: text before root element", ErrUnexpectedContent)
			}
		case xml.Comment:
			return nil, fmt.Errorf("%w: comment before root element", ErrUnexpectedContent)
		case xml.Directive:
			return nil, fmt.Errorf("%w: directive before root element", ErrUnexpectedContent)
		}
	}
}

// ParseString is a convenience wrapper over Parse.
func ParseString(s string) (*Project, error) {
	return Parse(strings.NewReader(s))
}

type parser struct {
	dec *xml.Decoder
}

func isWhitespace(data xml.CharData) bool {
	return strings.TrimSpace(string(data)) == ""
}

func attrError(element string, attr xml.Attr) error {
	return fmt.Errorf("%w %s on <%s>", ErrUnexpectedAttribute, attr.Name.Local, element)
}

// checkDuplicateAttrs rejects an attribute repeated on one element.
// The decoder passes repeats through last-wins; the dialect does not.
func checkDuplicateAttrs(element string, attrs []xml.Attr) error {
	if len(attrs) < 2 {
		return nil
	}
	seen := make(map[xml.Name]bool, len(attrs))
	for _, a := range attrs {
		if seen[a.Name] {
			return fmt.Errorf("%w %s on <%s>", ErrDuplicateAttribute, a.Name.Local, element)
		}
		seen[a.Name] = true
	}
	return nil
}

// expectDocumentEnd consumes everything after the root element,
// rejecting anything but trailing whitespace.
func (p *parser) expectDocumentEnd() error {
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parse project: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			if !isWhitespace(t) {
				return fmt.Errorf("%w: text after </Project>", ErrUnexpectedContent)
			}
		default:
			return fmt.Errorf("%w after </Project>", ErrUnexpectedContent)
		}
	}
}

func (p *parser) parseProject(start xml.StartElement) (*Project, error) {
	if err := checkDuplicateAttrs("Project", start.Attr); err != nil {
		return nil, err
	}
	proj := &Project{}
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "Label":
			proj.Label = a.Value
		case "xmlns":
			// Namespace is render configuration, not document content.
		default:
			return nil, attrError("Project", a)
		}
	}

	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse <Project>: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Import":
				imp, err := p.parseImport(t)
				if err != nil {
					return nil, err
				}
				proj.AddImport(imp)
			case "PropertyGroup":
				g, err := p.parsePropertyGroup(t)
				if err != nil {
					return nil, err
				}
				proj.AddPropertyGroup(g)
			case "ItemGroup":
				g, err := p.parseItemGroup(t)
				if err != nil {
					return nil, err
				}
				proj.AddItemGroup(g)
			case "Choose":
				c, err := p.parseChoose(t)
				if err != nil {
					return nil, err
				}
				proj.AddChoose(c)
			case "UsingTask":
				u, err := p.parseUsingTask(t)
				if err != nil {
					return nil, err
				}
				proj.AddUsingTask(u)
			case "Target":
				tgt, err := p.parseTarget(t)
				if err != nil {
					return nil, err
				}
				proj.AddTarget(tgt)
			default:
				return nil, fmt.Errorf("%w <%s> under <Project>", ErrUnknownElement, t.Name.Local)
			}
		case xml.Comment:
			proj.AddComment(&Comment{Text: string(t)})
		case xml.CharData:
			if !isWhitespace(t) {
				return nil, fmt.Errorf("%w: text inside <Project>", ErrUnexpectedContent)
			}
		case xml.EndElement:
			return proj, nil
		default:
			return nil, fmt.Errorf("%w inside <Project>", ErrUnexpectedContent)
		}
	}
}

// closeEmptyElement consumes tokens up to the element's end tag,
// rejecting anything but whitespace.
func (p *parser) closeEmptyElement(name string) error {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return fmt.Errorf("parse <%s>: %w", name, err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.CharData:
			if !isWhitespace(t) {
				return fmt.Errorf("%w: text inside <%s>", ErrUnexpectedContent, name)
			}
		default:
			return fmt.Errorf("%w inside <%s>", ErrUnexpectedContent, name)
		}
	}
}

// textContent consumes an element expected to hold only character
// data, returning the accumulated text.
func (p *parser) textContent(name string) (string, error) {
	var sb strings.Builder
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return "", fmt.Errorf("parse <%s>: %w", name, err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			return sb.String(), nil
		default:
			return "", fmt.Errorf("%w inside <%s>", ErrUnexpectedContent, name)
		}
	}
}

func (p *parser) parseImport(start xml.StartElement) (*Import, error) {
	if err := checkDuplicateAttrs("Import", start.Attr); err != nil {
		return nil, err
	}
	imp := &Import{}
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "Project":
			imp.Project = a.Value
		case "Sdk":
			imp.Sdk = a.Value
		case "Condition":
			imp.Condition = a.Value
		default:
			return nil, attrError("Import", a)
		}
	}
	if err := p.closeEmptyElement("Import"); err != nil {
		return nil, err
	}
	return imp, nil
}

func (p *parser) parsePropertyGroup(start xml.StartElement) (*PropertyGroup, error) {
	if err := checkDuplicateAttrs("PropertyGroup", start.Attr); err != nil {
		return nil, err
	}
	g := &PropertyGroup{}
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "Condition":
			g.Condition = a.Value
		case "Label":
			g.Label = a.Value
		default:
			return nil, attrError("PropertyGroup", a)
		}
	}

	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse <PropertyGroup>: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			// Any element inside a property group is a property; the
			// tag name is the property name.
			if err := checkDuplicateAttrs(t.Name.Local, t.Attr); err != nil {
				return nil, err
			}
			prop := &Property{Name: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Local != "Condition" {
					return nil, attrError(t.Name.Local, a)
				}
				prop.Condition = a.Value
			}
			value, err := p.textContent(t.Name.Local)
			if err != nil {
				return nil, err
			}
			prop.Value = value
			g.AddProperty(prop)
		case xml.Comment:
			g.AddComment(&Comment{Text: string(t)})
		case xml.CharData:
			if !isWhitespace(t) {
				return nil, fmt.Errorf("%w: text inside <PropertyGroup>", ErrUnexpectedContent)
			}
		case xml.EndElement:
			return g, nil
		default:
			return nil, fmt.Errorf("%w inside <PropertyGroup>", ErrUnexpectedContent)
		}
	}
}

func (p *parser) parseItemGroup(start xml.StartElement) (*ItemGroup, error) {
	if err := checkDuplicateAttrs("ItemGroup", start.Attr); err != nil {
		return nil, err
	}
	g := &ItemGroup{}
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "Condition":
			g.Condition = a.Value
		case "Label":
			g.Label = a.Value
		default:
			return nil, attrError("ItemGroup", a)
		}
	}

	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse <ItemGroup>: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			it, err := p.parseItem(t)
			if err != nil {
				return nil, err
			}
			g.AddItem(it)
		case xml.Comment:
			g.AddComment(&Comment{Text: string(t)})
		case xml.CharData:
			if !isWhitespace(t) {
				return nil, fmt.Errorf("%w: text inside <ItemGroup>", ErrUnexpectedContent)
			}
		case xml.EndElement:
			return g, nil
		default:
			return nil, fmt.Errorf("%w inside <ItemGroup>", ErrUnexpectedContent)
		}
	}
}

// parseItem classifies the item's operation from whichever of the three
// mutually exclusive attributes is present; any attribute outside the
// reserved set becomes attribute-form metadata, and any child element
// becomes element-form metadata.
func (p *parser) parseItem(start xml.StartElement) (*Item, error) {
	if err := checkDuplicateAttrs(start.Name.Local, start.Attr); err != nil {
		return nil, err
	}
	it := &Item{ItemType: start.Name.Local}

	operations := 0
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "Include":
			it.Operation = OperationInclude
			it.Spec = a.Value
			operations++
		case "Remove":
			it.Operation = OperationRemove
			it.Spec = a.Value
			operations++
		case "Update":
			it.Operation = OperationUpdate
			it.Spec = a.Value
			operations++
		case "Exclude":
			it.Exclude = a.Value
		case "Condition":
			it.Condition = a.Value
		default:
			it.AddAttributeMetadata(a.Name.Local, a.Value)
		}
	}
	switch {
	case operations == 0:
		return nil, fmt.Errorf("%w: <%s>", ErrMissingOperation, it.ItemType)
	case operations > 1:
		return nil, fmt.Errorf("%w: <%s>", ErrAmbiguousOperation, it.ItemType)
	}

	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse <%s>: %w", it.ItemType, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if len(t.Attr) > 0 {
				return nil, attrError(t.Name.Local, t.Attr[0])
			}
			value, err := p.textContent(t.Name.Local)
			if err != nil {
				return nil, err
			}
			it.AddMetadata(t.Name.Local, value)
		case xml.CharData:
			if !isWhitespace(t) {
				return nil, fmt.Errorf("%w: text inside <%s>", ErrUnexpectedContent, it.ItemType)
			}
		case xml.EndElement:
			return it, nil
		default:
			return nil, fmt.Errorf("%w inside <%s>", ErrUnexpectedContent, it.ItemType)
		}
	}
}

func (p *parser) parseChoose(start xml.StartElement) (*Choose, error) {
	if len(start.Attr) > 0 {
		return nil, attrError("Choose", start.Attr[0])
	}

	c := &Choose{}
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse <Choose>: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "When":
				if c.Otherwise != nil {
					return nil, fmt.Errorf("%w: <When> after <Otherwise>", ErrUnexpectedContent)
				}
				branch, err := p.parseWhen(t)
				if err != nil {
					return nil, err
				}
				c.AddWhen(branch)
			case "Otherwise":
				if c.Otherwise != nil {
					return nil, fmt.Errorf("%w: second <Otherwise> in <Choose>", ErrUnexpectedContent)
				}
				if len(t.Attr) > 0 {
					return nil, attrError("Otherwise", t.Attr[0])
				}
				elements, err := p.parseWhenElements("Otherwise")
				if err != nil {
					return nil, err
				}
				c.Otherwise = &Otherwise{Elements: elements}
			default:
				return nil, fmt.Errorf("%w <%s> under <Choose>", ErrUnknownElement, t.Name.Local)
			}
		case xml.CharData:
			if !isWhitespace(t) {
				return nil, fmt.Errorf("%w: text inside <Choose>", ErrUnexpectedContent)
			}
		case xml.EndElement:
			return c, nil
		default:
			return nil, fmt.Errorf("%w inside <Choose>", ErrUnexpectedContent)
		}
	}
}

func (p *parser) parseWhen(start xml.StartElement) (*When, error) {
	if err := checkDuplicateAttrs("When", start.Attr); err != nil {
		return nil, err
	}
	branch := &When{}
	hasCondition := false
	for _, a := range start.Attr {
		if a.Name.Local != "Condition" {
			return nil, attrError("When", a)
		}
		branch.Condition = a.Value
		hasCondition = true
	}
	if !hasCondition {
		return nil, fmt.Errorf("<When> requires a Condition attribute")
	}

	elements, err := p.parseWhenElements("When")
	if err != nil {
		return nil, err
	}
	branch.Elements = elements
	return branch, nil
}

func (p *parser) parseWhenElements(parent string) ([]WhenElement, error) {
	var elements []WhenElement
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse <%s>: %w", parent, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "PropertyGroup":
				g, err := p.parsePropertyGroup(t)
				if err != nil {
					return nil, err
				}
				elements = append(elements, g)
			case "ItemGroup":
				g, err := p.parseItemGroup(t)
				if err != nil {
					return nil, err
				}
				elements = append(elements, g)
			default:
				return nil, fmt.Errorf("%w <%s> under <%s>", ErrUnknownElement, t.Name.Local, parent)
			}
		case xml.CharData:
			if !isWhitespace(t) {
				return nil, fmt.Errorf("%w: text inside <%s>", ErrUnexpectedContent, parent)
			}
		case xml.EndElement:
			return elements, nil
		default:
			return nil, fmt.Errorf("%w inside <%s>", ErrUnexpectedContent, parent)
		}
	}
}

func (p *parser) parseUsingTask(start xml.StartElement) (*UsingTask, error) {
	if err := checkDuplicateAttrs("UsingTask", start.Attr); err != nil {
		return nil, err
	}
	u := &UsingTask{}
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "TaskName":
			u.TaskName = a.Value
		case "AssemblyFile":
			u.AssemblyFile = a.Value
		case "AssemblyName":
			u.AssemblyName = a.Value
		case "TaskFactory":
			u.TaskFactory = a.Value
		case "Condition":
			u.Condition = a.Value
		default:
			return nil, attrError("UsingTask", a)
		}
	}
	if err := p.closeEmptyElement("UsingTask"); err != nil {
		return nil, err
	}
	return u, nil
}

func (p *parser) parseTarget(start xml.StartElement) (*Target, error) {
	if err := checkDuplicateAttrs("Target", start.Attr); err != nil {
		return nil, err
	}
	t := &Target{}
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "Name":
			t.Name = a.Value
		case "Label":
			t.Label = a.Value
		case "Condition":
			t.Condition = a.Value
		case "BeforeTargets":
			t.BeforeTargets = a.Value
		case "AfterTargets":
			t.AfterTargets = a.Value
		case "DependsOnTargets":
			t.DependsOnTargets = a.Value
		case "Inputs":
			t.Inputs = a.Value
		case "Outputs":
			t.Outputs = a.Value
		case "Returns":
			t.Returns = a.Value
		default:
			return nil, attrError("Target", a)
		}
	}

	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse <Target>: %w", err)
		}
		switch tt := tok.(type) {
		case xml.StartElement:
			el, err := p.parseTargetElement(tt)
			if err != nil {
				return nil, err
			}
			t.AddElement(el)
		case xml.Comment:
			t.AddElement(&Comment{Text: string(tt)})
		case xml.CharData:
			if !isWhitespace(tt) {
				return nil, fmt.Errorf("%w: text inside <Target>", ErrUnexpectedContent)
			}
		case xml.EndElement:
			return t, nil
		default:
			return nil, fmt.Errorf("%w inside <Target>", ErrUnexpectedContent)
		}
	}
}

// parseTargetElement dispatches a target child. Unlike every other
// level, the default case here is not an error: an unrecognized tag is
// a task invocation, because tasks are open-ended by nature.
func (p *parser) parseTargetElement(start xml.StartElement) (TargetElement, error) {
	switch start.Name.Local {
	case "PropertyGroup":
		return p.parsePropertyGroup(start)
	case "ItemGroup":
		return p.parseItemGroup(start)
	case "Message":
		if err := checkDuplicateAttrs("Message", start.Attr); err != nil {
			return nil, err
		}
		step := &MessageTask{}
		for _, a := range start.Attr {
			switch a.Name.Local {
			case "Text":
				step.Text = a.Value
			case "Importance":
				step.Importance = a.Value
			case "Condition":
				step.Condition = a.Value
			default:
				return nil, attrError("Message", a)
			}
		}
		if err := p.closeEmptyElement("Message"); err != nil {
			return nil, err
		}
		return step, nil
	case "Exec":
		if err := checkDuplicateAttrs("Exec", start.Attr); err != nil {
			return nil, err
		}
		step := &ExecTask{}
		for _, a := range start.Attr {
			switch a.Name.Local {
			case "Command":
				step.Command = a.Value
			case "WorkingDirectory":
				step.WorkingDirectory = a.Value
			case "Condition":
				step.Condition = a.Value
			default:
				return nil, attrError("Exec", a)
			}
		}
		if err := p.closeEmptyElement("Exec"); err != nil {
			return nil, err
		}
		return step, nil
	case "Error":
		text, code, condition, err := p.parseDiagnosticStep(start)
		if err != nil {
			return nil, err
		}
		return &ErrorTask{Text: text, Code: code, Condition: condition}, nil
	case "Warning":
		text, code, condition, err := p.parseDiagnosticStep(start)
		if err != nil {
			return nil, err
		}
		return &WarningTask{Text: text, Code: code, Condition: condition}, nil
	default:
		return p.parseTask(start)
	}
}

func (p *parser) parseDiagnosticStep(start xml.StartElement) (text, code, condition string, err error) {
	if err := checkDuplicateAttrs(start.Name.Local, start.Attr); err != nil {
		return "", "", "", err
	}
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "Text":
			text = a.Value
		case "Code":
			code = a.Value
		case "Condition":
			condition = a.Value
		default:
			return "", "", "", attrError(start.Name.Local, a)
		}
	}
	if err := p.closeEmptyElement(start.Name.Local); err != nil {
		return "", "", "", err
	}
	return text, code, condition, nil
}

func (p *parser) parseTask(start xml.StartElement) (*Task, error) {
	if err := checkDuplicateAttrs(start.Name.Local, start.Attr); err != nil {
		return nil, err
	}
	tk := &Task{Name: start.Name.Local}
	for _, a := range start.Attr {
		if a.Name.Local == "Condition" {
			tk.Condition = a.Value
			continue
		}
		tk.AddParameter(a.Name.Local, a.Value)
	}

	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse <%s>: %w", tk.Name, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "Output" {
				return nil, fmt.Errorf("%w <%s> inside task <%s>", ErrUnknownElement, t.Name.Local, tk.Name)
			}
			out, err := p.parseOutput(t, tk.Name)
			if err != nil {
				return nil, err
			}
			tk.AddOutput(out)
		case xml.CharData:
			if !isWhitespace(t) {
				return nil, fmt.Errorf("%w: text inside <%s>", ErrUnexpectedContent, tk.Name)
			}
		case xml.EndElement:
			return tk, nil
		default:
			return nil, fmt.Errorf("%w inside <%s>", ErrUnexpectedContent, tk.Name)
		}
	}
}

// parseOutput classifies the destination: a PropertyName attribute
// routes to a property, an ItemName attribute to an item collection.
// Carrying both or neither is malformed input.
func (p *parser) parseOutput(start xml.StartElement, taskName string) (*TaskOutput, error) {
	if err := checkDuplicateAttrs("Output", start.Attr); err != nil {
		return nil, err
	}
	out := &TaskOutput{}
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "TaskParameter":
			out.TaskParameter = a.Value
		case "PropertyName":
			out.PropertyName = a.Value
		case "ItemName":
			out.ItemName = a.Value
		case "Condition":
			out.Condition = a.Value
		default:
			return nil, attrError("Output", a)
		}
	}

	hasProperty := out.PropertyName != ""
	hasItem := out.ItemName != ""
	switch {
	case hasProperty && hasItem:
		return nil, fmt.Errorf("%w: <Output> of task <%s>", ErrAmbiguousDestination, taskName)
	case !hasProperty && !hasItem:
		return nil, fmt.Errorf("%w: <Output> of task <%s>", ErrMissingDestination, taskName)
	}

	if err := p.closeEmptyElement("Output"); err != nil {
		return nil, err
	}
	return out, nil
}
