package msbuild

// TargetElement is a child of a Target. The built-in kinds are closed
// (Comment, PropertyGroup, ItemGroup, MessageTask, ExecTask, ErrorTask,
// WarningTask); Task is the single open-ended kind carrying an
// arbitrary task name.
type TargetElement interface {
	targetElement()
}

// UsingTask declares where the engine finds a task implementation.
// AssemblyFile and AssemblyName locate the assembly by path or by
// logical name; the engine treats them as mutually exclusive in
// practice but this layer stores both without judgement.
type UsingTask struct {
	TaskName     string
	AssemblyFile string
	AssemblyName string
	TaskFactory  string
	Condition    string
}

// Target is a named execution step. The *Targets fields and Inputs,
// Outputs, Returns are opaque expressions kept as raw semicolon-joined
// strings; splitting them would lose spacing and embedded property
// references.
type Target struct {
	Name      string
	Label     string
	Condition string

	BeforeTargets    string
	AfterTargets     string
	DependsOnTargets string
	Inputs           string
	Outputs          string
	Returns          string

	Elements []TargetElement
}

// MessageTask emits a build message.
type MessageTask struct {
	Text       string
	Importance string
	Condition  string
}

// ExecTask runs a shell command.
type ExecTask struct {
	Command          string
	WorkingDirectory string
	Condition        string
}

// ErrorTask fails the build with a message.
type ErrorTask struct {
	Text      string
	Code      string
	Condition string
}

// WarningTask raises a build warning.
type WarningTask struct {
	Text      string
	Code      string
	Condition string
}

// TaskParameter is a single name/value parameter on a task invocation.
type TaskParameter struct {
	Name  string
	Value string
}

// Task invokes a named task. Parameters keep insertion order unless the
// renderer is asked to canonicalize them.
type Task struct {
	Name       string
	Parameters []TaskParameter
	Condition  string
	Outputs    []*TaskOutput
}

// TaskOutput routes one task parameter into exactly one destination:
// a property (PropertyName) or an item collection (ItemName). Setting
// both or neither is a structural violation.
type TaskOutput struct {
	TaskParameter string
	PropertyName  string
	ItemName      string
	Condition     string
}

// AddElement appends a child to the target's ordered sequence.
func (t *Target) AddElement(el TargetElement) {
	t.Elements = append(t.Elements, el)
}

// AddParameter appends a parameter to the task invocation.
func (tk *Task) AddParameter(name, value string) {
	tk.Parameters = append(tk.Parameters, TaskParameter{Name: name, Value: value})
}

// AddOutput appends an output routing to the task invocation.
func (tk *Task) AddOutput(out *TaskOutput) {
	tk.Outputs = append(tk.Outputs, out)
}

func (*Comment) targetElement()       {}
func (*PropertyGroup) targetElement() {}
func (*ItemGroup) targetElement()     {}
func (*MessageTask) targetElement()   {}
func (*ExecTask) targetElement()      {}
func (*ErrorTask) targetElement()     {}
func (*WarningTask) targetElement()   {}
func (*Task) targetElement()          {}
