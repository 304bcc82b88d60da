package msbuild

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Minimal(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<Project>
  <PropertyGroup>
    <Greeting>Hello</Greeting>
  </PropertyGroup>
</Project>`

	p, err := ParseString(doc)
	require.NoError(t, err)

	require.Len(t, p.Elements, 1)
	require.Len(t, p.PropertyGroups, 1)
	g := p.PropertyGroups[0]
	require.Len(t, g.Properties, 1)
	assert.Equal(t, "Greeting", g.Properties[0].Name)
	assert.Equal(t, "Hello", g.Properties[0].Value)
	assert.Empty(t, ValidateProject(p))
}

func TestParse_NamespacedRoot(t *testing.T) {
	doc := `<Project xmlns="http://schemas.microsoft.com/developer/msbuild/2003">
  <PropertyGroup>
    <Configuration>Release</Configuration>
  </PropertyGroup>
</Project>`

	p, err := ParseString(doc)
	require.NoError(t, err)
	require.Len(t, p.PropertyGroups, 1)
	assert.Equal(t, "Release", p.PropertyGroups[0].Properties[0].Value)
}

func TestParse_RootLabel(t *testing.T) {
	p, err := ParseString(`<Project Label="pipeline" />`)
	require.NoError(t, err)
	assert.Equal(t, "pipeline", p.Label)
	assert.Empty(t, p.Elements)
}

func TestParse_CommentsRetained(t *testing.T) {
	doc := `<Project>
  <!-- header -->
  <PropertyGroup>
    <!-- inner -->
    <A>1</A>
  </PropertyGroup>
</Project>`

	p, err := ParseString(doc)
	require.NoError(t, err)

	require.Len(t, p.Elements, 2)
	c, ok := p.Elements[0].(*Comment)
	require.True(t, ok)
	assert.Equal(t, " header ", c.Text)

	g := p.PropertyGroups[0]
	require.Len(t, g.Elements, 2)
	inner, ok := g.Elements[0].(*Comment)
	require.True(t, ok)
	assert.Equal(t, " inner ", inner.Text)
}

func TestParse_ItemOperations(t *testing.T) {
	doc := `<Project>
  <ItemGroup>
    <Compile Include="a.cs" Exclude="b.cs" />
    <Compile Remove="c.cs" />
    <Compile Update="d.cs" Condition="'$(Full)' == 'true'" />
  </ItemGroup>
</Project>`

	p, err := ParseString(doc)
	require.NoError(t, err)

	items := p.ItemGroups[0].Items
	require.Len(t, items, 3)

	assert.Equal(t, OperationInclude, items[0].Operation)
	assert.Equal(t, "a.cs", items[0].Spec)
	assert.Equal(t, "b.cs", items[0].Exclude)

	assert.Equal(t, OperationRemove, items[1].Operation)
	assert.Equal(t, "c.cs", items[1].Spec)

	assert.Equal(t, OperationUpdate, items[2].Operation)
	assert.Equal(t, "d.cs", items[2].Spec)
	assert.Equal(t, "'$(Full)' == 'true'", items[2].Condition)
}

func TestParse_ItemMetadataPlacement(t *testing.T) {
	doc := `<Project>
  <ItemGroup>
    <Content Include="app.config" Visible="false" Pack="true">
      <CopyToOutputDirectory>Always</CopyToOutputDirectory>
      <Link>config/app.config</Link>
    </Content>
  </ItemGroup>
</Project>`

	p, err := ParseString(doc)
	require.NoError(t, err)

	it := p.ItemGroups[0].Items[0]
	assert.Equal(t, []ItemMetadata{
		{Name: "Visible", Value: "false"},
		{Name: "Pack", Value: "true"},
	}, it.AttributeMetadata)
	assert.Equal(t, []ItemMetadata{
		{Name: "CopyToOutputDirectory", Value: "Always"},
		{Name: "Link", Value: "config/app.config"},
	}, it.Metadata)
}

func TestParse_ItemOperationErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "include and remove",
			doc:  `<Project><ItemGroup><Compile Include="a.cs" Remove="b.cs" /></ItemGroup></Project>`,
			want: ErrAmbiguousOperation,
		},
		{
			name: "include and update",
			doc:  `<Project><ItemGroup><Compile Include="a.cs" Update="b.cs" /></ItemGroup></Project>`,
			want: ErrAmbiguousOperation,
		},
		{
			name: "no operation",
			doc:  `<Project><ItemGroup><Compile Condition="true" /></ItemGroup></Project>`,
			want: ErrMissingOperation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.doc)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_TaskOutputs(t *testing.T) {
	doc := `<Project>
  <Target Name="Build">
    <ComputeHash Files="@(Compile)" Algorithm="SHA256" Condition="'$(Hash)' == 'true'">
      <Output TaskParameter="Hash" PropertyName="SourceHash" />
      <Output TaskParameter="Entries" ItemName="HashedFiles" Condition="'$(Keep)' == 'true'" />
    </ComputeHash>
  </Target>
</Project>`

	p, err := ParseString(doc)
	require.NoError(t, err)

	require.Len(t, p.Targets[0].Elements, 1)
	tk, ok := p.Targets[0].Elements[0].(*Task)
	require.True(t, ok)
	assert.Equal(t, "ComputeHash", tk.Name)
	assert.Equal(t, "'$(Hash)' == 'true'", tk.Condition)
	assert.Equal(t, []TaskParameter{
		{Name: "Files", Value: "@(Compile)"},
		{Name: "Algorithm", Value: "SHA256"},
	}, tk.Parameters)

	require.Len(t, tk.Outputs, 2)
	assert.Equal(t, "SourceHash", tk.Outputs[0].PropertyName)
	assert.Empty(t, tk.Outputs[0].ItemName)
	assert.Equal(t, "HashedFiles", tk.Outputs[1].ItemName)
	assert.Empty(t, tk.Outputs[1].PropertyName)
}

func TestParse_TaskOutputDestinationErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "both destinations",
			doc: `<Project><Target Name="B"><T>
				<Output TaskParameter="X" PropertyName="P" ItemName="I" />
			</T></Target></Project>`,
			want: ErrAmbiguousDestination,
		},
		{
			name: "no destination",
			doc: `<Project><Target Name="B"><T>
				<Output TaskParameter="X" />
			</T></Target></Project>`,
			want: ErrMissingDestination,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.doc)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_TargetBuiltinSteps(t *testing.T) {
	doc := `<Project>
  <Target Name="Check" BeforeTargets="Build" AfterTargets="Restore" Returns="@(Results)">
    <Message Text="checking" Importance="low" />
    <Exec Command="make lint" WorkingDirectory="tools" />
    <Warning Text="slow" Code="W1" />
    <Error Text="broken" Code="E1" Condition="'$(Broken)' == 'true'" />
  </Target>
</Project>`

	p, err := ParseString(doc)
	require.NoError(t, err)

	tgt := p.Targets[0]
	assert.Equal(t, "Build", tgt.BeforeTargets)
	assert.Equal(t, "Restore", tgt.AfterTargets)
	assert.Equal(t, "@(Results)", tgt.Returns)
	require.Len(t, tgt.Elements, 4)

	msg := tgt.Elements[0].(*MessageTask)
	assert.Equal(t, "checking", msg.Text)
	assert.Equal(t, "low", msg.Importance)

	exec := tgt.Elements[1].(*ExecTask)
	assert.Equal(t, "make lint", exec.Command)
	assert.Equal(t, "tools", exec.WorkingDirectory)

	warn := tgt.Elements[2].(*WarningTask)
	assert.Equal(t, "W1", warn.Code)

	fail := tgt.Elements[3].(*ErrorTask)
	assert.Equal(t, "E1", fail.Code)
	assert.Equal(t, "'$(Broken)' == 'true'", fail.Condition)
}

func TestParse_Choose(t *testing.T) {
	doc := `<Project>
  <Choose>
    <When Condition="'$(Configuration)' == 'Debug'">
      <PropertyGroup>
        <DebugSymbols>true</DebugSymbols>
      </PropertyGroup>
      <ItemGroup>
        <Compile Include="debug/*.cs" />
      </ItemGroup>
    </When>
    <When Condition="'$(Configuration)' == 'Release'">
      <PropertyGroup>
        <Optimize>true</Optimize>
      </PropertyGroup>
    </When>
    <Otherwise>
      <PropertyGroup>
        <Configuration>Debug</Configuration>
      </PropertyGroup>
    </Otherwise>
  </Choose>
</Project>`

	p, err := ParseString(doc)
	require.NoError(t, err)

	require.Len(t, p.Chooses, 1)
	c := p.Chooses[0]
	require.Len(t, c.Whens, 2)
	assert.Equal(t, "'$(Configuration)' == 'Debug'", c.Whens[0].Condition)
	assert.Len(t, c.Whens[0].Elements, 2)
	require.NotNil(t, c.Otherwise)
	require.Len(t, c.Otherwise.Elements, 1)
}

func TestParse_UsingTask(t *testing.T) {
	doc := `<Project>
  <UsingTask TaskName="Zip" AssemblyFile="tasks/Zip.dll" TaskFactory="TaskHostFactory" />
  <UsingTask TaskName="Hash" AssemblyName="Build.Tasks" Condition="'$(UseHash)' == 'true'" />
</Project>`

	p, err := ParseString(doc)
	require.NoError(t, err)

	require.Len(t, p.UsingTasks, 2)
	assert.Equal(t, "tasks/Zip.dll", p.UsingTasks[0].AssemblyFile)
	assert.Equal(t, "TaskHostFactory", p.UsingTasks[0].TaskFactory)
	assert.Equal(t, "Build.Tasks", p.UsingTasks[1].AssemblyName)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "empty document",
			doc:  "",
			want: ErrMissingRoot,
		},
		{
			name: "wrong root",
			doc:  `<Solution />`,
			want: ErrUnexpectedRoot,
		},
		{
			name: "unknown element under project",
			doc:  `<Project><Mystery /></Project>`,
			want: ErrUnknownElement,
		},
		{
			name: "unknown element under choose",
			doc:  `<Project><Choose><Sometimes /></Choose></Project>`,
			want: ErrUnknownElement,
		},
		{
			name: "unknown element under when",
			doc:  `<Project><Choose><When Condition="c"><Target Name="T" /></When></Choose></Project>`,
			want: ErrUnknownElement,
		},
		{
			name: "non-output child inside task",
			doc:  `<Project><Target Name="B"><T><Child /></T></Target></Project>`,
			want: ErrUnknownElement,
		},
		{
			name: "unexpected attribute on import",
			doc:  `<Project><Import Project="a.props" Version="1" /></Project>`,
			want: ErrUnexpectedAttribute,
		},
		{
			name: "unexpected attribute on message",
			doc:  `<Project><Target Name="B"><Message Text="hi" Loud="yes" /></Target></Project>`,
			want: ErrUnexpectedAttribute,
		},
		{
			name: "duplicate condition on when",
			doc:  `<Project><Choose><When Condition="a" Condition="b"><PropertyGroup /></When></Choose></Project>`,
			want: ErrDuplicateAttribute,
		},
		{
			name: "duplicate metadata attribute on item",
			doc:  `<Project><ItemGroup><Compile Include="a.cs" Visible="1" Visible="2" /></ItemGroup></Project>`,
			want: ErrDuplicateAttribute,
		},
		{
			name: "duplicate include on item",
			doc:  `<Project><ItemGroup><Compile Include="a.cs" Include="b.cs" /></ItemGroup></Project>`,
			want: ErrDuplicateAttribute,
		},
		{
			name: "duplicate parameter on task",
			doc:  `<Project><Target Name="B"><Zip Files="a" Files="b" /></Target></Project>`,
			want: ErrDuplicateAttribute,
		},
		{
			name: "text inside project",
			doc:  `<Project>stray</Project>`,
			want: ErrUnexpectedContent,
		},
		{
			name: "text inside item group",
			doc:  `<Project><ItemGroup>stray</ItemGroup></Project>`,
			want: ErrUnexpectedContent,
		},
		{
			name: "comment before root",
			doc:  `<!-- license --><Project />`,
			want: ErrUnexpectedContent,
		},
		{
			name: "comment inside task",
			doc:  `<Project><Target Name="B"><T P="1"><!-- no slot here --></T></Target></Project>`,
			want: ErrUnexpectedContent,
		},
		{
			name: "comment inside choose",
			doc:  `<Project><Choose><!-- branches --><When Condition="c" /></Choose></Project>`,
			want: ErrUnexpectedContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.doc)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_TrailingContent(t *testing.T) {
	// Trailing whitespace is the only thing allowed after the root.
	_, err := ParseString("<Project />\n\t \n")
	require.NoError(t, err)

	_, err = ParseString(`<Project><PropertyGroup /></Project><Project>stray</Project>`)
	require.ErrorIs(t, err, ErrUnexpectedContent)

	_, err = ParseString("<Project />trailing")
	require.ErrorIs(t, err, ErrUnexpectedContent)

	_, err = ParseString("<Project /><!-- done -->")
	require.ErrorIs(t, err, ErrUnexpectedContent)
}

func TestParse_ChooseBranchOrdering(t *testing.T) {
	_, err := ParseString(`<Project><Choose>
		<Otherwise><PropertyGroup /></Otherwise>
		<When Condition="c"><PropertyGroup /></When>
	</Choose></Project>`)
	require.ErrorIs(t, err, ErrUnexpectedContent)

	_, err = ParseString(`<Project><Choose>
		<When Condition="c" />
		<Otherwise />
		<Otherwise />
	</Choose></Project>`)
	require.ErrorIs(t, err, ErrUnexpectedContent)
}

func TestParse_WhenRequiresCondition(t *testing.T) {
	_, err := ParseString(`<Project><Choose><When><PropertyGroup /></When></Choose></Project>`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Condition")
}

func TestParse_MalformedXML(t *testing.T) {
	_, err := ParseString(`<Project><PropertyGroup>`)
	require.Error(t, err)
}

func TestParse_EmptyValueForms(t *testing.T) {
	doc := `<Project>
  <PropertyGroup>
    <SelfClosed />
    <Explicit></Explicit>
  </PropertyGroup>
</Project>`

	p, err := ParseString(doc)
	require.NoError(t, err)

	props := p.PropertyGroups[0].Properties
	require.Len(t, props, 2)
	assert.Equal(t, "", props[0].Value)
	assert.Equal(t, "", props[1].Value)
}

func TestParse_DecodedEntities(t *testing.T) {
	doc := `<Project>
  <PropertyGroup>
    <Expr Condition="&quot;a&quot; &amp; b">1 &lt; 2</Expr>
  </PropertyGroup>
</Project>`

	p, err := ParseString(doc)
	require.NoError(t, err)

	prop := p.PropertyGroups[0].Properties[0]
	assert.Equal(t, `"a" & b`, prop.Condition)
	assert.Equal(t, "1 < 2", prop.Value)
}

func TestParse_PopulatesTypedViews(t *testing.T) {
	doc := `<Project>
  <Import Project="common.props" />
  <PropertyGroup />
  <ItemGroup />
  <UsingTask TaskName="Zip" AssemblyFile="Zip.dll" />
  <Target Name="Build" />
  <Choose>
    <When Condition="c">
      <PropertyGroup />
    </When>
  </Choose>
</Project>`

	p, err := ParseString(doc)
	require.NoError(t, err)

	assert.Len(t, p.Elements, 6)
	require.Len(t, p.Imports, 1)
	require.Len(t, p.PropertyGroups, 1)
	require.Len(t, p.ItemGroups, 1)
	require.Len(t, p.UsingTasks, 1)
	require.Len(t, p.Targets, 1)
	require.Len(t, p.Chooses, 1)

	// Parsed trees pass the same gate as authored ones.
	assert.Empty(t, ValidateProject(p))
}

func TestParse_LargeWhitespaceTolerant(t *testing.T) {
	doc := "<Project>\n\n\t  \n<PropertyGroup>\n\t<A>1</A>\n</PropertyGroup>\n\n</Project>"
	p, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "1", p.PropertyGroups[0].Properties[0].Value)
}
