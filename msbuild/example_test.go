package msbuild_test

import (
	"fmt"

	"github.com/willibrandon/gomsbuild/msbuild"
)

// ExampleGenerateProjectXML demonstrates rendering an authored project
// tree to project XML.
func ExampleGenerateProjectXML() {
	p := &msbuild.Project{}
	g := &msbuild.PropertyGroup{}
	g.AddProperty(&msbuild.Property{Name: "Greeting", Value: "Hello"})
	p.AddPropertyGroup(g)

	out, err := msbuild.GenerateProjectXML(p, msbuild.WriteOptions{})
	if err != nil {
		panic(err)
	}
	fmt.Print(string(out))

	// Output:
	// <?xml version="1.0" encoding="UTF-8"?>
	// <Project>
	//   <PropertyGroup>
	//     <Greeting>Hello</Greeting>
	//   </PropertyGroup>
	// </Project>
}

// ExampleParse demonstrates reconstructing a project tree from XML.
func ExampleParse() {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<Project>
  <!-- compiler settings -->
  <PropertyGroup>
    <Optimize>true</Optimize>
  </PropertyGroup>
  <Target Name="Build">
    <Message Text="building" Importance="high" />
  </Target>
</Project>`

	p, err := msbuild.ParseString(doc)
	if err != nil {
		panic(err)
	}

	fmt.Printf("properties: %d\n", len(p.PropertyGroups[0].Properties))
	fmt.Printf("first target: %s\n", p.Targets[0].Name)

	// Output:
	// properties: 1
	// first target: Build
}

// ExampleValidateProject demonstrates the accumulated violation report.
func ExampleValidateProject() {
	p := &msbuild.Project{
		// Registered in the typed view but missing from the unified
		// element sequence.
		PropertyGroups: []*msbuild.PropertyGroup{{}},
	}
	p.AddTarget(&msbuild.Target{})

	for _, violation := range msbuild.ValidateProject(p) {
		fmt.Println(violation)
	}

	// Output:
	// PropertyGroup[0] is not present in Elements list
	// Target[0] has an empty Name
}
