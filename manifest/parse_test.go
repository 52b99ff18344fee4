package manifest

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyProject = `<?xml version="1.0" encoding="utf-8"?>
<!-- generated by Visual Studio -->
<Project ToolsVersion="15.0" DefaultTargets="Build" xmlns="http://schemas.microsoft.com/developer/msbuild/2003">
  <Import Project="$(MSBuildExtensionsPath)\$(MSBuildToolsVersion)\Microsoft.Common.props" Condition="Exists('$(MSBuildExtensionsPath)\$(MSBuildToolsVersion)\Microsoft.Common.props')" />
  <PropertyGroup Condition=" '$(Configuration)|$(Platform)' == 'Debug|x86' ">
    <OutputPath>bin\x86\Debug\</OutputPath>
  </PropertyGroup>
  <ItemGroup>
    <Compile Include="App.xaml.cs">
      <DependentUpon>App.xaml</DependentUpon>
    </Compile>
    <!-- models -->
    <Compile Include="Models\User.cs" />
  </ItemGroup>
  <ItemGroup Condition=" '$(Configuration)' == 'Debug' ">
    <Content Include="Assets\debug.png" />
  </ItemGroup>
  <ItemGroup>
    <ApplicationDefinition Include="App.xaml">
      <Generator>MSBuild:Compile</Generator>
      <SubType>Designer</SubType>
    </ApplicationDefinition>
    <Page Include="Views\Main.xaml">
      <SubType>Designer</SubType>
      <Generator>MSBuild:Compile</Generator>
    </Page>
    <PackageReference Include="Newtonsoft.Json">
      <Version>13.0.3</Version>
    </PackageReference>
  </ItemGroup>
  <Import Project="$(MSBuildToolsPath)\Microsoft.CSharp.targets" />
</Project>
`

type itemSummary struct {
	Type     BuildAction
	Include  string
	Metadata map[string]string
}

func summarize(m *Manifest) [][]itemSummary {
	var out [][]itemSummary
	for _, g := range m.ItemGroups() {
		var group []itemSummary
		for _, it := range g.Items {
			s := itemSummary{Type: it.Type, Include: it.Include, Metadata: map[string]string{}}
			for _, md := range it.Metadata {
				if !md.comment {
					s.Metadata[md.Name] = md.Value
				}
			}
			group = append(group, s)
		}
		out = append(out, group)
	}
	return out
}

func TestParse_LegacyProject(t *testing.T) {
	m, err := Parse("/proj/App/App.csproj", []byte(legacyProject))
	require.NoError(t, err)

	assert.Equal(t, StandaloneProject, m.Kind)
	groups := m.ItemGroups()
	require.Len(t, groups, 3)
	assert.Len(t, groups[0].Items, 2)
	assert.True(t, groups[1].conditional())

	dep, ok := groups[0].Items[0].Get(MetaDependentUpon)
	require.True(t, ok)
	assert.Equal(t, "App.xaml", dep)
	assert.Len(t, groups[0].Items[1].Comments, 1)

	// ApplicationDefinition and PackageReference are preserved but not managed.
	var managed []string
	for _, it := range m.Items() {
		managed = append(managed, it.Include)
	}
	assert.Equal(t, []string{"App.xaml.cs", `Models\User.cs`, `Assets\debug.png`, `Views\Main.xaml`}, managed)
}

func TestParse_RoundTripIsVerbatim(t *testing.T) {
	m, err := Parse("/proj/App/App.csproj", []byte(legacyProject))
	require.NoError(t, err)

	assert.Equal(t, legacyProject, string(m.Bytes()))
}

func TestParse_RoundTripIsSemanticallyEqual(t *testing.T) {
	source := `<Project Sdk="Microsoft.NET.Sdk"><PropertyGroup><TargetFramework>net8.0</TargetFramework></PropertyGroup><ItemGroup><Compile Include="a.cs"/><None Include="b.txt" CopyToOutputDirectory="Always"/></ItemGroup></Project>`

	m, err := Parse("/proj/App.csproj", []byte(source))
	require.NoError(t, err)

	out := m.Bytes()
	again, err := Parse("/proj/App.csproj", out)
	require.NoError(t, err)

	assert.Equal(t, summarize(m), summarize(again))
	assert.Equal(t, m.Attrs, again.Attrs)
	assert.Contains(t, string(out), "<TargetFramework>net8.0</TargetFramework>")
	assert.True(t, strings.HasPrefix(string(out), "<Project "), "no declaration is added to a source without one")
}

const templateProject = `<Project Sdk="Microsoft.NET.Sdk">

  <PropertyGroup>
    <OutputType>Exe</OutputType>
    <TargetFramework>net8.0</TargetFramework>
  </PropertyGroup>

  <ItemGroup>
    <Compile Include="A.cs" />

    <!-- tools -->
    <None Include="tool.json" />
  </ItemGroup>

</Project>
`

func TestParse_RoundTripKeepsBlankLines(t *testing.T) {
	m, err := Parse("/proj/App.csproj", []byte(templateProject))
	require.NoError(t, err)

	assert.Equal(t, templateProject, string(m.Bytes()))
}

func TestBytes_EditTouchesOnlyChangedLines(t *testing.T) {
	m, err := Parse("/proj/App.csproj", []byte(templateProject))
	require.NoError(t, err)

	m.Add(Compile, "B.cs")

	want := strings.Replace(templateProject,
		"    <None Include=\"tool.json\" />\n",
		"    <None Include=\"tool.json\" />\n    <Compile Include=\"B.cs\" />\n", 1)
	assert.Equal(t, want, string(m.Bytes()))
}

func TestBytes_RemoveKeepsSurroundingBlankLines(t *testing.T) {
	m, err := Parse("/proj/App.csproj", []byte(templateProject))
	require.NoError(t, err)

	m.Remove("A.cs", false)

	want := strings.Replace(templateProject, "\n    <Compile Include=\"A.cs\" />", "", 1)
	assert.Equal(t, want, string(m.Bytes()))
}

func TestBytes_KeepsMissingFinalNewline(t *testing.T) {
	source := "<Project>\n  <ItemGroup>\n    <Compile Include=\"a.cs\" />\n  </ItemGroup>\n</Project>"

	m, err := Parse("/proj/App.csproj", []byte(source))
	require.NoError(t, err)

	assert.Equal(t, source, string(m.Bytes()))
}

func TestParse_PreservesBOMAndCRLF(t *testing.T) {
	source := "\xEF\xBB\xBF<?xml version=\"1.0\" encoding=\"utf-8\"?>\r\n<Project>\r\n\t<ItemGroup>\r\n\t\t<Compile Include=\"a.cs\" />\r\n\t</ItemGroup>\r\n</Project>\r\n"

	m, err := Parse("/proj/App.csproj", []byte(source))
	require.NoError(t, err)
	assert.Equal(t, source, string(m.Bytes()))

	m.Add(Compile, "b.cs")
	out := m.Bytes()
	assert.True(t, bytes.HasPrefix(out, utf8BOM))
	assert.Contains(t, string(out), "\r\n\t\t<Compile Include=\"b.cs\" />\r\n\t</ItemGroup>")
}

func TestParse_ConvertsDeclaredEncoding(t *testing.T) {
	// "Café.cs" in ISO-8859-1.
	source := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n<Project>\n  <ItemGroup>\n    <Compile Include=\"Caf\xe9.cs\" />\n  </ItemGroup>\n</Project>\n")

	m, err := Parse("/proj/App.csproj", source)
	require.NoError(t, err)

	_, ok := m.Find("Café.cs")
	assert.True(t, ok)
	assert.Contains(t, string(m.Bytes()), `encoding="utf-8"`)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		notProject bool
	}{
		{name: "empty document", source: "", notProject: true},
		{name: "declaration only", source: `<?xml version="1.0"?>`, notProject: true},
		{name: "wrong root", source: `<configuration><packageSources /></configuration>`, notProject: true},
		{name: "unclosed element", source: "<Project>\n  <ItemGroup>"},
		{name: "mismatched tags", source: "<Project><ItemGroup></PropertyGroup></Project>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("/proj/App.csproj", []byte(tt.source))
			require.Error(t, err)
			assert.Equal(t, tt.notProject, errors.Is(err, ErrNotProject), "error: %v", err)
		})
	}
}

func TestParse_EmptyProject(t *testing.T) {
	m, err := Parse("/proj/App.csproj", []byte(`<Project Sdk="Microsoft.NET.Sdk" />`))
	require.NoError(t, err)
	assert.Empty(t, m.ItemGroups())

	m.Add(Compile, "a.cs")
	again, err := Parse("/proj/App.csproj", m.Bytes())
	require.NoError(t, err)
	assert.Equal(t, [][]itemSummary{{{Type: Compile, Include: "a.cs", Metadata: map[string]string{}}}}, summarize(again))
}

func TestBytes_EscapesGeneratedMarkup(t *testing.T) {
	m, err := Parse("/proj/App.csproj", []byte("<Project>\n</Project>"))
	require.NoError(t, err)

	added := m.Add(None, `R&D "notes".txt`)
	added[0].Set("Link", "a<b")

	out := string(m.Bytes())
	assert.Contains(t, out, `<None Include="R&amp;D &quot;notes&quot;.txt">`)
	assert.Contains(t, out, `<Link>a&lt;b</Link>`)

	again, err := Parse("/proj/App.csproj", []byte(out))
	require.NoError(t, err)
	it, ok := again.Find(`R&D "notes".txt`)
	require.True(t, ok)
	v, _ := it.Get("Link")
	assert.Equal(t, "a<b", v)
}
