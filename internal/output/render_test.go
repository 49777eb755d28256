package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/temirov/phelcfg/internal/config"
	"github.com/temirov/phelcfg/internal/inputs"
)

func referenceConfiguration() config.BuildConfiguration {
	return config.NewBuildConfiguration().SetIgnoreWhenBuilding("performance.phel", "local.phel").Build()
}

func TestRenderConfigurationRaw(t *testing.T) {
	rendered, err := RenderConfiguration(referenceConfiguration(), FormatRaw)
	if err != nil {
		t.Fatalf("RenderConfiguration error: %v", err)
	}
	expected := strings.Join([]string{
		sourceDirectoriesLabel,
		"  src",
		testDirectoriesLabel,
		"  tests",
		ignoreWhenBuildingLabel,
		"  performance.phel",
		"  local.phel",
		"",
	}, "\n")
	if diff := cmp.Diff(expected, rendered); diff != "" {
		t.Fatalf("unexpected raw output (-want +got):\n%s", diff)
	}
}

func TestRenderConfigurationStructuredFormats(t *testing.T) {
	expected := referenceConfiguration().Document()

	renderedJSON, err := RenderConfiguration(referenceConfiguration(), FormatJSON)
	if err != nil {
		t.Fatalf("RenderConfiguration json error: %v", err)
	}
	var decodedJSON config.Document
	if err := json.Unmarshal([]byte(renderedJSON), &decodedJSON); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if diff := cmp.Diff(expected, decodedJSON); diff != "" {
		t.Fatalf("unexpected json document (-want +got):\n%s", diff)
	}

	renderedYAML, err := RenderConfiguration(referenceConfiguration(), FormatYAML)
	if err != nil {
		t.Fatalf("RenderConfiguration yaml error: %v", err)
	}
	if !strings.Contains(renderedYAML, "ignore_when_building:\n  - performance.phel\n  - local.phel\n") {
		t.Fatalf("unexpected yaml output:\n%s", renderedYAML)
	}
	var decodedYAML config.Document
	if err := yaml.Unmarshal([]byte(renderedYAML), &decodedYAML); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if diff := cmp.Diff(expected, decodedYAML); diff != "" {
		t.Fatalf("unexpected yaml document (-want +got):\n%s", diff)
	}
}

func TestRenderSourcesRaw(t *testing.T) {
	resolved := inputs.Inputs{
		SourceFiles:        []string{"src/app/core.phel", "src/main.phel"},
		IgnoredFiles:       []string{"src/local.phel"},
		TestFiles:          []string{"tests/main_test.phel"},
		MissingDirectories: []string{"lib"},
	}
	rendered, err := RenderSources(resolved, FormatRaw)
	if err != nil {
		t.Fatalf("RenderSources error: %v", err)
	}
	expected := "src/app/core.phel\nsrc/main.phel\n" +
		ignoredFilesLabel + "\n  src/local.phel\n" +
		missingDirectoriesLabel + "\n  lib\n"
	if diff := cmp.Diff(expected, rendered); diff != "" {
		t.Fatalf("unexpected raw output (-want +got):\n%s", diff)
	}
	if strings.Contains(rendered, "main_test.phel") {
		t.Fatalf("sources output must not list test files")
	}
}

func TestRenderTestsJSON(t *testing.T) {
	resolved := inputs.Inputs{
		SourceFiles:        []string{"src/main.phel"},
		TestFiles:          []string{"tests/main_test.phel"},
		MissingDirectories: []string{},
	}
	rendered, err := RenderTests(resolved, FormatJSON)
	if err != nil {
		t.Fatalf("RenderTests error: %v", err)
	}
	var decoded map[string][]string
	if err := json.Unmarshal([]byte(rendered), &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	expected := map[string][]string{
		"testFiles":          {"tests/main_test.phel"},
		"missingDirectories": {},
	}
	if diff := cmp.Diff(expected, decoded); diff != "" {
		t.Fatalf("unexpected json document (-want +got):\n%s", diff)
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	if IsSupportedFormat("xml") {
		t.Fatalf("xml should not be supported")
	}
	if _, err := RenderConfiguration(referenceConfiguration(), "xml"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestRenderEmptyInputsAsEmptyLists(t *testing.T) {
	testCases := []struct {
		name   string
		render func(inputs.Inputs, string) (string, error)
	}{
		{name: "sources", render: RenderSources},
		{name: "tests", render: RenderTests},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			renderedJSON, err := testCase.render(inputs.Inputs{}, FormatJSON)
			if err != nil {
				t.Fatalf("render json error: %v", err)
			}
			if strings.Contains(renderedJSON, "null") {
				t.Fatalf("expected empty lists in json output:\n%s", renderedJSON)
			}
			var decoded map[string][]string
			if err := json.Unmarshal([]byte(renderedJSON), &decoded); err != nil {
				t.Fatalf("decode json: %v", err)
			}
			for key, values := range decoded {
				if values == nil || len(values) != 0 {
					t.Fatalf("expected empty list for %s, got %v", key, values)
				}
			}
			renderedYAML, err := testCase.render(inputs.Inputs{}, FormatYAML)
			if err != nil {
				t.Fatalf("render yaml error: %v", err)
			}
			if !strings.Contains(renderedYAML, "missing_directories: []") {
				t.Fatalf("expected empty yaml list:\n%s", renderedYAML)
			}
		})
	}
}
