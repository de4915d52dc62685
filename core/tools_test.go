package orchestration

import (
	"regexp"
	"testing"

	"github.com/aria-voice/aria-core/core/reasoners"
)

func findQuickTool(t *testing.T, name string) reasoners.Tool {
	t.Helper()
	for _, tool := range quickResponseTools(newWeatherClient("")) {
		if tool.Function.Name == name {
			return tool
		}
	}
	t.Fatalf("quick tool %q not found", name)
	return reasoners.Tool{}
}

func TestGetTimeTool(t *testing.T) {
	tool := findQuickTool(t, "get_time")

	spokenTime := regexp.MustCompile(`^It's currently \d{1,2}:\d{2} (AM|PM)\.$`)

	result, err := tool.Execute(`{}`)
	if err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	if !spokenTime.MatchString(result) {
		t.Fatalf("expected a spoken time, got %q", result)
	}

	result, err = tool.Execute(`{"timezone": "UTC"}`)
	if err != nil {
		t.Fatalf("Execute() with timezone returned error: %v", err)
	}
	if !spokenTime.MatchString(result) {
		t.Fatalf("expected a spoken time, got %q", result)
	}

	if _, err := tool.Execute(`{"timezone": "Atlantis/Lost"}`); err == nil {
		t.Fatalf("expected an error for an unknown timezone")
	}
}

func TestCalculateTool(t *testing.T) {
	tool := findQuickTool(t, "calculate")

	result, err := tool.Execute(`{"expression": "(2+3)*4"}`)
	if err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	if result != "20" {
		t.Fatalf("expected %q, got %q", "20", result)
	}

	if _, err := tool.Execute(`{"expression": "1/0"}`); err == nil {
		t.Fatalf("expected an error for division by zero")
	}
	if _, err := tool.Execute(`not json`); err == nil {
		t.Fatalf("expected an error for malformed arguments")
	}
}

func TestConfirmActionTool(t *testing.T) {
	tool := findQuickTool(t, "confirm_action")

	result, err := tool.Execute(`{"action": "turn off the lights."}`)
	if err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	if result != "Okay, I'll turn off the lights." {
		t.Fatalf("unexpected confirmation %q", result)
	}

	if _, err := tool.Execute(`{}`); err == nil {
		t.Fatalf("expected an error for a missing action")
	}
}

func TestWeatherToolWithoutAPIKey(t *testing.T) {
	tool := findQuickTool(t, "get_weather")

	if _, err := tool.Execute(`{"location": "Zagreb"}`); err == nil {
		t.Fatalf("expected an error without a configured API key")
	}
	if _, err := tool.Execute(`{}`); err == nil {
		t.Fatalf("expected an error for a missing location")
	}
}

func TestResearchToolHandlerRefusesDirectExecution(t *testing.T) {
	if _, err := researchTool().Execute(`{"query": "anything"}`); err == nil {
		t.Fatalf("expected the research tool handler to refuse direct execution")
	}
}

func TestClampWords(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"consulting specialist agents", "consulting specialist agents"},
		{"consulting  specialist\tagents", "consulting specialist agents"},
		{"synthesizing findings from seven different sources now", "synthesizing findings from seven different"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := clampWords(tc.text, maxProgressWords); got != tc.want {
			t.Errorf("clampWords(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}
