package orchestration

import "testing"

func TestEvaluateExpression(t *testing.T) {
	cases := []struct {
		expression string
		want       float64
	}{
		{"2+2", 4},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"-3 + 5", 2},
		{"-(2 + 3)", -5},
		{"2^10", 1024},
		{"2^3^2", 512}, // right-associative
		{"-2^2", -4},
		{"3.5 * 2", 7},
		{"((1))", 1},
	}

	for _, tc := range cases {
		got, err := evaluateExpression(tc.expression)
		if err != nil {
			t.Errorf("evaluateExpression(%q) returned error: %v", tc.expression, err)
			continue
		}
		if got != tc.want {
			t.Errorf("evaluateExpression(%q) = %v, want %v", tc.expression, got, tc.want)
		}
	}
}

func TestEvaluateExpressionErrors(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"1 / 0",
		"2 // 2",
		"what is two plus two",
		"1 +",
		"(1 + 2",
		"1 + 2)",
		"1..2 + 3",
	}

	for _, expression := range cases {
		if _, err := evaluateExpression(expression); err == nil {
			t.Errorf("evaluateExpression(%q) expected an error", expression)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		value float64
		want  string
	}{
		{4, "4"},
		{2.5, "2.5"},
		{-0.125, "-0.125"},
		{1024, "1024"},
	}

	for _, tc := range cases {
		if got := formatNumber(tc.value); got != tc.want {
			t.Errorf("formatNumber(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}
