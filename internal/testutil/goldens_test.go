package testutil

import (
	"os"
	"testing"
)

func TestFormatGoldenCasesDiscovered(t *testing.T) {
	t.Parallel()

	cases, err := FormatGoldenCases()
	if err != nil {
		t.Fatalf("FormatGoldenCases: %v", err)
	}
	if len(cases) == 0 {
		t.Fatal("expected at least one formatter golden case")
	}

	for _, c := range cases {
		if _, err := os.Stat(c.InputPath); err != nil {
			t.Fatalf("input fixture missing for %s: %v", c.Name, err)
		}
		if _, err := os.Stat(c.ExpectedPath); err != nil {
			t.Fatalf("expected fixture missing for %s: %v", c.Name, err)
		}
		if c.OptionsPath != "" {
			if _, err := os.Stat(c.OptionsPath); err != nil {
				t.Fatalf("options sidecar missing for %s: %v", c.Name, err)
			}
		}
	}
}

func TestFormatGoldenCasesSorted(t *testing.T) {
	t.Parallel()

	cases, err := FormatGoldenCases()
	if err != nil {
		t.Fatalf("FormatGoldenCases: %v", err)
	}
	for i := 1; i < len(cases); i++ {
		if cases[i-1].Name >= cases[i].Name {
			t.Fatalf("cases not sorted: %q before %q", cases[i-1].Name, cases[i].Name)
		}
	}
}
