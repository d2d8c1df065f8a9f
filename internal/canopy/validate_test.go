package canopy

import "testing"

func TestRunAllPasses(t *testing.T) {
	quietWarnings(t)
	for _, c := range RunAll() {
		if !c.Pass {
			t.Errorf("%s", c.String())
		} else {
			t.Logf("%s", c.String())
		}
	}
}

func TestCheckPPFDConversion(t *testing.T) {
	c := CheckPPFDConversion()
	if !c.Pass {
		t.Fatalf("%s", c.String())
	}
	if c.Got < 4.52 || c.Got > 4.64 {
		t.Fatalf("550nm conversion factor %g outside literature range", c.Got)
	}
}

func TestCheckDeterminism(t *testing.T) {
	quietWarnings(t)
	if c := CheckDeterminism(); !c.Pass {
		t.Fatalf("%s", c.String())
	}
}
