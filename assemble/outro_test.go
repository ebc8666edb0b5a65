package assemble

import (
	"context"
	"strings"
	"testing"
)

func TestOutroFilter(t *testing.T) {
	got := outroFilter(19.2, 1920, 1080, "F1 BURNOUTS", "/fonts/f1.ttf")

	for _, want := range []string{
		"Sources & References in Description",
		"enable='lt(t,5)'",
		"enable='gte(t,5)'",
		"F1 BURNOUTS",
		"fontcolor=#E8002D",
		"fade=t=in:st=0:d=0.5",
		"fade=t=out:st=18.7:d=0.5",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("filter missing %q:\n%s", want, got)
		}
	}
}

func TestOutroFilter_4KSizes(t *testing.T) {
	got := outroFilter(10, 3840, 2160, "F1 BURNOUTS", "/fonts/f1.ttf")

	if !strings.Contains(got, "fontsize=96") || !strings.Contains(got, "fontsize=72") {
		t.Errorf("4K filter should scale text up:\n%s", got)
	}
}

func TestRenderOutro_SkipsWithoutAudio(t *testing.T) {
	a, project := testAssembler(t)

	rendered, err := a.RenderOutro(context.Background(), project)
	if err != nil {
		t.Fatalf("RenderOutro() error = %v", err)
	}
	if rendered {
		t.Error("RenderOutro() = true without the shared outro audio")
	}
}
