package pipeline

import (
	"testing"

	"github.com/matzehuels/ruleflow/pkg/errors"
	"github.com/matzehuels/ruleflow/pkg/render"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"dot", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateDirection(t *testing.T) {
	for _, dir := range []string{"LR", "TB"} {
		if err := ValidateDirection(dir); err != nil {
			t.Errorf("ValidateDirection(%q) error = %v", dir, err)
		}
	}
	for _, dir := range []string{"", "lr", "RL"} {
		if err := ValidateDirection(dir); err == nil {
			t.Errorf("ValidateDirection(%q) should fail", dir)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Empty options should validate: %v", err)
	}

	if opts.Strategy != render.StrategyAuto {
		t.Errorf("Strategy = %q, want auto", opts.Strategy)
	}
	if opts.Direction != render.DirectionLR {
		t.Errorf("Direction = %q, want LR", opts.Direction)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.Scale != DefaultScale {
		t.Errorf("Scale = %v, want %v", opts.Scale, DefaultScale)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discarding logger")
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Formats: []string{"svg", "json", "svg"}}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}
	if len(opts.Formats) != 2 {
		t.Errorf("duplicate formats should be dropped: %v", opts.Formats)
	}

	first := opts.Formats
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}
	if len(opts.Formats) != len(first) {
		t.Error("Formats changed on second call")
	}
}

func TestOptionsInvalid(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"format", Options{Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
		{"direction", Options{Direction: "BT"}, errors.ErrCodeInvalidInput},
		{"scale", Options{Scale: -1}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); !errors.Is(err, tt.code) {
				t.Errorf("ValidateAndSetDefaults() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestOptionsLeaveStrategyToRunner(t *testing.T) {
	opts := Options{Strategy: "neato", Formats: []string{FormatJSON}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("ValidateAndSetDefaults() error = %v, want nil", err)
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{Direction: "TB", Detailed: true, Scale: 3}

	svg := opts.ArtifactKeyOpts(FormatSVG, "default")
	if svg.Scale != 0 {
		t.Error("scale should only be part of PNG keys")
	}
	if svg.Direction != "TB" || !svg.Detailed || svg.Renderer != "default" {
		t.Errorf("ArtifactKeyOpts() = %+v", svg)
	}
	if png := opts.ArtifactKeyOpts(FormatPNG, "default"); png.Scale != 3 {
		t.Errorf("PNG scale = %v, want 3", png.Scale)
	}
}

func TestGraphKeyOpts(t *testing.T) {
	opts := Options{Ignore: []string{"Init"}}
	if got := opts.GraphKeyOpts(); len(got.Ignore) != 1 || got.Ignore[0] != "Init" {
		t.Errorf("GraphKeyOpts() = %+v", got)
	}
}
