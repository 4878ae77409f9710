package present

import (
	"github.com/matzehuels/ruleflow/pkg/errors"
	"github.com/matzehuels/ruleflow/pkg/render"
	"github.com/matzehuels/ruleflow/pkg/render/nodelink"
)

// Select resolves a strategy name to a renderer. It is meant to run once at
// startup.
//
//   - "default" always returns the in-process renderer.
//   - "external" returns the external-tool renderer, or an UNSUPPORTED error
//     when the tool is not installed.
//   - "auto" (or "") returns external when the tool resolves through
//     lookPath and default otherwise.
//
// Any other name is a configuration error (INVALID_STRATEGY) naming the
// value. A nil lookPath uses exec.LookPath.
func Select(name string, lookPath render.LookPathFunc, opts nodelink.Options) (render.Renderer, error) {
	switch name {
	case render.StrategyDefault:
		return nodelink.DefaultLayoutRenderer{Options: opts}, nil
	case render.StrategyExternal:
		if !render.HasTool(nodelink.ExternalTool, lookPath) {
			return nil, errors.New(errors.ErrCodeUnsupported, "renderer %q requires %s on PATH", name, nodelink.ExternalTool)
		}
		return nodelink.ExternalToolRenderer{Options: opts}, nil
	case render.StrategyAuto, "":
		if render.HasTool(nodelink.ExternalTool, lookPath) {
			return nodelink.ExternalToolRenderer{Options: opts}, nil
		}
		return nodelink.DefaultLayoutRenderer{Options: opts}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidStrategy, "unsupported renderer %q (must be one of: auto, default, external)", name)
	}
}
