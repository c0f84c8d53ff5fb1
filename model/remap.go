package model

import (
	"regexp"

	"github.com/tsawler/go-transfer/nn"
)

// Older densenet checkpoints serialized dense-layer sub-modules with an
// extra dot before the stage number ("denseblock1.denselayer1.norm.1.weight");
// current naming joins the two segments ("norm1.weight"). The rewrite joins
// the captured groups, dropping the separating dot. Already-joined keys do
// not match the pattern, so the rewrite is a fixed point.
var legacyDenseNetKeyPattern = regexp.MustCompile(
	`^(.*denselayer\d+\.(?:norm|relu|conv))\.((?:[12])\.(?:weight|bias|running_mean|running_var))$`)

// RemapLegacyDenseNetKeys rewrites legacy densenet parameter names in a
// state dict. Non-matching keys pass through untouched.
func RemapLegacyDenseNetKeys(sd nn.StateDict) nn.StateDict {
	out := make(nn.StateDict, len(sd))
	for key, tensor := range sd {
		if m := legacyDenseNetKeyPattern.FindStringSubmatch(key); m != nil {
			out[m[1]+m[2]] = tensor
		} else {
			out[key] = tensor
		}
	}
	return out
}
