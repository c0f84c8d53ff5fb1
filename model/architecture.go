// Package model adapts pretrained backbone networks to a new class set:
// classification-head surgery, transfer-learning weight loading with
// architecture-specific key remapping, and optional parameter freezing.
package model

import (
	"errors"
	"fmt"
)

// Architecture identifies a supported backbone family.
type Architecture string

const (
	ResNet50    Architecture = "resnet50"
	DenseNet121 Architecture = "densenet121"
	InceptionV3 Architecture = "inception_v3"
	MobileNetV2 Architecture = "mobilenet_v2"
)

// FreezeMode selects the transfer-learning behavior for non-head parameters.
type FreezeMode string

const (
	// FineTuneAll leaves every parameter trainable (default).
	FineTuneAll FreezeMode = "fine_tune_all"
	// FreezeAll marks every parameter non-trainable except the
	// classification head.
	FreezeAll FreezeMode = "freeze_all"
)

var (
	// ErrNoHeadRule indicates an architecture with no known
	// head-replacement rule.
	ErrNoHeadRule = errors.New("no head-replacement rule for architecture")

	// ErrCheckpointLoad indicates an unreadable or structurally
	// incompatible transfer-learning checkpoint.
	ErrCheckpointLoad = errors.New("transfer checkpoint could not be loaded")
)

// headStrategy tags how an architecture family names its classification head.
type headStrategy int

const (
	// twoStageHead: the head is the second stage of a two-stage classifier
	// (mobilenet_v2's classifier.1).
	twoStageHead headStrategy = iota
	// namedAttributeHead: a single named classifier attribute (densenet121).
	namedAttributeHead
	// genericAttributeHead: the conventional fc attribute (resnet, inception).
	genericAttributeHead
)

type headRule struct {
	strategy headStrategy
	path     string
}

var headRules = map[Architecture]headRule{
	MobileNetV2: {twoStageHead, "classifier.1"},
	DenseNet121: {namedAttributeHead, "classifier"},
	ResNet50:    {genericAttributeHead, "fc"},
	InceptionV3: {genericAttributeHead, "fc"},
}

// HeadPath returns the dotted module path of the classification head for an
// architecture.
func HeadPath(arch Architecture) (string, error) {
	rule, ok := headRules[arch]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoHeadRule, arch)
	}
	return rule.path, nil
}
