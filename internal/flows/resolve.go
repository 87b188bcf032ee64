package flows

import (
	"github.com/vk/chipflow/internal/config"
	"github.com/vk/chipflow/internal/steps"
)

// DefaultFlowName is used when neither the command line nor the
// configuration's meta object declares a flow.
const DefaultFlowName = "Classic"

// Resolve determines the flow factory to instantiate. An explicit name
// from the command line wins over the configuration's meta.flow value. A
// name goes through the registry (case-insensitively); a step-id list
// always yields an ad-hoc sequential flow over exactly that list, with no
// registry lookup.
func Resolve(reg *Registry, stepReg *steps.Registry, explicit string, meta config.FlowSpec) (Factory, error) {
	spec := meta
	if explicit != "" {
		spec = config.FlowSpec{Name: explicit}
	}
	if spec.IsZero() {
		spec = config.FlowSpec{Name: DefaultFlowName}
	}

	if spec.IsSteps() {
		return Sequential("AdHoc", spec.Steps, stepReg), nil
	}

	factory, ok := reg.Get(spec.Name)
	if !ok {
		return nil, &UnknownFlowError{Name: spec.Name}
	}
	return factory, nil
}
