package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/chipflow/internal/config"
	"github.com/vk/chipflow/internal/ctxlog"
)

// variableNamePattern is the naming convention for configuration variables.
// Keys outside it are accepted but flagged with a warning.
var variableNamePattern = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

// Builder is the concrete config.Builder implementation.
type Builder struct{}

// New creates a new configuration builder.
func New() *Builder {
	return &Builder{}
}

// Load reads and merges the design configuration at file. See the
// config.Builder interface for the contract.
func (b *Builder) Load(ctx context.Context, file string, opts config.LoadOptions) (*config.Config, string, []string, error) {
	logger := ctxlog.FromContext(ctx)

	var errs []error
	var warnings []string
	fail := func() (*config.Config, string, []string, error) {
		return nil, "", nil, &config.InvalidConfigError{
			Config:   file,
			Errors:   errs,
			Warnings: warnings,
		}
	}

	absFile, err := filepath.Abs(file)
	if err != nil {
		errs = append(errs, fmt.Errorf("resolving %s: %w", file, err))
		return fail()
	}
	designRoot := filepath.Dir(absFile)

	raw, err := os.ReadFile(absFile)
	if err != nil {
		errs = append(errs, fmt.Errorf("reading configuration file: %w", err))
		return fail()
	}

	values, decodeErrs := decodeFile(absFile, raw)
	errs = append(errs, decodeErrs...)
	if len(errs) > 0 {
		return fail()
	}
	logger.Debug("Configuration file decoded.", "file", absFile, "variables", len(values))

	meta, metaErrs := popMeta(values)
	errs = append(errs, metaErrs...)

	for key := range values {
		if !variableNamePattern.MatchString(key) {
			warnings = append(warnings, fmt.Sprintf("key %q does not follow the configuration variable naming convention", key))
		}
	}

	// Process inputs take precedence over file-level declarations.
	values["PDK"] = cty.StringVal(opts.PDK)
	if opts.SCL != "" {
		values["STD_CELL_LIBRARY"] = cty.StringVal(opts.SCL)
	}
	if opts.PDKRoot != "" {
		values["PDK_ROOT"] = cty.StringVal(opts.PDKRoot)
	}
	values["DESIGN_DIR"] = cty.StringVal(designRoot)

	// Overrides are applied last, in the order given on the command line.
	for _, override := range opts.Overrides {
		key, val, err := parseOverride(override)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		values[key] = val
	}

	if name, exists := values["DESIGN_NAME"]; !exists {
		errs = append(errs, fmt.Errorf("required variable DESIGN_NAME is missing"))
	} else if name.IsNull() || name.Type() != cty.String {
		errs = append(errs, fmt.Errorf("required variable DESIGN_NAME must be a string"))
	}

	if len(errs) > 0 {
		return fail()
	}

	cfg := &config.Config{Values: values, Meta: meta}
	logger.Debug("Configuration resolved.", "design_root", designRoot, "variables", len(values))
	return cfg, designRoot, warnings, nil
}

// decodeFile picks a frontend by file extension and translates the raw
// content into the unified value model.
func decodeFile(file string, raw []byte) (map[string]cty.Value, []error) {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".json", ".jsonc":
		return decodeJSON(raw)
	case ".yaml", ".yml":
		return decodeYAML(raw)
	case ".hcl":
		return decodeHCL(file, raw)
	default:
		return nil, []error{fmt.Errorf("unsupported configuration format %q", filepath.Ext(file))}
	}
}

// popMeta removes the "meta" entry from the decoded values and interprets
// it as the configuration metadata object.
func popMeta(values map[string]cty.Value) (config.Meta, []error) {
	var meta config.Meta

	metaVal, exists := values["meta"]
	delete(values, "meta")
	if !exists || metaVal.IsNull() {
		return meta, nil
	}

	if !metaVal.Type().IsObjectType() && !metaVal.Type().IsMapType() {
		return meta, []error{fmt.Errorf("'meta' must be an object")}
	}

	var errs []error
	for key, val := range metaVal.AsValueMap() {
		switch key {
		case "version":
			if val.Type() != cty.Number {
				errs = append(errs, fmt.Errorf("'meta.version' must be a number"))
				continue
			}
			version, _ := val.AsBigFloat().Int64()
			meta.Version = int(version)
		case "flow":
			spec, err := decodeFlowSpec(val)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			meta.Flow = spec
		default:
			errs = append(errs, fmt.Errorf("unknown key 'meta.%s'", key))
		}
	}
	return meta, errs
}

// decodeFlowSpec interprets a meta.flow value: a bare string names a
// registered flow, a list of strings describes an ad-hoc sequential flow.
func decodeFlowSpec(val cty.Value) (config.FlowSpec, error) {
	if val.IsNull() {
		return config.FlowSpec{}, nil
	}
	if val.Type() == cty.String {
		return config.FlowSpec{Name: val.AsString()}, nil
	}
	if !val.CanIterateElements() {
		return config.FlowSpec{}, fmt.Errorf("'meta.flow' must be a string or a list of step identifiers")
	}
	var steps []string
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if elem.IsNull() || elem.Type() != cty.String {
			return config.FlowSpec{}, fmt.Errorf("'meta.flow' step identifiers must all be strings")
		}
		steps = append(steps, elem.AsString())
	}
	if len(steps) == 0 {
		return config.FlowSpec{}, fmt.Errorf("'meta.flow' step list must not be empty")
	}
	return config.FlowSpec{Steps: steps}, nil
}
