package builder

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/tidwall/jsonc"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"gopkg.in/yaml.v3"
)

// decodeJSON translates a JSON (or JSONC) configuration document into the
// unified value model. Comments and trailing commas are tolerated.
func decodeJSON(raw []byte) (map[string]cty.Value, []error) {
	cleaned := jsonc.ToJSON(raw)

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(cleaned, &doc); err != nil {
		return nil, []error{fmt.Errorf("configuration is not a JSON object: %w", err)}
	}

	values := map[string]cty.Value{}
	var errs []error
	for key, rawVal := range doc {
		val, err := jsonLiteral(rawVal)
		if err != nil {
			errs = append(errs, fmt.Errorf("value of %q: %w", key, err))
			continue
		}
		values[key] = val
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return values, nil
}

// jsonLiteral decodes a single JSON literal into a cty value.
func jsonLiteral(raw []byte) (cty.Value, error) {
	ty, err := ctyjson.ImpliedType(raw)
	if err != nil {
		return cty.NilVal, err
	}
	return ctyjson.Unmarshal(raw, ty)
}

// decodeYAML translates a YAML configuration document into the unified
// value model.
func decodeYAML(raw []byte) (map[string]cty.Value, []error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, []error{fmt.Errorf("configuration is not a YAML mapping: %w", err)}
	}

	values := map[string]cty.Value{}
	var errs []error
	for key, goVal := range doc {
		val, err := goToCty(goVal)
		if err != nil {
			errs = append(errs, fmt.Errorf("value of %q: %w", key, err))
			continue
		}
		values[key] = val
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return values, nil
}

// goToCty converts a decoded YAML value into its cty equivalent.
func goToCty(v any) (cty.Value, error) {
	switch val := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case bool:
		return cty.BoolVal(val), nil
	case int:
		return cty.NumberIntVal(int64(val)), nil
	case int64:
		return cty.NumberIntVal(val), nil
	case float64:
		return cty.NumberFloatVal(val), nil
	case string:
		return cty.StringVal(val), nil
	case []any:
		if len(val) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, 0, len(val))
		for _, item := range val {
			elem, err := goToCty(item)
			if err != nil {
				return cty.NilVal, err
			}
			elems = append(elems, elem)
		}
		return cty.TupleVal(elems), nil
	case map[string]any:
		if len(val) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(val))
		keys := make([]string, 0, len(val))
		for key := range val {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			attr, err := goToCty(val[key])
			if err != nil {
				return cty.NilVal, err
			}
			attrs[key] = attr
		}
		return cty.ObjectVal(attrs), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported value of type %T", v)
	}
}

// decodeHCL translates an HCL configuration document into the unified
// value model. Only constant top-level attributes are allowed; there is no
// evaluation context, so references and function calls are diagnostics.
func decodeHCL(filename string, raw []byte) (map[string]cty.Value, []error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(raw, filename)
	if diags.HasErrors() {
		return nil, diagErrors(diags)
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diagErrors(diags)
	}

	values := map[string]cty.Value{}
	var errs []error
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			errs = append(errs, diagErrors(diags)...)
			continue
		}
		values[name] = val
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return values, nil
}

// diagErrors flattens HCL diagnostics into plain errors, one per
// diagnostic, so they can be aggregated with failures from other stages.
func diagErrors(diags hcl.Diagnostics) []error {
	errs := make([]error, 0, len(diags))
	for _, diag := range diags {
		if diag.Severity == hcl.DiagError {
			errs = append(errs, diag)
		}
	}
	return errs
}
