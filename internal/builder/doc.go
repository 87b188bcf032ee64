// Package builder implements the design configuration builder.
//
// The builder reads a configuration file in one of the supported formats
// (JSON with comments, YAML, or HCL), translates it into the unified cty
// value model, merges the process inputs (PDK, standard cell library, PDK
// root) and any command-line overrides on top, and validates the result.
// All validation failures are aggregated into a single
// config.InvalidConfigError so the user sees every problem at once.
package builder
