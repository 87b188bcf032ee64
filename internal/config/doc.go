// Package config defines the format-agnostic design configuration model,
// along with the Builder interface for loading and merging configuration
// from various sources.
//
// The config.Config is the single source of truth handed to a flow. The
// concrete implementation of the Builder interface lives in the builder
// package; flows and steps only ever see this model.
package config
