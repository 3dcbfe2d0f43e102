// Package config loads and validates YAML configuration for the optionflow
// service. Values support ${VAR} environment substitution; secrets should be
// supplied via the environment rather than committed to config files.
package config
