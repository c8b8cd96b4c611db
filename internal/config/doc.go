// Package config loads and merges apiguard configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (APIGUARD_FRAMEWORK, APIGUARD_SDK, APIGUARD_VERDICT, etc.)
//  3. Config file ($XDG_CONFIG_HOME/apiguard/config.yaml, or $APIGUARD_CONFIG)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write one back, and
// [SetField] to update a single key by name.
package config
