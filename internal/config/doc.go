// Package config loads LearnFlex settings from defaults, an optional
// config.yaml and LEARNFLEX_-prefixed environment variables, then validates
// them with struct tags before any component is built.
package config
