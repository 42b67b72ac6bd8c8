// Package config provides configuration structures and utilities for texfreq.
// It defines the options for document analysis, report generation and the
// history database, and loads per-document settings from a YAML file.
package config
