// Package configs provides the embedded configuration template for logsonar.
//
// The template is embedded at build time with //go:embed so it ships with
// every distribution, source builds included. `logsonar config init` writes
// it to ~/.config/logsonar/config.yaml for the user to edit.
//
// Configuration hierarchy (see internal/config/config.go Load()):
//  1. Hardcoded defaults (internal/config/config.go NewConfig())
//  2. User config (~/.config/logsonar/config.yaml)
//  3. Project config (.logsonar.yaml)
//  4. Environment variables (LOGSONAR_*)
//
// To change the template, edit the .yaml file in this directory and rebuild.
package configs

import _ "embed"

// UserConfigTemplate is the commented starting point for user/machine-level
// configuration, written by `logsonar config init`.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string
