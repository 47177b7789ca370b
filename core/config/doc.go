// Package config loads the application configuration from environment
// variables and an optional .env file.
//
// Each subsystem owns its partial Config struct; this package composes them
// and registers their struct-tag defaults with Viper so that environment
// variables of the form SECTION_KEY map onto section.key.
package config
