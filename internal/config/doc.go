// Package config loads and validates strand.json, the project
// configuration file shared by the CLI and the development server.
package config
