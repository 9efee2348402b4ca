// Package config holds the controller configuration model and its HCL
// loader. Precedence is: command-line flags, then the HCL config file,
// then built-in defaults.
package config
