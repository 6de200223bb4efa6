// Package config defines the application configuration schema, its baseline
// defaults, and the compilation of derived artifacts such as classification
// rules and permission gates. Compilation validates every entry up front so a
// broken configuration is never partially applied.
package config
