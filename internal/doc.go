// Package internal contains the implementation packages of the slides CLI.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - config: Settings resolution from defaults, config files and switches
//   - discovery: Expansion of source tokens into ordered document paths
//   - presentation: The resolved presentation, document decoding, renderers
//   - watcher: File system monitoring with debouncing
//   - errors: Typed errors shared by every stage
//   - logging: Structured logging on top of log/slog
//   - version: Build information
//
// # Pipeline
//
// One build runs the packages in a fixed order:
//
//   - config turns arguments and an optional config file into Settings
//   - discovery turns Settings.Sources into a SourceList
//   - presentation bundles both and hands them to a Renderer
//   - watcher reruns the whole pipeline when a document or the config changes
//
// Nothing is carried from one build to the next.
//
// # Testing Strategy
//
//   - Unit tests next to each package, using testify
//   - Property tests with gopter behind the "property" build tag
//   - Watch rebuild tests in integration_tests behind the "integration" tag
package internal
