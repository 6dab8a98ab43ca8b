// Package config loads the portguard configuration file, which maps
// human-readable lock names to the loopback ports that serve as their
// rendezvous points.
//
// Two formats are supported, dispatched by file extension:
//   - YAML (portguard.yaml / portguard.yml) via gopkg.in/yaml.v3
//   - JSON with comments (portguard.jsonc / portguard.json) via
//     github.com/tidwall/jsonc + encoding/json
//
// The configuration is optional: every CLI command also accepts a raw
// --port flag. Named locks exist so a team can agree on port assignments
// once and refer to them by name afterwards.
package config
