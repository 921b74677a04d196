// Package embedregistry provides an fs.FS-based task registry (typically over embed.FS)
// that parses every YAML task manifest at construction. Lookups are map reads and need no
// locking. File names follow {name}.yaml or {name}.{env}.yaml.
package embedregistry
