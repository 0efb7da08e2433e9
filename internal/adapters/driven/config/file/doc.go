// Package file keeps configuration on disk under the filer data directory:
// config.toml and the editable prompt templates in prompts/.
package file
