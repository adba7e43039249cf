// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the repolens config directory (~/.repolens).
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable analysis prompt templates
package file
