package main

import (
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == InputSourceStdin {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

// writeOutput writes content to a file or stdout
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == FlagDefaultOutput {
		_, err := stdout.Write(data)
		return err
	}

	return os.WriteFile(path, data, FilePermissions)
}

// loadData decodes the render bindings. JSON documents are valid YAML, so
// both are accepted. A data file takes precedence over an inline document.
func loadData(doc, filePath string) (map[string]any, error) {
	var raw []byte

	switch {
	case filePath != "":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		raw = data
	case doc != "":
		raw = []byte(doc)
	default:
		return make(map[string]any), nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return make(map[string]any), nil
	}
	if node.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New(ErrMsgDataNotMapping)
	}

	result := make(map[string]any)
	if err := node.Content[0].Decode(&result); err != nil {
		return nil, err
	}
	return result, nil
}
