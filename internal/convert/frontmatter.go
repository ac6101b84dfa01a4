package convert

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// NoteMeta is the small set of note fields worth round-tripping through
// YAML front matter when a proprietary note is converted to Markdown —
// front matter is the idiomatic Markdown metadata container, so the
// detection/round-trip helper lives in the core even though the conversion
// itself does not (SPEC_FULL §5).
type NoteMeta struct {
	Title      string `yaml:"title,omitempty"`
	CreateTime int64  `yaml:"create_time,omitempty"`
	ModifyTime int64  `yaml:"modify_time,omitempty"`
}

// SplitFrontMatter separates a leading YAML front-matter block from the
// Markdown body that follows it. If markdown has no front matter, body is
// the input unchanged and ok is false.
func SplitFrontMatter(markdown string) (meta NoteMeta, body string, ok bool) {
	trimmed := strings.TrimPrefix(markdown, "\n")
	if !strings.HasPrefix(trimmed, FrontMatterDelim) {
		return NoteMeta{}, markdown, false
	}

	rest := strings.TrimPrefix(trimmed, FrontMatterDelim+"\n")

	end := strings.Index(rest, "\n"+FrontMatterDelim)
	if end < 0 {
		return NoteMeta{}, markdown, false
	}

	yamlBlock := rest[:end]
	body = strings.TrimPrefix(rest[end+len(FrontMatterDelim)+1:], "\n")

	if err := yaml.Unmarshal([]byte(yamlBlock), &meta); err != nil {
		return NoteMeta{}, markdown, false
	}

	return meta, body, true
}

// JoinFrontMatter prepends a YAML front-matter block encoding meta to body.
func JoinFrontMatter(meta NoteMeta, body string) (string, error) {
	encoded, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encoding front matter: %w", err)
	}

	return FrontMatterDelim + "\n" + string(encoded) + FrontMatterDelim + "\n" + body, nil
}
