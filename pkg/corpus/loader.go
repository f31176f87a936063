package corpus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyName     = errors.New("item name is empty")
	ErrDuplicateID   = errors.New("duplicate item id")
	ErrUnknownFormat = errors.New("unknown corpus format")
	ErrEmptyCorpus   = errors.New("corpus file has no items")

	errStopVisit = errors.New("stop visit")
)

// Format identifies a corpus file encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatTOML
	FormatYAML
	FormatMsgpack
)

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// DetectFormat picks a format from the file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	case ".bin", ".msgpack":
		return FormatMsgpack
	default:
		return FormatUnknown
	}
}

// Load reads a corpus file, choosing the decoder from its extension.
func Load(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus %s: %w", path, err)
	}

	format := DetectFormat(path)
	items, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to decode corpus %s: %w", path, err)
	}

	c, err := New(items)
	if err != nil {
		return nil, fmt.Errorf("invalid corpus %s: %w", path, err)
	}
	log.Debugf("Loaded %d items from %s (%s)", c.Len(), path, format)
	return c, nil
}

// Decode parses raw corpus bytes in the given format.
func Decode(data []byte, format Format) ([]Item, error) {
	var items []Item
	switch format {
	case FormatTOML:
		var f File
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, err
		}
		items = f.Items
	case FormatYAML:
		var f File
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		items = f.Items
	case FormatMsgpack:
		if err := msgpack.Unmarshal(data, &items); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnknownFormat
	}

	if len(items) == 0 {
		return nil, ErrEmptyCorpus
	}
	return items, nil
}

// Encode serializes items in the given format.
func Encode(items []Item, format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(File{Items: items}); err != nil {
			return nil, err
		}
		return []byte(sb.String()), nil
	case FormatYAML:
		return yaml.Marshal(File{Items: items})
	case FormatMsgpack:
		return msgpack.Marshal(items)
	default:
		return nil, ErrUnknownFormat
	}
}

// Save writes the corpus to path, choosing the encoder from its extension.
func (c *Corpus) Save(path string) error {
	data, err := Encode(c.items, DetectFormat(path))
	if err != nil {
		return fmt.Errorf("failed to encode corpus: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write corpus %s: %w", path, err)
	}
	return nil
}
