// Package dotenv merges generated variables into .env files.
//
// Generated variables live in a managed block owned by one source:
//
//	# >>> devenv /cmd/devenv
//	HOSTNAME=192.168.1.20
//	PORT=3000
//	# <<< devenv /cmd/devenv
//
// Rewriting a source replaces its block and leaves the rest of the file
// alone. Keys the user set by hand outside any managed block are never
// written again.
package dotenv

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultFile is the file written when none is configured.
const DefaultFile = ".env.development.local"

const (
	beginMarker = "# >>> devenv "
	endMarker   = "# <<< devenv "
	fileMode    = 0o600
)

// Variable is one KEY=value line.
type Variable struct {
	Key   string
	Value string
}

// Result reports what a write did.
type Result struct {
	Path string
	// Written lists the keys emitted in the managed block.
	Written []string
	// Kept lists the keys left to the user's own definitions.
	Kept []string
}

// Writer writes managed blocks.
type Writer struct {
	readme string
}

// Option configures a Writer.
type Option func(*Writer)

// WithReadme adds a pointer to documentation in the block header.
func WithReadme(readme string) Option {
	return func(w *Writer) {
		w.readme = readme
	}
}

// NewWriter creates a Writer.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Add merges vars into the file at path as the block of source. A missing
// file is created. The file is replaced atomically with mode 0600.
func (w *Writer) Add(path string, vars []Variable, source string) (*Result, error) {
	content, result, err := w.Preview(path, vars, source)
	if err != nil {
		return nil, err
	}
	if err = writeFile(path, content); err != nil {
		return nil, err
	}
	log.Info().
		Str("file", path).
		Str("source", source).
		Int("written", len(result.Written)).
		Int("kept", len(result.Kept)).
		Msg("Dev env file updated")
	return result, nil
}

// Preview returns what Add would write to path.
func (w *Writer) Preview(path string, vars []Variable, source string) ([]byte, *Result, error) {
	// #nosec G304 -- the path is an operator supplied CLI flag
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, nil, errors.Wrapf(err, "failed to read %s", path)
	}

	content, result, err := w.Render(existing, vars, source)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to merge into %s", path)
	}
	result.Path = path
	return content, result, nil
}

// Render returns the merged contents of existing without touching disk.
func (w *Writer) Render(existing []byte, vars []Variable, source string) ([]byte, *Result, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, nil, errors.New("source label is required")
	}
	if strings.ContainsAny(source, "\r\n") {
		return nil, nil, errors.New("source label must be a single line")
	}

	kept, unmanaged, err := splitBlocks(existing, source)
	if err != nil {
		return nil, nil, err
	}
	userDefined, err := godotenv.Unmarshal(unmanaged)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to parse entries outside managed blocks")
	}

	result := &Result{}
	var block bytes.Buffer
	seen := make(map[string]bool, len(vars))
	for _, v := range vars {
		if err = validateKey(v.Key); err != nil {
			return nil, nil, err
		}
		if seen[v.Key] {
			return nil, nil, errors.Errorf("duplicate key %s", v.Key)
		}
		seen[v.Key] = true

		if _, ok := userDefined[v.Key]; ok {
			log.Debug().Str("key", v.Key).Msg("Keeping user defined value")
			result.Kept = append(result.Kept, v.Key)
			continue
		}
		block.WriteString(v.Key)
		block.WriteByte('=')
		block.WriteString(quote(v.Value))
		block.WriteByte('\n')
		result.Written = append(result.Written, v.Key)
	}

	var out bytes.Buffer
	out.WriteString(strings.TrimRight(kept, "\n"))
	if len(result.Written) > 0 {
		if out.Len() > 0 {
			out.WriteString("\n\n")
		}
		out.WriteString(beginMarker + source + "\n")
		if w.readme != "" {
			out.WriteString("# Generated, see " + w.readme + "\n")
		}
		out.Write(block.Bytes())
		out.WriteString(endMarker + source)
	}
	if out.Len() > 0 {
		out.WriteByte('\n')
	}
	return out.Bytes(), result, nil
}

// splitBlocks drops the block owned by source. It returns the remaining text
// and, separately, the text outside every managed block.
func splitBlocks(existing []byte, source string) (kept string, unmanaged string, err error) {
	var keptBuf, unmanagedBuf strings.Builder
	owner := ""
	skipBlank := false

	scanner := bufio.NewScanner(bytes.NewReader(existing))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if skipBlank {
			// blank line that separated the dropped block from the next one
			skipBlank = false
			if trimmed == "" {
				continue
			}
		}

		switch {
		case owner == "" && strings.HasPrefix(trimmed, beginMarker):
			owner = strings.TrimSpace(strings.TrimPrefix(trimmed, beginMarker))
		case owner != "" && trimmed == endMarker+owner:
			if owner != source {
				keptBuf.WriteString(line + "\n")
			} else {
				skipBlank = true
			}
			owner = ""
			continue
		case owner == "":
			keptBuf.WriteString(line + "\n")
			unmanagedBuf.WriteString(line + "\n")
			continue
		}

		if owner != source {
			keptBuf.WriteString(line + "\n")
		}
	}
	if err = scanner.Err(); err != nil {
		return "", "", errors.Wrap(err, "failed to read existing entries")
	}
	if owner != "" {
		return "", "", errors.Errorf("managed block %q is not closed", owner)
	}
	return keptBuf.String(), unmanagedBuf.String(), nil
}

func validateKey(key string) error {
	if key == "" {
		return errors.New("empty variable name")
	}
	for i, r := range key {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return errors.Errorf("invalid variable name %q", key)
		}
	}
	return nil
}

// quote wraps values that would not survive a dotenv parser unquoted.
// Double quotes keep $VAR references expandable.
func quote(value string) string {
	if !strings.ContainsAny(value, " \t\r\n#\"'\\`") {
		return value
	}
	replacer := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)
	return `"` + replacer.Replace(value) + `"`
}

func writeFile(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temporary file in %s", dir)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once renamed
		_ = os.Remove(tmpName)
	}()

	if _, err = tmp.Write(content); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "failed to write %s", tmpName)
	}
	if err = tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "failed to set permissions on %s", tmpName)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "failed to sync %s", tmpName)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", tmpName)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(err, "failed to replace %s", path)
	}
	return nil
}
