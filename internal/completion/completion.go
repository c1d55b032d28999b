package completion

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/robottwo/tern/internal/bash"
	"github.com/samber/lo"
)

const pipeToken = "|"

// Completer proposes words for the last token of a line: builtin and
// command names in command position, directories after cd, environment
// variables after $, and file names otherwise.
type Completer struct {
	builtins []string

	// Dir is the directory relative names are resolved against. Empty
	// means the process working directory.
	Dir string
}

func NewCompleter(builtins []string) *Completer {
	return &Completer{builtins: builtins}
}

// Complete returns the sorted candidates for the word being typed at the
// end of line. Each candidate replaces that word entirely; directories end
// in a slash.
func (c *Completer) Complete(line string) []string {
	word := CurrentWord(line)
	previous := bash.Tokenize(strings.TrimSuffix(line, word))

	var candidates []string
	switch {
	case strings.HasPrefix(word, "$"):
		candidates = c.envVars(word)
	case len(previous) == 0 || previous[len(previous)-1] == pipeToken:
		candidates = c.commands(word)
		if strings.Contains(word, "/") {
			candidates = append(candidates, c.files(word, false)...)
		}
	case previous[0] == "cd" && len(previous) == 1:
		candidates = c.files(word, true)
	default:
		candidates = c.files(word, false)
	}

	candidates = lo.Uniq(candidates)
	sort.Strings(candidates)
	return candidates
}

// CurrentWord is the partial token at the end of line, empty when the line
// ends with a delimiter.
func CurrentWord(line string) string {
	i := strings.LastIndexAny(line, bash.Delimiters)
	return line[i+1:]
}

func (c *Completer) commands(prefix string) []string {
	candidates := lo.Filter(c.builtins, func(name string, _ int) bool {
		return strings.HasPrefix(name, prefix)
	})
	if strings.Contains(prefix, "/") {
		return candidates
	}

	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
				continue
			}
			info, err := entry.Info()
			if err != nil || info.Mode().Perm()&0111 == 0 {
				continue
			}
			candidates = append(candidates, entry.Name())
		}
	}
	return candidates
}

func (c *Completer) files(word string, dirsOnly bool) []string {
	dirPart, base := "", word
	if i := strings.LastIndex(word, "/"); i >= 0 {
		dirPart, base = word[:i+1], word[i+1:]
	}

	searchDir := dirPart
	if searchDir == "" {
		searchDir = "."
	}
	if !filepath.IsAbs(searchDir) && c.Dir != "" {
		searchDir = filepath.Join(c.Dir, searchDir)
	}

	entries, err := os.ReadDir(searchDir)
	if err != nil {
		return nil
	}

	var candidates []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}

		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(filepath.Join(searchDir, name)); err == nil {
				isDir = info.IsDir()
			}
		}
		if dirsOnly && !isDir {
			continue
		}
		if isDir {
			name += "/"
		}
		candidates = append(candidates, dirPart+name)
	}
	return candidates
}

func (c *Completer) envVars(word string) []string {
	prefix := strings.TrimPrefix(word, "$")
	var candidates []string
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if name != "" && strings.HasPrefix(name, prefix) {
			candidates = append(candidates, "$"+name)
		}
	}
	return candidates
}

// CommonPrefix is the longest prefix shared by every candidate.
func CommonPrefix(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	prefix := candidates[0]
	for _, s := range candidates[1:] {
		for !strings.HasPrefix(s, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}
