package ontology

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"gopkg.in/yaml.v3"

	"github.com/mielalabs/mpl-magick/mpl"
)

const (
	TypeMagus  = "MAGUS"
	TypeDaemon = "DAEMON"

	maxSuggestions = 3
)

var slugPattern = regexp.MustCompile(`[^a-zA-Z0-9]`)

type Options struct {
	Paths  []string
	Logger *log.Logger
}

// Resolver answers case-insensitive entity lookups over magi and goetia
// knowledge bases. It is safe for concurrent use; Reload swaps the whole
// index at once.
type Resolver struct {
	mu      sync.RWMutex
	entries map[string]mpl.Value
	ids     []string

	paths  []string
	logger *log.Logger
}

// Load reads the given knowledge bases with a discarding logger.
func Load(paths ...string) (*Resolver, error) {
	return New(Options{Paths: paths})
}

func New(opts Options) (*Resolver, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	r := &Resolver{
		paths:  append([]string(nil), opts.Paths...),
		logger: opts.Logger.WithPrefix("ontology"),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads every source. On failure the previous index is kept.
func (r *Resolver) Reload() error {
	entries := make(map[string]mpl.Value)
	for _, path := range r.paths {
		count, err := loadFile(path, entries)
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("knowledge base not found", "path", path)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		r.logger.Info("knowledge base loaded", "path", path, "entities", count)
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	r.mu.Lock()
	r.entries = entries
	r.ids = ids
	r.mu.Unlock()
	return nil
}

func (r *Resolver) Resolve(id string) (mpl.Value, bool) {
	if id == "" {
		return mpl.NewVoid(), false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.entries[strings.ToLower(id)]
	return rec, ok
}

// IDs returns every indexed id in sorted order.
func (r *Resolver) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.ids...)
}

func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Suggest ranks known ids against a misspelled or partial one. Fuzzy
// subsequence matches come first, then ids within a small edit distance.
func (r *Resolver) Suggest(id string) []string {
	id = strings.ToLower(id)
	if id == "" {
		return nil
	}
	candidates := r.IDs()

	var out []string
	seen := make(map[string]struct{})
	add := func(s string) {
		if _, dup := seen[s]; !dup && len(out) < maxSuggestions {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}

	ranks := fuzzy.RankFindFold(id, candidates)
	sort.Sort(ranks)
	for _, rank := range ranks {
		add(rank.Target)
	}

	type near struct {
		id   string
		dist int
	}
	limit := max(1, len(id)/3)
	var nearby []near
	for _, candidate := range candidates {
		if d := fuzzy.LevenshteinDistance(id, candidate); d <= limit {
			nearby = append(nearby, near{candidate, d})
		}
	}
	sort.SliceStable(nearby, func(i, j int) bool { return nearby[i].dist < nearby[j].dist })
	for _, c := range nearby {
		add(c.id)
	}
	return out
}

func loadFile(path string, entries map[string]mpl.Value) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	doc, err := decodeDocument(path, data)
	if err != nil {
		return 0, err
	}
	before := len(entries)
	indexMagi(doc, entries)
	indexGoetia(doc, entries)
	return len(entries) - before, nil
}

func decodeDocument(path string, data []byte) (map[string]any, error) {
	var doc map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	return doc, nil
}

// indexMagi registers each magus under the first word of its name and under
// its full slug, e.g. "Hermes Trismegistus" -> hermes, hermes_trismegistus.
func indexMagi(doc map[string]any, entries map[string]mpl.Value) {
	for _, category := range asList(doc["categories"]) {
		for _, item := range asList(asMap(category)["magi"]) {
			magus := asMap(item)
			name, _ := magus["name"].(string)
			if name == "" {
				continue
			}
			record := recordOf(magus, TypeMagus)
			lower := strings.ToLower(name)
			first, _, _ := strings.Cut(lower, " ")
			entries[first] = record
			entries[slugPattern.ReplaceAllString(lower, "_")] = record
		}
	}
}

// indexGoetia registers each daemon under its name without the numeric
// prefix ("001_Bael" -> bael) and under its id.
func indexGoetia(doc map[string]any, entries map[string]mpl.Value) {
	for _, item := range asList(doc["entities"]) {
		entity := asMap(item)
		name, _ := entity["name"].(string)
		record := recordOf(entity, TypeDaemon)
		if name != "" {
			lower := strings.ToLower(name)
			if i := strings.LastIndex(lower, "_"); i >= 0 {
				lower = lower[i+1:]
			}
			entries[lower] = record
		}
		if id, ok := entity["id"]; ok && id != nil {
			entries[strings.ToLower(fmt.Sprint(id))] = record
		}
	}
}

func recordOf(fields map[string]any, kind string) mpl.Value {
	out := make(map[string]mpl.Value, len(fields)+1)
	for k, v := range fields {
		out[k] = mpl.FromGo(v)
	}
	out["_type"] = mpl.NewString(kind)
	return mpl.NewVessel(out)
}

func asList(v any) []any {
	list, _ := v.([]any)
	return list
}

func asMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out
	default:
		return nil
	}
}
