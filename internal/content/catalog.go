// Package content loads the story catalog from YAML files and keeps it
// current while the service runs.
package content

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dailyfocus/focus/internal/focus"
)

//go:embed stories/*.yaml
var embedded embed.FS

var (
	ErrDuplicateStory = errors.New("duplicate story id")
	ErrMissingID      = errors.New("story without id")
)

type fileDoc struct {
	Stories []storyDoc `yaml:"stories"`
}

type storyDoc struct {
	ID           string        `yaml:"id"`
	Title        string        `yaml:"title"`
	Author       string        `yaml:"author"`
	Stage        int           `yaml:"stage"`
	MinDisplay   time.Duration `yaml:"minDisplay"`
	MinDisplayMs int64         `yaml:"minDisplayMs"`
	Passages     []passageDoc  `yaml:"passages"`
}

// passageDoc is either a plain string or a mapping with its own dwell time.
type passageDoc struct {
	Text       string
	MinDisplay time.Duration
	HasDwell   bool
}

func (p *passageDoc) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		p.Text = n.Value
		return nil
	}
	type plain struct {
		Text       string         `yaml:"text"`
		MinDisplay *time.Duration `yaml:"minDisplay"`
	}
	var v plain
	if err := n.Decode(&v); err != nil {
		return err
	}
	p.Text = v.Text
	if v.MinDisplay != nil {
		p.MinDisplay, p.HasDwell = *v.MinDisplay, true
	}
	return nil
}

func (d storyDoc) story() focus.Story {
	dwell := d.MinDisplay
	if dwell == 0 && d.MinDisplayMs > 0 {
		dwell = time.Duration(d.MinDisplayMs) * time.Millisecond
	}

	s := focus.Story{
		ID:       d.ID,
		Title:    d.Title,
		Author:   d.Author,
		Stage:    d.Stage,
		Passages: make([]focus.Passage, 0, len(d.Passages)),
	}
	for i, p := range d.Passages {
		pd := dwell
		if p.HasDwell {
			pd = p.MinDisplay
		}
		s.Passages = append(s.Passages, focus.Passage{
			ID:         fmt.Sprintf("%s-p%d", d.ID, i+1),
			Text:       strings.TrimSpace(p.Text),
			MinDisplay: max(pd, 0),
		})
	}
	return s
}

// Parse decodes the stories of one YAML document.
func Parse(data []byte) ([]focus.Story, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding stories: %w", err)
	}
	out := make([]focus.Story, 0, len(doc.Stories))
	for _, d := range doc.Stories {
		if d.ID == "" {
			return nil, fmt.Errorf("%w (title %q)", ErrMissingID, d.Title)
		}
		out = append(out, d.story())
	}
	return out, nil
}

// Load reads every *.yaml and *.yml file at the root of fsys. Stories are
// ordered by stage, then id.
func Load(fsys fs.FS) ([]focus.Story, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("listing stories: %w", err)
	}

	var (
		stories []focus.Story
		seen    = make(map[string]string)
	)
	for _, e := range entries {
		ext := path.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		parsed, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		for _, s := range parsed {
			if prev, dup := seen[s.ID]; dup {
				return nil, fmt.Errorf("%w %q in %s and %s", ErrDuplicateStory, s.ID, prev, e.Name())
			}
			seen[s.ID] = e.Name()
		}
		stories = append(stories, parsed...)
	}

	sort.SliceStable(stories, func(i, j int) bool {
		if stories[i].Stage != stories[j].Stage {
			return stories[i].Stage < stories[j].Stage
		}
		return stories[i].ID < stories[j].ID
	})
	return stories, nil
}

// Default returns the stories bundled with the binary.
func Default() []focus.Story {
	sub, err := fs.Sub(embedded, "stories")
	if err != nil {
		panic(err)
	}
	stories, err := Load(sub)
	if err != nil {
		panic(fmt.Sprintf("content: bundled stories: %v", err))
	}
	return stories
}

// Catalog is a concurrency-safe, replaceable set of stories.
type Catalog struct {
	mu      sync.RWMutex
	stories []focus.Story
	byID    map[string]int
}

func NewCatalog(stories []focus.Story) *Catalog {
	c := &Catalog{}
	c.Replace(stories)
	return c
}

// Replace swaps the whole catalog. Sessions already running keep the story
// value they started with.
func (c *Catalog) Replace(stories []focus.Story) {
	byID := make(map[string]int, len(stories))
	for i, s := range stories {
		byID[s.ID] = i
	}
	c.mu.Lock()
	c.stories = stories
	c.byID = byID
	c.mu.Unlock()
}

func (c *Catalog) Story(id string) (focus.Story, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return focus.Story{}, false
	}
	return c.stories[i], true
}

// Stories returns the catalog in stable order.
func (c *Catalog) Stories() []focus.Story {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]focus.Story(nil), c.stories...)
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stories)
}
