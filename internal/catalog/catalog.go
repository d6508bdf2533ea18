package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ErrUnavailable indicates the catalog file is missing or malformed.
// A session cannot start without a catalog.
var ErrUnavailable = errors.New("catalog unavailable")

// Turn is a single message in a conversation.
type Turn struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Item is one reviewable conversation with its classification metadata.
// The shape is normalized at load time; the rest of the program never sees
// the raw catalog schema.
type Item struct {
	ID           string `json:"id"`
	Scenario     string `json:"scenario"`
	BullyingType string `json:"bullying_type,omitempty"`
	AgeGroup     string `json:"age_group,omitempty"`
	MiniStory    string `json:"mini_story,omitempty"`
	Source       string `json:"source,omitempty"`
	Conversation []Turn `json:"conversation"`
}

// Catalog is an ordered, immutable list of items. Load order is the
// canonical navigation order.
type Catalog struct {
	items []Item
	byID  map[string]int
}

// rawItem accepts the field-name variants the generated catalogs use.
type rawItem struct {
	ID           json.RawMessage `json:"id"`
	Scenario     string          `json:"scenario"`
	Story        string          `json:"story"`
	BullyingType string          `json:"bullying_type"`
	AgeGroup     string          `json:"age_group"`
	MiniStory    string          `json:"mini_story"`
	Source       string          `json:"source"`
	Conversation []rawTurn       `json:"conversation"`
}

type rawTurn struct {
	Sender  string `json:"sender"`
	Role    string `json:"role"`
	Text    string `json:"text"`
	Message string `json:"message"`
}

// rawFile matches both catalog layouts: an object with a scenarios key, or a
// bare top-level array.
type rawFile struct {
	Scenarios []rawItem `json:"cyberbullying_scenarios"`
}

// Load reads and normalizes a catalog file. A present-but-empty item list is
// a degraded success; a missing or unparsable file wraps ErrUnavailable.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrUnavailable, path, err)
	}

	items, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrUnavailable, path, err)
	}

	return New(items), nil
}

// New builds a Catalog from already-normalized items.
func New(items []Item) *Catalog {
	byID := make(map[string]int, len(items))
	for i, it := range items {
		if _, ok := byID[it.ID]; !ok {
			byID[it.ID] = i
		}
	}
	return &Catalog{items: items, byID: byID}
}

func parse(data []byte) ([]Item, error) {
	var file rawFile
	if err := json.Unmarshal(data, &file); err == nil && file.Scenarios != nil {
		return normalizeAll(file.Scenarios)
	}

	// Fall back to a bare top-level array.
	var arr []rawItem
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, err
	}
	return normalizeAll(arr)
}

func normalizeAll(raw []rawItem) ([]Item, error) {
	items := make([]Item, 0, len(raw))
	for i, r := range raw {
		item, err := normalize(r)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func normalize(r rawItem) (Item, error) {
	id, err := normalizeID(r.ID)
	if err != nil {
		return Item{}, err
	}

	scenario := r.Scenario
	if scenario == "" {
		scenario = r.Story
	}

	turns := make([]Turn, 0, len(r.Conversation))
	for _, t := range r.Conversation {
		sender := t.Sender
		if sender == "" {
			sender = t.Role
		}
		text := t.Text
		if text == "" {
			text = t.Message
		}
		turns = append(turns, Turn{Sender: sender, Text: text})
	}

	return Item{
		ID:           id,
		Scenario:     scenario,
		BullyingType: r.BullyingType,
		AgeGroup:     r.AgeGroup,
		MiniStory:    r.MiniStory,
		Source:       r.Source,
		Conversation: turns,
	}, nil
}

// normalizeID accepts string or integer ids and returns a stable string form.
func normalizeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errors.New("missing id")
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", errors.New("empty id")
		}
		return s, nil
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatInt(n, 10), nil
	}

	return "", fmt.Errorf("unsupported id value %s", string(raw))
}

// Len returns the number of items.
func (c *Catalog) Len() int { return len(c.items) }

// At returns the item at position i. The caller is responsible for bounds.
func (c *Catalog) At(i int) Item { return c.items[i] }

// ByID looks an item up by its stable id.
func (c *Catalog) ByID(id string) (Item, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

// Items returns a copy of the ordered item list.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}
