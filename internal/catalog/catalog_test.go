package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadScenarioFile(t *testing.T) {
	path := writeCatalog(t, `{
		"cyberbullying_scenarios": [
			{
				"id": 1,
				"scenario": "Group chat exclusion",
				"bullying_type": "exclusion",
				"age_group": "13-15",
				"mini_story": "A new student is frozen out.",
				"conversation": [
					{"role": "Alex", "text": "don't add her"},
					{"role": "Sam", "text": "lol ok"}
				]
			},
			{
				"id": 2,
				"scenario": "Name calling",
				"bullying_type": "harassment",
				"age_group": "13-15",
				"conversation": []
			}
		]
	}`)

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cat.Len() != 2 {
		t.Fatalf("Len = %d, want 2", cat.Len())
	}

	first := cat.At(0)
	if first.ID != "1" {
		t.Errorf("integer id not normalized: %q", first.ID)
	}
	if first.Scenario != "Group chat exclusion" || first.MiniStory == "" {
		t.Errorf("item = %+v", first)
	}
	if len(first.Conversation) != 2 || first.Conversation[0].Sender != "Alex" {
		t.Errorf("role not normalized to sender: %+v", first.Conversation)
	}
}

func TestLoadBareArrayWithAltFieldNames(t *testing.T) {
	path := writeCatalog(t, `[
		{
			"id": "story-a",
			"story": "Late night messages",
			"source": "AI-Generated",
			"conversation": [
				{"sender": "B", "message": "nobody likes you"}
			]
		}
	]`)

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	item := cat.At(0)
	if item.Scenario != "Late night messages" {
		t.Errorf("story not mapped to scenario: %+v", item)
	}
	if item.Source != "AI-Generated" {
		t.Errorf("source = %q", item.Source)
	}
	if item.Conversation[0].Text != "nobody likes you" {
		t.Errorf("message not mapped to text: %+v", item.Conversation[0])
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeCatalog(t, `{"cyberbullying_scenarios": [{]`)
	if _, err := Load(path); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestLoadEmptyListIsDegradedSuccess(t *testing.T) {
	path := writeCatalog(t, `{"cyberbullying_scenarios": []}`)
	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cat.Len() != 0 {
		t.Errorf("Len = %d, want 0", cat.Len())
	}
}

func TestLoadMissingIDRejected(t *testing.T) {
	path := writeCatalog(t, `[{"scenario": "no id", "conversation": []}]`)
	if _, err := Load(path); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestByID(t *testing.T) {
	cat := New([]Item{
		{ID: "a", Scenario: "one"},
		{ID: "b", Scenario: "two"},
	})

	item, ok := cat.ByID("b")
	if !ok || item.Scenario != "two" {
		t.Errorf("ByID(b) = %+v, %v", item, ok)
	}
	if _, ok := cat.ByID("z"); ok {
		t.Error("ByID(z) found a nonexistent item")
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	cat := New([]Item{{ID: "a"}})
	items := cat.Items()
	items[0].ID = "mutated"
	if cat.At(0).ID != "a" {
		t.Error("Items() exposed internal slice")
	}
}
