package models

import (
	"encoding/json"
	"strings"
	"testing"
)

const sampleSceneData = `{
  "elements": [
    {"type": "rectangle", "id": "r1", "x": 10, "y": 20, "strokeColor": "#1e1e1e"},
    {"type": "image", "id": "i1", "fileId": "file-a", "isDeleted": false, "scale": [1, 1]},
    {"type": "image", "id": "i2", "fileId": "file-b", "isDeleted": true}
  ],
  "appState": {"viewBackgroundColor": "#ffffff", "collaborators": null}
}`

func TestParseSceneData(t *testing.T) {
	scene, err := ParseSceneData(sampleSceneData)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(scene.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(scene.Elements))
	}

	if scene.Elements[0].Type != "rectangle" || scene.Elements[0].IsImage() {
		t.Fatalf("element 0 misparsed: %+v", scene.Elements[0])
	}
	if !scene.Elements[1].IsImage() || scene.Elements[1].FileID != "file-a" {
		t.Fatalf("element 1 misparsed: %+v", scene.Elements[1])
	}
	if !scene.Elements[2].IsDeleted {
		t.Fatal("element 2 should be deleted")
	}
}

func TestParseSceneDataEmpty(t *testing.T) {
	for _, data := range []string{"", "   "} {
		scene, err := ParseSceneData(data)
		if err != nil {
			t.Fatalf("parse %q: %v", data, err)
		}
		if len(scene.Elements) != 0 {
			t.Fatalf("expected empty scene, got %d elements", len(scene.Elements))
		}
	}
}

func TestSceneRoundTripPreservesOpaquePayload(t *testing.T) {
	scene, err := ParseSceneData(sampleSceneData)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	encoded, err := scene.EncodeData()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// Fields this subsystem does not interpret must survive the trip.
	if !strings.Contains(encoded, `"strokeColor":"#1e1e1e"`) {
		t.Fatalf("opaque element field lost: %s", encoded)
	}
	if !strings.Contains(encoded, `"scale":[1,1]`) {
		t.Fatalf("opaque image field lost: %s", encoded)
	}

	again, err := ParseSceneData(encoded)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if len(again.Elements) != 3 || again.Elements[1].FileID != "file-a" {
		t.Fatalf("round trip broke elements: %+v", again.Elements)
	}
}

func TestAppStateNormalize(t *testing.T) {
	t.Run("defaults collaborators", func(t *testing.T) {
		for _, raw := range []string{"", "null", `{"zoom":1}`, `{"collaborators":null}`} {
			normalized, err := AppState(raw).Normalize()
			if err != nil {
				t.Fatalf("normalize %q: %v", raw, err)
			}
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(normalized, &obj); err != nil {
				t.Fatalf("normalized %q is not an object: %v", raw, err)
			}
			if string(obj["collaborators"]) != "{}" {
				t.Fatalf("collaborators not defaulted for %q: %s", raw, obj["collaborators"])
			}
		}
	})

	t.Run("keeps existing collaborators", func(t *testing.T) {
		normalized, err := AppState(`{"collaborators":{"u1":{}}}`).Normalize()
		if err != nil {
			t.Fatalf("normalize: %v", err)
		}
		if !strings.Contains(string(normalized), `"u1"`) {
			t.Fatalf("collaborators overwritten: %s", normalized)
		}
	})

	t.Run("rejects non-object", func(t *testing.T) {
		if _, err := AppState(`[1,2]`).Normalize(); err == nil {
			t.Fatal("expected error for array app state")
		}
	})
}

func TestUsedFileIDs(t *testing.T) {
	scene, err := ParseSceneData(sampleSceneData)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	used := scene.UsedFileIDs()
	if len(used) != 1 {
		t.Fatalf("expected 1 used file id, got %v", used)
	}
	if _, ok := used["file-a"]; !ok {
		t.Fatalf("file-a should be used: %v", used)
	}
	if _, ok := used["file-b"]; ok {
		t.Fatal("deleted image element must not count as used")
	}
}

func TestNewImageElement(t *testing.T) {
	el := NewImageElement("file-x")
	if !el.IsImage() || el.IsDeleted {
		t.Fatalf("unexpected element: %+v", el)
	}

	raw, err := json.Marshal(el)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Element
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.FileID != "file-x" || decoded.Type != ElementTypeImage {
		t.Fatalf("round trip broke element: %+v", decoded)
	}
}
