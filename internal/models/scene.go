package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ElementTypeImage marks elements that reference a stored attachment blob.
const ElementTypeImage = "image"

// Element is one drawing element of a board scene.
//
// Only image elements are interpreted here; everything else is carried as
// an opaque payload and round-tripped byte-for-byte. The probed fields are
// what the sync layer needs to track attachment references.
type Element struct {
	Type      string
	FileID    string
	IsDeleted bool

	raw json.RawMessage
}

// elementProbe extracts the fields the sync layer cares about.
type elementProbe struct {
	Type      string `json:"type"`
	FileID    string `json:"fileId"`
	IsDeleted bool   `json:"isDeleted"`
}

// UnmarshalJSON keeps the full element payload and probes the tagged fields.
func (e *Element) UnmarshalJSON(data []byte) error {
	var probe elementProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("decode element: %w", err)
	}
	e.Type = probe.Type
	e.FileID = probe.FileID
	e.IsDeleted = probe.IsDeleted
	e.raw = append(e.raw[:0], data...)
	return nil
}

// MarshalJSON emits the original payload unchanged when one was decoded.
func (e Element) MarshalJSON() ([]byte, error) {
	if len(e.raw) > 0 {
		return e.raw, nil
	}
	return json.Marshal(elementProbe{
		Type:      e.Type,
		FileID:    e.FileID,
		IsDeleted: e.IsDeleted,
	})
}

// IsImage reports whether the element is a live image reference.
func (e Element) IsImage() bool {
	return e.Type == ElementTypeImage && e.FileID != ""
}

// NewImageElement creates a minimal image element referencing fileID.
// Used when a blob is imported locally rather than drawn on the canvas.
func NewImageElement(fileID string) Element {
	return Element{Type: ElementTypeImage, FileID: fileID}
}

// AppState is the opaque view/application state of a scene. It is validated
// only at the subsystem boundary and otherwise passed through untouched.
type AppState json.RawMessage

// MarshalJSON implements json.Marshaler.
func (a AppState) MarshalJSON() ([]byte, error) {
	if len(a) == 0 {
		return []byte("{}"), nil
	}
	return a, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AppState) UnmarshalJSON(data []byte) error {
	*a = append((*a)[:0], data...)
	return nil
}

// Normalize validates the blob is a JSON object and defaults the
// collaborators field to an empty map. The drawing surface chokes on a
// null collaborators list when a scene is restored.
func (a AppState) Normalize() (AppState, error) {
	if len(a) == 0 || bytes.Equal(bytes.TrimSpace(a), []byte("null")) {
		return AppState(`{"collaborators":{}}`), nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(a, &obj); err != nil {
		return nil, fmt.Errorf("app state is not a JSON object: %w", err)
	}
	collab, ok := obj["collaborators"]
	if !ok || bytes.Equal(bytes.TrimSpace(collab), []byte("null")) {
		obj["collaborators"] = json.RawMessage("{}")
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return AppState(out), nil
}

// Scene is the drawing content of one board: an ordered element sequence
// plus the opaque application state.
type Scene struct {
	Elements []Element `json:"elements"`
	AppState AppState  `json:"appState"`
}

// ParseSceneData decodes a board's serialized scene payload. An empty
// payload is a valid, empty scene (freshly created boards have no data).
func ParseSceneData(data string) (Scene, error) {
	if strings.TrimSpace(data) == "" {
		return Scene{AppState: AppState(`{"collaborators":{}}`)}, nil
	}
	var scene Scene
	if err := json.Unmarshal([]byte(data), &scene); err != nil {
		return Scene{}, fmt.Errorf("parse scene data: %w", err)
	}
	appState, err := scene.AppState.Normalize()
	if err != nil {
		return Scene{}, err
	}
	scene.AppState = appState
	return scene, nil
}

// EncodeData serializes the scene into the board data payload.
func (s Scene) EncodeData() (string, error) {
	elements := s.Elements
	if elements == nil {
		elements = []Element{}
	}
	appState, err := s.AppState.Normalize()
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(Scene{Elements: elements, AppState: appState})
	if err != nil {
		return "", fmt.Errorf("encode scene data: %w", err)
	}
	return string(out), nil
}

// UsedFileIDs returns the set of file ids referenced by live image elements.
func (s Scene) UsedFileIDs() map[string]struct{} {
	used := make(map[string]struct{})
	for _, el := range s.Elements {
		if el.IsImage() && !el.IsDeleted {
			used[el.FileID] = struct{}{}
		}
	}
	return used
}
