package api

// BoardSummary is the list-view shape of a remote board.
type BoardSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	UpdatedAt string `json:"updated_at"`
}

// Board is the full remote board record, including the serialized scene.
type Board struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Data      string `json:"data"`
	UpdatedAt string `json:"updated_at"`
}

// BoardUpdateRequest is the PUT /boards/{id} payload. Name is optional;
// Data always replaces the stored scene.
type BoardUpdateRequest struct {
	Name string `json:"name,omitempty"`
	Data string `json:"data"`
}

// BoardCreateRequest is the POST /boards payload.
type BoardCreateRequest struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// BoardCreateResponse is the POST /boards response.
type BoardCreateResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BoardFile is one downloaded attachment payload.
type BoardFile struct {
	FileID   string
	Blob     []byte
	MimeType string
}

// ErrorResponse is the error body returned by the backend.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
