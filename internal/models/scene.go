package models

import "time"

// Scene is a user-owned ground plane with its texture images.
type Scene struct {
	ID               string    `json:"id"`                         // Store-generated identifier
	UserID           string    `json:"userId"`                     // Owner, supplied by the client
	Name             string    `json:"name"`                       // Display name, may be empty
	GroundWidth      float64   `json:"groundWidth"`                // Ground plane width
	GroundDepth      float64   `json:"groundDepth"`                // Ground plane depth
	Texture          string    `json:"texture"`                    // data:image/...;base64,... URI
	ThumbnailTexture string    `json:"thumbnailTexture,omitempty"` // Optional preview, same format as Texture
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Clone returns a shallow copy so callers can't mutate a store's record.
func (s *Scene) Clone() *Scene {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
