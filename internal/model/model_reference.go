package model

import "time"

// ModelReference is a normalized entry of the model registry.
type ModelReference struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	HuggingfaceURL string    `json:"huggingfaceUrl"`
	UploadedBy     string    `json:"uploadedBy"`
	UploadedAt     time.Time `json:"uploadedAt"`
}
