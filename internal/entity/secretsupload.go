package entity

import "time"

// NodeResponse is the acknowledgement of a single DON node for an upload.
type NodeResponse struct {
	NodeAddress string `json:"node_address"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// SecretsUpload describes a DON-hosted secrets upload.
// Requests reference the stored secrets by slot ID and version.
type SecretsUpload struct {
	Timestamp     time.Time      `json:"ts"`
	DonID         string         `json:"don_id"`
	Owner         string         `json:"owner"`
	SlotID        uint           `json:"slot_id"`
	Version       uint64         `json:"version"`
	Expiration    time.Time      `json:"expiration"`
	Gateway       string         `json:"gateway"`
	Success       bool           `json:"success"`
	NodeResponses []NodeResponse `json:"node_responses,omitempty"`
}

// SecretsUploadRecord bundles an upload with the log index it originated from.
type SecretsUploadRecord struct {
	Index  uint64        `json:"index"`
	Upload SecretsUpload `json:"upload"`
}
