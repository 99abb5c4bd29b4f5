package models

// MigrateLegacyClient maps old-format client records onto the current shape.
// Early records stored the display name under "company"; when such a record is
// read with an empty name, the company value becomes the name.
//
// Deprecated: remove once no pre-rename client files remain on disk.
func MigrateLegacyClient(raw map[string]any, c *Client) {
	if c.Name != "" {
		return
	}
	if company, ok := raw["company"].(string); ok && company != "" {
		c.Name = company
	}
}
