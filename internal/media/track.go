package media

// Track is descriptive metadata for a remote track. It is never used as a
// cache or storage key; fingerprints serve that purpose.
type Track struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail,omitempty"`
}
