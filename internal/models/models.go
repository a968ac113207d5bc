package models

// Entry represents a single item extracted from a feed or an HTML page.
type Entry struct {
	Source    string `json:"source"`
	Title     string `json:"title"`
	Link      string `json:"link"`
	UID       string `json:"uid"`       // dedup identity: guid/id, else link, else title
	Published string `json:"published,omitempty"`
}

// Item is the public shape of an entry as exposed in the status file.
type Item struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published,omitempty"`
	UID       string `json:"uid"`
}

// PublicItem converts an entry into its status-file representation.
func (e Entry) PublicItem() Item {
	return Item{
		Title:     e.Title,
		Link:      e.Link,
		Published: e.Published,
		UID:       e.UID,
	}
}

// Alert is a single notification to be delivered locally.
type Alert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Link  string `json:"link,omitempty"`
}

// Status is a typed view of the persisted status snapshot. External viewers
// read the same JSON; the engine itself writes it field-by-field via merge.
type Status struct {
	OK             bool              `json:"ok"`
	StartedAt      string            `json:"started_at,omitempty"`
	UpdatedAt      string            `json:"updated_at,omitempty"`
	PID            int               `json:"pid,omitempty"`
	Note           string            `json:"note,omitempty"`
	CheckedSources int               `json:"checked_sources"`
	Hits           int               `json:"hits"`
	LastError      string            `json:"last_error,omitempty"`
	LatestItems    map[string][]Item `json:"latest_items,omitempty"`
	LastHitAt      string            `json:"last_hit_at,omitempty"`
	LastHitTitle   string            `json:"last_hit_title,omitempty"`
	LastHitLink    string            `json:"last_hit_link,omitempty"`
	LastHitSource  string            `json:"last_hit_source,omitempty"`
}
