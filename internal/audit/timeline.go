package audit

import "time"

// TimelineFilters narrows the session audit timeline.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	UserID   int64
	Event    string
	Page     int
	PageSize int
}

// TimelineRow is one recorded session event.
type TimelineRow struct {
	At        time.Time `json:"at"`
	UserID    int64     `json:"user_id"`
	SessionID string    `json:"session_id"`
	Event     string    `json:"event"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

// PagingInfo holds simple forward/backward paging metadata.
type PagingInfo struct {
	Page     int  `json:"page"`
	HasNext  bool `json:"has_next"`
	PageSize int  `json:"page_size"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result wraps one timeline page.
type Result struct {
	Rows   []TimelineRow `json:"rows"`
	Paging PagingInfo    `json:"paging"`
}
