package notifier

import "time"

// Message one webhook post.
type Message struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Embed rich block attached to a Message.
type Embed struct {
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Color       int        `json:"color"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}
