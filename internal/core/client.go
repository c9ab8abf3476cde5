package core

// Client is a stream subscriber as seen by the core layer. Name is the
// identity used for the visibility filter; it may be empty for an
// anonymous observer, who then only sees broadcast traffic.
type Client struct {
	ID     string
	Name   string
	Events chan Event
}

// NewClient constructs a client with an initialized event channel.
func NewClient(id, name string) *Client {
	return &Client{
		ID:     id,
		Name:   name,
		Events: make(chan Event, 8),
	}
}
