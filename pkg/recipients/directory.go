package recipients

import "strings"

// Directory holds the owner and subscriber chat IDs. It is never modified
// after construction, so concurrent readers need no locking.
type Directory struct {
	owner       string
	subscribers []string
}

// New builds a Directory. Subscriber entries are trimmed and blanks dropped.
func New(owner string, subscribers []string) *Directory {
	subs := make([]string, 0, len(subscribers))
	for _, s := range subscribers {
		if s = strings.TrimSpace(s); s != "" {
			subs = append(subs, s)
		}
	}
	return &Directory{
		owner:       strings.TrimSpace(owner),
		subscribers: subs,
	}
}

// Parse builds a Directory from a comma separated subscriber list.
func Parse(owner, subscribers string) *Directory {
	return New(owner, strings.Split(subscribers, ","))
}

func (d *Directory) Owner() string {
	return d.owner
}

// Subscribers returns the subscribers in configuration order.
func (d *Directory) Subscribers() []string {
	out := make([]string, len(d.subscribers))
	copy(out, d.subscribers)
	return out
}

func (d *Directory) Len() int {
	return len(d.subscribers)
}
