package load

// resourceQueue is an ordered collector of resource hrefs with
// deduplication, so each distinct resource is read exactly once no matter
// how many chapters share it.
type resourceQueue struct {
	items []string
	seen  map[string]bool
}

func newResourceQueue() *resourceQueue {
	return &resourceQueue{seen: make(map[string]bool)}
}

// Add records an href if it hasn't been seen before.
func (q *resourceQueue) Add(href string) {
	if q.seen[href] {
		return
	}
	q.seen[href] = true
	q.items = append(q.items, href)
}

// All returns the distinct hrefs in first-seen order.
func (q *resourceQueue) All() []string {
	return q.items
}
