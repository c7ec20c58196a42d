package cache

// lruNode is a node in a doubly-linked LRU list. It stores the key for O(1)
// removal from the owning map and the cost charged for the entry.
type lruNode[K comparable] struct {
	key  K
	cost int64
	prev *lruNode[K]
	next *lruNode[K]
}

// lruList orders entries by recency. The head is the most recently used,
// the tail the least. It is not safe for concurrent use.
type lruList[K comparable] struct {
	head *lruNode[K]
	tail *lruNode[K]
	len  int
}

// PushFront inserts a node for key at the front and returns it.
func (l *lruList[K]) PushFront(key K, cost int64) *lruNode[K] {
	node := &lruNode[K]{key: key, cost: cost}
	l.linkFront(node)
	return node
}

// MoveToFront marks node as most recently used.
func (l *lruList[K]) MoveToFront(node *lruNode[K]) {
	if node == l.head {
		return
	}
	l.unlink(node)
	l.linkFront(node)
}

// Remove unlinks node from the list.
func (l *lruList[K]) Remove(node *lruNode[K]) {
	l.unlink(node)
}

// Oldest returns the least recently used node, or nil if the list is empty.
func (l *lruList[K]) Oldest() *lruNode[K] {
	return l.tail
}

// Len returns the number of nodes.
func (l *lruList[K]) Len() int {
	return l.len
}

func (l *lruList[K]) linkFront(node *lruNode[K]) {
	node.prev = nil
	node.next = l.head
	if l.head != nil {
		l.head.prev = node
	} else {
		l.tail = node
	}
	l.head = node
	l.len++
}

func (l *lruList[K]) unlink(node *lruNode[K]) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	node.prev = nil
	node.next = nil
	l.len--
}
