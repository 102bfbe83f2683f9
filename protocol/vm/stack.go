package vm

// Stack is a LIFO of items. Index 0 addresses the top.
type Stack struct {
	items     []Item // items[len(items)-1] is the top
	underflow error
}

func newStack(underflow error) *Stack {
	return &Stack{underflow: underflow}
}

// Len returns the number of items on the stack.
func (s *Stack) Len() int { return len(s.items) }

// Push adds it to the top of the stack.
func (s *Stack) Push(it Item) { s.items = append(s.items, it) }

// Pop removes and returns the top item.
func (s *Stack) Pop() (Item, error) {
	if len(s.items) == 0 {
		return nil, s.underflow
	}
	it := s.items[len(s.items)-1]
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	return it, nil
}

// Peek returns the item n positions below the top.
func (s *Stack) Peek(n int) (Item, error) {
	i, err := s.index(n)
	if err != nil {
		return nil, err
	}
	return s.items[i], nil
}

// Set replaces the item n positions below the top.
func (s *Stack) Set(n int, it Item) error {
	i, err := s.index(n)
	if err != nil {
		return err
	}
	s.items[i] = it
	return nil
}

// Remove deletes and returns the item n positions below the top.
func (s *Stack) Remove(n int) (Item, error) {
	i, err := s.index(n)
	if err != nil {
		return nil, err
	}
	it := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	return it, nil
}

// Insert places it so that it ends up n positions below the top.
// Insert(0, it) is Push(it).
func (s *Stack) Insert(n int, it Item) error {
	if n < 0 || n > len(s.items) {
		return s.underflow
	}
	i := len(s.items) - n
	s.items = append(s.items, nil)
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = it
	return nil
}

// Items returns the stack contents, top first.
func (s *Stack) Items() []Item {
	res := make([]Item, len(s.items))
	for i, it := range s.items {
		res[len(s.items)-1-i] = it
	}
	return res
}

func (s *Stack) index(n int) (int, error) {
	if n < 0 || n >= len(s.items) {
		return 0, s.underflow
	}
	return len(s.items) - 1 - n, nil
}
