// Package outputs holds the list models of a script's numbered outputs. A
// Collection reconciles the outputs a script run registered with the state a
// previous session persisted, serves the rows to a UI through the list-model
// protocol of ListObserver, and round-trips itself through YAML.
package outputs

import (
	"fmt"
	"iter"
	"log/slog"
	"strconv"

	"github.com/vspreview/vspreview/internal/vs"
)

// View selects which of a collection's two sequences is active.
type View int

const (
	ViewPrimary View = iota
	ViewAlternate
)

func (v View) String() string {
	if v == ViewAlternate {
		return "alternate"
	}
	return "primary"
}

// Deps are the collaborators a collection is built with. Registry and
// Events may be nil, which behaves as an empty registry and no reload
// signal.
type Deps struct {
	Registry vs.Registry
	Events   ReloadNotifier
	Observer ListObserver
	Logger   *slog.Logger
}

// Collection is the ordered list of the outputs of one kind. It is not safe
// for concurrent use.
type Collection[T Item] struct {
	kind      Kind[T]
	registry  vs.Registry
	events    ReloadNotifier
	observers []ListObserver
	logger    *slog.Logger

	primary   []T
	alternate []T
	view      View

	unsubscribe func()
	mutating    bool

	// syncPrimary runs before the primary sequence is made active again.
	syncPrimary func()
}

func NewCollection[T Item](kind Kind[T], deps Deps) *Collection[T] {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Collection[T]{
		kind:     kind,
		registry: deps.Registry,
		events:   deps.Events,
		logger:   logger.With("kind", kind.Tag),
	}
	if deps.Observer != nil {
		c.observers = append(c.observers, deps.Observer)
	}
	return c
}

func (c *Collection[T]) AddObserver(o ListObserver) {
	c.observers = append(c.observers, o)
}

// Tag is the kind tag written to persisted state.
func (c *Collection[T]) Tag() string { return c.kind.Tag }

func (c *Collection[T]) ActiveView() View { return c.view }

// Reconcile rebuilds the list from the registry. Outputs found in restored
// under their registry id are re-bound to the new source and kept, so their
// persisted state survives; other registry entries of this kind get fresh
// outputs. Restored entries the registry no longer has are dropped.
func (c *Collection[T]) Reconcile(restored map[string]T) {
	var outputs map[int]vs.Output
	if c.registry != nil {
		outputs = c.registry.Outputs()
	}

	var zero T
	items := make([]T, 0, len(outputs))
	reused := 0
	for _, id := range vs.SortedIDs(outputs) {
		src, ok := c.kind.Match(outputs[id])
		if !ok {
			continue
		}
		if out, ok := restored[strconv.Itoa(id)]; ok && out != zero {
			c.kind.Rebind(out, src, id)
			items = append(items, out)
			reused++
			continue
		}
		items = append(items, c.kind.New(src, id))
	}

	c.reset(func() {
		c.primary = items
		c.alternate = nil
		c.view = ViewPrimary
	})
	c.subscribe()

	c.logger.Debug("reconciled outputs",
		"outputs", len(items),
		"restored", reused,
		"dropped", len(restored)-reused,
	)
}

func (c *Collection[T]) subscribe() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	if c.events != nil {
		c.unsubscribe = c.events.Subscribe(c.ClearOutputs)
	}
}

// Close drops the reload subscription.
func (c *Collection[T]) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// ClearOutputs releases the source of every output. The outputs stay in
// the list.
func (c *Collection[T]) ClearOutputs() {
	for _, o := range c.primary {
		o.Clear()
	}
	for _, o := range c.alternate {
		o.Clear()
	}
}

func (c *Collection[T]) active() []T {
	if c.view == ViewAlternate {
		return c.alternate
	}
	return c.primary
}

func (c *Collection[T]) Len() int { return len(c.active()) }

func (c *Collection[T]) Get(i int) (T, error) {
	items := c.active()
	if i < 0 || i >= len(items) {
		var zero T
		return zero, &NotFoundError{What: fmt.Sprintf("%s at position %d", c.kind.Tag, i)}
	}
	return items[i], nil
}

func (c *Collection[T]) IndexOf(item T) (int, error) {
	for i, o := range c.active() {
		if o == item {
			return i, nil
		}
	}
	return -1, &NotFoundError{What: "index of " + c.kind.Tag}
}

// All iterates the active list by position.
func (c *Collection[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, o := range c.active() {
			if !yield(i, o) {
				return
			}
		}
	}
}

// Items returns a copy of the active list.
func (c *Collection[T]) Items() []T {
	items := c.active()
	out := make([]T, len(items))
	copy(out, items)
	return out
}

// Append adds item at the end of the primary list and returns its position.
// An output already holding item's registry id is replaced in place, keeping
// ids unique. The spectrum cache is dropped since it no longer covers every
// output.
func (c *Collection[T]) Append(item T) int {
	c.showPrimary()

	c.begin()
	defer c.end()

	c.alternate = nil
	for pos, o := range c.primary {
		if o.Index() == item.Index() {
			c.primary[pos] = item
			c.notify(func(o ListObserver) { o.DataChanged(pos, pos, []Role{RoleDisplay, RoleEdit, RoleUser}) })
			return pos
		}
	}

	pos := len(c.primary)
	c.notify(func(o ListObserver) { o.BeginInsertRows(pos, pos) })
	c.primary = append(c.primary, item)
	c.notify(func(o ListObserver) { o.EndInsertRows() })
	return pos
}

// Clear removes every output. An empty list reports the range (0, -1).
func (c *Collection[T]) Clear() {
	c.begin()
	defer c.end()

	last := len(c.active()) - 1
	c.notify(func(o ListObserver) { o.BeginRemoveRows(0, last) })
	c.primary = nil
	c.alternate = nil
	c.view = ViewPrimary
	c.notify(func(o ListObserver) { o.EndRemoveRows() })
}

func (c *Collection[T]) RowCount() int { return c.Len() }

func (c *Collection[T]) Data(row int, role Role) (any, bool) {
	items := c.active()
	if row < 0 || row >= len(items) {
		return nil, false
	}
	switch role {
	case RoleDisplay, RoleEdit:
		return items[row].Name(), true
	case RoleUser:
		return items[row], true
	}
	return nil, false
}

func (c *Collection[T]) Flags(row int) ItemFlags {
	if row < 0 || row >= c.Len() {
		return ItemIsEnabled
	}
	return ItemIsSelectable | ItemIsEnabled | ItemIsEditable
}

// SetData renames the output at row. It reports false without changing
// anything when the row is out of range, role is not RoleEdit or value is
// not a string.
func (c *Collection[T]) SetData(row int, value any, role Role) bool {
	if role != RoleEdit {
		return false
	}
	name, ok := value.(string)
	if !ok {
		return false
	}
	items := c.active()
	if row < 0 || row >= len(items) {
		return false
	}

	items[row].SetName(name)
	c.notify(func(o ListObserver) { o.DataChanged(row, row, []Role{role}) })
	return true
}

func (c *Collection[T]) Rename(row int, name string) bool {
	return c.SetData(row, name, RoleEdit)
}

// reset swaps the active sequence inside a model reset.
func (c *Collection[T]) reset(mutate func()) {
	c.begin()
	defer c.end()

	c.notify(func(o ListObserver) { o.BeginResetModel() })
	mutate()
	c.notify(func(o ListObserver) { o.EndResetModel() })
}

func (c *Collection[T]) showPrimary() {
	if c.view != ViewAlternate {
		return
	}
	c.reset(func() {
		if c.syncPrimary != nil {
			c.syncPrimary()
		}
		c.view = ViewPrimary
	})
}

// begin marks a mutation in progress. Observers that mutate the list from
// inside a notification would see it torn, so that panics.
func (c *Collection[T]) begin() {
	if c.mutating {
		panic(ErrReentrantMutation)
	}
	c.mutating = true
}

func (c *Collection[T]) end() { c.mutating = false }

func (c *Collection[T]) notify(fn func(ListObserver)) {
	for _, o := range c.observers {
		fn(o)
	}
}
