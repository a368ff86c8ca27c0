package outputs

// Role selects which facet of a row Data returns or SetData edits.
type Role int

const (
	RoleDisplay Role = iota
	RoleEdit
	// RoleUser returns the output object itself.
	RoleUser
)

func (r Role) String() string {
	switch r {
	case RoleDisplay:
		return "display"
	case RoleEdit:
		return "edit"
	case RoleUser:
		return "user"
	}
	return "unknown"
}

type ItemFlags uint8

const (
	ItemIsSelectable ItemFlags = 1 << iota
	ItemIsEditable
	ItemIsEnabled
)

func (f ItemFlags) Has(flag ItemFlags) bool { return f&flag == flag }

// ListObserver receives the list-model change protocol. Begin and End calls
// always come in pairs and bracket exactly one mutation.
type ListObserver interface {
	BeginInsertRows(first, last int)
	EndInsertRows()
	BeginRemoveRows(first, last int)
	EndRemoveRows()
	BeginResetModel()
	EndResetModel()
	DataChanged(first, last int, roles []Role)
}

// BaseObserver ignores every notification. Embed it to implement only the
// calls an observer cares about.
type BaseObserver struct{}

func (BaseObserver) BeginInsertRows(first, last int)            {}
func (BaseObserver) EndInsertRows()                             {}
func (BaseObserver) BeginRemoveRows(first, last int)            {}
func (BaseObserver) EndRemoveRows()                             {}
func (BaseObserver) BeginResetModel()                           {}
func (BaseObserver) EndResetModel()                             {}
func (BaseObserver) DataChanged(first, last int, roles []Role) {}

// ReloadNotifier delivers the session reload signal. The returned function
// cancels the subscription.
type ReloadNotifier interface {
	Subscribe(fn func()) (unsubscribe func())
}
