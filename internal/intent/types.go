// Package intent defines the typed form of an interpreted instruction and
// the normalizer that turns raw interpreter output into it.
package intent

import "fmt"

type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
	KindQuery  Kind = "query"
)

// Destructive reports whether the kind changes or removes existing records.
func (k Kind) Destructive() bool {
	return k == KindUpdate || k == KindDelete
}

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

type ResultKind string

const (
	ResultPresent ResultKind = "present"
	ResultAbsent  ResultKind = "absent"
	ResultAll     ResultKind = "all"
)

// Task tells the interpreter which family of intents the transcript belongs to.
type Task string

const (
	TaskCommand Task = "command"
	TaskQuery   Task = "query"
)

type StudentStatus struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// FilterSpec selects records. Date is a calendar day, YYYY-MM-DD.
type FilterSpec struct {
	ClassName string `json:"className,omitempty"`
	Date      string `json:"date,omitempty"`
}

func (f FilterSpec) Empty() bool { return f.ClassName == "" && f.Date == "" }

func (f FilterSpec) String() string {
	switch {
	case f.ClassName != "" && f.Date != "":
		return fmt.Sprintf("class %s on %s", f.ClassName, f.Date)
	case f.ClassName != "":
		return "class " + f.ClassName
	case f.Date != "":
		return "records on " + f.Date
	default:
		return "all records"
	}
}

type Create struct {
	ClassName string `json:"className"`
	Date      string `json:"date,omitempty"`
	// DefaultStatus applies to roster names not listed in Students.
	DefaultStatus Status          `json:"defaultStatus"`
	Students      []StudentStatus `json:"students"`
}

type RenameClass struct {
	NewClassName string `json:"newClassName"`
}

type RenameStudent struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Updates carries exactly one populated operation.
type Updates struct {
	RenameClass   *RenameClass    `json:"renameClass,omitempty"`
	RenameStudent *RenameStudent  `json:"renameStudent,omitempty"`
	SetStatuses   []StudentStatus `json:"setStatuses,omitempty"`
}

type Update struct {
	Filter  FilterSpec `json:"filter"`
	Updates Updates    `json:"updates"`
}

type Delete struct {
	Filter FilterSpec `json:"filter"`
}

type Query struct {
	Filter     FilterSpec `json:"filter"`
	ResultKind ResultKind `json:"resultKind"`
}

// Intent is a tagged union: Kind selects which one pointer is set.
type Intent struct {
	Kind   Kind    `json:"intent"`
	Create *Create `json:"create,omitempty"`
	Update *Update `json:"update,omitempty"`
	Delete *Delete `json:"delete,omitempty"`
	Query  *Query  `json:"query,omitempty"`
}

// Filter returns the filter of filtered intents and the zero filter for CREATE.
func (in Intent) Filter() FilterSpec {
	switch in.Kind {
	case KindUpdate:
		return in.Update.Filter
	case KindDelete:
		return in.Delete.Filter
	case KindQuery:
		return in.Query.Filter
	}
	return FilterSpec{}
}

// Check verifies that the tag and the populated arm agree.
func (in Intent) Check() error {
	arms := 0
	for _, set := range []bool{in.Create != nil, in.Update != nil, in.Delete != nil, in.Query != nil} {
		if set {
			arms++
		}
	}
	ok := arms == 1
	switch in.Kind {
	case KindCreate:
		ok = ok && in.Create != nil
	case KindUpdate:
		ok = ok && in.Update != nil
	case KindDelete:
		ok = ok && in.Delete != nil
	case KindQuery:
		ok = ok && in.Query != nil
	default:
		ok = false
	}
	if !ok {
		return fmt.Errorf("intent: kind %q does not match its payload", in.Kind)
	}
	return nil
}
