// Package action defines the validated action record produced by parsing
// a model reply (C2 in the core design) and the canonical signature used
// for loop detection.
package action

import "fmt"

// Kind enumerates the action names a "do" record may carry.
type Kind string

const (
	Launch     Kind = "Launch"
	Tap        Kind = "Tap"
	DoubleTap  Kind = "Double Tap"
	LongPress  Kind = "Long Press"
	Swipe      Kind = "Swipe"
	Type       Kind = "Type"
	TypeName   Kind = "Type_Name"
	Back       Kind = "Back"
	Home       Kind = "Home"
	Wait       Kind = "Wait"
	TakeOver   Kind = "Take_over"
	Note       Kind = "Note"
	CallAPI    Kind = "Call_API"
	Interact   Kind = "Interact"
)

// knownKinds backs validation in the parser: a "do" record with an action
// name outside this set is rejected.
var knownKinds = map[Kind]bool{
	Launch: true, Tap: true, DoubleTap: true, LongPress: true, Swipe: true,
	Type: true, TypeName: true, Back: true, Home: true, Wait: true,
	TakeOver: true, Note: true, CallAPI: true, Interact: true,
}

func IsKnownKind(k Kind) bool { return knownKinds[k] }

// Metadata is the record's tag: either an in-progress step ("do") or a
// terminal one ("finish").
type Metadata string

const (
	MetaDo     Metadata = "do"
	MetaFinish Metadata = "finish"
)

// Point is a relative coordinate pair in [0, 999].
type Point struct {
	X int
	Y int
}

// Record is the validated, tagged-union action the interpreter executes.
// Only the fields relevant to Action are populated; the rest are zero
// values. Extra/unrecognized keys encountered while parsing are preserved
// in Extra for forward-compatible passthrough (e.g. to Note/Call_API).
type Record struct {
	Metadata Metadata
	Action   Kind // only meaningful when Metadata == MetaDo

	App      string
	Element  *Point
	Start    *Point
	End      *Point
	Text     string
	Duration string
	Message  string

	Extra map[string]any
}

func (r Record) String() string {
	if r.Metadata == MetaFinish {
		return fmt.Sprintf("finish(message=%q)", r.Message)
	}
	return fmt.Sprintf("do(action=%q)", r.Action)
}

// Signature returns the short canonical string used for loop detection
// (spec §4.6). It deliberately ignores fields that don't affect the
// visible effect of the action (e.g. a Tap's confirmation message).
func (r Record) Signature() string {
	if r.Metadata == MetaFinish {
		return "finish"
	}
	switch r.Action {
	case Tap:
		if r.Element != nil {
			return fmt.Sprintf("Tap:[%d,%d]", r.Element.X, r.Element.Y)
		}
		return string(r.Action)
	case DoubleTap, LongPress:
		return string(r.Action)
	case Swipe:
		if r.Start != nil && r.End != nil {
			return fmt.Sprintf("Swipe:[%d,%d]->[%d,%d]", r.Start.X, r.Start.Y, r.End.X, r.End.Y)
		}
		return string(r.Action)
	case Type, TypeName:
		return "Type:" + r.Text
	case Launch:
		return "Launch:" + r.App
	case Wait:
		return "Wait:" + r.Duration
	case TakeOver:
		return "Take_over"
	default:
		return string(r.Action)
	}
}
