package core

import "fmt"

// Pointee is what a variable can point at: a node, a group, a not-yet
// resolved token, or the unknown-module sentinel.
type Pointee interface {
	isPointee()
}

// RawToken is a parse-time target name that the resolver has not yet bound,
// e.g. the "C" in "x = C()" or an imported module name.
type RawToken string

func (RawToken) isPointee() {}

type unknownModule struct{}

func (unknownModule) isPointee() {}

// UnknownModule marks a receiver that is known not to resolve inside the
// project, typically a third-party import. Calls through it are dropped
// without being reported as ambiguous.
var UnknownModule Pointee = unknownModule{}

// Variable is a named reference visible inside a node's body.
type Variable struct {
	Token      string
	Points     Pointee
	LineNumber uint32
}

// NewVariable creates a variable bound to an already known pointee.
func NewVariable(token string, points Pointee, lineNumber uint32) *Variable {
	return &Variable{Token: token, Points: points, LineNumber: lineNumber}
}

// NewRawVariable creates a variable whose target is still just a name.
func NewRawVariable(token, pointsTo string, lineNumber uint32) *Variable {
	return &Variable{Token: token, Points: RawToken(pointsTo), LineNumber: lineNumber}
}

// String renders the variable for diagnostics, e.g. "obj->Obj".
func (v *Variable) String() string {
	switch p := v.Points.(type) {
	case *Node:
		return fmt.Sprintf("%s->%s", v.Token, p.Name())
	case *Group:
		return fmt.Sprintf("%s->%s", v.Token, p.Token)
	case RawToken:
		return fmt.Sprintf("%s->%s", v.Token, string(p))
	default:
		return v.Token + "->UNKNOWN_MODULE"
	}
}
