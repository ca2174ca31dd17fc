package core

// UnknownVarOwner is the owner token used when a call's receiver is not a
// simple name (e.g. a chained or computed expression). It never matches a
// variable, so such calls fall through to the global candidate search.
const UnknownVarOwner = "UNKNOWN_VAR"

// Call is a call-site observed inside a node's body. It is parse-time data;
// resolution turns it into an edge or drops it.
type Call struct {
	// Token is the callee short name, e.g. "run" for "b.run()".
	Token string

	// OwnerToken is the receiver/module the call happened on ("b" for
	// "b.run()"), empty for plain calls, or UnknownVarOwner.
	OwnerToken string

	// LineNumber is the 1-indexed call-site line.
	LineNumber uint32
}

// IsAttr reports whether the call has a receiver (obj.m() vs m()).
func (c *Call) IsAttr() bool {
	return c.OwnerToken != ""
}

// String renders the call for diagnostics, e.g. "b.run()".
func (c *Call) String() string {
	if c.IsAttr() {
		return c.OwnerToken + "." + c.Token + "()"
	}
	return c.Token + "()"
}

// MatchesVariable checks whether this call acts on the given variable and,
// if so, what it resolves to.
//
// Attribute calls match when the receiver names the variable: the target is
// then looked up among the pointed-to group's direct nodes and its inherited
// node lists. A variable pointing at an unknown module matches too - the
// caller treats that as a deliberate dead end. Inherited members injected by
// the resolver are plain node variables keyed by method token, so attribute
// calls also match those by callee token.
//
// Plain calls match by token: directly for node variables, and through the
// constructor for class-group variables (X() is a call to X's constructor).
//
// Returns the resolved *Node, UnknownModule, or nil when the variable is
// unrelated to this call.
func (c *Call) MatchesVariable(v *Variable) Pointee {
	if c.IsAttr() {
		if c.OwnerToken == v.Token {
			switch p := v.Points.(type) {
			case *Group:
				for _, n := range p.Nodes {
					if n.Token == c.Token {
						return n
					}
				}
				for _, inherited := range p.Inherits {
					for _, n := range inherited {
						if n.Token == c.Token {
							return n
						}
					}
				}
			case unknownModule:
				return UnknownModule
			}
		}
		if c.Token == v.Token {
			if n, ok := v.Points.(*Node); ok {
				return n
			}
		}
		return nil
	}
	if c.Token == v.Token {
		switch p := v.Points.(type) {
		case *Node:
			return p
		case *Group:
			if p.Type == GroupClass {
				if ctor := p.GetConstructor(); ctor != nil {
					return ctor
				}
			}
		}
	}
	return nil
}
