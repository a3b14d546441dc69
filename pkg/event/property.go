package event

import "strings"

// Editable property names. The set is closed; CopyWith rejects anything else.
const (
	PropSubject     = "subject"
	PropStart       = "start"
	PropEnd         = "end"
	PropDescription = "description"
	PropLocation    = "location"
	PropStatus      = "status"
)

// IsTimeProperty reports whether editing the property changes an event's
// schedule. Time-affecting edits applied "from this point onward" split a
// series off from its untouched earlier portion.
func IsTimeProperty(property string) bool {
	switch strings.ToLower(property) {
	case PropStart, PropEnd:
		return true
	}
	return false
}

// IsKnownProperty reports whether the property name is part of the closed set.
func IsKnownProperty(property string) bool {
	switch strings.ToLower(property) {
	case PropSubject, PropStart, PropEnd, PropDescription, PropLocation, PropStatus:
		return true
	}
	return false
}
