// Package errmsg renders the user facing error messages shown by the admin
// and quiz front ends.
package errmsg

import "fmt"

// Type selects the message model.
type Type string

const (
	Load       Type = "load"
	Creation   Type = "creation"
	Edition    Type = "edition"
	Exclusion  Type = "exclusion"
	NotFound   Type = "notFound"
	Connection Type = "connection"
	Admin      Type = "admin"
	Default    Type = "default"
)

var verbs = map[Type]string{
	Load:      "loading",
	Creation:  "creating",
	Edition:   "editing",
	Exclusion: "deleting",
}

// Format renders message with the model of typ. category names the kind of
// item and is only used by the load, creation, edition and exclusion models.
// Unknown types fall back to the default model.
func Format(typ Type, category, message string) string {
	if verb, ok := verbs[typ]; ok {
		return fmt.Sprintf("Error %s %s: %s", verb, category, message)
	}
	switch typ {
	case NotFound:
		return fmt.Sprintf("Item %q not found!", message)
	case Connection:
		return "Connection error: " + message
	case Admin:
		return "Error: " + message + "\nContact some administrator."
	}
	return "Error: " + message
}
