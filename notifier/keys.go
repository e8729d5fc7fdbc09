package notifier

import (
	"fmt"
	"strings"
)

// parentRole is the literal segment of by-parent keys.
const parentRole = "parent"

// reservedEntityType would make the aggregate key of one type collide with
// by-id keys of the type "all".
const reservedEntityType = "all"

var idEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

// KeyScheme derives cache keys for one entity type. Keys are computed on
// demand and are stable across restarts:
//
//	aggregate:  all:<type>
//	by id:      <type>:<id>
//	by parent:  <type>:parent:<parentID>
//	derived:    <type>:<id>:<suffix>
//
// Identifiers are escaped so an id can never forge a key of another role.
type KeyScheme struct {
	entityType string
}

// NewKeyScheme validates entityType and returns its scheme.
func NewKeyScheme(entityType string) (KeyScheme, error) {
	if entityType == "" || entityType == reservedEntityType || strings.ContainsAny(entityType, ":%") {
		return KeyScheme{}, fmt.Errorf("%w: invalid entity type %q", ErrConfiguration, entityType)
	}
	return KeyScheme{entityType: entityType}, nil
}

// EntityType returns the namespace of the scheme.
func (k KeyScheme) EntityType() string { return k.entityType }

// All returns the aggregate listing key.
func (k KeyScheme) All() string {
	return reservedEntityType + ":" + k.entityType
}

// ByID returns the key of a single entity.
func (k KeyScheme) ByID(id string) string {
	return k.entityType + ":" + idEscaper.Replace(id)
}

// ByParent returns the key of the listing scoped to parentID.
func (k KeyScheme) ByParent(parentID string) string {
	return k.entityType + ":" + parentRole + ":" + idEscaper.Replace(parentID)
}

// EntityPrefix matches the keys derived from a single entity. Escaped ids
// never contain ':', so the prefix cannot reach another entity's keys. It
// reports false for the id "parent", whose prefix would cover by-parent keys.
func (k KeyScheme) EntityPrefix(id string) (string, bool) {
	escaped := idEscaper.Replace(id)
	if escaped == "" || escaped == parentRole {
		return "", false
	}
	return k.entityType + ":" + escaped + ":", true
}
