package storage

import (
	"embed"
	"fmt"
)

// SchemaVersion is the schema version this build expects. Bump it for every
// incompatible change to the files under schema/.
const SchemaVersion = 1

//go:embed schema/*.sql
var schemaFS embed.FS

// InitScript is one named, idempotent DDL batch.
type InitScript struct {
	Name string
	SQL  string
}

// scriptOrder is the order scripts are applied in; later scripts may refer to
// tables created by earlier ones.
var scriptOrder = []string{
	"transactions",
	"pdu",
	"users",
	"profiles",
	"presence",
	"im",
	"room_aliases",
}

// InitScripts returns the fixed, ordered set of schema scripts.
func InitScripts() []InitScript {
	scripts := make([]InitScript, 0, len(scriptOrder))
	for _, name := range scriptOrder {
		b, err := schemaFS.ReadFile("schema/" + name + ".sql")
		if err != nil {
			// The set is compiled in, a missing file is a build defect.
			panic(fmt.Sprintf("storage: missing schema script %s: %v", name, err))
		}
		scripts = append(scripts, InitScript{Name: name, SQL: string(b)})
	}
	return scripts
}
