package registry

import (
	"github.com/dshills/revlauncher/internal/settings/java"
	"github.com/dshills/revlauncher/internal/settings/jvm"
	"github.com/dshills/revlauncher/internal/settings/schema"
)

// DefaultSchema returns the launcher's setting items. A nil detector probes
// the real environment with default settings.
func DefaultSchema(d *java.Detector) *schema.Schema {
	if d == nil {
		d = &java.Detector{}
	}
	return schema.MustNew(
		schema.Field(java.Name, d.Read),
		schema.Field(jvm.Name, jvm.Read),
	)
}
