package appfs

import (
	"embed"

	"github.com/rcos-io/portal/core"
)

// all: keeps the _-prefixed base templates in the bundle.
//
//go:embed migrations all:assets
var FS embed.FS

func init() {
	core.TemplatesFS = FS
}
