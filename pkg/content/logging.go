package content

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("widgy/content", "polymorphic content registry")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
