package versioning

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("widgy/versioning", "version tracking")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
