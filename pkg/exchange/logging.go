package exchange

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("widgy/exchange", "tree import and export")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
