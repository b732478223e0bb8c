package review

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("widgy/review", "review gate")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
