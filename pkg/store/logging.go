package store

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("widgy/store", "node store")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
