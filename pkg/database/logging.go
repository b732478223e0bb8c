package database

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("widgy/database", "relational persistence")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
