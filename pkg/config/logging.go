package config

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("widgy/config", "configuration")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
