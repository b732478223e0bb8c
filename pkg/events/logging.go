package events

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("widgy/events", "version change events")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
