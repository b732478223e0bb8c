package app

import (
	"fmt"
	"io"
	"os"

	"github.com/mandelsoft/logging"
	"github.com/mandelsoft/logging/logrusl"
	"github.com/mandelsoft/logging/logrusr"
	"github.com/mattn/go-isatty"

	"github.com/mandelsoft/widgy/pkg/config"
)

var REALM = logging.DefineRealm("widgy/cli", "command line client")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)

// ConfigureLogging sets up a logrus based logger writing to w.
// Colored output is used for terminals, only.
func ConfigureLogging(cfg *config.Logging, w io.Writer) error {
	level := logging.InfoLevel
	if cfg.Level != "" {
		l, err := logging.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q", cfg.Level)
		}
		level = l
	}

	logcfg := logrusl.Human(isTerminal(w))
	logger := logcfg.NewLogrus()
	logger.SetOutput(w)

	lctx := logging.DefaultContext()
	lctx.SetBaseLogger(logrusr.New(logger))
	lctx.AddRule(logging.NewConditionRule(level, logging.NewRealmPrefix("widgy")))
	for realm, v := range cfg.Realms {
		l, err := logging.ParseLevel(v)
		if err != nil {
			return fmt.Errorf("invalid log level %q for realm %q", v, realm)
		}
		lctx.AddRule(logging.NewConditionRule(l, logging.NewRealmPrefix(realm)))
	}
	log.Debug("log level {{level}}", "level", cfg.Level)
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
