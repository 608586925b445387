package ospf

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a logrus.Logger with text formatting and full
// timestamps, writing to w (os.Stderr when w is nil), at the given level.
// Pass an empty level to get logrus's default (Info). AreaRouter and
// PeerManager do not use it; they log through logrus's standard logger.
func NewLogger(w io.Writer, level string) (*logrus.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if level == "" {
		return l, nil
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	l.SetLevel(parsed)

	return l, nil
}

// discardLogger returns an Entry that drops everything, for tests that
// exercise AreaRouter/PeerManager without caring about log output.
func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
