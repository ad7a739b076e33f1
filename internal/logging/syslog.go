//go:build !windows && !plan9

package logging

import (
	"log/syslog"

	"go.uber.org/zap/zapcore"
)

func dialSyslog(addr, tag string) (zapcore.WriteSyncer, func() error, error) {
	w, err := syslog.Dial("udp", addr, syslog.LOG_INFO|syslog.LOG_USER, tag)
	if err != nil {
		return nil, nil, err
	}
	return zapcore.AddSync(w), w.Close, nil
}
