// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package loggable

import "go.uber.org/zap"

type LoggableOption func(*Loggable) error

// Loggable is embedded by sessions and mechanisms.  The zero value
// discards everything.
type Loggable struct {
	log *zap.SugaredLogger
}

func (c *Loggable) Debugf(msg string, args ...interface{}) {
	if c.log == nil {
		return
	}

	c.log.Debugf(msg, args...)
}
func (c *Loggable) Infof(msg string, args ...interface{}) {
	if c.log == nil {
		return
	}

	c.log.Infof(msg, args...)
}
func (c *Loggable) Warnf(msg string, args ...interface{}) {
	if c.log == nil {
		return
	}

	c.log.Warnf(msg, args...)
}
func (c *Loggable) Errorf(msg string, args ...interface{}) {
	if c.log == nil {
		return
	}

	c.log.Errorf(msg, args...)
}

// With returns a copy whose messages carry the extra key/value pairs.
func (c Loggable) With(keysAndValues ...interface{}) Loggable {
	if c.log == nil {
		return c
	}

	return Loggable{log: c.log.With(keysAndValues...)}
}

// Logger exposes the underlying logger, or a no-op logger.
func (c Loggable) Logger() *zap.Logger {
	if c.log == nil {
		return zap.NewNop()
	}

	return c.log.Desugar()
}

func WithLogger(l *zap.Logger) LoggableOption {
	return func(c *Loggable) error {
		if l == nil {
			c.log = nil
			return nil
		}
		c.log = l.Sugar()
		return nil
	}
}

func WithSugaredLogger(l *zap.SugaredLogger) LoggableOption {
	return func(c *Loggable) error {
		c.log = l
		return nil
	}
}
