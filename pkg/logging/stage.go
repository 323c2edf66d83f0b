package logging

import "time"

// StageTimer measures one pipeline stage.
type StageTimer struct {
	logger Logger
	start  time.Time
	fields []Field
}

// StartStage logs the start of stage at debug level and starts its clock.
// fields are repeated on the completion line.
func StartStage(logger Logger, stage string, fields ...Field) *StageTimer {
	preset := make([]Field, 0, len(fields)+1)
	preset = append(preset, Stage(stage))
	preset = append(preset, fields...)

	logger.Debug("stage started", preset...)
	return &StageTimer{logger: logger, start: time.Now(), fields: preset}
}

func (t *StageTimer) finish(extra ...Field) ([]Field, time.Duration) {
	elapsed := time.Since(t.start)
	all := make([]Field, 0, len(t.fields)+len(extra)+1)
	all = append(all, t.fields...)
	all = append(all, extra...)
	return append(all, Latency(elapsed)), elapsed
}

// End logs "stage completed" with the latency and returns it.
func (t *StageTimer) End(fields ...Field) time.Duration {
	all, elapsed := t.finish(fields...)
	t.logger.Info("stage completed", all...)
	return elapsed
}

// EndError logs "stage failed" with err and returns the latency.
func (t *StageTimer) EndError(err error) time.Duration {
	all, elapsed := t.finish(Error(err))
	t.logger.Error("stage failed", all...)
	return elapsed
}
