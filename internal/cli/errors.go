package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/biggeezerdevelopment/shardjson"
)

// Stage names the part of a command that failed.
type Stage string

const (
	StageInput   Stage = "input"
	StageConfig  Stage = "config"
	StageDecode  Stage = "decode"
	StageCompare Stage = "compare"
)

// ErrMismatch is returned by compare when two decoders disagree.
var ErrMismatch = errors.New("decoders produced different trees")

// StageError is a command failure tagged with the stage it happened in.
type StageError struct {
	Stage   Stage
	Message string
	Err     error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Is matches another *StageError of the same stage.
func (e *StageError) Is(target error) bool {
	t, ok := target.(*StageError)
	if !ok {
		return false
	}
	return e.Stage == t.Stage
}

func stageErr(stage Stage, err error, format string, args ...any) *StageError {
	return &StageError{Stage: stage, Message: fmt.Sprintf(format, args...), Err: err}
}

const excerptRadius = 20

// Describe renders err for a terminal. Decode errors with a known offset get
// a line and column plus a short excerpt of data around the offset.
func Describe(err error, data []byte) string {
	var de *shardjson.Error
	if !errors.As(err, &de) || de.Offset < 0 || de.Offset > len(data) {
		return "Error: " + err.Error()
	}
	line, col := lineCol(data, de.Offset)
	from := max(0, de.Offset-excerptRadius)
	to := min(len(data), de.Offset+excerptRadius)
	return fmt.Sprintf("Error: %v (line %d, column %d)\n  near: %s",
		err, line, col, strconv.Quote(string(data[from:to])))
}

// lineCol converts a byte offset to a 1-based line and byte column.
func lineCol(data []byte, offset int) (int, int) {
	head := data[:offset]
	line := bytes.Count(head, []byte{'\n'}) + 1
	col := offset - bytes.LastIndexByte(head, '\n')
	return line, col
}
