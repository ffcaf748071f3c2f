package logging

import (
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileAppender is a ConsoleAppender writing to a size-rotated log file.
type FileAppender struct {
	*ConsoleAppender
	file *lumberjack.Logger
}

// NewFileAppender returns an appender writing to filename. The file is rotated once it reaches
// maxSizeMB megabytes and at most maxBackups old files are kept.
func NewFileAppender(filename string, maxSizeMB, maxBackups int) *FileAppender {
	file := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	return &FileAppender{
		ConsoleAppender: NewWriterAppender(file),
		file:            file,
	}
}

// Close closes the current log file.
func (fa *FileAppender) Close() error {
	return fa.file.Close()
}
